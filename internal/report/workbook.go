package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
)

const summarySheet = "Summary"

// WriteWorkbook writes a summary sheet and one sheet per report table of ds
// as an xlsx workbook.
func WriteWorkbook(ds *domain.AggregatedDataset, w io.Writer) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	summary := [][]any{
		{"Range", ds.Range},
		{"Period", ds.DateRangeLabel},
		{"Total Vehicles", ds.TotalVehicles},
		{"Violations", ds.OverLimitCount},
		{"Avg Speed (km/h)", ds.AvgSpeedKmh},
		{"Avg Speed (mph)", ds.AvgSpeedMph},
		{"Speed Limit (km/h)", ds.SpeedLimitKmh},
		{"Estimated Pedestrians", ds.EstimatedPedestrians},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	for _, t := range Tables(ds) {
		if err := writeTableSheet(f, t, bold); err != nil {
			return fmt.Errorf("write workbook: sheet %s: %w", t.Sheet, err)
		}
	}

	return f.Write(w)
}

func writeTableSheet(f *excelize.File, t Table, headStyle int) error {
	if _, err := f.NewSheet(t.Sheet); err != nil {
		return err
	}
	head := t.Head
	if err := f.SetSheetRow(t.Sheet, "A1", &head); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(t.Head), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Sheet, "A1", last, headStyle); err != nil {
		return err
	}
	for i, r := range t.Rows {
		row := r
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
