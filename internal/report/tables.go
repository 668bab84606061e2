package report

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
)

// Table is one data table of the report, shared by the PDF and workbook output.
type Table struct {
	Sheet    string // workbook sheet name
	Title    string
	Head     []string
	Rows     [][]string
	FontSize float64
	HeadFill Color
	AltFill  *Color

	breakBefore float64 // start a new page when the cursor is below PageHeight-breakBefore
	titleGap    float64
}

func (t Table) rowHeight() float64 {
	if t.FontSize < 9 {
		return 6.5
	}
	return 7
}

var flowAvgSpeed = regexp.MustCompile(`avg\s+(\d+)\s+mph`)

// Tables returns the report tables that have data, in report order: flows,
// speeding by day, risk by hour and vehicle frequency by hour.
func Tables(ds *domain.AggregatedDataset) []Table {
	var out []Table
	for _, build := range []func(*domain.AggregatedDataset) (Table, bool){
		flowsTable, speedingTable, riskTable, frequencyTable,
	} {
		if t, ok := build(ds); ok {
			out = append(out, t)
		}
	}
	return out
}

func flowsTable(ds *domain.AggregatedDataset) (Table, bool) {
	if len(ds.TopFlowsByDirection) == 0 {
		return Table{}, false
	}
	t := Table{
		Sheet:    "Flows",
		Title:    "Top Flows by Direction",
		Head:     []string{"Rank", "Direction", "Vehicles", "Avg Speed"},
		FontSize: 9,
		HeadFill: colorNavy,
		AltFill:  &colorBoxFill,
		titleGap: 6,
	}
	for _, f := range ds.TopFlowsByDirection {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(f.Rank),
			orDash(f.Name),
			humanize.Comma(int64(f.Volume)),
			avgFromStats(f.Stats),
		})
	}
	return t, true
}

func avgFromStats(stats string) string {
	m := flowAvgSpeed.FindStringSubmatch(stats)
	if m == nil {
		return "—"
	}
	return m[1] + " mph"
}

func speedingTable(ds *domain.AggregatedDataset) (Table, bool) {
	if len(ds.SpeedingByDay) == 0 {
		return Table{}, false
	}
	limitMph := int(math.Round(ds.SpeedLimitKmh / domain.KmhPerMph))
	t := Table{
		Sheet:       "Speeding",
		Title:       fmt.Sprintf("Speeding by Day (≥%d mph)", limitMph),
		Head:        []string{"Day", "Count"},
		FontSize:    9,
		HeadFill:    colorCrimson,
		AltFill:     &colorPinkRow,
		breakBefore: 40,
		titleGap:    5,
	}
	for _, d := range ds.SpeedingByDay {
		t.Rows = append(t.Rows, []string{orDash(d.Day), strconv.Itoa(d.Count)})
	}
	return t, true
}

func riskTable(ds *domain.AggregatedDataset) (Table, bool) {
	if len(ds.RiskByHour) != 24 {
		return Table{}, false
	}
	t := Table{
		Sheet:       "Risk",
		Title:       "Risk by Hour (0=low, 4=high)",
		Head:        []string{"Hour", "Risk", "Hour", "Risk", "Hour", "Risk"},
		FontSize:    8,
		HeadFill:    colorSlate,
		breakBefore: 50,
		titleGap:    5,
	}
	for h := 0; h < 24; h += 3 {
		row := make([]string, 0, 6)
		for i := h; i < h+3; i++ {
			row = append(row, domain.HourLabel(i), strconv.Itoa(ds.RiskByHour[i]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

func frequencyTable(ds *domain.AggregatedDataset) (Table, bool) {
	if len(ds.VehicleFrequencyByHour) == 0 {
		return Table{}, false
	}
	t := Table{
		Sheet:       "Frequency",
		Title:       "Vehicle Frequency by Hour",
		Head:        []string{"Time", "Vehicles"},
		FontSize:    9,
		HeadFill:    colorNavy,
		AltFill:     &colorBoxFill,
		breakBefore: 50,
		titleGap:    5,
	}
	freq := ds.VehicleFrequencyByHour
	if len(freq) > 24 {
		freq = freq[:24]
	}
	for _, f := range freq {
		t.Rows = append(t.Rows, []string{orDash(f.Label), humanize.Comma(int64(f.Value))})
	}
	return t, true
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
