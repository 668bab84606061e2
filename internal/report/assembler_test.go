package report

import (
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
)

func weeklyDataset(t *testing.T) *domain.AggregatedDataset {
	t.Helper()
	days, err := domain.DefaultCatalog().Resolve(domain.Selector{Range: domain.RangeWeekly})
	require.NoError(t, err)

	var records []domain.VehicleCrossing
	for i := 0; i < 500; i++ {
		records = append(records, domain.VehicleCrossing{
			Hour:           i % 24,
			Class:          domain.Classes[i%3],
			EntryDirection: string(domain.Directions[i%4]),
			SpeedKmh:       float64(50 + i%40),
			DayIndex:       i % len(days),
		})
	}
	return domain.Aggregate(records, days, domain.DefaultSpeedLimitKmh, domain.RangeWeekly)
}

func texts(p Page) []string {
	var out []string
	for _, op := range p.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

func pageKinds(doc *Document) []PageKind {
	var kinds []PageKind
	for _, p := range doc.Pages {
		kinds = append(kinds, p.Kind)
	}
	return kinds
}

func TestAssemble_CoverOnlyWhenTablesEmpty(t *testing.T) {
	ds := &domain.AggregatedDataset{
		Range:          domain.RangeDaily,
		DateRangeLabel: "Oct 31",
		SpeedLimitKmh:  80,
	}

	doc, err := Assemble(ds, nil, Options{ReportType: TypeDaily})
	require.NoError(t, err)

	require.Len(t, doc.Pages, 1)
	assert.Equal(t, PageCover, doc.Pages[0].Kind)
	assert.Contains(t, texts(doc.Pages[0]), "IRIS Mobility • Page 1/1")
	assert.Equal(t, "traffic-report-daily-Oct31.pdf", doc.Filename)
}

func TestAssemble_SlicesTallRaster(t *testing.T) {
	ds := &domain.AggregatedDataset{DateRangeLabel: "Oct 31", SpeedLimitKmh: 80}
	// Scaled height is 198*3420/990 = 684mm, 2.4 content pages.
	raster := Raster{Name: "overview", Width: 990, Height: 3420}

	doc, err := Assemble(ds, []Raster{raster}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []PageKind{PageCover, PageChart, PageChart, PageChart}, pageKinds(doc))

	var sum, next float64
	for _, p := range doc.Pages[1:] {
		img := p.Ops[0]
		require.Equal(t, OpImage, img.Kind)
		assert.InDelta(t, next, img.SrcY, 1e-9, "bands are contiguous")
		assert.InDelta(t, ContentWidth, img.W, 1e-9)
		sum += img.SrcH
		next = img.SrcY + img.SrcH
	}
	assert.InDelta(t, 3420, sum, 1e-9)

	assert.InDelta(t, 1425, doc.Pages[1].Ops[0].SrcH, 1e-6)
	assert.InDelta(t, 1425, doc.Pages[2].Ops[0].SrcH, 1e-6)
	assert.InDelta(t, 570, doc.Pages[3].Ops[0].SrcH, 1e-6)
	assert.InDelta(t, ContentHeight, doc.Pages[1].Ops[0].H, 1e-6)
	assert.InDelta(t, 114, doc.Pages[3].Ops[0].H, 1e-6)
}

func TestSliceBands(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		wantPages int
	}{
		{"fits one page", 990, 1000, 1},
		{"exactly one page", 198, 285, 1},
		{"exactly two pages", 198, 570, 2},
		{"just over two pages", 198, 571, 3},
		{"very tall", 400, 4000, 7},
		{"sub-row remainder folds into last page", 201, 579, 2},
		{"zero width", 0, 400, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bands := SliceBands(tt.w, tt.h)
			require.Len(t, bands, tt.wantPages)

			var sum float64
			for _, b := range bands {
				assert.LessOrEqual(t, b.DrawH, ContentHeight+1e-9)
				assert.Positive(t, b.SrcH)
				sum += b.SrcH
			}
			if tt.wantPages > 0 {
				assert.InDelta(t, float64(tt.h), sum, 1e-9)
			}
		})
	}
}

func TestAssemble_DropsUndersizedRasters(t *testing.T) {
	ds := &domain.AggregatedDataset{SpeedLimitKmh: 80}
	rasters := []Raster{
		{Name: "blank", Width: 199, Height: 800},
		{Name: "flat", Width: 800, Height: 150},
		{Name: "ok", Width: 800, Height: 600},
	}

	doc, err := Assemble(ds, rasters, Options{})
	require.NoError(t, err)

	require.Len(t, doc.Rasters, 1)
	assert.Equal(t, "ok", doc.Rasters[0].Name)
	assert.Equal(t, []PageKind{PageCover, PageChart}, pageKinds(doc))
	assert.Equal(t, 0, doc.Pages[1].Ops[0].Raster)
}

func TestAssemble_InvalidDataset(t *testing.T) {
	_, err := Assemble(nil, nil, Options{})
	require.ErrorIs(t, err, domain.ErrInvalidDataset)

	_, err = Assemble(&domain.AggregatedDataset{TotalVehicles: -1, SpeedLimitKmh: 80}, nil, Options{})
	require.ErrorIs(t, err, domain.ErrInvalidDataset)
}

func TestAssemble_FullDataset(t *testing.T) {
	ds := weeklyDataset(t)

	doc, err := Assemble(ds, []Raster{{Name: "overview", Width: 1200, Height: 900}}, Options{ReportType: TypeWeekly})
	require.NoError(t, err)

	assert.Equal(t, []PageKind{PageCover, PageChart, PageTable, PageTable}, pageKinds(doc))
	assert.Equal(t, "traffic-report-weekly-Oct25-Oct31.pdf", doc.Filename)

	var all []string
	for _, p := range doc.Pages[2:] {
		all = append(all, texts(p)...)
	}
	joined := strings.Join(all, "\n")
	flows := strings.Index(joined, "Top Flows by Direction")
	speeding := strings.Index(joined, "Speeding by Day (≥50 mph)")
	risk := strings.Index(joined, "Risk by Hour (0=low, 4=high)")
	freq := strings.Index(joined, "Vehicle Frequency by Hour")
	require.True(t, flows >= 0 && speeding > flows && risk > speeding && freq > risk, "tables in report order")

	second := texts(doc.Pages[3])
	require.NotEmpty(t, second)
	assert.Equal(t, []string{"Time", "Vehicles"}, second[:2], "continued table repeats its header")

	for i, p := range doc.Pages {
		footer := p.Ops[len(p.Ops)-1]
		assert.Equal(t, OpText, footer.Kind)
		assert.Equal(t, "IRIS Mobility • Page "+strconv.Itoa(i+1)+"/4", footer.Text)
		assert.InDelta(t, PageHeight-5, footer.Y, 1e-9)
	}
}

func TestTables_TitleNeverOrphaned(t *testing.T) {
	for n := 1; n <= 60; n++ {
		first := Table{Title: "First", Head: []string{"A"}, FontSize: 9, titleGap: 5}
		for range n {
			first.Rows = append(first.Rows, []string{"x"})
		}
		second := Table{Title: "Second", Head: []string{"B"}, Rows: [][]string{{"tail"}}, FontSize: 9, titleGap: 5}

		a := &assembler{doc: &Document{}}
		a.tables([]Table{first, second})

		for _, p := range a.doc.Pages {
			got := texts(p)
			if slices.Contains(got, "Second") {
				assert.Contains(t, got, "tail", "%d rows before: title kept with its first row", n)
			}
		}
	}
}

func TestAssemble_TableRowsStayOnPage(t *testing.T) {
	ds := domain.Aggregate(nil, domain.DefaultCatalog().Days(), 80, domain.RangeAll)

	doc, err := Assemble(ds, nil, Options{})
	require.NoError(t, err)

	headers := 0
	for _, p := range doc.Pages {
		for _, op := range p.Ops {
			if op.Kind == OpRect && p.Kind == PageTable {
				assert.LessOrEqual(t, op.Y+op.H, tableBottom+1e-9)
			}
			if op.Kind == OpText && op.Text == "Day" {
				headers++
			}
		}
	}
	assert.GreaterOrEqual(t, headers, 2, "61 speeding rows span a page break")
}

func TestAssemble_CoverLayout(t *testing.T) {
	ds := weeklyDataset(t)

	doc, err := Assemble(ds, nil, Options{ReportType: TypeMonthly, Intersection: "Main St & 5th Ave", ProductName: "Acme Traffic"})
	require.NoError(t, err)

	cover := doc.Pages[0]
	find := func(s string) Op {
		for _, op := range cover.Ops {
			if op.Kind == OpText && op.Text == s {
				return op
			}
		}
		t.Fatalf("text %q not on cover", s)
		return Op{}
	}

	assert.InDelta(t, 12, find("Acme Traffic").Y, 1e-9)
	assert.InDelta(t, 36, find("Monthly Report • Oct 25–Oct 31").Y, 1e-9)
	assert.InDelta(t, 42, find("Intersection: Main St & 5th Ave").Y, 1e-9)
	assert.InDelta(t, 48, find("Generated from CSV data").Y, 1e-9)
	assert.Equal(t, "Acme Traffic Traffic Analytics Report", doc.Title)

	var boxes []Op
	for _, op := range cover.Ops {
		if op.Kind == OpRect {
			boxes = append(boxes, op)
		}
	}
	require.Len(t, boxes, 4)
	boxW := (ContentWidth - 9) / 4
	for i, b := range boxes {
		assert.InDelta(t, 54, b.Y, 1e-9)
		assert.InDelta(t, boxW, b.W, 1e-9)
		assert.InDelta(t, Margin+float64(i)*(boxW+3), b.X, 1e-9)
	}

	find("500")
	find(strconv.FormatFloat(ds.AvgSpeedMph, 'f', -1, 64) + " mph")
	assert.Contains(t, texts(doc.Pages[len(doc.Pages)-1]), "Acme Traffic • Page 3/3")
}

func TestAssemble_TruncatesLongStatValues(t *testing.T) {
	ds := &domain.AggregatedDataset{DateRangeLabel: "September 1–October 31", SpeedLimitKmh: 80, TotalVehicles: 1234567}

	doc, err := Assemble(ds, nil, Options{})
	require.NoError(t, err)

	cover := texts(doc.Pages[0])
	assert.Contains(t, cover, "September 1–…")
	assert.Contains(t, cover, "1,234,567")
	assert.Contains(t, cover, "0 mph")
}

func TestTruncateStat(t *testing.T) {
	assert.Equal(t, "Oct 25–Oct 31", truncateStat("Oct 25–Oct 31"))
	assert.Equal(t, "12345678901234", truncateStat("12345678901234"))
	assert.Equal(t, "123456789012…", truncateStat("123456789012345"))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		reportType string
		label      string
		want       string
	}{
		{TypeWeekly, "Oct 25–Oct 31", "traffic-report-weekly-Oct25-Oct31.pdf"},
		{TypeDaily, "Oct 31", "traffic-report-daily-Oct31.pdf"},
		{TypeMonthly, "Sep 1 — Sep 30", "traffic-report-monthly-Sep1-Sep30.pdf"},
		{"", "Oct 31", "traffic-report-weekly-Oct31.pdf"},
		{"yearly", "", "traffic-report-weekly-report.pdf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Filename(tt.reportType, tt.label))
	}
}

func TestNormalizeType(t *testing.T) {
	assert.Equal(t, TypeDaily, NormalizeType("daily"))
	assert.Equal(t, TypeMonthly, NormalizeType("monthly"))
	assert.Equal(t, TypeWeekly, NormalizeType(""))
	assert.Equal(t, TypeWeekly, NormalizeType("Daily"))
}
