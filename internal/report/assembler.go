// Package report lays out an aggregated traffic dataset as a paginated A4
// document and renders it to PDF or an Excel workbook.
//
// Assemble is pure: the same dataset, rasters and options always produce the
// same Document. Rendering is a separate step so the layout can be tested
// without a PDF library in the loop.
package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
)

// A4 portrait geometry in millimetres.
const (
	PageWidth     = 210.0
	PageHeight    = 297.0
	Margin        = 6.0
	ContentWidth  = PageWidth - 2*Margin
	ContentHeight = PageHeight - 2*Margin
)

const (
	headerBandHeight = 28.0
	statBoxGap       = 3.0
	statBoxHeight    = 20.0
	statValueMaxLen  = 14
	statValueKeepLen = 12

	// Captures smaller than this in either dimension are treated as failed.
	minRasterPixels = 200

	tableTop    = Margin + 2
	tableBottom = PageHeight - 10
	tableGap    = 6.0

	// Chart bands shorter than this many source rows round to nothing.
	minBandRows = 0.5

	// DefaultProductName appears in the cover header and every footer.
	DefaultProductName = "IRIS Mobility"
)

// Report types. Anything else is treated as weekly.
const (
	TypeDaily   = "daily"
	TypeWeekly  = "weekly"
	TypeMonthly = "monthly"
)

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

var typeLabels = map[string]string{
	TypeDaily:   "Daily",
	TypeWeekly:  "Weekly",
	TypeMonthly: "Monthly",
}

// Color is an RGB triple.
type Color struct{ R, G, B uint8 }

var (
	colorNavy      = Color{10, 49, 97}
	colorCrimson   = Color{179, 25, 66}
	colorSlate     = Color{100, 116, 139}
	colorInk       = Color{15, 23, 42}
	colorHeading   = Color{30, 41, 59}
	colorMuted     = Color{100, 100, 100}
	colorFooter    = Color{148, 163, 184}
	colorBoxBorder = Color{226, 232, 240}
	colorBoxFill   = Color{248, 250, 252}
	colorPinkRow   = Color{254, 242, 242}
	colorGrid      = Color{200, 200, 200}
	colorWhite     = Color{255, 255, 255}
	colorBlack     = Color{0, 0, 0}
)

// OpKind identifies a drawing instruction.
type OpKind string

const (
	OpText  OpKind = "text"  // Text at baseline (X, Y)
	OpRect  OpKind = "rect"  // stroked rectangle X, Y, W, H
	OpFill  OpKind = "fill"  // filled rectangle X, Y, W, H
	OpLine  OpKind = "line"  // segment (X, Y) to (X2, Y2)
	OpImage OpKind = "image" // band of Document.Rasters[Raster] drawn at X, Y, W, H
)

// Op is one drawing instruction in page millimetres.
type Op struct {
	Kind      OpKind
	X, Y      float64
	W, H      float64
	X2, Y2    float64
	Text      string
	FontSize  float64
	Bold      bool
	Color     Color
	LineWidth float64

	// Image bands only: source rows [SrcY, SrcY+SrcH) of the raster, in pixels.
	Raster int
	SrcY   float64
	SrcH   float64
}

// PageKind tells cover, chart and table pages apart.
type PageKind string

const (
	PageCover PageKind = "cover"
	PageChart PageKind = "chart"
	PageTable PageKind = "table"
)

// Page is one physical page of the document.
type Page struct {
	Kind PageKind
	Ops  []Op
}

// Document is the assembled report, ready to render.
type Document struct {
	Title      string
	Filename   string
	ReportType string
	Pages      []Page
	Rasters    []Raster
}

// Options control labelling of the report.
type Options struct {
	ReportType   string // daily, weekly or monthly
	SelectedDate string // used for the period when the dataset has no label
	Intersection string // optional, printed under the period line
	ProductName  string // defaults to DefaultProductName
}

// Assemble lays out ds as a cover page, one or more pages per usable chart
// raster and the data tables. Only an invalid dataset is an error; unusable
// rasters are dropped.
func Assemble(ds *domain.AggregatedDataset, rasters []Raster, opts Options) (*Document, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	reportType := NormalizeType(opts.ReportType)
	product := opts.ProductName
	if product == "" {
		product = DefaultProductName
	}

	a := &assembler{
		doc: &Document{
			Title:      product + " Traffic Analytics Report",
			Filename:   Filename(reportType, ds.DateRangeLabel),
			ReportType: reportType,
		},
	}

	a.cover(ds, reportType, product, opts)
	for _, r := range rasters {
		if r.Width < minRasterPixels || r.Height < minRasterPixels {
			continue
		}
		a.doc.Rasters = append(a.doc.Rasters, r)
		a.chart(len(a.doc.Rasters)-1, r)
	}
	a.tables(Tables(ds))
	a.footers(product)

	return a.doc, nil
}

// NormalizeType maps an empty or unknown report type to weekly.
func NormalizeType(t string) string {
	if _, ok := typeLabels[t]; ok {
		return t
	}
	return TypeWeekly
}

var dashSeparator = regexp.MustCompile(`\s*[–—]\s*`)

// Filename returns traffic-report-{type}-{label}.pdf with the label's dash
// separators collapsed and all whitespace removed.
func Filename(reportType, periodLabel string) string {
	safe := dashSeparator.ReplaceAllString(periodLabel, "-")
	safe = strings.Join(strings.Fields(safe), "")
	if safe == "" {
		safe = "report"
	}
	return "traffic-report-" + NormalizeType(reportType) + "-" + safe + ".pdf"
}

type assembler struct {
	doc *Document
	cur *Page
}

func (a *assembler) newPage(kind PageKind) {
	a.doc.Pages = append(a.doc.Pages, Page{Kind: kind})
	a.cur = &a.doc.Pages[len(a.doc.Pages)-1]
}

func (a *assembler) add(op Op) {
	a.cur.Ops = append(a.cur.Ops, op)
}

func (a *assembler) text(x, y float64, s string, size float64, bold bool, c Color) {
	a.add(Op{Kind: OpText, X: x, Y: y, Text: s, FontSize: size, Bold: bold, Color: c})
}

func (a *assembler) cover(ds *domain.AggregatedDataset, reportType, product string, opts Options) {
	a.newPage(PageCover)

	period := ds.DateRangeLabel
	if period == "" {
		period = opts.SelectedDate
	}
	if period == "" {
		period = "—"
	}

	a.add(Op{Kind: OpFill, X: 0, Y: 0, W: PageWidth, H: headerBandHeight, Color: colorNavy})
	a.text(Margin, 12, product, 18, true, colorWhite)
	a.text(Margin, 20, "Traffic Analytics Report", 11, false, colorWhite)
	a.text(Margin, 36, typeLabels[reportType]+" Report • "+period, 11, false, colorBlack)

	noteY, boxY := 44.0, 50.0
	if opts.Intersection != "" {
		a.text(Margin, 42, "Intersection: "+opts.Intersection, 9, false, colorBlack)
		noteY, boxY = 48, 54
	}
	a.text(Margin, noteY, "Generated from CSV data", 8, false, colorMuted)

	stats := [...][2]string{
		{"Total Vehicles", humanize.Comma(int64(ds.TotalVehicles))},
		{"Violations", humanize.Comma(int64(ds.OverLimitCount))},
		{"Avg Speed", strconv.FormatFloat(ds.AvgSpeedMph, 'f', -1, 64) + " mph"},
		{"Period", period},
	}

	boxW := (ContentWidth - 3*statBoxGap) / float64(len(stats))
	x := Margin
	for _, s := range stats {
		a.add(Op{Kind: OpRect, X: x, Y: boxY, W: boxW, H: statBoxHeight, Color: colorBoxBorder, LineWidth: 0.25})
		a.add(Op{Kind: OpFill, X: x + 0.4, Y: boxY + 0.4, W: boxW - 0.8, H: statBoxHeight - 0.8, Color: colorBoxFill})
		a.text(x+3, boxY+6, s[0], 8, false, colorSlate)
		a.text(x+3, boxY+14, truncateStat(s[1]), 10, true, colorInk)
		x += boxW + statBoxGap
	}
}

func truncateStat(v string) string {
	if utf8.RuneCountInString(v) <= statValueMaxLen {
		return v
	}
	return string([]rune(v)[:statValueKeepLen]) + "…"
}

// Band is the source row range of one chart page.
type Band struct {
	SrcY, SrcH float64 // pixels
	DrawH      float64 // millimetres
}

// SliceBands splits an image of imgW×imgH pixels, scaled to the content
// width, into page-sized horizontal bands. The bands cover the image exactly
// once; the last band takes the remainder. A remainder under half a source
// row is folded into the band before it rather than given its own page.
func SliceBands(imgW, imgH int) []Band {
	if imgW <= 0 || imgH <= 0 {
		return nil
	}
	w, h := float64(imgW), float64(imgH)
	fitH := ContentWidth * h / w
	if fitH <= ContentHeight {
		return []Band{{SrcY: 0, SrcH: h, DrawH: fitH}}
	}

	perPage := ContentHeight / fitH * h
	var bands []Band
	consumed := 0.0
	for {
		srcH := perPage
		last := h-consumed-perPage < minBandRows
		if last {
			srcH = h - consumed
		}
		// Folding a sliver can push a band a fraction of a row past the page.
		drawH := math.Min(srcH*fitH/h, ContentHeight)
		bands = append(bands, Band{SrcY: consumed, SrcH: srcH, DrawH: drawH})
		if last {
			return bands
		}
		consumed += srcH
	}
}

func (a *assembler) chart(idx int, r Raster) {
	for _, b := range SliceBands(r.Width, r.Height) {
		a.newPage(PageChart)
		a.add(Op{
			Kind:   OpImage,
			X:      Margin,
			Y:      Margin,
			W:      ContentWidth,
			H:      b.DrawH,
			Raster: idx,
			SrcY:   b.SrcY,
			SrcH:   b.SrcH,
		})
	}
}

func (a *assembler) tables(tables []Table) {
	if len(tables) == 0 {
		return
	}

	a.newPage(PageTable)
	y := tableTop
	a.add(Op{Kind: OpLine, X: Margin, Y: y, X2: PageWidth - Margin, Y2: y, Color: colorNavy, LineWidth: 0.35})
	y += 6

	for i, t := range tables {
		// The title needs its header and at least one row beneath it.
		fits := y+t.titleGap+2*t.rowHeight() <= tableBottom
		if i > 0 && (y > PageHeight-t.breakBefore || !fits) {
			a.newPage(PageTable)
			y = tableTop
		}
		a.text(Margin, y, t.Title, 11, true, colorHeading)
		y += t.titleGap
		y = a.grid(t, y) + tableGap
	}
}

// grid draws the header and rows of t starting at y, continuing onto new
// pages with a repeated header, and returns the bottom of the last row.
func (a *assembler) grid(t Table, y float64) float64 {
	rowH := t.rowHeight()
	colW := ContentWidth / float64(len(t.Head))

	row := func(cells []string, fill *Color, textColor Color, bold bool) {
		if fill != nil {
			a.add(Op{Kind: OpFill, X: Margin, Y: y, W: ContentWidth, H: rowH, Color: *fill})
		}
		for c, cell := range cells {
			x := Margin + float64(c)*colW
			a.add(Op{Kind: OpRect, X: x, Y: y, W: colW, H: rowH, Color: colorGrid, LineWidth: 0.1})
			a.text(x+1.5, y+rowH*0.68, cell, t.FontSize, bold, textColor)
		}
		y += rowH
	}

	head := t.HeadFill
	row(t.Head, &head, colorWhite, true)
	for i, cells := range t.Rows {
		if y+rowH > tableBottom {
			a.newPage(PageTable)
			y = tableTop
			row(t.Head, &head, colorWhite, true)
		}
		var fill *Color
		if t.AltFill != nil && i%2 == 1 {
			fill = t.AltFill
		}
		row(cells, fill, colorInk, false)
	}
	return y
}

func (a *assembler) footers(product string) {
	total := len(a.doc.Pages)
	for i := range a.doc.Pages {
		a.doc.Pages[i].Ops = append(a.doc.Pages[i].Ops, Op{
			Kind:     OpText,
			X:        Margin,
			Y:        PageHeight - 5,
			Text:     product + " • Page " + strconv.Itoa(i+1) + "/" + strconv.Itoa(total),
			FontSize: 7,
			Color:    colorFooter,
		})
	}
}
