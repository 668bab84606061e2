package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/traffic-report-service/internal/domain"
	"github.com/couchcryptid/traffic-report-service/internal/observability"
	"github.com/couchcryptid/traffic-report-service/internal/pipeline"
	"github.com/couchcryptid/traffic-report-service/internal/report"
)

type mockRasterizer struct {
	ok map[string]bool
}

func (m *mockRasterizer) Rasterize(_ context.Context, view string, _ report.ViewSelector) ([]byte, error) {
	if !m.ok[view] {
		return nil, errors.New("render-complete signal not received")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 400, 300))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newTestReporter(src *mockSource, r report.Rasterizer) (*pipeline.Reporter, *pipeline.ReportGate, *observability.Metrics) {
	s, metrics := newTestSession(src, nil)
	gate := pipeline.NewReportGate(metrics)
	return pipeline.NewReporter(s, gate, r, "", discardLogger(), metrics), gate, metrics
}

func weeklySource() *mockSource {
	src := newMockSource()
	src.files["2017-10-30.csv"] = dayFile("30-10-2017",
		"07:15,car,NORTH,SOUTH,30,72",
		"07:20,truck,EAST,WEST,30,95",
	)
	return src
}

func TestReporter_GeneratePDF(t *testing.T) {
	rast := &mockRasterizer{ok: map[string]bool{"overview": true}}
	rep, _, metrics := newTestReporter(weeklySource(), rast)

	var out bytes.Buffer
	name, err := rep.Generate(context.Background(), pipeline.ReportRequest{
		Selector:   domain.Selector{Range: domain.RangeWeekly},
		ReportType: report.TypeWeekly,
		Format:     report.FormatPDF,
		Charts:     true,
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "traffic-report-weekly-Oct25-Oct31.pdf", name)
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-")))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ChartCaptures.WithLabelValues("captured")), 0)
	assert.InDelta(t, float64(len(report.DefaultViews)-1), testutil.ToFloat64(metrics.ChartCaptures.WithLabelValues("omitted")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsGenerated.WithLabelValues("pdf")), 0)
}

func TestReporter_GenerateWorkbook(t *testing.T) {
	rep, _, _ := newTestReporter(weeklySource(), nil)

	var out bytes.Buffer
	name, err := rep.Generate(context.Background(), pipeline.ReportRequest{
		Selector: domain.Selector{Date: "2017-10-30"},
		Format:   report.FormatXLSX,
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "traffic-report-weekly-Oct30.xlsx", name)
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestReporter_ReusesCurrentDataset(t *testing.T) {
	src := weeklySource()
	rep, _, _ := newTestReporter(src, nil)
	req := pipeline.ReportRequest{Selector: domain.Selector{Range: domain.RangeWeekly}, Format: report.FormatPDF}

	_, err := rep.Generate(context.Background(), req, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = rep.Generate(context.Background(), req, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, 1, src.callCount("2017-10-30.csv"))
}

func TestReporter_RejectsOverlappingGeneration(t *testing.T) {
	rep, gate, metrics := newTestReporter(weeklySource(), nil)

	release, err := gate.TryAcquire()
	require.NoError(t, err)
	defer release()

	var out bytes.Buffer
	_, err = rep.Generate(context.Background(), pipeline.ReportRequest{Selector: domain.Selector{Range: domain.RangeDaily}}, &out)
	require.ErrorIs(t, err, domain.ErrNotReady)
	assert.Zero(t, out.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsRejected), 0)
}

func TestReporter_UnsupportedFormat(t *testing.T) {
	rep, gate, _ := newTestReporter(weeklySource(), nil)

	var out bytes.Buffer
	_, err := rep.Generate(context.Background(), pipeline.ReportRequest{
		Selector: domain.Selector{Range: domain.RangeDaily},
		Format:   "docx",
	}, &out)
	require.Error(t, err)
	assert.Zero(t, out.Len())

	release, err := gate.TryAcquire()
	require.NoError(t, err, "gate is released after a failed generation")
	release()
}

func TestReporter_SourceFailure(t *testing.T) {
	src := newMockSource()
	src.failing["2017-10-31.csv"] = errors.New("gone")
	rep, _, _ := newTestReporter(src, nil)

	var out bytes.Buffer
	_, err := rep.Generate(context.Background(), pipeline.ReportRequest{Selector: domain.Selector{Range: domain.RangeDaily}}, &out)
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Zero(t, out.Len())
}
