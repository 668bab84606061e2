package report

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // PNG decoder for DecodeConfig
	"log/slog"
)

// Raster is a captured chart image.
type Raster struct {
	Name   string
	PNG    []byte
	Width  int // pixels
	Height int // pixels
}

// NewRaster reads the pixel dimensions of a PNG capture.
func NewRaster(name string, data []byte) (Raster, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Raster{}, fmt.Errorf("decode raster %s: %w", name, err)
	}
	if format != "png" {
		return Raster{}, fmt.Errorf("decode raster %s: unsupported format %q", name, format)
	}
	return Raster{Name: name, PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

// Rasterizer renders one chart view of the dataset for sel to a PNG. It must
// wait for the view to report that rendering has finished.
type Rasterizer interface {
	Rasterize(ctx context.Context, view string, sel ViewSelector) ([]byte, error)
}

// ViewSelector identifies the dataset a chart view should render.
type ViewSelector struct {
	Range        string
	Date         string
	Intersection string
}

// DefaultViews are the chart views captured for a report, in page order.
var DefaultViews = []string{"overview", "intersection", "events"}

// Capture rasterizes each view in order. A failed or undecodable capture is
// logged and skipped, so the result may be shorter than views or empty.
func Capture(ctx context.Context, r Rasterizer, views []string, sel ViewSelector, logger *slog.Logger) []Raster {
	if r == nil {
		return nil
	}
	var out []Raster
	for _, v := range views {
		if ctx.Err() != nil {
			logger.Warn("chart capture cancelled", "view", v, "error", ctx.Err())
			break
		}
		data, err := r.Rasterize(ctx, v, sel)
		if err != nil {
			logger.Warn("chart capture failed, omitting chart", "view", v, "error", err)
			continue
		}
		raster, err := NewRaster(v, data)
		if err != nil {
			logger.Warn("chart capture unreadable, omitting chart", "view", v, "error", err)
			continue
		}
		out = append(out, raster)
	}
	return out
}
