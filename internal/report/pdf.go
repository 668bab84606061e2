package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/go-pdf/fpdf"
)

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// RenderPDF draws doc onto A4 pages and writes the PDF to w. Nothing is
// written when rendering fails.
func RenderPDF(doc *Document, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetCreationDate(clock.Now())
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(DefaultProductName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	decoded := make([]image.Image, len(doc.Rasters))

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch op.Kind {
			case OpText:
				style := ""
				if op.Bold {
					style = "B"
				}
				pdf.SetFont("Helvetica", style, op.FontSize)
				pdf.SetTextColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				pdf.Text(op.X, op.Y, tr(op.Text))
			case OpRect:
				pdf.SetDrawColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				pdf.SetLineWidth(op.LineWidth)
				pdf.Rect(op.X, op.Y, op.W, op.H, "D")
			case OpFill:
				pdf.SetFillColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				pdf.Rect(op.X, op.Y, op.W, op.H, "F")
			case OpLine:
				pdf.SetDrawColor(int(op.Color.R), int(op.Color.G), int(op.Color.B))
				pdf.SetLineWidth(op.LineWidth)
				pdf.Line(op.X, op.Y, op.X2, op.Y2)
			case OpImage:
				if op.Raster < 0 || op.Raster >= len(doc.Rasters) {
					return fmt.Errorf("render pdf: image op references raster %d of %d", op.Raster, len(doc.Rasters))
				}
				if decoded[op.Raster] == nil {
					img, err := png.Decode(bytes.NewReader(doc.Rasters[op.Raster].PNG))
					if err != nil {
						return fmt.Errorf("render pdf: decode raster %s: %w", doc.Rasters[op.Raster].Name, err)
					}
					decoded[op.Raster] = img
				}
				band, err := cropBand(decoded[op.Raster], op.SrcY, op.SrcH)
				if err != nil {
					return fmt.Errorf("render pdf: %w", err)
				}
				name := fmt.Sprintf("raster-%d-%d", op.Raster, int(op.SrcY))
				opt := fpdf.ImageOptions{ImageType: "PNG"}
				pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(band))
				pdf.ImageOptions(name, op.X, op.Y, op.W, op.H, false, opt, 0, "")
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// cropBand re-encodes pixel rows [srcY, srcY+srcH) of img as PNG.
func cropBand(img image.Image, srcY, srcH float64) ([]byte, error) {
	b := img.Bounds()
	if srcY < 0 || srcY >= float64(b.Dy()) {
		return nil, fmt.Errorf("band row %.1f outside raster of %d rows", srcY, b.Dy())
	}
	y0 := min(b.Min.Y+int(math.Round(srcY)), b.Max.Y-1)
	y1 := min(b.Min.Y+int(math.Round(srcY+srcH)), b.Max.Y)
	if y1 <= y0 {
		y1 = y0 + 1
	}

	band := img
	if y0 != b.Min.Y || y1 != b.Max.Y {
		si, ok := img.(subImager)
		if !ok {
			return nil, fmt.Errorf("raster type %T cannot be cropped", img)
		}
		band = si.SubImage(image.Rect(b.Min.X, y0, b.Max.X, y1))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, band); err != nil {
		return nil, fmt.Errorf("encode band: %w", err)
	}
	return buf.Bytes(), nil
}
