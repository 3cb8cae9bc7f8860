package build

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/go-pdf/fpdf"
)

// EncodeJPEG encodes a finished card.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePDF lays the JPEG out as pages identical pages, each exactly the
// size of the card at dpi. The image is embedded once and shared by every
// page.
func EncodePDF(jpg []byte, size image.Point, dpi float64, pages int) ([]byte, error) {
	if pages < 1 {
		return nil, fmt.Errorf("encoding pdf: need at least one page, got %d", pages)
	}

	w := float64(size.X) * 72 / dpi
	h := float64(size.Y) * 72 / dpi

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	pdf.RegisterImageOptionsReader("card", opts, bytes.NewReader(jpg))

	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.ImageOptions("card", 0, 0, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encoding pdf: %w", err)
	}
	return buf.Bytes(), nil
}
