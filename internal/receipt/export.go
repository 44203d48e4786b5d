package receipt

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/go-pdf/fpdf"
	"github.com/nfnt/resize"
)

// DefaultPrinterDots is the head width of a 2-inch thermal printer.
const DefaultPrinterDots = 384

// DefaultWidthMM is the printable width of a 2-inch roll.
const DefaultWidthMM = 48.0

// ScaleToWidth resizes img to dots pixels wide, keeping the aspect ratio.
// Nearest-neighbor keeps the 1-bit look thermal heads expect.
func ScaleToWidth(img image.Image, dots int) image.Image {
	if dots <= 0 || img.Bounds().Dx() == dots {
		return img
	}
	return resize.Resize(uint(dots), 0, img, resize.NearestNeighbor)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPDF places img on a single page widthMM wide and as tall as the
// image's aspect ratio requires.
func ExportPDF(img image.Image, widthMM float64) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("export pdf: empty image")
	}
	if widthMM <= 0 {
		widthMM = DefaultWidthMM
	}
	heightMM := widthMM * float64(b.Dy()) / float64(b.Dx())

	raw, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: widthMM, Ht: heightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("receipt", opts, bytes.NewReader(raw))
	pdf.ImageOptions("receipt", 0, 0, widthMM, heightMM, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	return out.Bytes(), nil
}
