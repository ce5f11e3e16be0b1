package bookcompiler

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Compile lays the chapters out and draws them into a new PDF document.
// An empty chapter list produces a document with a single blank page.
func (bc *BookCompiler) Compile(chapters []Chapter) ([]byte, error) {
	pages := bc.Layout(chapters)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: bc.pageWidth, Ht: bc.pageHeight},
	})
	pdf.SetMargins(bc.margin, bc.margin, bc.margin)
	// Every position comes from Layout; gofpdf must not insert its own breaks.
	pdf.SetAutoPageBreak(false, bc.margin)
	pdf.SetCreationDate(bc.creationDate)
	pdf.SetCatalogSort(true)
	translate := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			pdf.SetFont(line.Style.FontFamily, line.Style.Style, line.Style.Size)
			pdf.Text(line.X, line.Y, translate(line.Text))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}
