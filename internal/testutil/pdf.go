package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

// PDFPage is the content of one generated PDF page: text lines at the top
// and an optional image scaled to the page width below them.
type PDFPage struct {
	Lines []string
	Image image.Image
}

// WritePDF writes an A4 document with the given pages to path.
func WritePDF(t *testing.T, path string, pages ...PDFPage) {
	t.Helper()
	writePDF(t, path, "", pages)
}

// WriteEncryptedPDF writes a document protected by userPassword.
func WriteEncryptedPDF(t *testing.T, path, userPassword string, pages ...PDFPage) {
	t.Helper()
	writePDF(t, path, userPassword, pages)
}

func writePDF(t *testing.T, path, userPassword string, pages []PDFPage) {
	t.Helper()
	require.NoError(t, BuildPDF(path, userPassword, pages...), "Failed to write PDF %s", path)
}

// BuildPDF writes pages to path, encrypting the document when userPassword
// is set. It is the error-returning form used outside of *testing.T.
func BuildPDF(path, userPassword string, pages ...PDFPage) error {
	doc := gofpdf.New("P", "mm", "A4", "")
	if userPassword != "" {
		doc.SetProtection(gofpdf.CnProtectPrint, userPassword, "owner-"+userPassword)
	}
	doc.SetFont("Helvetica", "", 12)
	pageW, _ := doc.GetPageSize()

	for i, page := range pages {
		doc.AddPage()
		for _, line := range page.Lines {
			doc.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
		}
		if page.Image == nil {
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, page.Image); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page%d", i+1)
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader(name, opts, &buf)

		left, _, right, _ := doc.GetMargins()
		doc.ImageOptions(name, left, doc.GetY()+2, pageW-left-right, 0, false, opts, 0, "")
	}

	return doc.OutputFileAndClose(path)
}
