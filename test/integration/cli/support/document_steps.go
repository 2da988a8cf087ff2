package support

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docextract/internal/testutil"
	"github.com/cucumber/godog"
)

// scanBoxes are the regions drawn on generated scan pages, left to right.
var scanBoxes = []image.Rectangle{
	image.Rect(60, 60, 300, 260),
	image.Rect(360, 200, 600, 440),
	image.Rect(80, 300, 300, 440),
}

// aRectanglesFileWithContent writes a rectangles file into the scenario directory.
func (testCtx *TestContext) aRectanglesFileWithContent(name string, content *godog.DocString) error {
	path := testCtx.TempPath(name)
	if err := os.WriteFile(path, []byte(content.Content), 0o600); err != nil {
		return fmt.Errorf("failed to write rectangles file: %w", err)
	}
	return nil
}

// aScannedPDFWithBoxes writes a one-page PDF whose page image holds n filled boxes.
func (testCtx *TestContext) aScannedPDFWithBoxes(name string, n int) error {
	return testCtx.writeScan(name, "", n)
}

// anEncryptedScannedPDF writes a scan protected by password.
func (testCtx *TestContext) anEncryptedScannedPDF(name, password string) error {
	return testCtx.writeScan(name, password, 1)
}

func (testCtx *TestContext) writeScan(name, password string, n int) error {
	if n < 0 || n > len(scanBoxes) {
		return fmt.Errorf("box count must be between 0 and %d, got %d", len(scanBoxes), n)
	}
	cfg := testutil.DefaultPageConfig()
	cfg.Boxes = scanBoxes[:n]

	path := testCtx.TempPath(name)
	return testutil.BuildPDF(path, password, testutil.PDFPage{Image: testutil.GeneratePage(cfg)})
}

// aTextPDFWithLines writes a one-page PDF with the table rows as text lines.
func (testCtx *TestContext) aTextPDFWithLines(name string, table *godog.Table) error {
	lines := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Cells) > 0 {
			lines = append(lines, row.Cells[0].Value)
		}
	}
	return testutil.BuildPDF(testCtx.TempPath(name), "", testutil.PDFPage{Lines: lines})
}

// theDirectoryShouldContainFiles counts files in dir matching a glob.
func (testCtx *TestContext) theDirectoryShouldContainFiles(dir string, count int, pattern string) error {
	matches, err := filepath.Glob(filepath.Join(testCtx.resolve(dir), pattern))
	if err != nil {
		return fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	if len(matches) != count {
		return fmt.Errorf("expected %d files matching %s in %s, found %d: %s",
			count, pattern, dir, len(matches), strings.Join(matches, ", "))
	}
	return nil
}

// theOutputShouldReportBoxes checks the "total boxes" line of a text summary.
func (testCtx *TestContext) theOutputShouldReportBoxes(count int) error {
	return testCtx.theOutputShouldContain("total boxes: " + strconv.Itoa(count))
}

// RegisterDocumentSteps registers fixture and artifact steps.
func (testCtx *TestContext) RegisterDocumentSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a rectangles file "([^"]*)" with content:$`, testCtx.aRectanglesFileWithContent)
	sc.Step(`^a scanned PDF "([^"]*)" with (\d+) boxes?$`, testCtx.aScannedPDFWithBoxes)
	sc.Step(`^a scanned PDF "([^"]*)" encrypted with password "([^"]*)"$`, testCtx.anEncryptedScannedPDF)
	sc.Step(`^a text PDF "([^"]*)" with lines:$`, testCtx.aTextPDFWithLines)
	sc.Step(`^the directory "([^"]*)" should contain (\d+) files? matching "([^"]*)"$`,
		testCtx.theDirectoryShouldContainFiles)
	sc.Step(`^the output should report (\d+) boxes?$`, testCtx.theOutputShouldReportBoxes)
}
