package pdf

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/dslipak/pdf"
)

// TextExtraction is the vector text of one PDF page.
type TextExtraction struct {
	PageNumber int         `json:"page_number"`
	Text       string      `json:"text"`
	WordCount  int         `json:"word_count"`
	Quality    TextQuality `json:"quality"`
	// Method is "rows" when text was grouped by rows, "plain" otherwise.
	Method string `json:"method"`
}

// TextQuality represents the quality assessment of extracted text.
type TextQuality struct {
	Score        float64 `json:"score"`         // Overall quality score (0-1)
	HasText      bool    `json:"has_text"`      // Whether any text was found
	IsSearchable bool    `json:"is_searchable"` // Whether PDF has searchable text
}

// TextExtractor extracts vector text from PDFs.
type TextExtractor struct {
	qualityThreshold float64 // Minimum quality score to consider text usable
}

// NewTextExtractor creates a new text extractor.
func NewTextExtractor(qualityThreshold float64) *TextExtractor {
	if qualityThreshold <= 0 {
		qualityThreshold = 0.5
	}
	return &TextExtractor{qualityThreshold: qualityThreshold}
}

// ExtractPage returns the text of one 1-based page.
func (e *TextExtractor) ExtractPage(filename string, pageNum int) (*TextExtraction, error) {
	reader, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}
	if err := checkPage(pageNum, reader.NumPage()); err != nil {
		return nil, err
	}
	return e.extractPageText(reader, pageNum)
}

// ExtractText extracts vector text for the pages of pageRange; an empty
// range selects all pages. Pages whose text cannot be decoded are skipped.
func (e *TextExtractor) ExtractText(filename string, pageRange string) (map[int]*TextExtraction, error) {
	pageNumbers, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	reader, err := pdf.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %q: %w", filename, err)
	}

	pages, err := SelectPages(pageNumbers, reader.NumPage())
	if err != nil {
		return nil, err
	}

	results := make(map[int]*TextExtraction, len(pages))
	for _, pageNum := range pages {
		extraction, err := e.extractPageText(reader, pageNum)
		if err != nil {
			slog.Warn("Skipping page text", "file", filename, "page", pageNum, "error", err)
			continue
		}
		results[pageNum] = extraction
	}
	return results, nil
}

func (e *TextExtractor) extractPageText(reader *pdf.Reader, pageNum int) (*TextExtraction, error) {
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d is null", pageNum)
	}

	text, method, err := pageText(page)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageNum, err)
	}

	return &TextExtraction{
		PageNumber: pageNum,
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		Quality:    assessTextQuality(text),
		Method:     method,
	}, nil
}

// pageText joins the page's text rows with newlines, falling back to the
// plain content stream text.
func pageText(page pdf.Page) (string, string, error) {
	rows, err := page.GetTextByRow()
	if err == nil && len(rows) > 0 {
		var b strings.Builder
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				words = append(words, text.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteString("\n")
		}
		return b.String(), "rows", nil
	}

	plain, plainErr := page.GetPlainText(make(map[string]*pdf.Font))
	if plainErr != nil {
		if err == nil {
			// Rows decoded fine; the page simply has no text.
			return "", "rows", nil
		}
		return "", "", plainErr
	}
	return plain, "plain", nil
}

// assessTextQuality evaluates the quality of extracted text.
func assessTextQuality(text string) TextQuality {
	hasText := len(strings.TrimSpace(text)) > 0
	wordCount := len(strings.Fields(text))

	score := 0.0
	if hasText {
		score += 0.5 // Base score for having text
		if wordCount > 5 {
			score += 0.3
		}
		if hasReasonableCharacterDistribution(text) {
			score += 0.2
		}
	}

	return TextQuality{
		Score:        min(score, 1.0),
		HasText:      hasText,
		IsSearchable: hasText && wordCount > 0,
	}
}

// hasReasonableCharacterDistribution reports whether at least half of the
// non-space runes are letters or digits.
func hasReasonableCharacterDistribution(text string) bool {
	total, alnum := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return false
	}
	return float64(alnum)/float64(total) >= 0.5
}

// IsQualityAcceptable checks if the extracted text quality meets the threshold.
func (e *TextExtractor) IsQualityAcceptable(extraction *TextExtraction) bool {
	return extraction != nil && extraction.Quality.Score >= e.qualityThreshold
}
