// Package nlp tags the tokens and named entities of contract text.
package nlp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/bbalet/stopwords"
	"github.com/jdkato/prose/v2"
	"golang.org/x/text/unicode/norm"
)

// SampleText is the clause analyzed when no input is given.
const SampleText = `      “Threshold Amount” means, with respect to Party A, an amount equal to USD 50,000,000 (or the equivalent in
      another currency, currency unit or combination thereof) and with respect to Party B an amount equal to the lesser
      of 3% of Net Asset Value (as defined hereafter) and USD 50,000,000 (or the equivalent in another currency,
      currency unit or combination thereof).`

// ErrEmptyText is returned when the normalized input has no content.
var ErrEmptyText = errors.New("no text to analyze")

// Token is a tagged word.
type Token struct {
	Text string `json:"text"`
	// POS is the coarse part of speech derived from Tag.
	POS string `json:"pos"`
	// Tag is the Penn Treebank tag.
	Tag string `json:"tag"`
	// Label is the IOB entity label, e.g. B-GPE or O.
	Label string `json:"label"`
	Lemma string `json:"lemma"`
	Stop  bool   `json:"stop"`
}

// Entity is a named entity span.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Analysis holds the tagged tokens and entities of a text.
type Analysis struct {
	Text      string   `json:"text"`
	Sentences []string `json:"sentences"`
	Tokens    []Token  `json:"tokens"`
	Entities  []Entity `json:"entities"`
}

// lemmatizer loads the English dictionary on first use.
var lemmatizer = sync.OnceValues(func() (*golem.Lemmatizer, error) {
	return golem.New(en.New())
})

// Normalize applies NFC and collapses all whitespace runs, including the
// indentation of wrapped lines, into single spaces.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Analyze tokenizes, tags and extracts entities from text. Whitespace and
// punctuation tokens are dropped.
func Analyze(text string) (*Analysis, error) {
	text = Normalize(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}
	lem, err := lemmatizer()
	if err != nil {
		return nil, fmt.Errorf("failed to load lemma dictionary: %w", err)
	}

	a := &Analysis{Text: text}
	for _, s := range doc.Sentences() {
		a.Sentences = append(a.Sentences, s.Text)
	}
	for _, tok := range doc.Tokens() {
		if isPunctuation(tok.Text, tok.Tag) {
			continue
		}
		pos := coarsePOS(tok.Tag)
		a.Tokens = append(a.Tokens, Token{
			Text:  tok.Text,
			POS:   pos,
			Tag:   tok.Tag,
			Label: tok.Label,
			Lemma: lemmatize(lem, tok.Text, pos),
			Stop:  isStopWord(tok.Text),
		})
	}
	for _, ent := range doc.Entities() {
		if name := trimEntity(ent.Text); name != "" {
			a.Entities = append(a.Entities, Entity{Text: name, Label: ent.Label})
		}
	}
	return a, nil
}

// WriteTokens prints the token table. A blank line follows every stop word.
func (a *Analysis) WriteTokens(w io.Writer) error {
	const row = "%-14s | %-7s | %-10s | %-10s | %-14s\n"
	if _, err := fmt.Fprintf(w, row, "Text", "POS", "TAG", "IOB", "Lemma"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s-|-%s-|-%s-|-%s-|-%s\n",
		strings.Repeat("-", 14), strings.Repeat("-", 7), strings.Repeat("-", 10),
		strings.Repeat("-", 10), strings.Repeat("-", 14)); err != nil {
		return err
	}
	for _, t := range a.Tokens {
		if _, err := fmt.Fprintf(w, row, t.Text, t.POS, t.Tag, t.Label, t.Lemma); err != nil {
			return err
		}
		if t.Stop {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteEntities prints the entity table.
func (a *Analysis) WriteEntities(w io.Writer) error {
	if _, err := fmt.Fprint(w, "\n\nENTITIES:\n\n"); err != nil {
		return err
	}
	for _, e := range a.Entities {
		if _, err := fmt.Fprintf(w, "%-20s | %s\n", e.Text, e.Label); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the analysis as indented JSON.
func (a *Analysis) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// lemmatize returns the dictionary base form of a token. Proper nouns,
// numbers and symbols are their own lemma.
func lemmatize(lem *golem.Lemmatizer, text, pos string) string {
	switch pos {
	case "PROPN", "NUM", "SYM":
		return text
	}
	lower := strings.ToLower(text)
	if l := lem.Lemma(lower); l != "" {
		return l
	}
	return lower
}

// isStopWord reports whether text is an English stop word. Tokens without
// letters never are.
func isStopWord(text string) bool {
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return false
	}
	return strings.TrimSpace(stopwords.CleanString(text, "en", false)) == ""
}

// trimEntity strips quotes, brackets, separators and spaces the tagger
// attached to an entity span. Periods stay so abbreviations survive.
func trimEntity(text string) string {
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) ||
			unicode.In(r, unicode.Quotation_Mark, unicode.Ps, unicode.Pe, unicode.Pi, unicode.Pf) ||
			strings.ContainsRune(",;:", r)
	})
}

// Penn Treebank punctuation tags.
var punctTags = map[string]bool{
	".": true, ",": true, ":": true, "(": true, ")": true,
	"``": true, "''": true, "\"": true, "-LRB-": true, "-RRB-": true, "NFP": true, "HYPH": true,
}

func isPunctuation(text, tag string) bool {
	if punctTags[tag] {
		return true
	}
	for _, r := range text {
		if !unicode.IsPunct(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// coarsePOS maps a Penn Treebank tag to a universal part-of-speech tag.
func coarsePOS(tag string) string {
	switch tag {
	case "NNP", "NNPS":
		return "PROPN"
	case "MD":
		return "AUX"
	case "PRP", "PRP$", "WP", "WP$", "EX":
		return "PRON"
	case "DT", "PDT", "WDT":
		return "DET"
	case "IN":
		return "ADP"
	case "CC":
		return "CCONJ"
	case "CD":
		return "NUM"
	case "UH":
		return "INTJ"
	case "TO", "RP", "POS":
		return "PART"
	case "SYM", "$", "#":
		return "SYM"
	case "FW", "LS":
		return "X"
	}
	switch {
	case strings.HasPrefix(tag, "NN"):
		return "NOUN"
	case strings.HasPrefix(tag, "VB"):
		return "VERB"
	case strings.HasPrefix(tag, "JJ"):
		return "ADJ"
	case strings.HasPrefix(tag, "RB"), tag == "WRB":
		return "ADV"
	case punctTags[tag]:
		return "PUNCT"
	}
	return "X"
}
