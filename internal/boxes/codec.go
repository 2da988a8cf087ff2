package boxes

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes the rectangle as a flow sequence, e.g. [0, 0, 10, 10].
func (r Rect) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range r.Array() {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: strconv.Itoa(v),
		})
	}
	return node, nil
}

// UnmarshalYAML decodes a 4-element sequence.
func (r *Rect) UnmarshalYAML(value *yaml.Node) error {
	var vals []int
	if err := value.Decode(&vals); err != nil {
		return fmt.Errorf("rectangle at line %d: %w", value.Line, err)
	}
	return r.setFromSlice(vals)
}

// ReadRects decodes a list of rectangles from r. JSON input is accepted as
// well since it is valid YAML.
func ReadRects(r io.Reader) ([]Rect, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rectangles: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return []Rect{}, nil
	}
	var rects []Rect
	if err := yaml.Unmarshal(data, &rects); err != nil {
		return nil, fmt.Errorf("failed to decode rectangles: %w", err)
	}
	if rects == nil {
		rects = []Rect{}
	}
	return rects, nil
}

// WriteRects encodes rects to w as "json", "yaml" or "text" (one tuple per
// line).
func WriteRects(w io.Writer, rects []Rect, format string) error {
	if rects == nil {
		rects = []Rect{}
	}
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rects)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(rects); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	case "text", "":
		for _, r := range rects {
			if _, err := fmt.Fprintln(w, r.String()); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
