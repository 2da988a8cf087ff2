package boxes

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects how overlapping rectangles are merged.
type Strategy string

const (
	// SinglePass makes one forward pass over the input. Each rectangle is
	// merged into the first intersecting output box and never re-scanned.
	SinglePass Strategy = "single-pass"
	// FixedPoint repeats the single pass over its own output until no two
	// output rectangles intersect.
	FixedPoint Strategy = "fixed-point"
)

// Validation selects how malformed input rectangles are handled.
type Validation string

const (
	// Passthrough merges input as given. Inverted rectangles flow into the
	// unions unchanged.
	Passthrough Validation = "passthrough"
	// Reject fails on the first inverted rectangle.
	Reject Validation = "reject"
	// Normalize swaps inverted coordinates before merging.
	Normalize Validation = "normalize"
)

var (
	// ErrInvalidRect is returned under the Reject policy for inverted input.
	ErrInvalidRect = errors.New("invalid rectangle")
	// ErrUnknownStrategy is returned by ParseStrategy.
	ErrUnknownStrategy = errors.New("unknown merge strategy")
	// ErrUnknownValidation is returned by ParseValidation.
	ErrUnknownValidation = errors.New("unknown validation policy")
)

// ParseStrategy parses a strategy name. The empty string selects SinglePass.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SinglePass:
		return SinglePass, nil
	case FixedPoint:
		return FixedPoint, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: %s, %s)", ErrUnknownStrategy, s, SinglePass, FixedPoint)
	}
}

// ParseValidation parses a validation policy name. The empty string selects
// Passthrough.
func ParseValidation(s string) (Validation, error) {
	switch Validation(strings.ToLower(strings.TrimSpace(s))) {
	case "", Passthrough:
		return Passthrough, nil
	case Reject:
		return Reject, nil
	case Normalize:
		return Normalize, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: %s, %s, %s)", ErrUnknownValidation, s,
			Passthrough, Reject, Normalize)
	}
}

// MergeOverlapping merges overlapping rectangles in a single greedy pass.
//
// The first rectangle seeds the output. Every following rectangle is compared
// against the output in order; on the first relaxed intersection the output
// box is replaced in place by the union and scanning stops. Rectangles that
// intersect nothing are appended.
//
// The pass is not repeated, so a box enlarged late in the pass may overlap an
// output box that was settled earlier. MergeFixedPoint removes those overlaps.
// The input slice is not modified.
func MergeOverlapping(rects []Rect) []Rect {
	if len(rects) == 0 {
		return []Rect{}
	}

	merged := make([]Rect, 1, len(rects))
	merged[0] = rects[0]

	for _, cur := range rects[1:] {
		absorbed := false
		for i, m := range merged {
			if cur.Intersects(m) {
				merged[i] = cur.Union(m)
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, cur)
		}
	}

	return merged
}

// MergeFixedPoint repeats MergeOverlapping on its own output until the number
// of rectangles stops shrinking. The result keeps the first-seen order of
// clusters and contains no intersecting pair.
func MergeFixedPoint(rects []Rect) []Rect {
	merged := MergeOverlapping(rects)
	for {
		next := MergeOverlapping(merged)
		if len(next) == len(merged) {
			return next
		}
		merged = next
	}
}

// Merger bundles a strategy with a validation policy.
type Merger struct {
	Strategy   Strategy
	Validation Validation
}

// NewMerger returns a Merger with the given strategy and validation policy.
// Empty values select SinglePass and Passthrough.
func NewMerger(strategy Strategy, validation Validation) *Merger {
	if strategy == "" {
		strategy = SinglePass
	}
	if validation == "" {
		validation = Passthrough
	}
	return &Merger{Strategy: strategy, Validation: validation}
}

// DefaultMerger returns a single-pass, passthrough merger.
func DefaultMerger() *Merger {
	return NewMerger(SinglePass, Passthrough)
}

// Merge validates rects according to the policy and merges them with the
// configured strategy.
func (m *Merger) Merge(rects []Rect) ([]Rect, error) {
	input, err := m.prepare(rects)
	if err != nil {
		return nil, err
	}

	switch m.Strategy {
	case SinglePass, "":
		return MergeOverlapping(input), nil
	case FixedPoint:
		return MergeFixedPoint(input), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, m.Strategy)
	}
}

func (m *Merger) prepare(rects []Rect) ([]Rect, error) {
	switch m.Validation {
	case Passthrough, "":
		return rects, nil
	case Reject:
		for i, r := range rects {
			if r.IsInverted() {
				return nil, fmt.Errorf("%w: index %d %s is inverted", ErrInvalidRect, i, r)
			}
		}
		return rects, nil
	case Normalize:
		out := make([]Rect, len(rects))
		for i, r := range rects {
			out[i] = r.Normalize()
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownValidation, m.Validation)
	}
}
