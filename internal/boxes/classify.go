package boxes

// IssueKind names a condition found in an input rectangle.
type IssueKind string

const (
	// Degenerate rectangles have zero width or height. They are absorbed by
	// boxes they cross and kept as-is otherwise.
	Degenerate IssueKind = "degenerate"
	// Inverted rectangles have X1 > X2 or Y1 > Y2.
	Inverted IssueKind = "inverted"
	// Duplicate rectangles repeat an earlier input rectangle exactly.
	Duplicate IssueKind = "duplicate"
)

// Issue records a classified input rectangle.
type Issue struct {
	Index int       `json:"index"`
	Rect  Rect      `json:"rect"`
	Kind  IssueKind `json:"kind"`
	// Of is the index of the first occurrence for duplicates, -1 otherwise.
	Of int `json:"of"`
}

// IsDegenerate reports whether r has zero width or zero height.
func (r Rect) IsDegenerate() bool {
	return r.X1 == r.X2 || r.Y1 == r.Y2
}

// IsInverted reports whether r has its corners swapped on either axis.
func (r Rect) IsInverted() bool {
	return r.X1 > r.X2 || r.Y1 > r.Y2
}

// Classify reports degenerate, inverted and duplicate rectangles in input
// order. A rectangle can yield more than one issue. The input is not
// modified.
func Classify(rects []Rect) []Issue {
	var issues []Issue
	seen := make(map[Rect]int, len(rects))

	for i, r := range rects {
		if r.IsDegenerate() {
			issues = append(issues, Issue{Index: i, Rect: r, Kind: Degenerate, Of: -1})
		}
		if r.IsInverted() {
			issues = append(issues, Issue{Index: i, Rect: r, Kind: Inverted, Of: -1})
		}
		if first, ok := seen[r]; ok {
			issues = append(issues, Issue{Index: i, Rect: r, Kind: Duplicate, Of: first})
			continue
		}
		seen[r] = i
	}

	return issues
}
