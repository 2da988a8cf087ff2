// Package boxes merges overlapping axis-aligned rectangles produced by the
// region detector.
package boxes

import (
	"encoding/json"
	"fmt"
	"image"
)

// Rect is an axis-aligned box in image pixel coordinates. (X1, Y1) is the
// top-left corner and (X2, Y2) the bottom-right corner.
//
// X1 <= X2 and Y1 <= Y2 is expected but not enforced; see Classify.
type Rect struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// R is shorthand for Rect{x1, y1, x2, y2}.
func R(x1, y1, x2, y2 int) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// FromImageRect converts an image.Rectangle into a Rect.
func FromImageRect(r image.Rectangle) Rect {
	return Rect{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// ImageRect returns the rectangle as an image.Rectangle. image.Rect
// canonicalizes its arguments, so inverted boxes come back swapped.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Width returns X2-X1, which is negative for inverted boxes.
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns Y2-Y1, which is negative for inverted boxes.
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Area returns Width*Height.
func (r Rect) Area() int { return r.Width() * r.Height() }

// Intersects reports whether r and o overlap with positive area. Boxes that
// only touch along an edge or at a corner do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X1 < o.X2 && r.X2 > o.X1 && r.Y1 < o.Y2 && r.Y2 > o.Y1
}

// Union returns the smallest box enclosing both r and o, computed
// coordinate-wise.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
		X2: max(r.X2, o.X2),
		Y2: max(r.Y2, o.Y2),
	}
}

// Contains reports whether o lies entirely within r (edges inclusive).
func (r Rect) Contains(o Rect) bool {
	return o.X1 >= r.X1 && o.Y1 >= r.Y1 && o.X2 <= r.X2 && o.Y2 <= r.Y2
}

// Normalize returns r with inverted coordinates swapped.
func (r Rect) Normalize() Rect {
	if r.X1 > r.X2 {
		r.X1, r.X2 = r.X2, r.X1
	}
	if r.Y1 > r.Y2 {
		r.Y1, r.Y2 = r.Y2, r.Y1
	}
	return r
}

// String formats the rectangle like a tuple.
func (r Rect) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.X1, r.Y1, r.X2, r.Y2)
}

// Array returns the coordinates as [x1, y1, x2, y2].
func (r Rect) Array() [4]int {
	return [4]int{r.X1, r.Y1, r.X2, r.Y2}
}

// MarshalJSON encodes the rectangle as a 4-element array.
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Array())
}

// UnmarshalJSON decodes a 4-element array.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("rectangle: %w", err)
	}
	return r.setFromSlice(vals)
}

func (r *Rect) setFromSlice(vals []int) error {
	if len(vals) != 4 {
		return fmt.Errorf("rectangle: expected 4 coordinates, got %d", len(vals))
	}
	*r = Rect{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}
	return nil
}
