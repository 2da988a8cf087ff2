package utils

import "math"

// ApproxPolygon reduces a closed contour with the Douglas–Peucker algorithm.
// The contour is split at two mutually distant points (the point farthest
// from the first point, and the point farthest from that one) and each half
// is simplified separately, so corners survive regardless of where the trace
// started. The result never repeats its first point at the end.
func ApproxPolygon(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}

	a := farthestFrom(pts, pts[0])
	b := farthestFrom(pts, pts[a])
	if a == b {
		return []Point{pts[a]}
	}

	// Rotate so the contour starts at a.
	ring := make([]Point, 0, n+1)
	ring = append(ring, pts[a:]...)
	ring = append(ring, pts[:a]...)
	split := (b - a + n) % n
	ring = append(ring, ring[0])

	keep := make([]bool, n+1)
	keep[0] = true
	keep[split] = true
	dpSimplify(ring, 0, split, epsilon, keep)
	dpSimplify(ring, split, n, epsilon, keep)

	out := make([]Point, 0, 8)
	for i := range n {
		if keep[i] {
			out = append(out, ring[i])
		}
	}
	return out
}

func farthestFrom(pts []Point, p Point) int {
	idx := 0
	maxDist := -1.0
	for i, q := range pts {
		if d := math.Hypot(q.X-p.X, q.Y-p.Y); d > maxDist {
			maxDist = d
			idx = i
		}
	}
	return idx
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	// Area of parallelogram / base length
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	den := math.Hypot(vx, vy)
	return num / den
}

// ArcLength returns the perimeter of a closed polygon.
func ArcLength(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	total := 0.0
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		total += math.Hypot(b.X-a.X, b.Y-a.Y)
	}
	return total
}

// PolygonArea returns the absolute area of a closed polygon (shoelace formula).
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(sum) / 2
}
