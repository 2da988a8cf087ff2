package detector

import "github.com/MeKo-Tech/docextract/internal/utils"

// 8-neighborhood clockwise order (y grows downwards): E, SE, S, SW, W, NW, N, NE.
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// traceBoundary extracts the outer boundary of a labeled component by radial
// sweep, starting at the component's first raster pixel. Tracing stops when
// the start pixel is about to be left towards the second boundary pixel
// again. Returned points are pixel coordinates in clockwise order.
func traceBoundary(labels []int32, w, h int, st compStats) []utils.Point {
	sx, sy := st.firstX, st.firstY
	if sx < 0 || sy < 0 || sx >= w || sy >= h || labels[sy*w+sx] != st.label {
		return nil
	}

	pts := make([]utils.Point, 0, 64)
	pts = append(pts, utils.Point{X: float64(sx), Y: float64(sy)})

	// The west neighbour of the first raster pixel is background.
	nx, ny, ok := nextBoundaryPixel(labels, w, h, st.label, sx, sy, sx-1, sy)
	if !ok {
		return pts
	}
	secondX, secondY := nx, ny

	cx, cy := sx, sy
	maxSteps := 4*st.count + 8
	for range maxSteps {
		bx, by := cx, cy
		cx, cy = nx, ny
		nx, ny, ok = nextBoundaryPixel(labels, w, h, st.label, cx, cy, bx, by)
		if !ok {
			break
		}
		if cx == sx && cy == sy && nx == secondX && ny == secondY {
			break
		}
		pts = append(pts, utils.Point{X: float64(cx), Y: float64(cy)})
	}

	return pts
}

// nextBoundaryPixel scans the Moore neighbourhood of (cx, cy) clockwise,
// starting just after the backtrack pixel (bx, by).
func nextBoundaryPixel(labels []int32, w, h int, label int32, cx, cy, bx, by int) (int, int, bool) {
	start := (directionIndex(bx-cx, by-cy) + 1) % 8
	for k := range 8 {
		i := (start + k) % 8
		tx, ty := cx+mooreDX[i], cy+mooreDY[i]
		if tx >= 0 && ty >= 0 && tx < w && ty < h && labels[ty*w+tx] == label {
			return tx, ty, true
		}
	}
	return 0, 0, false
}

func directionIndex(dx, dy int) int {
	for i := range 8 {
		if mooreDX[i] == dx && mooreDY[i] == dy {
			return i
		}
	}
	return 0
}
