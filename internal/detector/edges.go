package detector

import (
	"math"

	"github.com/MeKo-Tech/docextract/internal/mempool"
	"github.com/MeKo-Tech/docextract/internal/utils"
)

// gradient directions quantized to the four neighbour axes.
const (
	dirHorizontal = iota // gradient along x: compare west/east
	dirDiagPos           // 45°: compare NW/SE
	dirVertical          // gradient along y: compare north/south
	dirDiagNeg           // 135°: compare NE/SW
)

// CannyEdges runs Canny edge detection on a grayscale plane and returns an
// edge mask. Gradients are 3x3 Sobel with L1 magnitude; pixels above high are
// strong edges, pixels above low are kept when 8-connected to a strong edge.
func CannyEdges(g *utils.GrayPlane, low, high float64) []bool {
	w, h := g.Width, g.Height
	if w == 0 || h == 0 {
		return nil
	}
	if low > high {
		low, high = high, low
	}

	mag, dir := sobel(g)
	thin := suppressNonMaxima(mag, dir, w, h)
	mempool.PutFloat64(mag)
	mempool.PutUint8(dir)
	edges := hysteresis(thin, w, h, low, high)
	mempool.PutFloat64(thin)
	return edges
}

// sobel computes L1 gradient magnitude and quantized direction per pixel.
// Both planes come from mempool.
func sobel(g *utils.GrayPlane) ([]float64, []uint8) {
	w, h := g.Width, g.Height
	mag := mempool.GetFloat64(w * h)
	dir := mempool.GetUint8(w * h)
	px := func(x, y int) float64 { return float64(g.At(x, y)) }

	for y := range h {
		for x := range w {
			gx := -px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1) +
				px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1)
			gy := -px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1) +
				px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1)
			i := y*w + x
			mag[i] = math.Abs(gx) + math.Abs(gy)
			dir[i] = quantizeDirection(gx, gy)
		}
	}
	return mag, dir
}

func quantizeDirection(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return dirHorizontal
	case angle < 67.5:
		return dirDiagPos
	case angle < 112.5:
		return dirVertical
	default:
		return dirDiagNeg
	}
}

// suppressNonMaxima zeroes pixels that are not a local maximum along their
// gradient direction. The result comes from mempool.
func suppressNonMaxima(mag []float64, dir []uint8, w, h int) []float64 {
	out := mempool.GetFloat64(len(mag))
	at := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	for y := range h {
		for x := range w {
			i := y*w + x
			m := mag[i]
			if m == 0 {
				continue
			}
			var a, b float64
			switch dir[i] {
			case dirHorizontal:
				a, b = at(x-1, y), at(x+1, y)
			case dirDiagPos:
				// y grows downwards, so a positive angle points to SE/NW.
				a, b = at(x-1, y-1), at(x+1, y+1)
			case dirVertical:
				a, b = at(x, y-1), at(x, y+1)
			default:
				a, b = at(x+1, y-1), at(x-1, y+1)
			}
			// Strict on one side breaks ties on plateaus.
			if m > a && m >= b {
				out[i] = m
			}
		}
	}
	return out
}

// hysteresis keeps strong pixels and weak pixels connected to them.
func hysteresis(mag []float64, w, h int, low, high float64) []bool {
	edges := make([]bool, w*h)
	stack := make([]int, 0, 1024)

	for i, m := range mag {
		if m > high && !edges[i] {
			edges[i] = true
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cx, cy := i%w, i/w
		for _, d := range neighbours8 {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			ni := ny*w + nx
			if !edges[ni] && mag[ni] > low {
				edges[ni] = true
				stack = append(stack, ni)
			}
		}
	}
	return edges
}
