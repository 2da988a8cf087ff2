package detector

// compStats represents statistics for a connected component.
type compStats struct {
	label int32
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
	// firstX, firstY is the first pixel in raster order; its west
	// neighbour is never part of the component.
	firstX int
	firstY int
	border bool
}

var (
	neighbours4 = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	neighbours8 = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
)

// connectedComponents labels the set pixels of mask (or the unset ones when
// invert is true). Labels start at 1 and follow raster order of each
// component's first pixel; 0 means "not part of any component".
func connectedComponents(mask []bool, w, h int, invert, eightConnected bool) ([]compStats, []int32) {
	labels := make([]int32, w*h)
	var comps []compStats
	dirs := neighbours4
	if eightConnected {
		dirs = neighbours8
	}
	queue := make([]int, 0, 1024)
	label := int32(1)

	for y := range h {
		for x := range w {
			idx := y*w + x
			if mask[idx] == invert || labels[idx] != 0 {
				continue
			}
			st := compStats{label: label, minX: x, minY: y, maxX: x, maxY: y, firstX: x, firstY: y}
			labels[idx] = label
			queue = append(queue[:0], idx)
			for len(queue) > 0 {
				ci := queue[0]
				queue = queue[1:]
				cx, cy := ci%w, ci/w
				updateComponentStats(&st, cx, cy, w, h)
				for _, d := range dirs {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask[ni] != invert && labels[ni] == 0 {
						labels[ni] = label
						queue = append(queue, ni)
					}
				}
			}
			comps = append(comps, st)
			label++
		}
	}

	return comps, labels
}

// updateComponentStats updates the component statistics with a new pixel.
func updateComponentStats(st *compStats, cx, cy, w, h int) {
	st.count++
	if cx < st.minX {
		st.minX = cx
	}
	if cy < st.minY {
		st.minY = cy
	}
	if cx > st.maxX {
		st.maxX = cx
	}
	if cy > st.maxY {
		st.maxY = cy
	}
	if cx == 0 || cy == 0 || cx == w-1 || cy == h-1 {
		st.border = true
	}
}
