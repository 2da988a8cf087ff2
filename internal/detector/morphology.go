package detector

// MorphologicalOp represents a binary morphological operation on the edge mask.
type MorphologicalOp string

const (
	MorphNone    MorphologicalOp = "none"
	MorphDilate  MorphologicalOp = "dilate"
	MorphErode   MorphologicalOp = "erode"
	MorphClosing MorphologicalOp = "closing" // Dilate then Erode - bridges small gaps in edges
)

// MorphConfig holds configuration for morphological operations.
type MorphConfig struct {
	Operation  MorphologicalOp
	KernelSize int // Size of the square kernel (e.g., 3 for 3x3)
	Iterations int
}

// DefaultMorphConfig leaves the edge mask untouched.
func DefaultMorphConfig() MorphConfig {
	return MorphConfig{
		Operation:  MorphNone,
		KernelSize: 3,
		Iterations: 1,
	}
}

// ApplyMorphology applies cfg to a binary mask and returns a new mask. The
// input is returned as-is when the operation is a no-op.
func ApplyMorphology(mask []bool, width, height int, cfg MorphConfig) []bool {
	if cfg.Operation == MorphNone || cfg.Operation == "" || cfg.KernelSize <= 1 || cfg.Iterations <= 0 {
		return mask
	}

	result := make([]bool, len(mask))
	copy(result, mask)

	for range cfg.Iterations {
		switch cfg.Operation {
		case MorphDilate:
			result = dilateMask(result, width, height, cfg.KernelSize)
		case MorphErode:
			result = erodeMask(result, width, height, cfg.KernelSize)
		case MorphClosing:
			result = dilateMask(result, width, height, cfg.KernelSize)
			result = erodeMask(result, width, height, cfg.KernelSize)
		}
	}

	return result
}

// dilateMask sets a pixel when any pixel under the kernel is set.
func dilateMask(mask []bool, width, height, kernelSize int) []bool {
	return sweepKernel(mask, width, height, kernelSize, true)
}

// erodeMask keeps a pixel only when every in-bounds pixel under the kernel is set.
func erodeMask(mask []bool, width, height, kernelSize int) []bool {
	return sweepKernel(mask, width, height, kernelSize, false)
}

func sweepKernel(mask []bool, width, height, kernelSize int, dilate bool) []bool {
	result := make([]bool, len(mask))
	half := kernelSize / 2

	for y := range height {
		for x := range width {
			hit := !dilate
			for ky := -half; ky <= half && hit != dilate; ky++ {
				for kx := -half; kx <= half; kx++ {
					nx, ny := x+kx, y+ky
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					if mask[ny*width+nx] == dilate {
						hit = dilate
						break
					}
				}
			}
			result[y*width+x] = hit
		}
	}

	return result
}
