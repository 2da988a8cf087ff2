//nolint:lll
package config

// Config represents the complete configuration for docextract. It is
// loaded from configuration files, environment variables and command-line
// flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Page rendering
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`

	// Region detection
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Rectangle merging
	Merge MergeConfig `mapstructure:"merge" yaml:"merge" json:"merge"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Assembler selects the PDF writer: gofpdf or pdfcpu.
	Assembler string `mapstructure:"assembler" yaml:"assembler" json:"assembler"`

	// Workers bounds concurrent page processing.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`

	// MetricsFile receives a Prometheus textfile after each extract run.
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// RenderConfig contains page rasterization settings.
type RenderConfig struct {
	DPI           int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	Backend       string `mapstructure:"backend" yaml:"backend" json:"backend"`
	Pages         string `mapstructure:"pages" yaml:"pages" json:"pages"`
	Password      string `mapstructure:"password" yaml:"password" json:"password"`
	OwnerPassword string `mapstructure:"owner_password" yaml:"owner_password" json:"owner_password"`
}

// DetectorConfig contains region detection settings.
type DetectorConfig struct {
	BlurSigma       float64 `mapstructure:"blur_sigma" yaml:"blur_sigma" json:"blur_sigma"`
	CannyLow        float64 `mapstructure:"canny_low" yaml:"canny_low" json:"canny_low"`
	CannyHigh       float64 `mapstructure:"canny_high" yaml:"canny_high" json:"canny_high"`
	ApproxEpsilon   float64 `mapstructure:"approx_epsilon" yaml:"approx_epsilon" json:"approx_epsilon"`
	MinArea         float64 `mapstructure:"min_area" yaml:"min_area" json:"min_area"`
	Corners         int     `mapstructure:"corners" yaml:"corners" json:"corners"`
	IncludeHoles    bool    `mapstructure:"include_holes" yaml:"include_holes" json:"include_holes"`
	Morphology      string  `mapstructure:"morphology" yaml:"morphology" json:"morphology"`
	MorphKernelSize int     `mapstructure:"morph_kernel_size" yaml:"morph_kernel_size" json:"morph_kernel_size"`
	MorphIterations int     `mapstructure:"morph_iterations" yaml:"morph_iterations" json:"morph_iterations"`
}

// MergeConfig contains rectangle merge settings.
type MergeConfig struct {
	Strategy   string `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	Validation string `mapstructure:"validation" yaml:"validation" json:"validation"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir" json:"dir"`
	PDF          string `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	Format       string `mapstructure:"format" yaml:"format" json:"format"`
	Overlay      bool   `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
	OverlayColor string `mapstructure:"overlay_color" yaml:"overlay_color" json:"overlay_color"`
	SavePages    bool   `mapstructure:"save_pages" yaml:"save_pages" json:"save_pages"`
	PageSize     string `mapstructure:"page_size" yaml:"page_size" json:"page_size"`
}
