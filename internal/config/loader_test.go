package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// isolate points the search paths at an empty temporary directory and
// returns a loader on a fresh viper instance.
func isolate(t *testing.T) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			key, _, _ := strings.Cut(env, "=")
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
	t.Chdir(dir)
	return NewLoaderWithViper(viper.New()), dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

// TestNewLoader tests loader creation.
func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil || loader.v == nil {
		t.Fatal("NewLoader() returned loader without viper instance")
	}
	if loader.GetViper() != viper.GetViper() {
		t.Error("NewLoader() should use the global viper instance")
	}
}

// TestLoadWithNoConfigFile tests loading with no config file present.
func TestLoadWithNoConfigFile(t *testing.T) {
	loader, _ := isolate(t)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected default log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Render.DPI != 300 {
		t.Errorf("Expected default dpi 300, got %d", cfg.Render.DPI)
	}
	if cfg.Detector.MinArea != 5000 {
		t.Errorf("Expected default min area 5000, got %f", cfg.Detector.MinArea)
	}
	if loader.GetConfigFileUsed() != "" {
		t.Errorf("Expected no config file, got %s", loader.GetConfigFileUsed())
	}
}

// TestLoadFromSearchPath tests discovery of docextract.yaml in the working directory.
func TestLoadFromSearchPath(t *testing.T) {
	loader, dir := isolate(t)
	writeFile(t, filepath.Join(dir, "docextract.yaml"), `
log_level: debug
render:
  pages: "32"
merge:
  strategy: fixed-point
`)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.Render.Pages != "32" {
		t.Errorf("Expected pages '32', got %q", cfg.Render.Pages)
	}
	if cfg.Merge.Strategy != "fixed-point" {
		t.Errorf("Expected fixed-point, got %s", cfg.Merge.Strategy)
	}
	// Unset keys keep their defaults.
	if cfg.Merge.Validation != "passthrough" {
		t.Errorf("Expected default validation, got %s", cfg.Merge.Validation)
	}
}

// TestLoadFromXDGConfigHome tests discovery under $XDG_CONFIG_HOME/docextract.
func TestLoadFromXDGConfigHome(t *testing.T) {
	loader, dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".config", "docextract", "docextract.yaml"), "workers: 7\n")

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Workers != 7 {
		t.Errorf("Expected workers 7, got %d", cfg.Workers)
	}
}

// TestLoadWithFile tests loading from an explicit file.
func TestLoadWithFile(t *testing.T) {
	loader, dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, `
detector:
  min_area: 1200
  morphology: closing
output:
  dir: crops
  overlay: true
assembler: pdfcpu
`)

	cfg, err := loader.LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() unexpected error: %v", err)
	}
	if cfg.Detector.MinArea != 1200 {
		t.Errorf("Expected min area 1200, got %f", cfg.Detector.MinArea)
	}
	if cfg.Detector.Morphology != "closing" {
		t.Errorf("Expected closing, got %s", cfg.Detector.Morphology)
	}
	if cfg.Output.Dir != "crops" || !cfg.Output.Overlay {
		t.Errorf("Unexpected output config %+v", cfg.Output)
	}
	if cfg.Assembler != "pdfcpu" {
		t.Errorf("Expected pdfcpu, got %s", cfg.Assembler)
	}
	if loader.GetConfigFileUsed() != path {
		t.Errorf("Expected config file %s, got %s", path, loader.GetConfigFileUsed())
	}
}

// TestLoadWithFileErrors tests missing, malformed and invalid files.
func TestLoadWithFileErrors(t *testing.T) {
	loader, dir := isolate(t)

	if _, err := loader.LoadWithFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	malformed := filepath.Join(dir, "malformed.yaml")
	writeFile(t, malformed, "log_level: [unclosed\n")
	if _, err := NewLoaderWithViper(viper.New()).LoadWithFile(malformed); err == nil {
		t.Error("Expected error for malformed YAML")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, "log_level: invalid_level\nworkers: -1\n")
	if _, err := NewLoaderWithViper(viper.New()).LoadWithFile(invalid); err == nil {
		t.Error("Expected validation error")
	}

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(invalid)
	if err != nil {
		t.Fatalf("LoadWithFileWithoutValidation() unexpected error: %v", err)
	}
	if cfg.LogLevel != "invalid_level" || cfg.Workers != -1 {
		t.Errorf("Expected invalid values to be loaded, got %s/%d", cfg.LogLevel, cfg.Workers)
	}
}

// TestEnvironmentVariableOverride tests environment variable override.
func TestEnvironmentVariableOverride(t *testing.T) {
	loader, dir := isolate(t)
	writeFile(t, filepath.Join(dir, "docextract.yaml"), "log_level: warn\n")

	t.Setenv("DOCEXTRACT_LOG_LEVEL", "debug")
	t.Setenv("DOCEXTRACT_VERBOSE", "true")
	t.Setenv("DOCEXTRACT_DETECTOR_MIN_AREA", "2500")
	t.Setenv("DOCEXTRACT_MERGE_VALIDATION", "normalize")
	t.Setenv("DOCEXTRACT_RENDER_PAGES", "1-3")

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.LogLevel != debugLevel {
		t.Errorf("Expected log level 'debug' from env, got %s", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Error("Expected verbose true from env")
	}
	if cfg.Detector.MinArea != 2500 {
		t.Errorf("Expected min area 2500 from env, got %f", cfg.Detector.MinArea)
	}
	if cfg.Merge.Validation != "normalize" {
		t.Errorf("Expected normalize from env, got %s", cfg.Merge.Validation)
	}
	if cfg.Render.Pages != "1-3" {
		t.Errorf("Expected pages '1-3' from env, got %q", cfg.Render.Pages)
	}
}

// TestGenerateDefaultConfigFile tests writing and reloading the defaults.
func TestGenerateDefaultConfigFile(t *testing.T) {
	_, dir := isolate(t)
	path := filepath.Join(dir, "generated.yaml")

	if err := GenerateDefaultConfigFile(path); err != nil {
		t.Fatalf("GenerateDefaultConfigFile() error: %v", err)
	}

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error: %v", err)
	}
	defaults := DefaultConfig()
	if cfg.Render != defaults.Render || cfg.Merge != defaults.Merge || cfg.Output != defaults.Output {
		t.Errorf("Generated config does not match defaults: %+v", cfg)
	}
}

// TestGetConfigSearchPaths tests the search path order.
func TestGetConfigSearchPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	paths := GetConfigSearchPaths()
	want := []string{".", home, "/xdg/docextract", "/etc/docextract"}
	if len(paths) != len(want) {
		t.Fatalf("Expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], paths[i])
		}
	}
}

// TestPrintConfigInfo tests the debug output.
func TestPrintConfigInfo(t *testing.T) {
	var b strings.Builder
	NewLoaderWithViper(viper.New()).PrintConfigInfo(&b)
	if !strings.Contains(b.String(), "Environment prefix: DOCEXTRACT") {
		t.Errorf("Unexpected output: %s", b.String())
	}
}
