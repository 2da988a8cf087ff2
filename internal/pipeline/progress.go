package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives page progress. Calls may come from several
// workers; implementations must be safe for concurrent use.
type ProgressCallback interface {
	OnStart(total int)
	OnProgress(current, total int)
	OnComplete()
	OnError(page int, err error)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnComplete()         {}
func (NoOpProgressCallback) OnError(int, error)  {}

// ConsoleProgressCallback draws a progress bar on a terminal.
type ConsoleProgressCallback struct {
	writer    io.Writer
	prefix    string
	width     int
	mu        sync.Mutex
	startTime time.Time
}

// NewConsoleProgressCallback creates a console progress reporter writing to
// writer (stderr when nil).
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{writer: writer, prefix: prefix, width: 30}
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.draw(0, total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draw(current, total)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted in %v\n", c.prefix, time.Since(c.startTime).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) OnError(page int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%sError on page %d: %v\n", c.prefix, page, err)
}

func (c *ConsoleProgressCallback) draw(current, total int) {
	if total <= 0 {
		return
	}
	filled := c.width * current / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	percent := float64(current) / float64(total) * 100
	_, _ = fmt.Fprintf(c.writer, "\r%s[%s] %d/%d (%.1f%%)", c.prefix, bar, current, total, percent)
}

// LogProgressCallback reports progress through slog.
type LogProgressCallback struct {
	logger    *slog.Logger
	level     slog.Level
	mu        sync.Mutex
	startTime time.Time
}

// NewLogProgressCallback creates a log-based progress reporter; a nil logger
// uses slog.Default.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.mu.Lock()
	l.startTime = time.Now()
	l.mu.Unlock()
	l.logger.Log(nil, l.level, "Starting extraction", "pages", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	l.logger.Log(nil, l.level, "Page done", "current", current, "total", total)
}

func (l *LogProgressCallback) OnComplete() {
	l.mu.Lock()
	elapsed := time.Since(l.startTime)
	l.mu.Unlock()
	l.logger.Log(nil, l.level, "Extraction completed", "elapsed", elapsed.Round(time.Millisecond))
}

func (l *LogProgressCallback) OnError(page int, err error) {
	l.logger.Log(nil, slog.LevelError, "Page failed", "page", page, "error", err)
}
