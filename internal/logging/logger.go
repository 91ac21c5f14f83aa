// Package logging wraps charmbracelet/log with the leveled printf helpers used
// across surge. INFO and SUCCESS go to stdout, everything else to stderr,
// unless a single output is configured with SetOutput.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	mu sync.Mutex

	stdoutLogger = newLogger(os.Stdout)
	stderrLogger = newLogger(os.Stderr)

	// Saved writers while output is suppressed (TUI owns the terminal).
	suppressed       bool
	savedOut, savedE io.Writer = os.Stdout, os.Stderr

	successStyle = lipgloss.NewStyle().
			SetString("SUCCESS").
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)
)

var validLevels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

func newLogger(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	l.SetStyles(levelStyles())
	return l
}

func levelStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Foreground(lipgloss.Color("#7F6DFF"))
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Foreground(lipgloss.Color("#42E7FF"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Foreground(lipgloss.Color("#FFAF00"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Foreground(lipgloss.Color("#FF5F87"))
	return styles
}

// Debug logs verbose diagnostics such as per-batch congestion decisions.
func Debug(format string, v ...any) {
	stderrLogger.Debug(fmt.Sprintf(format, v...))
}

// Info logs job lifecycle and status messages.
func Info(format string, v ...any) {
	stdoutLogger.Info(fmt.Sprintf(format, v...))
}

// Warn logs recoverable problems.
func Warn(format string, v ...any) {
	stderrLogger.Warn(fmt.Sprintf(format, v...))
}

// Error logs failures, including individual write errors.
func Error(format string, v ...any) {
	stderrLogger.Error(fmt.Sprintf(format, v...))
}

// Success logs at INFO level with a green SUCCESS tag.
func Success(format string, v ...any) {
	if stdoutLogger.GetLevel() > log.InfoLevel {
		return
	}
	stdoutLogger.Print(successStyle.String() + " " + fmt.Sprintf(format, v...))
}

// ValidateLogLevel reports whether level is one of DEBUG, INFO, WARN, ERROR.
func ValidateLogLevel(level string) error {
	up := strings.ToUpper(strings.TrimSpace(level))
	for _, l := range validLevels {
		if up == l {
			return nil
		}
	}
	return fmt.Errorf("invalid log level %q (must be one of %s)", level, strings.Join(validLevels, ", "))
}

// SetLevel applies level to both loggers. Unknown levels fall back to INFO.
func SetLevel(level string) {
	var lvl log.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = log.DebugLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	stdoutLogger.SetLevel(lvl)
	stderrLogger.SetLevel(lvl)
}

// SetOutput sends every level to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	savedOut, savedE = w, w
	if !suppressed {
		stdoutLogger.SetOutput(w)
		stderrLogger.SetOutput(w)
	}
}

// SuppressOutput discards all log output until RestoreOutput is called.
func SuppressOutput() {
	mu.Lock()
	defer mu.Unlock()
	suppressed = true
	stdoutLogger.SetOutput(io.Discard)
	stderrLogger.SetOutput(io.Discard)
}

// RestoreOutput undoes SuppressOutput.
func RestoreOutput() {
	mu.Lock()
	defer mu.Unlock()
	suppressed = false
	stdoutLogger.SetOutput(savedOut)
	stderrLogger.SetOutput(savedE)
}

// LevelWriter adapts the logger to io.Writer for libraries (gin) that want
// a writer. Each line is logged at the configured level with a prefix.
type LevelWriter struct {
	level  string
	prefix string
}

// NewLevelWriter returns a writer that logs every line at level.
func NewLevelWriter(level, prefix string) io.Writer {
	return &LevelWriter{level: strings.ToUpper(level), prefix: prefix}
}

func (w *LevelWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if w.prefix != "" {
			line = "[" + w.prefix + "] " + line
		}
		switch w.level {
		case "DEBUG":
			Debug("%s", line)
		case "WARN":
			Warn("%s", line)
		case "ERROR":
			Error("%s", line)
		default:
			Info("%s", line)
		}
	}
	return len(p), nil
}
