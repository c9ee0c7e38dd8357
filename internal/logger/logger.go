// Package logger writes every message to a run log file and the more
// important ones to the console.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Console tags; INFO lines are printed bare
var consoleTags = map[Level]*color.Color{
	LevelDebug: color.New(color.Faint),
	LevelWarn:  color.New(color.FgYellow, color.Bold),
	LevelError: color.New(color.FgRed, color.Bold),
}

// Logger writes every line to the log file and lines at or above its
// threshold to the console
type Logger struct {
	console   *log.Logger
	file      *log.Logger
	closer    io.Closer
	threshold Level
}

var (
	mu         sync.RWMutex
	current    *Logger
	loadErrors atomic.Int64
)

// Init opens the run log at logFilePath and installs the global logger.
// verbose lowers the console threshold to DEBUG.
func Init(consoleOutput io.Writer, logFilePath string, verbose bool) error {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	threshold := LevelInfo
	if verbose {
		threshold = LevelDebug
	}
	l := &Logger{
		console:   log.New(consoleOutput, "", 0),
		file:      log.New(file, "", log.LstdFlags),
		closer:    file,
		threshold: threshold,
	}

	mu.Lock()
	previous := current
	current = l
	mu.Unlock()
	if previous != nil {
		previous.closer.Close()
	}
	loadErrors.Store(0)
	return nil
}

// Close closes the log file. Later calls print to stdout until the next Init.
func Close() {
	mu.Lock()
	l := current
	current = nil
	mu.Unlock()
	if l != nil {
		l.closer.Close()
	}
}

func active() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Debug(format string, args ...interface{}) {
	write(LevelDebug, format, args...)
}

func Info(format string, args ...interface{}) {
	write(LevelInfo, format, args...)
}

func Warn(format string, args ...interface{}) {
	write(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	write(LevelError, format, args...)
}

func write(level Level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	l := active()
	if l == nil {
		if level >= LevelInfo {
			fmt.Fprintln(os.Stdout, consoleLine(level, message))
		}
		return
	}

	l.file.Printf("[%s] %s", level, message)
	if level >= l.threshold {
		l.console.Print(consoleLine(level, message))
	}
}

func consoleLine(level Level, message string) string {
	if tag, ok := consoleTags[level]; ok {
		return tag.Sprintf("[%s]", level) + " " + message
	}
	return message
}

// LogLoadError records a class that could not be read or parsed. It goes to
// the log file only; the caller reports the failure itself.
func LogLoadError(typeName string, err error) {
	loadErrors.Add(1)
	if l := active(); l != nil {
		l.file.Printf("[%s] [LOAD_ERROR] %s: %v", LevelError, typeName, err)
	}
}

// LoadErrorCount returns the number of load errors recorded since Init
func LoadErrorCount() int64 {
	return loadErrors.Load()
}
