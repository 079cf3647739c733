// Package logging provides the component-tagged console logger used across
// the pantry agent core, mirroring the teacher's internal/utils logger.
package logging

import (
	"fmt"
	"log"
	"sync"

	"github.com/fatih/color"
)

// LogLevel is the severity of a log line.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the interface consumed by the rest of the core.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ComponentLoggerConfig configures a ComponentLogger.
type ComponentLoggerConfig struct {
	ComponentName string
	Color         color.Attribute
	EnabledLevels []LogLevel
}

// ComponentLogger prefixes every line with a colorized component tag.
type ComponentLogger struct {
	name    string
	color   *color.Color
	enabled map[LogLevel]bool
}

// NewComponentLogger builds a ComponentLogger. With no EnabledLevels, all
// levels are enabled, matching the teacher's default-levels behavior.
func NewComponentLogger(cfg ComponentLoggerConfig) *ComponentLogger {
	enabled := map[LogLevel]bool{DEBUG: true, INFO: true, WARN: true, ERROR: true}
	if len(cfg.EnabledLevels) > 0 {
		enabled = make(map[LogLevel]bool, len(cfg.EnabledLevels))
		for _, lvl := range cfg.EnabledLevels {
			enabled[lvl] = true
		}
	}
	c := color.New(cfg.Color)
	if cfg.Color == 0 {
		c = color.New(color.FgWhite)
	}
	return &ComponentLogger{name: cfg.ComponentName, color: c, enabled: enabled}
}

func (c *ComponentLogger) log(level LogLevel, format string, args ...any) {
	if !c.enabled[level] {
		return
	}
	msg := fmt.Sprintf(format, args...)
	tag := c.color.Sprintf("[%s]", c.name)
	log.Printf("%s [%s] %s", tag, level, msg)
}

func (c *ComponentLogger) Debug(format string, args ...any) { c.log(DEBUG, format, args...) }
func (c *ComponentLogger) Info(format string, args ...any)  { c.log(INFO, format, args...) }
func (c *ComponentLogger) Warn(format string, args ...any)  { c.log(WARN, format, args...) }
func (c *ComponentLogger) Error(format string, args ...any) { c.log(ERROR, format, args...) }

var _ Logger = (*ComponentLogger)(nil)

// LoggerFactory memoizes named component loggers so every call site that
// asks for e.g. "Planner" shares one instance and one set of enabled levels.
type LoggerFactory struct {
	mu      sync.Mutex
	loggers map[string]*ComponentLogger
}

var defaultFactory = &LoggerFactory{loggers: make(map[string]*ComponentLogger)}

var componentColors = map[string]color.Attribute{
	"Planner":      color.FgCyan,
	"Ambiguity":    color.FgYellow,
	"Confirm":      color.FgMagenta,
	"Executor":     color.FgGreen,
	"TaskChain":    color.FgBlue,
	"Stream":       color.FgHiCyan,
	"ToolRegistry": color.FgHiYellow,
	"Session":      color.FgHiMagenta,
	"HTTP":         color.FgHiGreen,
	"Compose":      color.FgWhite,
}

// GetLogger returns the memoized logger for a component name, creating one
// with all levels enabled on first use.
func (f *LoggerFactory) GetLogger(component string) *ComponentLogger {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.loggers[component]; ok {
		return l
	}
	l := NewComponentLogger(ComponentLoggerConfig{ComponentName: component, Color: componentColors[component]})
	f.loggers[component] = l
	return l
}

// NewNamed is the call-site convenience used throughout the core:
// logging.NewNamed("Executor").
func NewNamed(component string) Logger {
	return defaultFactory.GetLogger(component)
}
