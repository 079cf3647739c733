package logging

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggerRespectsEnabledLevels(t *testing.T) {
	logger := NewComponentLogger(ComponentLoggerConfig{
		ComponentName: "Test",
		Color:         color.FgCyan,
		EnabledLevels: []LogLevel{WARN, ERROR},
	})
	require.False(t, logger.enabled[DEBUG])
	require.False(t, logger.enabled[INFO])
	require.True(t, logger.enabled[WARN])
	require.True(t, logger.enabled[ERROR])

	// Should not panic regardless of whether the level is enabled.
	logger.Debug("suppressed %s", "line")
	logger.Warn("visible %s", "line")
}

func TestDefaultLevelsEnabled(t *testing.T) {
	logger := NewComponentLogger(ComponentLoggerConfig{ComponentName: "Test"})
	require.True(t, logger.enabled[DEBUG])
	require.True(t, logger.enabled[INFO])
	require.True(t, logger.enabled[WARN])
	require.True(t, logger.enabled[ERROR])
}

func TestLoggerFactoryMemoizes(t *testing.T) {
	factory := &LoggerFactory{loggers: make(map[string]*ComponentLogger)}
	first := factory.GetLogger("Planner")
	second := factory.GetLogger("Planner")
	require.Same(t, first, second)
}

func TestNewNamedUsesDefaultFactory(t *testing.T) {
	a := NewNamed("Executor")
	b := NewNamed("Executor")
	require.Same(t, a.(*ComponentLogger), b.(*ComponentLogger))
}

func TestLevelStringer(t *testing.T) {
	cases := map[LogLevel]string{
		DEBUG:        "DEBUG",
		INFO:         "INFO",
		WARN:         "WARN",
		ERROR:        "ERROR",
		LogLevel(99): "UNKNOWN",
	}
	for level, want := range cases {
		require.Equal(t, want, level.String())
	}
}

var _ Logger = (*ComponentLogger)(nil)
