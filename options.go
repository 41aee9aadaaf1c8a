package sigui

import (
	"io"

	"github.com/AnatoleLucet/sigui/internal"
	"github.com/joeycumines/logiface"
)

// Logger is the structured logger used to report failed tasks and adaptor errors.
type Logger = internal.Logger

// NewLogger creates a JSON logger writing to w, dropping events below level.
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	return internal.NewLogger(w, level)
}

type config struct {
	logger *Logger
}

// Option configures a Scheduler.
type Option func(*config)

// WithLogger sets the scheduler's logger. A nil logger discards everything.
func WithLogger(logger *Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// SetLogger replaces the logger of the Default scheduler.
func SetLogger(logger *Logger) {
	Default().SetLogger(logger)
}
