package internal

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the generified logiface logger used across the module. A nil Logger is silent.
type Logger = logiface.Logger[logiface.Event]

// NewLogger writes JSON lines to w, dropping events less severe than level.
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
	).Logger()
}

func DefaultLogger() *Logger {
	return NewLogger(os.Stderr, logiface.LevelWarning)
}
