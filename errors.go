package sigui

import (
	"errors"

	"github.com/AnatoleLucet/sigui/internal"
)

// ErrQueueClosed is returned to blocking consumers once the queue is shut down and empty.
var ErrQueueClosed = internal.ErrQueueClosed

// PanicError is a recovered panic, with the stack trace captured where it happened.
type PanicError = internal.PanicError

// ErrNoAdaptor is logged when a view is built without an Adaptor, neither its
// own nor inherited from a parent.
var ErrNoAdaptor = errors.New("sigui: view has no adaptor")
