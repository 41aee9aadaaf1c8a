package internal

import "sync/atomic"

// Subscription links a subscriber to its source observable.
type Subscription struct {
	source *Observable

	next func(any)
	err  func(error)
	done func()

	active atomic.Bool
}

func (s *Subscription) Active() bool { return s.active.Load() }

func (s *Subscription) Unsubscribe() {
	if s.active.Load() {
		s.source.Unsubscribe(s)
	}
}

func (s *Subscription) onNext(v any) {
	if s.Active() && s.next != nil {
		s.next(v)
	}
}

func (s *Subscription) onError(err error) {
	if s.Active() && s.err != nil {
		s.err(err)
	}
}

// finish delivers completion at most once and deactivates the subscription.
func (s *Subscription) finish() {
	if s.active.CompareAndSwap(true, false) && s.done != nil {
		s.done()
	}
}
