package internal

import (
	"sync/atomic"
	"weak"
)

// Guard is the destroyed flag shared between a view and the closures it schedules.
type Guard struct {
	destroyed atomic.Bool
}

func NewGuard() *Guard {
	return &Guard{}
}

// Destroy marks the guard destroyed and reports whether this call did it.
func (g *Guard) Destroy() bool {
	return g.destroyed.CompareAndSwap(false, true)
}

func (g *Guard) Destroyed() bool {
	return g.destroyed.Load()
}

// Weak returns a reference that does not keep the guard alive.
func (g *Guard) Weak() WeakGuard {
	return WeakGuard{ref: weak.Make(g)}
}

// WeakGuard is captured by scheduled closures in place of the view itself.
// The zero value is never alive.
type WeakGuard struct {
	ref weak.Pointer[Guard]
}

// Alive reports whether the guard still exists and was not destroyed.
func (w WeakGuard) Alive() bool {
	g := w.ref.Value()
	return g != nil && !g.Destroyed()
}

// Do runs fn only while the guard is alive.
func (w WeakGuard) Do(fn func()) bool {
	if !w.Alive() {
		return false
	}

	fn()
	return true
}

// Wrap returns fn gated on the guard, for handing to the scheduler.
func (w WeakGuard) Wrap(fn func()) func() {
	return func() { w.Do(fn) }
}
