package internal

import (
	"sync"
	"time"
)

// Map derives an observable holding fn(value) for every value of o.
// Errors and panics from fn are delivered as error notifications instead.
func (o *Observable) Map(initial any, fn func(any) (any, error)) *Observable {
	d := NewObservable(o.scheduler, initial)

	d.follow(o, func(v any) {
		d.apply(func() (any, error) { return fn(v) })
	})

	return d
}

// Filter derives an observable that only takes the values of o matching pred.
func (o *Observable) Filter(initial any, pred func(any) bool) *Observable {
	d := NewObservable(o.scheduler, initial)

	d.follow(o, func(v any) {
		var ok bool
		if err := Protect(func() { ok = pred(v) }); err != nil {
			d.Error(err)
			return
		}

		if ok {
			d.Set(v)
		}
	})

	return d
}

// Combine derives an observable recomputed from both sources whenever either delivers.
func (o *Observable) Combine(other *Observable, initial any, fn func(a, b any) (any, error)) *Observable {
	d := NewObservable(o.scheduler, initial)

	recompute := func(any) {
		d.apply(func() (any, error) { return fn(o.Get(), other.Get()) })
	}

	d.follow(o, recompute)
	d.follow(other, recompute)

	return d
}

// Debounce derives an observable that takes a value of o only once no newer
// value arrived for delay. A single timer is restarted on every value.
func (o *Observable) Debounce(initial any, delay time.Duration) *Observable {
	d := NewObservable(o.scheduler, initial)

	var (
		mu    sync.Mutex
		timer *time.Timer
		gen   uint64 // bumped on every value, stale timers see a newer gen and give up
	)

	d.follow(o, func(v any) {
		mu.Lock()
		defer mu.Unlock()

		gen++
		current := gen

		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			mu.Lock()
			latest := current == gen
			mu.Unlock()

			if latest {
				d.Set(v)
			}
		})
	})

	d.OnDispose(func() {
		mu.Lock()
		defer mu.Unlock()

		gen++
		if timer != nil {
			timer.Stop()
		}
	})

	return d
}

func (o *Observable) apply(compute func() (any, error)) {
	var (
		v   any
		err error
	)
	if perr := Protect(func() { v, err = compute() }); perr != nil {
		err = perr
	}

	if err != nil {
		o.Error(err)
		return
	}

	o.Set(v)
}
