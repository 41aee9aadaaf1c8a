package internal

import (
	"sync"
	"weak"
)

// Observable is a value cell whose changes are delivered to subscribers on the main goroutine.
type Observable struct {
	mu sync.RWMutex

	value     any
	completed bool

	// subscribers are held weakly, whoever subscribed keeps them alive
	subs []weak.Pointer[Subscription]

	scheduler *Scheduler

	// subscriptions this observable depends on, derived observables only
	upstream []*Subscription
	cleanups []func()
}

func NewObservable(s *Scheduler, initial any) *Observable {
	return &Observable{
		value:     initial,
		scheduler: s,
	}
}

func (o *Observable) Scheduler() *Scheduler { return o.scheduler }

func (o *Observable) Get() any {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.value
}

// Set stores v and notifies subscribers, unless v equals the current value.
func (o *Observable) Set(v any) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.store(v)
}

// Update atomically replaces the value with fn(current).
func (o *Observable) Update(fn func(any) any) any {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := fn(o.value)
	o.store(v)

	return v
}

// store must be called with mu held. Deliveries are posted before the lock is
// released so notifications reach the queue in the order values were stored.
func (o *Observable) store(v any) bool {
	if isEqual(o.value, v) {
		return false
	}
	o.value = v

	if !o.completed {
		o.notify(func(s *Subscription) { s.onNext(v) })
	}

	return true
}

func (o *Observable) Subscribe(next func(any), onErr func(error), done func()) *Subscription {
	sub := &Subscription{
		source: o,
		next:   next,
		err:    onErr,
		done:   done,
	}
	sub.active.Store(true)

	o.mu.Lock()
	defer o.mu.Unlock()

	ref := weak.Make(sub)

	if o.completed {
		o.deliver(ref, func(s *Subscription) { s.finish() })
		return sub
	}

	o.subs = append(o.subs, ref)

	value := o.value
	o.deliver(ref, func(s *Subscription) { s.onNext(value) })

	return sub
}

func (o *Observable) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.source != o {
		return
	}
	sub.active.Store(false)

	ref := weak.Make(sub)

	o.mu.Lock()
	defer o.mu.Unlock()

	for i, r := range o.subs {
		if r == ref {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return
		}
	}
}

// Error delivers err to every live subscriber.
func (o *Observable) Error(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.completed {
		return
	}

	o.notify(func(s *Subscription) { s.onError(err) })
}

// Complete delivers completion and drops every subscriber.
func (o *Observable) Complete() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.completed {
		return
	}
	o.completed = true

	o.notify(func(s *Subscription) { s.finish() })
	o.subs = nil
}

func (o *Observable) Completed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.completed
}

// Subscribers prunes expired entries and returns how many remain.
func (o *Observable) Subscribers() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.prune()
	return len(o.subs)
}

// Dispose releases the upstream subscriptions of a derived observable.
func (o *Observable) Dispose() {
	o.mu.Lock()
	upstream, cleanups := o.upstream, o.cleanups
	o.upstream, o.cleanups = nil, nil
	o.mu.Unlock()

	for _, sub := range upstream {
		sub.Unsubscribe()
	}
	for _, fn := range cleanups {
		fn()
	}
}

// OnDispose registers fn to run once when Dispose is called.
func (o *Observable) OnDispose(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cleanups = append(o.cleanups, fn)
}

// follow subscribes o to src, forwarding errors and completion.
func (o *Observable) follow(src *Observable, next func(any)) {
	sub := src.Subscribe(next, o.Error, o.Complete)

	o.mu.Lock()
	o.upstream = append(o.upstream, sub)
	o.mu.Unlock()
}

// notify must be called with mu held.
func (o *Observable) notify(fn func(*Subscription)) {
	o.prune()

	for _, ref := range o.subs {
		o.deliver(ref, fn)
	}
}

func (o *Observable) prune() {
	live := o.subs[:0]
	for _, ref := range o.subs {
		if s := ref.Value(); s != nil && s.Active() {
			live = append(live, ref)
		}
	}

	clear(o.subs[len(live):])
	o.subs = live
}

// deliver posts fn for the subscriber behind ref. The task only holds the weak
// reference, a subscriber collected in the meantime is skipped.
func (o *Observable) deliver(ref weak.Pointer[Subscription], fn func(*Subscription)) {
	o.scheduler.Post(func() {
		if s := ref.Value(); s != nil {
			fn(s)
		}
	})
}

// isEqual reports a == b. Values whose dynamic type cannot be compared, like
// slices held in an interface, are never equal.
func isEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()

	return a == b
}
