package sigui

import (
	"github.com/AnatoleLucet/sigui/internal"
)

// Observer receives the notifications of an Observable, always on the main goroutine.
type Observer[T any] interface {
	OnNext(value T)
	OnError(err error)
	OnCompleted()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs[T any] struct {
	Next      func(T)
	Error     func(error)
	Completed func()
}

func (f ObserverFuncs[T]) OnNext(value T) {
	if f.Next != nil {
		f.Next(value)
	}
}

func (f ObserverFuncs[T]) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f ObserverFuncs[T]) OnCompleted() {
	if f.Completed != nil {
		f.Completed()
	}
}

// Subscription is the handle of one subscriber.
//
// The observable only keeps a weak reference to it: once nothing else
// references the Subscription it is silently dropped, so keep it for as
// long as notifications are wanted (or bind it to a View).
type Subscription struct {
	sub *internal.Subscription
}

// Unsubscribe stops deliveries, including ones already queued.
func (s *Subscription) Unsubscribe() {
	if s != nil {
		s.sub.Unsubscribe()
	}
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s != nil && s.sub.Active()
}

// Observable is a value that can be set from any goroutine and notifies its
// subscribers on the scheduler's main goroutine.
//
// Setting a value equal to the current one does nothing. When T is an
// interface type, values with an uncomparable dynamic type (slices, maps,
// funcs) are always treated as a change.
type Observable[T comparable] struct {
	obs *internal.Observable
}

// NewObservable creates an observable on the Default scheduler.
func NewObservable[T comparable](initial T) *Observable[T] {
	return NewObservableOn(Default(), initial)
}

// NewObservableOn creates an observable delivering through s.
func NewObservableOn[T comparable](s *Scheduler, initial T) *Observable[T] {
	return &Observable[T]{
		internal.NewObservable(s.s, initial),
	}
}

func wrap[T comparable](obs *internal.Observable) *Observable[T] {
	return &Observable[T]{obs}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	return as[T](o.obs.Get())
}

// Set stores v and schedules a notification to every subscriber.
// It reports whether the value changed.
func (o *Observable[T]) Set(v T) bool {
	return o.obs.Set(v)
}

// Update atomically replaces the value with fn(current) and returns the new value.
// fn runs under the observable's lock and must not use o.
func (o *Observable[T]) Update(fn func(T) T) T {
	return as[T](o.obs.Update(func(v any) any { return fn(as[T](v)) }))
}

// Subscribe registers fn and schedules a delivery of the current value to it.
func (o *Observable[T]) Subscribe(fn func(T)) *Subscription {
	return o.SubscribeObserver(ObserverFuncs[T]{Next: fn})
}

// SubscribeObserver registers observer and schedules a delivery of the current value to it.
func (o *Observable[T]) SubscribeObserver(observer Observer[T]) *Subscription {
	return &Subscription{
		o.obs.Subscribe(
			func(v any) { observer.OnNext(as[T](v)) },
			observer.OnError,
			observer.OnCompleted,
		),
	}
}

// Unsubscribe removes sub if it belongs to o.
func (o *Observable[T]) Unsubscribe(sub *Subscription) {
	if sub != nil {
		o.obs.Unsubscribe(sub.sub)
	}
}

// NotifyError delivers err to every subscriber.
func (o *Observable[T]) NotifyError(err error) {
	o.obs.Error(err)
}

// Complete delivers completion and drops every subscriber. Later values are
// still stored but never delivered.
func (o *Observable[T]) Complete() {
	o.obs.Complete()
}

// Completed reports whether Complete was called.
func (o *Observable[T]) Completed() bool {
	return o.obs.Completed()
}

// Subscribers returns the number of live subscribers.
func (o *Observable[T]) Subscribers() int {
	return o.obs.Subscribers()
}

// Dispose detaches a derived observable from its sources. It is a no-op on
// observables created with NewObservable.
func (o *Observable[T]) Dispose() {
	o.obs.Dispose()
}

// Scheduler returns the scheduler notifications are delivered through.
func (o *Observable[T]) Scheduler() *Scheduler {
	return &Scheduler{o.obs.Scheduler()}
}
