package sigui

import (
	"time"
)

// Map derives an observable holding fn(v) for each value v of src.
// A panic in fn is delivered to the derived observable's subscribers as a
// *PanicError instead of reaching the goroutine that called Set.
func Map[T, U comparable](src *Observable[T], fn func(T) U) *Observable[U] {
	return TryMap(src, func(v T) (U, error) { return fn(v), nil })
}

// TryMap is Map for transforms that can fail. An error is delivered as an error
// notification and leaves the derived value unchanged.
func TryMap[T, U comparable](src *Observable[T], fn func(T) (U, error)) *Observable[U] {
	var zero U

	return wrap[U](src.obs.Map(zero, func(v any) (any, error) {
		return fn(as[T](v))
	}))
}

// Combine derives an observable holding fn(a.Get(), b.Get()), recomputed
// whenever either source delivers a value.
func Combine[T, U, V comparable](a *Observable[T], b *Observable[U], fn func(T, U) V) *Observable[V] {
	return TryCombine(a, b, func(x T, y U) (V, error) { return fn(x, y), nil })
}

// TryCombine is Combine for functions that can fail.
func TryCombine[T, U, V comparable](a *Observable[T], b *Observable[U], fn func(T, U) (V, error)) *Observable[V] {
	var zero V

	return wrap[V](a.obs.Combine(b.obs, zero, func(x, y any) (any, error) {
		return fn(as[T](x), as[U](y))
	}))
}

// Filter derives an observable that only takes the values matching pred.
// Other values are dropped without notification.
func (o *Observable[T]) Filter(pred func(T) bool) *Observable[T] {
	var zero T

	return wrap[T](o.obs.Filter(zero, func(v any) bool {
		return pred(as[T](v))
	}))
}

// Debounce derives an observable that takes a value only once no newer value
// arrived for delay. Only the last value of a burst survives.
func (o *Observable[T]) Debounce(delay time.Duration) *Observable[T] {
	var zero T

	return wrap[T](o.obs.Debounce(zero, delay))
}
