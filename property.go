package sigui

// Number is the set of types Property can do arithmetic on.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Property is an Observable with arithmetic helpers. Every helper is an
// atomic read-modify-write, so concurrent increments are never lost.
type Property[T Number] struct {
	*Observable[T]
}

// NewProperty creates a property on the Default scheduler.
func NewProperty[T Number](initial T) *Property[T] {
	return &Property[T]{NewObservable(initial)}
}

// NewPropertyOn creates a property delivering through s.
func NewPropertyOn[T Number](s *Scheduler, initial T) *Property[T] {
	return &Property[T]{NewObservableOn(s, initial)}
}

// Assign sets v and returns the property, for chaining.
func (p *Property[T]) Assign(v T) *Property[T] {
	p.Set(v)
	return p
}

// Add adds delta and returns the new value.
func (p *Property[T]) Add(delta T) T {
	return p.Update(func(v T) T { return v + delta })
}

// Sub subtracts delta and returns the new value.
func (p *Property[T]) Sub(delta T) T {
	return p.Update(func(v T) T { return v - delta })
}

// Inc adds one and returns the new value.
func (p *Property[T]) Inc() T { return p.Add(1) }

// Dec subtracts one and returns the new value.
func (p *Property[T]) Dec() T { return p.Sub(1) }
