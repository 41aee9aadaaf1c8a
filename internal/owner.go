package internal

import (
	"iter"
)

// Owner is a node of the ownership tree. It is only touched from the main goroutine.
type Owner struct {
	// cleanup functions to be called when the owner is disposed
	cleanups []func()

	// panic handlers for Run
	catchers []func(any)

	disposed bool

	parent       *Owner
	prevSibling  *Owner
	nextSibling  *Owner
	childrenHead *Owner
	childrenTail *Owner
}

func NewOwner() *Owner {
	return &Owner{
		cleanups: make([]func(), 0),
	}
}

// Run calls fn. A panic goes to the registered catchers, or is returned as a
// *PanicError when there are none.
func (o *Owner) Run(fn func()) error {
	err := Protect(fn)
	if err == nil {
		return nil
	}

	if len(o.catchers) == 0 {
		return err
	}

	value := err.(*PanicError).Value
	for _, catcher := range o.catchers {
		catcher(value)
	}

	return nil
}

// AddChild appends child, detaching it from a previous parent first.
func (parent *Owner) AddChild(child *Owner) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}

	child.parent = parent
	child.prevSibling = parent.childrenTail
	child.nextSibling = nil

	if parent.childrenTail != nil {
		parent.childrenTail.nextSibling = child
	} else {
		parent.childrenHead = child
	}

	parent.childrenTail = child
}

func (parent *Owner) RemoveChild(child *Owner) {
	if child.parent != parent {
		return
	}

	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else {
		parent.childrenHead = child.nextSibling
	}

	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	} else {
		parent.childrenTail = child.prevSibling
	}

	child.parent = nil
	child.prevSibling = nil
	child.nextSibling = nil
}

func (o *Owner) Parent() *Owner { return o.parent }

func (o *Owner) Children() iter.Seq[*Owner] {
	return func(yield func(*Owner) bool) {
		child := o.childrenHead

		for child != nil {
			next := child.nextSibling
			if !yield(child) {
				return
			}

			child = next
		}
	}
}

// Dispose disposes every child, then runs the cleanups. Only the first call has an effect.
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	o.DisposeChildren()

	for i := 0; i < len(o.cleanups); i++ {
		o.cleanups[i]()
	}
	o.cleanups = nil

	if o.parent != nil {
		o.parent.RemoveChild(o)
	}
}

func (o *Owner) DisposeChildren() {
	for child := range o.Children() {
		child.Dispose()
	}
	o.childrenHead = nil
	o.childrenTail = nil
}

func (o *Owner) Disposed() bool { return o.disposed }

func (o *Owner) OnCleanup(fn func()) {
	o.cleanups = append(o.cleanups, fn)
}

func (o *Owner) OnError(fn func(any)) {
	o.catchers = append(o.catchers, fn)
}
