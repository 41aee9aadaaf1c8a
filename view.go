package sigui

import (
	"fmt"
	"slices"
	"sync"

	"github.com/AnatoleLucet/sigui/internal"
)

// Handle is a toolkit-native object. nil means no native object exists.
type Handle any

// Adaptor is the boundary to the UI toolkit. The view layer only calls it
// from the scheduler's main goroutine.
type Adaptor interface {
	// Create makes the native object for a view of the given kind under parent.
	Create(parent Handle, kind string) (Handle, error)
	Destroy(h Handle)
	SetProperty(h Handle, key string, value any) error
	// Listen registers fn for a native event. The toolkit calls fn on the main goroutine.
	Listen(h Handle, event string, fn func()) error
}

// State is the lifecycle stage of a View.
type State int32

const (
	StateUnbuilt State = iota
	StateBuilt
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateBuilt:
		return "built"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithAdaptor sets the toolkit adaptor. Children inherit the adaptor they are built with.
func WithAdaptor(a Adaptor) ViewOption {
	return func(v *View) { v.adaptor = a }
}

// WithScheduler sets the scheduler native calls are marshaled through.
// Children use their parent's scheduler, the fallback is Default.
func WithScheduler(s *Scheduler) ViewOption {
	return func(v *View) { v.scheduler = s }
}

// Modifier configures the native object of a view.
type Modifier func(a Adaptor, h Handle) error

type listener struct {
	event string
	fn    func()
}

// View is one node of the UI tree, backed by a native object created lazily
// when the view is first attached. Builder methods may be called from any
// goroutine; everything that touches the native object runs on the main goroutine.
//
// A destroyed view ignores every further call.
type View struct {
	kind string

	// shared with every closure the view schedules
	guard *internal.Guard

	// main goroutine only
	owner *internal.Owner

	mu sync.Mutex

	name      string
	state     State
	handle    Handle
	adaptor   Adaptor
	scheduler *Scheduler

	parent   *View
	children []*View

	modifiers []Modifier
	listeners []listener
	bindings  []func() *Subscription
	catchers  []func(any)
	caught    int // catchers already registered on the owner
	onDestroy []func()

	subs []*Subscription
}

// NewView creates an unbuilt view of the given toolkit kind.
func NewView(kind string, opts ...ViewOption) *View {
	v := &View{
		kind:  kind,
		guard: internal.NewGuard(),
		owner: internal.NewOwner(),
		state: StateUnbuilt,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.owner.OnCleanup(v.teardown)

	return v
}

// With applies opts to a view that was created by a widget constructor.
func (v *View) With(opts ...ViewOption) *View {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, opt := range opts {
		opt(v)
	}

	return v
}

func (v *View) Kind() string { return v.kind }

func (v *View) Name() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.name
}

// Named sets a name used in logs.
func (v *View) Named(name string) *View {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.name = name
	return v
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.state
}

// Alive reports whether the view is built and not destroyed.
func (v *View) Alive() bool {
	return v.State() == StateBuilt && !v.guard.Destroyed()
}

// Handle returns the native object, nil before build and after destroy.
// Only use it on the main goroutine.
func (v *View) Handle() Handle {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.handle
}

func (v *View) Parent() *View {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.parent
}

func (v *View) Children() []*View {
	v.mu.Lock()
	defer v.mu.Unlock()

	return slices.Clone(v.children)
}

// Set queues a native property assignment.
func (v *View) Set(key string, value any) *View {
	return v.Modify(func(a Adaptor, h Handle) error {
		return a.SetProperty(h, key, value)
	})
}

// Modify queues fn to configure the native object. Modifiers run in order at
// build time, or on the next main goroutine turn when the view is already built.
func (v *View) Modify(fn Modifier) *View {
	v.mu.Lock()
	if v.state == StateDestroyed {
		v.mu.Unlock()
		return v
	}
	v.modifiers = append(v.modifiers, fn)
	built := v.state == StateBuilt
	v.mu.Unlock()

	if built {
		v.later(func() {
			if a, h, ok := v.native(); ok {
				v.apply(a, h, fn)
			}
		})
	}

	return v
}

// On registers fn for a native event. Panics in fn go to the OnError handlers,
// or are logged when there are none.
func (v *View) On(event string, fn func()) *View {
	l := listener{event: event, fn: fn}

	v.mu.Lock()
	if v.state == StateDestroyed {
		v.mu.Unlock()
		return v
	}
	v.listeners = append(v.listeners, l)
	built := v.state == StateBuilt
	v.mu.Unlock()

	if built {
		v.later(func() {
			if a, h, ok := v.native(); ok {
				v.listen(a, h, l)
			}
		})
	}

	return v
}

// OnError registers a handler for panics raised by event callbacks.
func (v *View) OnError(fn func(any)) *View {
	v.mu.Lock()
	if v.state == StateDestroyed {
		v.mu.Unlock()
		return v
	}
	v.catchers = append(v.catchers, fn)
	built := v.state == StateBuilt
	if built {
		v.caught = len(v.catchers)
	}
	v.mu.Unlock()

	if built {
		v.later(func() { v.owner.OnError(fn) })
	}

	return v
}

// OnDestroy registers fn to run on the main goroutine when the view is torn down.
func (v *View) OnDestroy(fn func()) *View {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateDestroyed {
		v.onDestroy = append(v.onDestroy, fn)
	}

	return v
}

// Add appends children. The view owns them from now on: they are built with
// it and destroyed with it. A child taken from another parent leaves that
// parent, and is re-created under v if it was already built.
func (v *View) Add(children ...*View) *View {
	if v.State() == StateDestroyed {
		return v
	}

	var added, moved []*View
	for _, child := range children {
		if child == nil || child == v {
			continue
		}

		old := child.adopt(v)
		if old == v {
			continue
		}
		if old != nil {
			old.removeChild(child)
			moved = append(moved, child)
		}
		added = append(added, child)
	}

	v.mu.Lock()
	if v.state == StateDestroyed {
		v.mu.Unlock()
		return v
	}
	v.children = append(v.children, added...)
	built := v.state == StateBuilt
	v.mu.Unlock()

	if built || len(moved) > 0 {
		v.later(func() {
			for _, child := range moved {
				child.detach()
			}

			if a, h, ok := v.native(); ok {
				for _, child := range added {
					v.buildChild(child, h, a)
				}
			}
		})
	}

	return v
}

// Attach adds v to parent. v is built as soon as parent is.
func (v *View) Attach(parent *View) *View {
	parent.Add(v)
	return v
}

// Mount builds v as a root view under a native parent, such as a screen or window.
func (v *View) Mount(a Adaptor, parent Handle) *View {
	ref := v.guard.Weak()
	v.sched().Execute(func() {
		ref.Do(func() { v.build(parent, a) })
	})

	return v
}

// Destroy marks the view destroyed right away, then tears down its children,
// its bindings and its native object on the main goroutine. Idempotent.
func (v *View) Destroy() {
	if !v.guard.Destroy() {
		return
	}

	v.mu.Lock()
	v.state = StateDestroyed
	v.mu.Unlock()

	v.sched().Execute(v.owner.Dispose)
}

// Bind keeps the native property key in sync with obs while v is alive.
// The subscription is owned by v and released when v is destroyed.
func Bind[T comparable](v *View, key string, obs *Observable[T]) *View {
	ref := v.guard.Weak()

	return v.bind(func() *Subscription {
		return obs.Subscribe(func(value T) {
			ref.Do(func() { v.setProperty(key, value) })
		})
	})
}

func (v *View) bind(activate func() *Subscription) *View {
	v.mu.Lock()
	if v.state == StateDestroyed {
		v.mu.Unlock()
		return v
	}
	v.bindings = append(v.bindings, activate)
	built := v.state == StateBuilt
	v.mu.Unlock()

	if built {
		v.later(func() { v.activate(activate) })
	}

	return v
}

// adopt sets the parent and returns the previous one.
func (v *View) adopt(parent *View) *View {
	v.mu.Lock()
	defer v.mu.Unlock()

	old := v.parent
	v.parent = parent

	return old
}

// detach unlinks v from its previous owner and drops its native objects, so it
// can be built again under a new parent. Main goroutine only.
func (v *View) detach() {
	if p := v.owner.Parent(); p != nil {
		p.RemoveChild(v.owner)
	}

	v.unbuild()
}

// unbuild destroys the native objects of v and its descendants, keeping
// everything needed to build them again.
func (v *View) unbuild() {
	v.mu.Lock()
	if v.state != StateBuilt {
		v.mu.Unlock()
		return
	}
	h, a := v.handle, v.adaptor
	subs, children := v.subs, slices.Clone(v.children)
	v.handle, v.subs = nil, nil
	v.state = StateUnbuilt
	v.mu.Unlock()

	for _, child := range children {
		child.unbuild()
	}
	for _, sub := range subs {
		sub.Unsubscribe()
	}

	if h != nil && a != nil {
		a.Destroy(h)
	}
}

// buildChild links child into the ownership tree and builds it. Main goroutine only.
func (v *View) buildChild(child *View, h Handle, a Adaptor) {
	if child.guard.Destroyed() {
		return
	}

	v.owner.AddChild(child.owner)
	child.build(h, a)
}

// build creates the native object and applies everything queued so far. Main goroutine only.
func (v *View) build(parent Handle, a Adaptor) {
	v.mu.Lock()
	if v.state != StateUnbuilt || v.guard.Destroyed() {
		v.mu.Unlock()
		return
	}
	if v.adaptor == nil {
		v.adaptor = a
	}
	a = v.adaptor
	v.mu.Unlock()

	if a == nil {
		v.logError(ErrNoAdaptor, "native create skipped")
		return
	}

	h, err := a.Create(parent, v.kind)
	if err != nil {
		v.logError(err, "native create failed")
		return
	}

	v.mu.Lock()
	v.handle = h
	v.state = StateBuilt
	modifiers := slices.Clone(v.modifiers)
	listeners := slices.Clone(v.listeners)
	bindings := slices.Clone(v.bindings)
	catchers := slices.Clone(v.catchers[v.caught:])
	v.caught = len(v.catchers)
	children := slices.Clone(v.children)
	v.mu.Unlock()

	for _, fn := range catchers {
		v.owner.OnError(fn)
	}
	for _, fn := range modifiers {
		v.apply(a, h, fn)
	}
	for _, l := range listeners {
		v.listen(a, h, l)
	}
	for _, b := range bindings {
		v.activate(b)
	}
	for _, child := range children {
		v.buildChild(child, h, a)
	}
}

// teardown runs as the owner's cleanup, after the children were disposed.
func (v *View) teardown() {
	v.guard.Destroy()

	v.mu.Lock()
	v.state = StateDestroyed
	h, a := v.handle, v.adaptor
	v.handle = nil
	subs, hooks, children, parent := v.subs, v.onDestroy, v.children, v.parent
	v.subs, v.onDestroy, v.children = nil, nil, nil
	v.bindings, v.listeners, v.modifiers = nil, nil, nil
	v.mu.Unlock()

	// children that were never linked, because v was not built yet
	for _, child := range children {
		child.Destroy()
	}

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	for _, fn := range hooks {
		if err := internal.Protect(fn); err != nil {
			v.logError(err, "destroy hook failed")
		}
	}

	if h != nil && a != nil {
		a.Destroy(h)
	}

	if parent != nil {
		parent.removeChild(v)
	}
}

func (v *View) removeChild(child *View) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.children = slices.DeleteFunc(v.children, func(c *View) bool { return c == child })
}

func (v *View) apply(a Adaptor, h Handle, fn Modifier) {
	var err error
	if perr := internal.Protect(func() { err = fn(a, h) }); perr != nil {
		err = perr
	}

	if err != nil {
		v.logError(err, "modifier failed")
	}
}

func (v *View) listen(a Adaptor, h Handle, l listener) {
	ref := v.guard.Weak()

	err := a.Listen(h, l.event, func() {
		ref.Do(func() { v.dispatch(l) })
	})
	if err != nil {
		v.logError(err, "listen failed")
	}
}

func (v *View) dispatch(l listener) {
	if err := v.owner.Run(l.fn); err != nil {
		v.logError(err, "event handler failed")
	}
}

func (v *View) activate(b func() *Subscription) {
	sub := b()

	v.mu.Lock()
	if v.state == StateDestroyed {
		v.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	v.subs = append(v.subs, sub)
	v.mu.Unlock()
}

func (v *View) setProperty(key string, value any) {
	a, h, ok := v.native()
	if !ok {
		return
	}

	if err := a.SetProperty(h, key, value); err != nil {
		v.logError(err, "set property failed")
	}
}

// native returns the adaptor and handle of a built view.
func (v *View) native() (Adaptor, Handle, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateBuilt {
		return nil, nil, false
	}

	return v.adaptor, v.handle, true
}

// later runs fn on the main goroutine unless v was destroyed in the meantime.
func (v *View) later(fn func()) {
	v.sched().Execute(v.guard.Weak().Wrap(fn))
}

// sched returns the view's scheduler, else the closest ancestor's, else Default.
func (v *View) sched() *Scheduler {
	v.mu.Lock()
	s, parent := v.scheduler, v.parent
	v.mu.Unlock()

	switch {
	case s != nil:
		return s
	case parent != nil:
		return parent.sched()
	default:
		return Default()
	}
}

func (v *View) logError(err error, msg string) {
	v.sched().s.Logger().Err().
		Err(err).
		Str("kind", v.kind).
		Str("name", v.Name()).
		Log(msg)
}
