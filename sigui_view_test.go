package sigui

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeNode struct {
	kind   string
	parent *fakeNode
	props  map[string]any
	events map[string][]func()
}

// fakeAdaptor records every native call. Calls made off the main goroutine are counted.
type fakeAdaptor struct {
	s *Scheduler

	log     []string
	offMain int

	failCreate string
}

func newFakeAdaptor(s *Scheduler) *fakeAdaptor {
	return &fakeAdaptor{s: s}
}

func (a *fakeAdaptor) record(format string, args ...any) {
	if !a.s.IsMainThread() {
		a.offMain++
	}
	a.log = append(a.log, fmt.Sprintf(format, args...))
}

func (a *fakeAdaptor) Create(parent Handle, kind string) (Handle, error) {
	if kind == a.failCreate {
		return nil, errors.New("toolkit refused")
	}

	p, _ := parent.(*fakeNode)
	n := &fakeNode{
		kind:   kind,
		parent: p,
		props:  map[string]any{},
		events: map[string][]func(){},
	}
	a.record("create %s", kind)

	return n, nil
}

func (a *fakeAdaptor) Destroy(h Handle) {
	a.record("destroy %s", h.(*fakeNode).kind)
}

func (a *fakeAdaptor) SetProperty(h Handle, key string, value any) error {
	n := h.(*fakeNode)
	n.props[key] = value
	a.record("set %s %s=%v", n.kind, key, value)

	return nil
}

func (a *fakeAdaptor) Listen(h Handle, event string, fn func()) error {
	n := h.(*fakeNode)
	n.events[event] = append(n.events[event], fn)
	a.record("listen %s %s", n.kind, event)

	return nil
}

func (a *fakeAdaptor) fire(n *fakeNode, event string) {
	for _, fn := range n.events[event] {
		fn()
	}
}

func nodeOf(v *View) *fakeNode {
	n, _ := v.Handle().(*fakeNode)
	return n
}

func TestView(t *testing.T) {
	t.Run("builds lazily when mounted", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		label := Label("hello")
		root := VStack(label).Spacing(4).With(WithScheduler(s))

		assert.Equal(t, StateUnbuilt, root.State())
		assert.Nil(t, root.Handle())
		assert.False(t, root.Alive())
		assert.Empty(t, a.log)

		root.Mount(a, nil)

		assert.Equal(t, []string{
			"create vstack",
			"set vstack spacing=4",
			"create label",
			"set label text=hello",
		}, a.log)
		assert.Equal(t, StateBuilt, root.State())
		assert.True(t, label.Alive())
		assert.Same(t, nodeOf(root), nodeOf(label).parent)
		assert.Same(t, root, label.Parent())
		assert.Zero(t, a.offMain)
	})

	t.Run("mounting from another goroutine builds on main", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		root := HStack(Label("a"), Label("b")).With(WithScheduler(s))

		var wg sync.WaitGroup
		wg.Go(func() { root.Mount(a, nil) })
		wg.Wait()

		assert.Empty(t, a.log)

		s.ProcessTasks()
		assert.Len(t, a.log, 5)
		assert.Zero(t, a.offMain)
	})

	t.Run("modifiers after build apply in order", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		root := ZStack().With(WithScheduler(s)).Mount(a, nil)
		a.log = nil

		root.Set("a", 1).Set("b", 2)

		var wg sync.WaitGroup
		wg.Go(func() { root.BackgroundColor(0xff0000) })
		wg.Wait()

		assert.Equal(t, []string{"set zstack a=1", "set zstack b=2"}, a.log)

		s.ProcessTasks()
		assert.Equal(t, []string{
			"set zstack a=1",
			"set zstack b=2",
			"set zstack bg_color=16711680",
		}, a.log)
		assert.Zero(t, a.offMain)
	})

	t.Run("failed modifiers are logged", func(t *testing.T) {
		s, buf := newTestScheduler(t)
		a := newFakeAdaptor(s)

		NewView("box").
			Named("broken").
			Modify(func(Adaptor, Handle) error { return errors.New("bad value") }).
			Modify(func(Adaptor, Handle) error { panic("worse value") }).
			With(WithScheduler(s)).
			Mount(a, nil)

		assert.Contains(t, buf.String(), "bad value")
		assert.Contains(t, buf.String(), "worse value")
		assert.Contains(t, buf.String(), `"name":"broken"`)
		assert.Contains(t, buf.String(), `"msg":"modifier failed"`)
	})

	t.Run("binds an observable while alive", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		count := NewObservableOn(s, 1)
		label := LabelOf(count).With(WithScheduler(s)).Mount(a, nil)
		s.ProcessTasks()
		assert.Equal(t, "1", nodeOf(label).props["text"])

		var wg sync.WaitGroup
		wg.Go(func() { count.Set(2) })
		wg.Wait()

		s.ProcessTasks()
		assert.Equal(t, "2", nodeOf(label).props["text"])

		n := nodeOf(label)
		label.Destroy()
		assert.Zero(t, count.Subscribers())

		count.Set(3)
		s.ProcessTasks()
		assert.Equal(t, "2", n.props["text"])
		assert.Zero(t, a.offMain)
	})

	t.Run("bindings added after build activate", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		title := NewObservableOn(s, "first")
		v := NewView("window", WithScheduler(s)).Mount(a, nil)
		Bind(v, "title", title)
		s.ProcessTasks()

		assert.Equal(t, "first", nodeOf(v).props["title"])

		title.Set("second")
		s.ProcessTasks()
		assert.Equal(t, "second", nodeOf(v).props["title"])
	})

	t.Run("routes event panics to OnError", func(t *testing.T) {
		s, buf := newTestScheduler(t)
		a := newFakeAdaptor(s)
		clicks := 0
		caught := []any{}

		btn := Button("go", func() {
			clicks++
			if clicks == 2 {
				panic("boom")
			}
		}).OnError(func(r any) {
			caught = append(caught, r)
		}).With(WithScheduler(s)).Mount(a, nil)

		a.fire(nodeOf(btn), "click")
		a.fire(nodeOf(btn), "click")
		a.fire(nodeOf(btn), "click")

		assert.Equal(t, 3, clicks)
		assert.Equal(t, []any{"boom"}, caught)
		assert.Empty(t, buf.String())
	})

	t.Run("logs event panics without OnError", func(t *testing.T) {
		s, buf := newTestScheduler(t)
		a := newFakeAdaptor(s)

		btn := Button("go", func() { panic("boom") }).
			With(WithScheduler(s)).
			Mount(a, nil)

		assert.NotPanics(t, func() { a.fire(nodeOf(btn), "click") })
		assert.Contains(t, buf.String(), `"msg":"event handler failed"`)
		assert.Contains(t, buf.String(), `"kind":"button"`)
	})

	t.Run("toggle writes back to its observable", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		on := NewObservableOn(s, false)
		tg := Toggle("dark mode", on).With(WithScheduler(s)).Mount(a, nil)
		s.ProcessTasks()
		assert.Equal(t, false, nodeOf(tg).props["checked"])

		a.fire(nodeOf(tg), "toggled")
		assert.True(t, on.Get())

		s.ProcessTasks()
		assert.Equal(t, true, nodeOf(tg).props["checked"])
	})

	t.Run("destroys children before the parent, once", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)
		hooks := []string{}

		inner := HStack(Label("a")).OnDestroy(func() { hooks = append(hooks, "hstack") })
		root := VStack(inner, Label("b")).
			OnDestroy(func() { hooks = append(hooks, "vstack") }).
			With(WithScheduler(s)).
			Mount(a, nil)
		a.log = nil

		root.Destroy()
		root.Destroy()

		assert.Equal(t, []string{
			"destroy label",
			"destroy hstack",
			"destroy label",
			"destroy vstack",
		}, a.log)
		assert.Equal(t, []string{"hstack", "vstack"}, hooks)
		assert.Equal(t, StateDestroyed, inner.State())
		assert.Nil(t, root.Handle())
		assert.False(t, root.Alive())
	})

	t.Run("destroying a child detaches it from the parent", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		a1, b := Label("a"), Label("b")
		root := VStack(a1, b).With(WithScheduler(s)).Mount(a, nil)
		a.log = nil

		a1.Destroy()
		assert.Equal(t, []*View{b}, root.Children())

		root.Destroy()
		assert.Equal(t, []string{"destroy label", "destroy label", "destroy vstack"}, a.log)
	})

	t.Run("destroying an unbuilt view destroys its children", func(t *testing.T) {
		s, _ := newTestScheduler(t)

		child := Label("a")
		root := VStack(child).With(WithScheduler(s))

		root.Destroy()

		assert.Equal(t, StateDestroyed, child.State())
	})

	t.Run("destroy from another goroutine marshals teardown", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		v := Label("x").With(WithScheduler(s)).Mount(a, nil)
		a.log = nil

		var wg sync.WaitGroup
		wg.Go(v.Destroy)
		wg.Wait()

		assert.Equal(t, StateDestroyed, v.State())
		assert.Empty(t, a.log)

		s.ProcessTasks()
		assert.Equal(t, []string{"destroy label"}, a.log)
		assert.Zero(t, a.offMain)
	})

	t.Run("ignores calls after destroy", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		obs := NewObservableOn(s, "x")
		v := Label("x").With(WithScheduler(s)).Mount(a, nil)
		v.Destroy()
		a.log = nil

		v.Set("text", "y")
		v.On("click", func() {})
		v.Add(Label("z"))
		Bind(v, "text", obs)
		s.ProcessTasks()

		assert.Empty(t, a.log)
		assert.Empty(t, v.Children())
		assert.Zero(t, obs.Subscribers())
	})

	t.Run("skips callbacks queued before destroy", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)
		clicks := 0

		v := Button("x", func() { clicks++ }).With(WithScheduler(s)).Mount(a, nil)
		n := nodeOf(v)

		var wg sync.WaitGroup
		wg.Go(func() { v.Set("text", "late") })
		wg.Wait()

		v.Destroy()
		a.log = nil
		s.ProcessTasks()

		// the toolkit may still hold the native callback
		a.fire(n, "click")

		assert.Empty(t, a.log)
		assert.Zero(t, clicks)
	})

	t.Run("children added after build are built", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		root := VStack().With(WithScheduler(s)).Mount(a, nil)
		a.log = nil

		late := Label("late").Attach(root)

		assert.Equal(t, []string{"create label", "set label text=late"}, a.log)
		assert.Same(t, nodeOf(root), nodeOf(late).parent)

		root.Destroy()
		assert.Equal(t, StateDestroyed, late.State())
	})

	t.Run("reattaching moves a built child to the new parent", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)

		child := Label("c")
		r1 := VStack(child).With(WithScheduler(s)).Mount(a, nil)
		r2 := VStack().With(WithScheduler(s)).Mount(a, nil)
		old := nodeOf(child)
		a.log = nil

		child.Attach(r2)

		assert.Equal(t, []string{"destroy label", "create label", "set label text=c"}, a.log)
		assert.NotSame(t, old, nodeOf(child))
		assert.Same(t, nodeOf(r2), nodeOf(child).parent)
		assert.Same(t, r2, child.Parent())
		assert.Empty(t, r1.Children())
		assert.Equal(t, []*View{child}, r2.Children())

		r1.Destroy()
		assert.Equal(t, StateBuilt, child.State())
		assert.Equal(t, []*View{child}, r2.Children())

		r2.Destroy()
		assert.Equal(t, StateDestroyed, child.State())
		assert.Zero(t, a.offMain)
	})

	t.Run("reattaching to an unbuilt parent defers the rebuild", func(t *testing.T) {
		s, _ := newTestScheduler(t)
		a := newFakeAdaptor(s)
		count := NewObservableOn(s, 1)
		caught := 0

		child := LabelOf(count).
			On("click", func() { panic("boom") }).
			OnError(func(any) { caught++ })
		r1 := VStack(child).With(WithScheduler(s)).Mount(a, nil)
		s.ProcessTasks()
		a.log = nil

		r2 := HStack().With(WithScheduler(s))
		child.Attach(r2)

		assert.Equal(t, []string{"destroy label"}, a.log)
		assert.Equal(t, StateUnbuilt, child.State())

		r1.Destroy()
		assert.Equal(t, StateUnbuilt, child.State())

		r2.Mount(a, nil)
		s.ProcessTasks()
		assert.Equal(t, StateBuilt, child.State())
		assert.Equal(t, "1", nodeOf(child).props["text"])

		count.Set(2)
		s.ProcessTasks()
		assert.Equal(t, "2", nodeOf(child).props["text"])

		a.fire(nodeOf(child), "click")
		assert.Equal(t, 1, caught)
	})

	t.Run("adding the same child twice keeps one entry", func(t *testing.T) {
		s, _ := newTestScheduler(t)

		child := Label("c")
		root := VStack(child).With(WithScheduler(s))
		root.Add(child)

		assert.Equal(t, []*View{child}, root.Children())
	})

	t.Run("logs create failures", func(t *testing.T) {
		s, buf := newTestScheduler(t)
		a := newFakeAdaptor(s)
		a.failCreate = KindLabel

		v := Label("x").With(WithScheduler(s)).Mount(a, nil)

		assert.Equal(t, StateUnbuilt, v.State())
		assert.Contains(t, buf.String(), "toolkit refused")
		assert.Contains(t, buf.String(), `"msg":"native create failed"`)
	})

	t.Run("logs a missing adaptor", func(t *testing.T) {
		s, buf := newTestScheduler(t)

		v := Label("x").With(WithScheduler(s)).Mount(nil, nil)

		assert.Equal(t, StateUnbuilt, v.State())
		assert.Contains(t, buf.String(), ErrNoAdaptor.Error())
	})

	t.Run("state names", func(t *testing.T) {
		assert.Equal(t, "unbuilt", StateUnbuilt.String())
		assert.Equal(t, "built", StateBuilt.String())
		assert.Equal(t, "destroyed", StateDestroyed.String())
		assert.Equal(t, "State(7)", State(7).String())
	})
}
