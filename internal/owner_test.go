package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwner(t *testing.T) {
	t.Run("runs cleanups on dispose", func(t *testing.T) {
		log := []string{}

		o := NewOwner()
		o.OnCleanup(func() { log = append(log, "first") })
		o.OnCleanup(func() { log = append(log, "second") })

		log = append(log, "ran")
		o.Dispose()
		log = append(log, "disposed")

		assert.Equal(t, []string{"ran", "first", "second", "disposed"}, log)
		assert.True(t, o.Disposed())
	})

	t.Run("disposes once", func(t *testing.T) {
		calls := 0

		o := NewOwner()
		o.OnCleanup(func() { calls++ })

		o.Dispose()
		o.Dispose()

		assert.Equal(t, 1, calls)
	})

	t.Run("nested owners", func(t *testing.T) {
		log := []string{}

		parent := NewOwner()
		parent.OnCleanup(func() { log = append(log, "parent disposed") })

		child := NewOwner()
		child.OnCleanup(func() { log = append(log, "child disposed") })
		parent.AddChild(child)

		grandchild := NewOwner()
		grandchild.OnCleanup(func() { log = append(log, "grandchild disposed") })
		child.AddChild(grandchild)

		parent.Dispose()

		assert.Equal(t, []string{
			"grandchild disposed",
			"child disposed",
			"parent disposed",
		}, log)
	})

	t.Run("sibling disposal order", func(t *testing.T) {
		log := []string{}

		parent := NewOwner()
		for _, name := range []string{"a", "b", "c"} {
			child := NewOwner()
			child.OnCleanup(func() { log = append(log, name) })
			parent.AddChild(child)
		}

		parent.Dispose()

		assert.Equal(t, []string{"a", "b", "c"}, log)
	})

	t.Run("disposed child leaves its parent", func(t *testing.T) {
		parent := NewOwner()
		a, b := NewOwner(), NewOwner()
		parent.AddChild(a)
		parent.AddChild(b)

		a.Dispose()

		children := []*Owner{}
		for c := range parent.Children() {
			children = append(children, c)
		}

		assert.Equal(t, []*Owner{b}, children)
		assert.Nil(t, a.Parent())
	})

	t.Run("reparents", func(t *testing.T) {
		first, second := NewOwner(), NewOwner()
		child := NewOwner()

		first.AddChild(child)
		second.AddChild(child)

		assert.Same(t, second, child.Parent())

		count := 0
		for range first.Children() {
			count++
		}
		assert.Zero(t, count)
	})

	t.Run("catches panics with OnError", func(t *testing.T) {
		log := []string{}

		o := NewOwner()
		o.OnError(func(err any) {
			log = append(log, fmt.Sprintf("caught %v", err))
		})

		err := o.Run(func() { panic(errors.New("oops")) })

		assert.NoError(t, err)
		assert.Equal(t, []string{"caught oops"}, log)
	})

	t.Run("returns panics without catchers", func(t *testing.T) {
		o := NewOwner()

		err := o.Run(func() { panic("boom") })

		var perr *PanicError
		if assert.ErrorAs(t, err, &perr) {
			assert.Equal(t, "boom", perr.Value)
			assert.NotEmpty(t, perr.Stack)
		}
	})
}
