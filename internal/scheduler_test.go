package internal

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
)

func TestScheduler(t *testing.T) {
	t.Run("binds the main goroutine", func(t *testing.T) {
		s := NewScheduler(nil)
		assert.False(t, s.IsMainThread())

		s.SetMainThread()
		assert.True(t, s.IsMainThread())

		var other bool
		var wg sync.WaitGroup
		wg.Go(func() { other = s.IsMainThread() })
		wg.Wait()
		assert.False(t, other)

		s.Shutdown()
		assert.False(t, s.IsMainThread())
	})

	t.Run("executes inline on main", func(t *testing.T) {
		s := NewScheduler(nil)
		s.SetMainThread()

		ran := false
		s.Execute(func() { ran = true })

		assert.True(t, ran)
		assert.Zero(t, s.Pending())
	})

	t.Run("logs failed tasks and keeps going", func(t *testing.T) {
		var buf bytes.Buffer
		s := NewScheduler(NewLogger(&buf, logiface.LevelError))

		ran := false
		s.Post(func() { panic("boom") })
		s.Post(func() { ran = true })

		assert.Equal(t, 2, s.ProcessTasks())
		assert.True(t, ran)
		assert.Contains(t, buf.String(), `"msg":"task execution failed"`)
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("post and wait runs on main", func(t *testing.T) {
		s := NewScheduler(nil)
		s.SetMainThread()

		type result struct {
			value any
			err   error
		}
		done := make(chan result, 1)

		go func() {
			v, err := s.PostAndWait(context.Background(), func() (any, error) {
				return s.IsMainThread(), nil
			})
			done <- result{v, err}
		}()

		for {
			s.ProcessTasks()

			select {
			case res := <-done:
				assert.NoError(t, res.err)
				assert.Equal(t, true, res.value)
				return
			default:
			}
		}
	})

	t.Run("run stops after shutdown", func(t *testing.T) {
		s := NewScheduler(nil)
		stopped := make(chan struct{})

		go func() {
			s.Run()
			close(stopped)
		}()

		_, err := s.PostAndWait(context.Background(), func() (any, error) { return nil, nil })
		assert.NoError(t, err)

		s.Shutdown()
		<-stopped

		assert.True(t, s.Closed())
		assert.ErrorIs(t, s.RunNext(), ErrQueueClosed)
	})
}
