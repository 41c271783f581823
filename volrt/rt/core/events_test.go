package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSignalOrderAndCancel(t *testing.T) {
	var s Signal[string]
	var got []string

	a := s.Subscribe(func(v string) { got = append(got, "a:"+v) })
	s.Subscribe(func(v string) { got = append(got, "b:"+v) })
	assert.Equal(t, 2, s.Len())
	assert.NotEqual(t, uuid.Nil, a.ID())

	s.Emit("1")
	a.Cancel()
	a.Cancel()
	s.Emit("2")

	assert.Equal(t, []string{"a:1", "b:1", "b:2"}, got)
	assert.Equal(t, 1, s.Len())
	assert.False(t, a.Active())
}

func TestSignalPauseResume(t *testing.T) {
	var s Signal[struct{}]
	calls := 0
	sub := s.Subscribe(func(struct{}) { calls++ })

	sub.Pause()
	s.Emit(struct{}{})
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, s.Len(), "paused subscriptions stay registered")

	sub.Resume()
	s.Emit(struct{}{})
	assert.Equal(t, 1, calls)
}

func TestSignalCancelDuringEmit(t *testing.T) {
	var s Signal[int]
	var second *Subscription[int]
	calls := 0
	s.Subscribe(func(int) { second.Cancel() })
	second = s.Subscribe(func(int) { calls++ })

	s.Emit(1)
	s.Emit(2)
	assert.Equal(t, 0, calls)
}
