package queue

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingMover struct {
	pos r3.Vector
}

func (m *recordingMover) Translate(d r3.Vector) { m.pos = m.pos.Add(d) }

func TestEnqueueDropsDuplicates(t *testing.T) {
	s := NewScheduler(0)
	assert.True(t, s.Enqueue(Forward, 1, 2*time.Second))
	assert.False(t, s.Enqueue(Forward, 1, 2*time.Second))
	assert.Len(t, s.Pending(), 1)

	assert.True(t, s.Enqueue(Left, 1, 2*time.Second))
	// Matches a pending action even though the memo moved on.
	assert.False(t, s.Enqueue(Forward, 1, 2*time.Second))
	assert.True(t, s.Enqueue(Forward, 0.5, 2*time.Second))
	assert.Len(t, s.Pending(), 3)
}

func TestEnqueueRejectsNonPositiveDuration(t *testing.T) {
	s := NewScheduler(0)
	assert.False(t, s.Enqueue(Up, 1, 0))
	assert.False(t, s.Enqueue(Up, 1, -time.Second))
	assert.True(t, s.Idle())
}

func TestTickPromotesAndExpires(t *testing.T) {
	s := NewScheduler(0)
	require.True(t, s.Enqueue(Right, 1, time.Second))
	require.True(t, s.Enqueue(Up, 0.5, time.Second))

	s.Tick(t0)
	a, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, Right, a.Kind)
	assert.Equal(t, t0.Add(time.Second), a.EndTime)
	assert.Equal(t, r3.Vector{X: 0.3}, s.Velocity())

	s.Tick(t0.Add(999 * time.Millisecond))
	a, _ = s.Active()
	assert.Equal(t, Right, a.Kind)

	s.Tick(t0.Add(time.Second))
	a, ok = s.Active()
	require.True(t, ok)
	assert.Equal(t, Up, a.Kind)
	assert.InDelta(t, 0.15, s.Velocity().Y, 1e-12)

	s.Tick(t0.Add(2 * time.Second))
	_, ok = s.Active()
	assert.False(t, ok)
	assert.True(t, s.Idle())
	assert.Equal(t, r3.Vector{}, s.Velocity())
}

func TestCompletionClearsMemo(t *testing.T) {
	s := NewScheduler(0)
	s.Enqueue(Forward, 1, time.Second)
	s.Tick(t0)
	s.Tick(t0.Add(time.Second))
	assert.True(t, s.Enqueue(Forward, 1, time.Second), "same action is accepted again after it finished")
}

func TestAdvanceTranslatesMover(t *testing.T) {
	s := NewScheduler(0)
	s.Enqueue(Forward, 1, 2*time.Second)
	m := &recordingMover{}

	s.Advance(1, m)
	assert.Equal(t, r3.Vector{}, m.pos)

	s.Tick(t0)
	for i := 0; i < 60; i++ {
		s.Advance(1.0/60, m)
	}
	assert.InDelta(t, -0.3, m.pos.Z, 1e-9)
	assert.Equal(t, 0.0, m.pos.X)
}

func TestStopAndClear(t *testing.T) {
	s := NewScheduler(0)
	s.Enqueue(Left, 1, time.Second)
	s.Enqueue(Right, 1, time.Second)
	s.Tick(t0)

	s.Stop()
	_, ok := s.Active()
	assert.False(t, ok)
	assert.Len(t, s.Pending(), 1)
	assert.True(t, s.Enqueue(Right, 1, 3*time.Second))

	s.Clear()
	assert.True(t, s.Idle())
	assert.True(t, s.Enqueue(Right, 1, 3*time.Second))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Forward ")
	require.NoError(t, err)
	assert.Equal(t, Forward, k)
	assert.Equal(t, r3.Vector{Z: -1}, k.Direction())

	_, err = ParseKind("sideways")
	assert.Error(t, err)
}
