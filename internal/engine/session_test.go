package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct{ alive bool }

func (f *fakeHandle) Alive() bool { return f.alive }

func TestTable_Put_EnforcesI1(t *testing.T) {
	t.Parallel()

	table := NewTable()
	s1 := &CaptureSession{Stream: "cam1", Session: NewSessionID(time.Now())}
	s2 := &CaptureSession{Stream: "cam1", Session: NewSessionID(time.Now())}

	require.True(t, table.Put(s1))
	require.False(t, table.Put(s2))
	assert.Equal(t, 1, table.Len())
}

func TestTable_RemoveThenReAdd(t *testing.T) {
	t.Parallel()

	table := NewTable()
	s1 := &CaptureSession{Stream: "cam1"}
	require.True(t, table.Put(s1))

	_, ok := table.Remove("cam1")
	require.True(t, ok)

	s2 := &CaptureSession{Stream: "cam1"}
	require.True(t, table.Put(s2))
}

func TestCaptureSession_DispatchedIsAppendOnly(t *testing.T) {
	t.Parallel()

	table := NewTable()
	s := &CaptureSession{Stream: "cam1"}
	require.True(t, table.Put(s))

	table.WithDispatch("cam1", func(sess *CaptureSession) {
		assert.False(t, sess.Dispatched("segment_000.mp4"))
		sess.MarkDispatched("segment_000.mp4")
	})

	table.WithDispatch("cam1", func(sess *CaptureSession) {
		assert.True(t, sess.Dispatched("segment_000.mp4"))
	})
}

func TestNewSessionID_Format(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, SessionID("20260731_120000"), NewSessionID(ts))
}
