package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStream is an in-memory OutputStream recording lifecycle calls.
type memStream struct {
	buf      bytes.Buffer
	begins   int
	ends     int
	finishes int
	closes   int
}

func (m *memStream) Write(p []byte) (int, error) { return m.buf.Write(p) }
func (m *memStream) Tell() int64                 { return int64(m.buf.Len()) }
func (m *memStream) BeginRowGroup() error        { m.begins++; return nil }
func (m *memStream) EndRowGroup() error          { m.ends++; return nil }
func (m *memStream) Finish() error               { m.finishes++; return nil }
func (m *memStream) Close() error                { m.closes++; return nil }

func TestStashableRelocatesTrailingBytes(t *testing.T) {
	base := &memStream{}
	s := NewStashable(base)

	_, err := s.Write([]byte("head"))
	require.NoError(t, err)
	assert.EqualValues(t, 4, s.Tell())

	s.StashWrites()
	_, err = s.Write([]byte("FOOTER"))
	require.NoError(t, err)
	// Stashed bytes advance Tell but do not reach the base.
	assert.EqualValues(t, 10, s.Tell())
	assert.Equal(t, "head", base.buf.String())
	assert.Equal(t, []byte("FOOTER"), s.StashGet())

	s.StashResume()
	_, err = s.Write([]byte("-pad-"))
	require.NoError(t, err)
	assert.EqualValues(t, 15, s.Tell())
	assert.Equal(t, "head-pad-", base.buf.String())

	require.NoError(t, s.StashPop())
	assert.EqualValues(t, 15, s.Tell())
	assert.Equal(t, "head-pad-FOOTER", base.buf.String())
	assert.Empty(t, s.StashGet())
}

func TestStashableTellMonotonic(t *testing.T) {
	s := NewStashable(&memStream{})
	last := s.Tell()
	step := func() {
		cur := s.Tell()
		assert.GreaterOrEqual(t, cur, last)
		last = cur
	}
	_, _ = s.Write([]byte("a"))
	step()
	s.StashWrites()
	step()
	_, _ = s.Write([]byte("bb"))
	step()
	s.StashResume()
	step()
	_ = s.StashPop()
	step()
}

func TestStashablePopEmptyIsNoop(t *testing.T) {
	base := &memStream{}
	s := NewStashable(base)
	require.NoError(t, s.StashPop())
	assert.Zero(t, base.buf.Len())
}

func TestStashableForwardsLifecycle(t *testing.T) {
	base := &memStream{}
	s := NewStashable(base)
	require.NoError(t, s.BeginRowGroup())
	require.NoError(t, s.EndRowGroup())
	require.NoError(t, s.Finish())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, base.begins)
	assert.Equal(t, 1, base.ends)
	assert.Equal(t, 1, base.finishes)
	assert.Equal(t, 1, base.closes)
}
