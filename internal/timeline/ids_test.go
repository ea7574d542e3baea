package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDsSortByTime(t *testing.T) {
	a, err := NewID()
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	b, err := NewID()
	require.NoError(t, err)
	assert.Less(t, a, b)
	assert.True(t, ValidID(a))
}

func TestIDFromTime(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	boundary := IDFromTime(at)
	assert.True(t, ValidID(boundary))
	assert.Less(t, IDFromTime(at.Add(-time.Millisecond)), boundary)
	assert.Less(t, boundary, IDFromTime(at.Add(time.Millisecond)))
}

func TestCursor(t *testing.T) {
	assert.Equal(t, "", Cursor("", 0))
	assert.Equal(t, "x", Cursor("x", 1700000000000))
	assert.Equal(t, IDFromTime(time.UnixMilli(1700000000000)), Cursor("", 1700000000000))
}

func TestValidID(t *testing.T) {
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("not-an-id"))
	assert.False(t, ValidID("0190D5C6-0000-7000-8000-000000000000"))
	assert.True(t, ValidID("0190d5c6-0000-7000-8000-000000000000"))
}
