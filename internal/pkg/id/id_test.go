package id

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAt_EncodesTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	parsed, err := ulid.Parse(NewAt(at))
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(at), parsed.Time())
}

func TestNewAt_SortsByTime(t *testing.T) {
	earlier := NewAt(time.Now().Add(-time.Minute))
	later := NewAt(time.Now())
	assert.Less(t, earlier, later)
	assert.Len(t, New(), 26)
}
