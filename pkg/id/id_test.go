package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsULID(t *testing.T) {
	t.Parallel()

	runID := New()
	assert.Len(t, runID, 26)

	_, err := Time(runID)
	assert.NoError(t, err)
}

func TestAtSortsByTime(t *testing.T) {
	t.Parallel()

	early := At(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	late := At(time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	assert.Less(t, early, late)
}

func TestAtSameMillisecondStaysOrdered(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	prev := At(ts)
	for i := 0; i < 50; i++ {
		next := At(ts)
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestTimeRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 9, 31, 12, 345_000_000, time.UTC)
	got, err := Time(At(ts))
	require.NoError(t, err)
	assert.True(t, got.Equal(ts), "got %s want %s", got, ts)
}

func TestTimeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Time("not-a-run-id")
	assert.Error(t, err)
}
