package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtEncodesTime(t *testing.T) {
	ts := time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)
	s := NewGenerator().At(ts)
	assert.Len(t, s, 26)

	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	g := NewGenerator()
	ts := time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = g.At(ts)
	}
	assert.True(t, sort.StringsAreSorted(ids))

	seen := map[string]bool{}
	for _, s := range ids {
		assert.False(t, seen[s])
		seen[s] = true
	}
}

func TestTimeRejectsGarbage(t *testing.T) {
	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	assert.NotEqual(t, New(), New())
}
