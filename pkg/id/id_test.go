package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SortedAndUnique(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = New()
	}

	assert.True(t, sort.StringsAreSorted(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, s := range ids {
		assert.Len(t, s, 26)
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, len(ids))
}

func TestTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	got, ok := Time(NewAt(at))
	require.True(t, ok)
	assert.True(t, got.Equal(at))

	_, ok = Time("not-a-ulid")
	assert.False(t, ok)
}
