package runner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionCompleteness(t *testing.T) {
	var cases []string
	for i := 0; i < 10; i++ {
		cases = append(cases, fmt.Sprintf("case%d", i+1))
	}

	parts := Partition(cases, 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 5)
	assert.Len(t, parts[1], 5)

	seen := make(map[string]int)
	for _, part := range parts {
		for _, c := range part {
			seen[c]++
		}
	}
	require.Len(t, seen, 10)
	for c, n := range seen {
		assert.Equal(t, 1, n, "case %s assigned %d times", c, n)
	}
}

func TestPartitionMoreWorkersThanCases(t *testing.T) {
	parts := Partition([]string{"a", "b"}, 4)
	require.Len(t, parts, 4)
	assert.Equal(t, []string{"a"}, parts[0])
	assert.Equal(t, []string{"b"}, parts[1])
	assert.Empty(t, parts[2])
	assert.Empty(t, parts[3])
}

func TestPartitionZeroWorkers(t *testing.T) {
	parts := Partition([]string{"a"}, 0)
	require.Len(t, parts, 1)
	assert.Equal(t, []string{"a"}, parts[0])
}

func TestPartitionEmptySuite(t *testing.T) {
	parts := Partition(nil, 3)
	require.Len(t, parts, 3)
	for _, part := range parts {
		assert.Empty(t, part)
	}
}
