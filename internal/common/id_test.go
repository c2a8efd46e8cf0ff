package common

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHistoryID_UniqueUnderConcurrency(t *testing.T) {
	const n = 500
	ids := make(chan int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- NewHistoryID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestNewHistoryID_Increasing(t *testing.T) {
	first := NewHistoryID()
	second := NewHistoryID()
	assert.Greater(t, second, first)
}

func TestNewBatchID(t *testing.T) {
	id := NewBatchID()
	assert.True(t, strings.HasPrefix(id, "batch_"))
	assert.NotEqual(t, id, NewBatchID())
}
