package common

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var lastHistoryID atomic.Int64

// NewHistoryID returns a time-derived identifier (unix microseconds).
// IDs are strictly increasing within a process, so items created in the
// same microsecond by concurrent analyses never collide.
func NewHistoryID() int64 {
	for {
		now := time.Now().UnixMicro()
		last := lastHistoryID.Load()
		if now <= last {
			now = last + 1
		}
		if lastHistoryID.CompareAndSwap(last, now) {
			return now
		}
	}
}

// NewBatchID generates a unique batch ID with the "batch_" prefix
func NewBatchID() string {
	return "batch_" + uuid.New().String()
}
