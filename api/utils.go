package api

import (
	"sync/atomic"
	"time"
)

var lastEventTime atomic.Int64

// nextEventTime returns a strictly increasing unix time in milliseconds so
// copy events recorded in the same millisecond still order.
func nextEventTime() int64 {
	for {
		now := time.Now().UnixMilli()
		last := lastEventTime.Load()
		if now <= last {
			now = last + 1
		}
		if lastEventTime.CompareAndSwap(last, now) {
			return now
		}
	}
}
