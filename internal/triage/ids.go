package triage

import (
	"strconv"
	"time"
)

// NextEmailID returns the wall-clock millisecond timestamp of now as a
// decimal string. When that id is taken it is incremented until free, so
// ids stay unique and roughly ordered by import time.
func NextEmailID(now time.Time, taken func(id string) bool) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if !taken(id) {
			return id
		}
		ms++
	}
}
