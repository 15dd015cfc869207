package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextEmailID(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	assert.Equal(t, "1700000000000", NextEmailID(now, func(string) bool { return false }))

	taken := map[string]bool{"1700000000000": true, "1700000000001": true}
	assert.Equal(t, "1700000000002", NextEmailID(now, func(id string) bool { return taken[id] }))
}
