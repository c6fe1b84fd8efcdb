package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycle(t *testing.T) {
	var l Lifecycle

	assert.False(t, l.Ready(), "new clients are not ready")
	assert.False(t, l.Stop(), "stopping before starting does nothing")

	assert.True(t, l.Start())
	assert.True(t, l.Ready())
	assert.False(t, l.Start(), "repeated starts are rejected")

	assert.True(t, l.Stop())
	assert.True(t, l.Closed())
	assert.False(t, l.Ready())
	assert.False(t, l.Stop(), "repeated stops are rejected")
	assert.False(t, l.Start(), "closed clients cannot restart")
}

func TestLifecycleAbort(t *testing.T) {
	var l Lifecycle

	l.Abort()
	assert.False(t, l.Closed(), "aborting before starting does nothing")

	assert.True(t, l.Start())
	l.Abort()
	assert.False(t, l.Ready(), "aborted clients reject data operations")
	assert.True(t, l.Closed())
	assert.False(t, l.Stop(), "cleanup after an aborted init releases nothing")
	assert.False(t, l.Start(), "aborted clients cannot restart")
}
