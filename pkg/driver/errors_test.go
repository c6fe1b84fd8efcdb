package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benchkv/benchkv/pkg/dbcaps"
)

func TestConnectionError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewConnectionError(dbcaps.PostgreSQL, "localhost:5432", cause)

	assert.True(t, errors.Is(err, ErrConnectionFailed))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "postgres")
	assert.Contains(t, err.Error(), "localhost:5432")
}

func TestConfigError(t *testing.T) {
	err := NewConfigError(dbcaps.MongoDB, "durability", "unknown level \"paranoid\"")

	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.True(t, IsConfigError(err))
	assert.False(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "durability")
}

func TestWrapError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, WrapError(dbcaps.Redis, "read", nil))
	})

	t.Run("wraps with driver and operation context", func(t *testing.T) {
		cause := errors.New("WRONGTYPE")
		err := WrapError(dbcaps.Redis, "read", cause)

		var be *BackendError
		assert.True(t, errors.As(err, &be))
		assert.Equal(t, dbcaps.Redis, be.Driver)
		assert.Equal(t, "read", be.Op)
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("does not double-wrap", func(t *testing.T) {
		inner := NewBackendError(dbcaps.Redis, "read", errors.New("boom"))
		assert.Same(t, error(inner), WrapError(dbcaps.Redis, "scan", inner))
	})
}
