package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLazyValue(t *testing.T) {
	t.Run("realization is deterministic for a seed", func(t *testing.T) {
		a := Lazy(42, 100)
		b := Lazy(42, 100)
		assert.Equal(t, a.Bytes(), b.Bytes())
		assert.Len(t, a.Bytes(), 100)
	})

	t.Run("repeated realization returns identical bytes", func(t *testing.T) {
		v := Lazy(7, 64)
		first := v.Bytes()
		second := v.Bytes()
		assert.Equal(t, first, second)
	})

	t.Run("different seeds differ", func(t *testing.T) {
		a := Lazy(1, 32)
		b := Lazy(2, 32)
		assert.NotEqual(t, a.Bytes(), b.Bytes())
	})

	t.Run("Len does not force realization results to differ", func(t *testing.T) {
		v := Lazy(3, 16)
		assert.Equal(t, 16, v.Len())
		assert.Len(t, v.Bytes(), 16)
	})
}

func TestRowsEqual(t *testing.T) {
	t.Run("equal rows", func(t *testing.T) {
		a := RowFromStrings(map[string]string{"name": "Alice", "age": "30"})
		b := Row{"name": Bytes([]byte("Alice")), "age": String("30")}
		assert.True(t, RowsEqual(a, b))
	})

	t.Run("missing field", func(t *testing.T) {
		a := RowFromStrings(map[string]string{"name": "Alice"})
		b := RowFromStrings(map[string]string{"name": "Alice", "age": "30"})
		assert.False(t, RowsEqual(a, b))
		assert.False(t, RowsEqual(b, a))
	})

	t.Run("differing content", func(t *testing.T) {
		a := RowFromStrings(map[string]string{"age": "30"})
		b := RowFromStrings(map[string]string{"age": "31"})
		assert.False(t, RowsEqual(a, b))
	})

	t.Run("lazy values compare by realized content", func(t *testing.T) {
		a := Row{"payload": Lazy(9, 50)}
		b := Row{"payload": Lazy(9, 50)}
		assert.True(t, RowsEqual(a, b))
	})
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "OK", StatusOK.String())
	assert.Equal(t, "NOT_FOUND", StatusNotFound.String())
	assert.Equal(t, "ERROR", StatusError.String())
	assert.Equal(t, "BAD_REQUEST", StatusBadRequest.String())
	assert.True(t, StatusOK.IsOK())
	assert.False(t, StatusNotFound.IsOK())
}
