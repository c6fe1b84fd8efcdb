package driver

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedConn(t *testing.T) {
	t.Run("builds once on first acquire", func(t *testing.T) {
		var shared SharedConn[*int]
		builds := 0
		build := func() (*int, error) {
			builds++
			v := builds
			return &v, nil
		}

		a, err := shared.Acquire(build)
		require.NoError(t, err)
		b, err := shared.Acquire(build)
		require.NoError(t, err)

		assert.Same(t, a, b)
		assert.Equal(t, 1, builds)
		assert.Equal(t, 2, shared.Refs())
	})

	t.Run("closes only on last release", func(t *testing.T) {
		var shared SharedConn[*int]
		closes := 0
		closeFn := func(*int) error {
			closes++
			return nil
		}

		_, err := shared.Acquire(func() (*int, error) { v := 1; return &v, nil })
		require.NoError(t, err)
		_, err = shared.Acquire(func() (*int, error) { t.Fatal("must not rebuild"); return nil, nil })
		require.NoError(t, err)

		require.NoError(t, shared.Release(closeFn))
		assert.Equal(t, 0, closes, "first release keeps the pool open")
		assert.True(t, shared.Alive())

		require.NoError(t, shared.Release(closeFn))
		assert.Equal(t, 1, closes, "last release closes the pool")
		assert.False(t, shared.Alive())
	})

	t.Run("rebuilds after full release", func(t *testing.T) {
		var shared SharedConn[*int]
		builds := 0
		build := func() (*int, error) {
			builds++
			v := builds
			return &v, nil
		}

		_, err := shared.Acquire(build)
		require.NoError(t, err)
		require.NoError(t, shared.Release(func(*int) error { return nil }))

		_, err = shared.Acquire(build)
		require.NoError(t, err)
		assert.Equal(t, 2, builds)
		assert.Equal(t, 1, shared.Refs())
	})

	t.Run("failed build leaves the count unchanged", func(t *testing.T) {
		var shared SharedConn[*int]
		boom := errors.New("unreachable")

		_, err := shared.Acquire(func() (*int, error) { return nil, boom })
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, 0, shared.Refs())
		assert.False(t, shared.Alive())
	})

	t.Run("release on dead handle is a no-op", func(t *testing.T) {
		var shared SharedConn[*int]
		assert.NoError(t, shared.Release(func(*int) error {
			t.Fatal("close must not run")
			return nil
		}))
	})

	t.Run("concurrent acquire and release keep one live pool", func(t *testing.T) {
		var shared SharedConn[*int]
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := shared.Acquire(func() (*int, error) { v := 0; return &v, nil })
				assert.NoError(t, err)
				assert.NoError(t, shared.Release(func(*int) error { return nil }))
			}()
		}
		wg.Wait()
		assert.Equal(t, 0, shared.Refs())
	})
}
