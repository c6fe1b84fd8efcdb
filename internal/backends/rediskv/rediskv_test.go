package rediskv

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchkv/benchkv/internal/drivertest"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

// TestConformance needs a reachable server, e.g.
// BENCHKV_TEST_REDIS_URL=redis://localhost:6379/0
func TestConformance(t *testing.T) {
	url := os.Getenv("BENCHKV_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BENCHKV_TEST_REDIS_URL not set")
	}

	drv := NewDriver()
	drivertest.Run(t, func(t *testing.T) driver.Client {
		client, err := drv.Open(&driver.Config{Driver: "redis", URL: url}, logger.Discard())
		require.NoError(t, err)
		return client
	}, drivertest.Options{OrderedScan: true})
}

func TestRedisOptions(t *testing.T) {
	t.Run("from url", func(t *testing.T) {
		opts, err := redisOptions(&driver.Config{Driver: "redis", URL: "redis://:pw@cache1:6380/2"})
		require.NoError(t, err)
		assert.Equal(t, "cache1:6380", opts.Addr)
		assert.Equal(t, "pw", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("from parts with db option", func(t *testing.T) {
		cfg := &driver.Config{
			Driver: "redis", Host: "cache1", Port: 6379,
			MaxConns: 16,
			Options:  map[string]string{"db": "3"},
		}
		opts, err := redisOptions(cfg)
		require.NoError(t, err)
		assert.Equal(t, "cache1:6379", opts.Addr)
		assert.Equal(t, 3, opts.DB)
		assert.Equal(t, 16, opts.PoolSize)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := redisOptions(&driver.Config{Driver: "redis", URL: "://nope"})
		assert.True(t, driver.IsConfigError(err))
	})

	t.Run("bad db option", func(t *testing.T) {
		cfg := &driver.Config{Driver: "redis", Host: "cache1", Options: map[string]string{"db": "many"}}
		_, err := redisOptions(cfg)
		assert.True(t, driver.IsConfigError(err))
	})

	t.Run("host required without url", func(t *testing.T) {
		_, err := redisOptions(&driver.Config{Driver: "redis"})
		assert.True(t, driver.IsConfigError(err))
	})
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "usertable/user1", hashKey("usertable", "user1"))
	assert.Equal(t, "index/usertable", indexKey("usertable"))
}

func TestHashArgs(t *testing.T) {
	row := driver.RowFromStrings(map[string]string{"a": "1"})
	args := hashArgs(row)
	require.Len(t, args, 2)
	assert.Equal(t, "a", args[0])
	assert.Equal(t, []byte("1"), args[1])
}
