package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("driver name is required", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("durability defaults to safe", func(t *testing.T) {
		cfg := &Config{Driver: "memory"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DurabilitySafe, cfg.Durability)
	})

	t.Run("unknown durability level is fatal", func(t *testing.T) {
		cfg := &Config{Driver: "mongodb", Durability: "paranoid"}
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Contains(t, err.Error(), "paranoid")
	})

	t.Run("negative fetch size is rejected", func(t *testing.T) {
		cfg := &Config{Driver: "postgres", FetchSize: -1}
		assert.Error(t, cfg.Validate())
	})

	t.Run("valid durability levels pass", func(t *testing.T) {
		for _, d := range []Durability{DurabilitySafe, DurabilityNormal, DurabilityFsyncSafe, DurabilityReplicasSafe} {
			cfg := &Config{Driver: "mongodb", Durability: d}
			assert.NoError(t, cfg.Validate())
		}
	})
}

func TestConfigAutoCommit(t *testing.T) {
	cfg := &Config{Driver: "mysql"}
	assert.True(t, cfg.AutoCommitEnabled(), "auto-commit defaults to true")

	cfg.AutoCommit = GetBoolPtr(false)
	assert.False(t, cfg.AutoCommitEnabled())
}

func TestConfigOptions(t *testing.T) {
	cfg := &Config{
		Driver: "redis",
		Options: map[string]string{
			"pool_size":    "32",
			"tls":          "true",
			"idle_timeout": "90s",
			"bad_int":      "many",
			"bad_bool":     "yep",
			"bad_dur":      "soon",
		},
	}

	t.Run("present values parse", func(t *testing.T) {
		n, err := cfg.IntOption("pool_size", 10)
		require.NoError(t, err)
		assert.Equal(t, 32, n)

		b, err := cfg.BoolOption("tls", false)
		require.NoError(t, err)
		assert.True(t, b)

		d, err := cfg.DurationOption("idle_timeout", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, d)
	})

	t.Run("absent values return the default", func(t *testing.T) {
		n, err := cfg.IntOption("missing", 10)
		require.NoError(t, err)
		assert.Equal(t, 10, n)

		assert.Equal(t, "fallback", cfg.StringOption("missing", "fallback"))
	})

	t.Run("unparseable values are config errors", func(t *testing.T) {
		_, err := cfg.IntOption("bad_int", 0)
		assert.True(t, IsConfigError(err))

		_, err = cfg.BoolOption("bad_bool", false)
		assert.True(t, IsConfigError(err))

		_, err = cfg.DurationOption("bad_dur", 0)
		assert.True(t, IsConfigError(err))
	})
}

func TestConfigAddr(t *testing.T) {
	cfg := &Config{Driver: "postgres", Host: "db1", Port: 5432}
	assert.Equal(t, "db1:5432", cfg.Addr())

	cfg.URL = "postgres://db1:5432/bench"
	assert.Equal(t, "postgres://db1:5432/bench", cfg.Addr())
}
