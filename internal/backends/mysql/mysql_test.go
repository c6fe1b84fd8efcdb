package mysql

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchkv/benchkv/internal/drivertest"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

// TestConformance needs a reachable server with the fields used by the
// suite pre-created as columns, e.g.
// BENCHKV_TEST_MYSQL_DSN=bench:bench@tcp(localhost:3306)/bench
func TestConformance(t *testing.T) {
	dsn := os.Getenv("BENCHKV_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("BENCHKV_TEST_MYSQL_DSN not set")
	}

	drv := NewDriver()
	drivertest.Run(t, func(t *testing.T) driver.Client {
		client, err := drv.Open(&driver.Config{Driver: "mysql", URL: dsn}, logger.Discard())
		require.NoError(t, err)
		return client
	}, drivertest.Options{OrderedScan: true})
}

func TestBuildDSN(t *testing.T) {
	t.Run("from parts", func(t *testing.T) {
		cfg := &driver.Config{
			Driver: "mysql", Host: "db1", Port: 3306,
			Username: "bench", Password: "secret", Database: "benchdb",
		}
		dsn, err := buildDSN(cfg)
		require.NoError(t, err)
		assert.Contains(t, dsn, "bench:secret@tcp(db1:3306)/benchdb")
		assert.Contains(t, dsn, "clientFoundRows=true")
	})

	t.Run("url keeps its settings and reports matched rows", func(t *testing.T) {
		cfg := &driver.Config{Driver: "mysql", URL: "bench:bench@tcp(localhost:3306)/bench?parseTime=true"}
		dsn, err := buildDSN(cfg)
		require.NoError(t, err)
		assert.Contains(t, dsn, "clientFoundRows=true")
		assert.Contains(t, dsn, "parseTime=true")
	})

	t.Run("auto-commit can be disabled", func(t *testing.T) {
		cfg := &driver.Config{
			Driver: "mysql", Host: "db1", Port: 3306,
			AutoCommit: driver.GetBoolPtr(false),
		}
		dsn, err := buildDSN(cfg)
		require.NoError(t, err)
		assert.Contains(t, dsn, "autocommit=0")
	})

	t.Run("host required without url", func(t *testing.T) {
		_, err := buildDSN(&driver.Config{Driver: "mysql"})
		assert.True(t, driver.IsConfigError(err))
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := buildDSN(&driver.Config{Driver: "mysql", URL: "://nope"})
		assert.True(t, driver.IsConfigError(err))
	})
}

func TestSortedFields(t *testing.T) {
	row := driver.RowFromStrings(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, []string{"a", "b", "c"}, sortedFields(row))
	assert.Equal(t, "a,b,c", fieldVariant(sortedFields(row)))
	assert.Equal(t, "", fieldVariant(nil))
}
