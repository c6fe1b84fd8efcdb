package cassandra

import (
	"os"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchkv/benchkv/internal/drivertest"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

// TestConformance needs a reachable cluster with the suite's fields
// pre-created as columns, e.g.
// BENCHKV_TEST_CASSANDRA_HOSTS=localhost BENCHKV_TEST_CASSANDRA_KEYSPACE=bench
func TestConformance(t *testing.T) {
	hosts := os.Getenv("BENCHKV_TEST_CASSANDRA_HOSTS")
	keyspace := os.Getenv("BENCHKV_TEST_CASSANDRA_KEYSPACE")
	if hosts == "" || keyspace == "" {
		t.Skip("BENCHKV_TEST_CASSANDRA_HOSTS or BENCHKV_TEST_CASSANDRA_KEYSPACE not set")
	}

	drv := NewDriver()
	drivertest.Run(t, func(t *testing.T) driver.Client {
		cfg := &driver.Config{Driver: "cassandra", Host: hosts, Database: keyspace}
		client, err := drv.Open(cfg, logger.Discard())
		require.NoError(t, err)
		return client
	}, drivertest.Options{OrderedScan: false})
}

func TestOpenValidation(t *testing.T) {
	drv := NewDriver()

	t.Run("host required", func(t *testing.T) {
		_, err := drv.Open(&driver.Config{Driver: "cassandra", Database: "bench"}, logger.Discard())
		assert.True(t, driver.IsConfigError(err))
	})

	t.Run("keyspace required", func(t *testing.T) {
		_, err := drv.Open(&driver.Config{Driver: "cassandra", Host: "cass1"}, logger.Discard())
		assert.True(t, driver.IsConfigError(err))
	})
}

func TestDurabilityConsistency(t *testing.T) {
	assert.Equal(t, gocql.Quorum, durabilityConsistency(driver.DurabilitySafe))
	assert.Equal(t, gocql.One, durabilityConsistency(driver.DurabilityNormal))
	assert.Equal(t, gocql.All, durabilityConsistency(driver.DurabilityFsyncSafe))
	assert.Equal(t, gocql.Two, durabilityConsistency(driver.DurabilityReplicasSafe))
}

func TestStatementShapes(t *testing.T) {
	t.Run("scan walks the token ring", func(t *testing.T) {
		assert.Equal(t,
			"SELECT record_key, field0 FROM usertable WHERE token(record_key) >= token(?) LIMIT ?",
			scanCQL("usertable", []string{"field0"}))
		assert.Equal(t,
			"SELECT * FROM usertable WHERE token(record_key) >= token(?) LIMIT ?",
			scanCQL("usertable", nil))
	})
}

func TestMapToRow(t *testing.T) {
	row := mapToRow(map[string]interface{}{
		"record_key": "user1",
		"field0":     []byte("a"),
		"field1":     "b",
		"empty":      []byte{},
		"odd":        42,
	})
	assert.Len(t, row, 2)
	assert.Equal(t, "a", row["field0"].String())
	assert.Equal(t, "b", row["field1"].String())
}
