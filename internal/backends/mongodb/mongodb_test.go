package mongodb

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/benchkv/benchkv/internal/drivertest"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

// TestConformance needs a reachable server, e.g.
// BENCHKV_TEST_MONGODB_URL=mongodb://localhost:27017
func TestConformance(t *testing.T) {
	url := os.Getenv("BENCHKV_TEST_MONGODB_URL")
	if url == "" {
		t.Skip("BENCHKV_TEST_MONGODB_URL not set")
	}

	drv := NewDriver()
	drivertest.Run(t, func(t *testing.T) driver.Client {
		client, err := drv.Open(&driver.Config{Driver: "mongodb", URL: url}, logger.Discard())
		require.NoError(t, err)
		return client
	}, drivertest.Options{OrderedScan: true})
}

func TestOpenValidation(t *testing.T) {
	drv := NewDriver()

	t.Run("url or host required", func(t *testing.T) {
		_, err := drv.Open(&driver.Config{Driver: "mongodb"}, logger.Discard())
		assert.True(t, driver.IsConfigError(err))
	})

	t.Run("uri from host and port", func(t *testing.T) {
		c, err := drv.Open(&driver.Config{Driver: "mongodb", Host: "db1", Port: 27017}, logger.Discard())
		require.NoError(t, err)
		assert.Equal(t, "mongodb://db1:27017", c.(*client).uri)
	})

	t.Run("database defaults", func(t *testing.T) {
		c, err := drv.Open(&driver.Config{Driver: "mongodb", URL: "mongodb://localhost"}, logger.Discard())
		require.NoError(t, err)
		assert.Equal(t, defaultDatabase, c.(*client).database)
	})
}

func TestDurabilityConcern(t *testing.T) {
	assert.Equal(t, writeconcern.Majority(), durabilityConcern(driver.DurabilitySafe))
	assert.Equal(t, writeconcern.W1(), durabilityConcern(driver.DurabilityNormal))
	assert.Equal(t, writeconcern.Journaled(), durabilityConcern(driver.DurabilityFsyncSafe))
	assert.Equal(t, &writeconcern.WriteConcern{W: 2}, durabilityConcern(driver.DurabilityReplicasSafe))
}

func TestDocumentMapping(t *testing.T) {
	t.Run("row to document", func(t *testing.T) {
		row := driver.Row{
			"name": driver.String("Alice"),
			"blob": driver.Bytes([]byte{0x00, 0xff}),
		}
		doc := rowToDocument("user1", row)
		assert.Equal(t, "user1", doc["_id"])
		assert.Equal(t, bson.Binary{Data: []byte("Alice")}, doc["name"])
	})

	t.Run("document to row skips the id", func(t *testing.T) {
		doc := bson.M{
			"_id":  "user1",
			"name": bson.Binary{Data: []byte("Alice")},
			"note": "plain string",
		}
		row := documentToRow(doc)
		assert.Len(t, row, 2)
		assert.Equal(t, "Alice", row["name"].String())
		assert.Equal(t, "plain string", row["note"].String())
	})
}

func TestProjection(t *testing.T) {
	assert.Nil(t, projection(nil))
	assert.Equal(t, bson.M{"a": 1, "b": 1}, projection([]string{"a", "b"}))
}
