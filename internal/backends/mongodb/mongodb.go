// Package mongodb implements the client contract on MongoDB. All clients in
// the process share one *mongo.Client behind a reference-counted handle; the
// driver's own pool multiplexes the actual connections. The first Init wins
// the connection settings, later clients join the same shared client.
//
// Each logical table maps to a collection. A record is one document whose
// _id is the record key and whose remaining elements hold the field bytes as
// BSON binary values.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/writeconcern"

	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

const defaultDatabase = "benchkv"

func init() {
	driver.Register(NewDriver())
}

// Driver opens MongoDB-backed clients sharing one connection.
type Driver struct {
	shared driver.SharedConn[*mongo.Client]
}

// NewDriver returns the MongoDB driver.
func NewDriver() *Driver { return &Driver{} }

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.MongoDB }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.MongoDB) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	uri := cfg.URL
	if uri == "" {
		if cfg.Host == "" {
			return nil, driver.NewConfigError(dbcaps.MongoDB, "host", "a connection URL or host is required")
		}
		uri = fmt.Sprintf("mongodb://%s:%d", cfg.Host, cfg.Port)
	}
	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}
	return &client{
		id:       uuid.NewString(),
		cfg:      cfg,
		drv:      d,
		logger:   log,
		uri:      uri,
		database: database,
	}, nil
}

// durabilityConcern maps the uniform durability levels onto MongoDB write
// concerns.
func durabilityConcern(d driver.Durability) *writeconcern.WriteConcern {
	switch d {
	case driver.DurabilityNormal:
		return writeconcern.W1()
	case driver.DurabilityFsyncSafe:
		return writeconcern.Journaled()
	case driver.DurabilityReplicasSafe:
		return &writeconcern.WriteConcern{W: 2}
	default:
		return writeconcern.Majority()
	}
}

type client struct {
	id       string
	cfg      *driver.Config
	drv      *Driver
	logger   *logger.Logger
	uri      string
	database string

	state driver.Lifecycle
	conn  *mongo.Client
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("mongodb client %s initialized more than once", c.id)
		return nil
	}

	conn, err := c.drv.shared.Acquire(func() (*mongo.Client, error) {
		opts := options.Client().
			ApplyURI(c.uri).
			SetWriteConcern(durabilityConcern(c.cfg.Durability))
		if c.cfg.ConnectTimeout > 0 {
			opts = opts.SetConnectTimeout(c.cfg.ConnectTimeout)
		}
		if c.cfg.MaxConns > 0 {
			opts = opts.SetMaxPoolSize(uint64(c.cfg.MaxConns))
		}
		mc, err := mongo.Connect(opts)
		if err != nil {
			return nil, err
		}
		if err := mc.Ping(ctx, nil); err != nil {
			mc.Disconnect(ctx)
			return nil, err
		}
		c.logger.WithFields(map[string]string{"uri": c.uri, "durability": string(c.cfg.Durability)}).Info("mongodb client connected")
		return mc, nil
	})
	if err != nil {
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.MongoDB, c.uri, err)
	}
	c.conn = conn
	return nil
}

func (c *client) Cleanup(ctx context.Context) error {
	if !c.state.Stop() {
		return nil
	}
	return c.drv.shared.Release(func(mc *mongo.Client) error {
		c.logger.Info("disconnecting shared mongodb client")
		if err := mc.Disconnect(ctx); err != nil {
			return driver.WrapError(dbcaps.MongoDB, "cleanup", err)
		}
		return nil
	})
}

func (c *client) collection(table string) *mongo.Collection {
	return c.conn.Database(c.database).Collection(table)
}

// projection limits a find to the requested fields. The _id element rides
// along for free and is skipped when documents are turned into rows.
func projection(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	p := make(bson.M, len(fields))
	for _, f := range fields {
		p[f] = 1
	}
	return p
}

func documentToRow(doc bson.M) driver.Row {
	row := make(driver.Row, len(doc))
	for field, v := range doc {
		if field == "_id" {
			continue
		}
		switch val := v.(type) {
		case bson.Binary:
			row[field] = driver.Bytes(val.Data)
		case string:
			row[field] = driver.String(val)
		default:
			row[field] = driver.String(fmt.Sprintf("%v", val))
		}
	}
	return row
}

func rowToDocument(key string, values driver.Row) bson.M {
	doc := make(bson.M, len(values)+1)
	doc["_id"] = key
	for field, v := range values {
		doc[field] = bson.Binary{Data: v.Bytes()}
	}
	return doc
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}

	opts := options.FindOne()
	if p := projection(fields); p != nil {
		opts = opts.SetProjection(p)
	}

	var doc bson.M
	err := c.collection(table).FindOne(ctx, bson.M{"_id": key}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return driver.StatusNotFound, nil
	}
	if err != nil {
		c.logger.Errorf("mongodb read failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, documentToRow(doc)
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(count))
	if p := projection(fields); p != nil {
		opts = opts.SetProjection(p)
	}
	if c.cfg.FetchSize > 0 {
		opts = opts.SetBatchSize(int32(c.cfg.FetchSize))
	}

	cursor, err := c.collection(table).Find(ctx, bson.M{"_id": bson.M{"$gte": startKey}}, opts)
	if err != nil {
		c.logger.Errorf("mongodb scan failed: %v", err)
		return driver.StatusError, nil
	}
	defer cursor.Close(ctx)

	rows := make([]driver.KeyedRow, 0, count)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			c.logger.Errorf("mongodb scan decode failed: %v", err)
			return driver.StatusError, nil
		}
		key, _ := doc["_id"].(string)
		rows = append(rows, driver.KeyedRow{Key: key, Row: documentToRow(doc)})
	}
	if err := cursor.Err(); err != nil {
		c.logger.Errorf("mongodb scan failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, rows
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	set := make(bson.M, len(values))
	for field, v := range values {
		set[field] = bson.Binary{Data: v.Bytes()}
	}

	res, err := c.collection(table).UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": set})
	if err != nil {
		c.logger.Errorf("mongodb update failed: %v", err)
		return driver.StatusError
	}
	if res.MatchedCount == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}

func (c *client) Insert(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	_, err := c.collection(table).InsertOne(ctx, rowToDocument(key, values))
	if mongo.IsDuplicateKeyError(err) {
		c.logger.Debugf("insert of existing key %q in table %q", key, table)
		return driver.StatusError
	}
	if err != nil {
		c.logger.Errorf("mongodb insert failed: %v", err)
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Delete(ctx context.Context, table, key string) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	res, err := c.collection(table).DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		c.logger.Errorf("mongodb delete failed: %v", err)
		return driver.StatusError
	}
	if res.DeletedCount == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}
