// Package badgerdb implements the client contract on an embedded Badger
// key-value store. Records are stored as JSON documents under composite
// "table\x00key" keys, so one store serves any number of logical tables and
// key iteration within a table stays lexicographic.
package badgerdb

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
	"github.com/benchkv/benchkv/pkg/rowcodec"
)

func init() {
	driver.Register(NewDriver())
}

// Driver opens Badger-backed clients. Each client owns its own store handle;
// Badger itself serializes access to one on-disk directory.
type Driver struct{}

// NewDriver returns the Badger driver.
func NewDriver() *Driver { return &Driver{} }

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.BadgerDB }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.BadgerDB) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	inMemory, err := cfg.BoolOption("in_memory", false)
	if err != nil {
		return nil, err
	}
	path := cfg.Database
	if path == "" {
		path = cfg.StringOption("path", "")
	}
	if path == "" && !inMemory {
		return nil, driver.NewConfigError(dbcaps.BadgerDB, "database", "a store path is required unless in_memory is set")
	}
	return &client{
		id:       uuid.NewString(),
		cfg:      cfg,
		logger:   log,
		codec:    rowcodec.JSON(),
		path:     path,
		inMemory: inMemory,
	}, nil
}

type client struct {
	id       string
	cfg      *driver.Config
	logger   *logger.Logger
	codec    rowcodec.Codec
	path     string
	inMemory bool

	state driver.Lifecycle
	db    *badger.DB
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("badger client %s initialized more than once", c.id)
		return nil
	}

	opts := badger.DefaultOptions(c.path).
		WithInMemory(c.inMemory).
		WithLogger(badgerLogger{c.logger})
	if c.cfg.Durability == driver.DurabilityFsyncSafe {
		opts = opts.WithSyncWrites(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.BadgerDB, c.path, err)
	}
	c.db = db
	c.logger.WithFields(map[string]string{"path": c.path}).Info("badger store opened")
	return nil
}

func (c *client) Cleanup(ctx context.Context) error {
	if !c.state.Stop() {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return driver.WrapError(dbcaps.BadgerDB, "cleanup", err)
	}
	return nil
}

// recordKey builds the composite store key. The NUL separator cannot occur
// in table names, so tables never interleave.
func recordKey(table, key string) []byte {
	return []byte(table + "\x00" + key)
}

func tablePrefix(table string) []byte {
	return []byte(table + "\x00")
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}

	var row driver.Row
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(table, key))
		if err != nil {
			return err
		}
		return item.Value(func(doc []byte) error {
			decoded, err := c.codec.Decode(doc, fields)
			if err != nil {
				return err
			}
			row = decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return driver.StatusNotFound, nil
	}
	if err != nil {
		c.logger.Errorf("badger read failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, row
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}

	prefix := tablePrefix(table)
	rows := make([]driver.KeyedRow, 0, count)
	err := c.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(recordKey(table, startKey)); it.ValidForPrefix(prefix) && len(rows) < count; it.Next() {
			item := it.Item()
			key := string(item.Key()[len(prefix):])
			err := item.Value(func(doc []byte) error {
				row, err := c.codec.Decode(doc, fields)
				if err != nil {
					return err
				}
				rows = append(rows, driver.KeyedRow{Key: key, Row: row})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Errorf("badger scan failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, rows
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(table, key))
		if err != nil {
			return err
		}
		var current driver.Row
		if err := item.Value(func(doc []byte) error {
			decoded, err := c.codec.Decode(doc, nil)
			if err != nil {
				return err
			}
			current = decoded
			return nil
		}); err != nil {
			return err
		}
		for field, v := range values {
			current[field] = v
		}
		doc, err := c.codec.Encode(current)
		if err != nil {
			return err
		}
		return txn.Set(recordKey(table, key), doc)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return driver.StatusNotFound
	}
	if err != nil {
		c.logger.Errorf("badger update failed: %v", err)
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Insert(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	doc, err := c.codec.Encode(values)
	if err != nil {
		c.logger.Errorf("badger insert encode failed: %v", err)
		return driver.StatusError
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(table, key))
		if err == nil {
			return fmt.Errorf("key %q already exists in table %q", key, table)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(recordKey(table, key), doc)
	})
	if err != nil {
		c.logger.Errorf("badger insert failed: %v", err)
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Delete(ctx context.Context, table, key string) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(table, key)); err != nil {
			return err
		}
		return txn.Delete(recordKey(table, key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return driver.StatusNotFound
	}
	if err != nil {
		c.logger.Errorf("badger delete failed: %v", err)
		return driver.StatusError
	}
	return driver.StatusOK
}

// badgerLogger forwards Badger's internal log lines to the structured logger.
type badgerLogger struct {
	log *logger.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) { l.log.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}
func (l badgerLogger) Infof(format string, args ...interface{})  { l.log.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{}) { l.log.Debugf(format, args...) }
