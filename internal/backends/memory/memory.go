// Package memory implements the client contract on an in-process ordered
// map. All clients opened from one driver share a single store behind a
// reference-counted handle, mirroring how the networked backends share a
// connection pool, which makes the backend a faithful stand-in for them in
// hermetic tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

func init() {
	driver.Register(NewDriver())
}

// store holds every table's records. Records keep realized field bytes.
type store struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string][]byte
}

func newStore() *store {
	return &store{tables: make(map[string]map[string]map[string][]byte)}
}

func (s *store) table(name string, create bool) map[string]map[string][]byte {
	t, ok := s.tables[name]
	if !ok && create {
		t = make(map[string]map[string][]byte)
		s.tables[name] = t
	}
	return t
}

// Driver opens in-memory clients backed by one shared store.
type Driver struct {
	shared driver.SharedConn[*store]
}

// NewDriver returns a driver with its own private store. The package init
// registers one instance globally; tests create their own for isolation.
func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.Memory }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.Memory) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	return &client{
		id:     uuid.NewString(),
		drv:    d,
		logger: log,
	}, nil
}

type client struct {
	id     string
	drv    *Driver
	logger *logger.Logger

	state driver.Lifecycle
	store *store
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("memory client %s initialized more than once", c.id)
		return nil
	}
	st, err := c.drv.shared.Acquire(func() (*store, error) {
		c.logger.Debug("creating shared in-memory store")
		return newStore(), nil
	})
	if err != nil {
		c.state.Abort()
		return err
	}
	c.store = st
	return nil
}

func (c *client) Cleanup(ctx context.Context) error {
	if !c.state.Stop() {
		return nil
	}
	return c.drv.shared.Release(func(st *store) error {
		c.logger.Debug("releasing shared in-memory store")
		return nil
	})
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	t := c.store.table(table, false)
	rec, ok := t[key]
	if !ok {
		return driver.StatusNotFound, nil
	}
	return driver.StatusOK, project(rec, fields)
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	t := c.store.table(table, false)
	keys := make([]string, 0, len(t))
	for k := range t {
		if k >= startKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if count < len(keys) {
		keys = keys[:count]
	}

	rows := make([]driver.KeyedRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, driver.KeyedRow{Key: k, Row: project(t[k], fields)})
	}
	return driver.StatusOK, rows
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	t := c.store.table(table, false)
	rec, ok := t[key]
	if !ok {
		return driver.StatusNotFound
	}
	for field, v := range values {
		rec[field] = cloneBytes(v.Bytes())
	}
	return driver.StatusOK
}

func (c *client) Insert(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	t := c.store.table(table, true)
	if _, exists := t[key]; exists {
		c.logger.Debugf("insert of existing key %q in table %q", key, table)
		return driver.StatusError
	}
	rec := make(map[string][]byte, len(values))
	for field, v := range values {
		rec[field] = cloneBytes(v.Bytes())
	}
	t[key] = rec
	return driver.StatusOK
}

func (c *client) Delete(ctx context.Context, table, key string) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	t := c.store.table(table, false)
	if _, ok := t[key]; !ok {
		return driver.StatusNotFound
	}
	delete(t, key)
	return driver.StatusOK
}

func project(rec map[string][]byte, fields []string) driver.Row {
	if len(fields) == 0 {
		row := make(driver.Row, len(rec))
		for field, b := range rec {
			row[field] = driver.Bytes(cloneBytes(b))
		}
		return row
	}
	row := make(driver.Row, len(fields))
	for _, field := range fields {
		if b, ok := rec[field]; ok {
			row[field] = driver.Bytes(cloneBytes(b))
		}
	}
	return row
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
