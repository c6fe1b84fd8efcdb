// Package rediskv implements the client contract on Redis. All clients in
// the process share one *redis.Client behind a reference-counted handle.
//
// A record is one hash holding the field bytes. Redis has no ordered
// keyspace, so every table also keeps a sorted-set index of its record keys
// at score zero; lexicographic range queries over that index drive Scan.
package rediskv

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

func init() {
	driver.Register(NewDriver())
}

// Driver opens Redis-backed clients sharing one connection pool.
type Driver struct {
	shared driver.SharedConn[*redis.Client]
}

// NewDriver returns the Redis driver.
func NewDriver() *Driver { return &Driver{} }

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.Redis }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.Redis) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &client{
		id:     uuid.NewString(),
		cfg:    cfg,
		drv:    d,
		logger: log,
		opts:   opts,
	}, nil
}

func redisOptions(cfg *driver.Config) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, driver.NewConfigError(dbcaps.Redis, "url", err.Error())
		}
		return opts, nil
	}
	if cfg.Host == "" {
		return nil, driver.NewConfigError(dbcaps.Redis, "host", "a connection URL or host is required")
	}

	db, err := cfg.IntOption("db", 0)
	if err != nil {
		return nil, err
	}
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       db,
	}
	if cfg.MaxConns > 0 {
		opts.PoolSize = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		opts.DialTimeout = cfg.ConnectTimeout
	}
	return opts, nil
}

// hashKey addresses one record's hash; indexKey addresses a table's key
// index.
func hashKey(table, key string) string { return table + "/" + key }
func indexKey(table string) string     { return "index/" + table }

type client struct {
	id     string
	cfg    *driver.Config
	drv    *Driver
	logger *logger.Logger
	opts   *redis.Options

	state driver.Lifecycle
	conn  *redis.Client
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("redis client %s initialized more than once", c.id)
		return nil
	}

	conn, err := c.drv.shared.Acquire(func() (*redis.Client, error) {
		rc := redis.NewClient(c.opts)
		if err := rc.Ping(ctx).Err(); err != nil {
			rc.Close()
			return nil, err
		}
		c.logger.WithFields(map[string]string{"addr": c.opts.Addr}).Info("redis client connected")
		return rc, nil
	})
	if err != nil {
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.Redis, c.opts.Addr, err)
	}
	c.conn = conn
	return nil
}

func (c *client) Cleanup(ctx context.Context) error {
	if !c.state.Stop() {
		return nil
	}
	return c.drv.shared.Release(func(rc *redis.Client) error {
		c.logger.Info("closing shared redis client")
		if err := rc.Close(); err != nil {
			return driver.WrapError(dbcaps.Redis, "cleanup", err)
		}
		return nil
	})
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}

	if len(fields) == 0 {
		m, err := c.conn.HGetAll(ctx, hashKey(table, key)).Result()
		if err != nil {
			c.logger.Errorf("redis read failed: %v", err)
			return driver.StatusError, nil
		}
		if len(m) == 0 {
			return driver.StatusNotFound, nil
		}
		row := make(driver.Row, len(m))
		for field, v := range m {
			row[field] = driver.String(v)
		}
		return driver.StatusOK, row
	}

	// HMGET cannot distinguish a missing record from missing fields, so
	// check existence first.
	exists, err := c.conn.Exists(ctx, hashKey(table, key)).Result()
	if err != nil {
		c.logger.Errorf("redis read failed: %v", err)
		return driver.StatusError, nil
	}
	if exists == 0 {
		return driver.StatusNotFound, nil
	}

	vals, err := c.conn.HMGet(ctx, hashKey(table, key), fields...).Result()
	if err != nil {
		c.logger.Errorf("redis read failed: %v", err)
		return driver.StatusError, nil
	}
	row := make(driver.Row, len(fields))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			row[fields[i]] = driver.String(s)
		}
	}
	return driver.StatusOK, row
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}

	// An empty start key scans from the beginning of the index.
	min := "-"
	if startKey != "" {
		min = "[" + startKey
	}
	keys, err := c.conn.ZRangeByLex(ctx, indexKey(table), &redis.ZRangeBy{
		Min:   min,
		Max:   "+",
		Count: int64(count),
	}).Result()
	if err != nil {
		c.logger.Errorf("redis scan failed: %v", err)
		return driver.StatusError, nil
	}

	rows := make([]driver.KeyedRow, 0, len(keys))
	for _, key := range keys {
		status, row := c.Read(ctx, table, key, fields)
		if status == driver.StatusNotFound {
			// The record vanished between the index read and the hash
			// read; skip it.
			continue
		}
		if status != driver.StatusOK {
			return status, nil
		}
		rows = append(rows, driver.KeyedRow{Key: key, Row: row})
	}
	return driver.StatusOK, rows
}

func hashArgs(values driver.Row) []interface{} {
	args := make([]interface{}, 0, len(values)*2)
	for field, v := range values {
		args = append(args, field, v.Bytes())
	}
	return args
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	exists, err := c.conn.Exists(ctx, hashKey(table, key)).Result()
	if err != nil {
		c.logger.Errorf("redis update failed: %v", err)
		return driver.StatusError
	}
	if exists == 0 {
		return driver.StatusNotFound
	}

	if err := c.conn.HSet(ctx, hashKey(table, key), hashArgs(values)...).Err(); err != nil {
		c.logger.Errorf("redis update failed: %v", err)
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Insert(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	exists, err := c.conn.Exists(ctx, hashKey(table, key)).Result()
	if err != nil {
		c.logger.Errorf("redis insert failed: %v", err)
		return driver.StatusError
	}
	if exists != 0 {
		c.logger.Debugf("insert of existing key %q in table %q", key, table)
		return driver.StatusError
	}

	pipe := c.conn.TxPipeline()
	pipe.HSet(ctx, hashKey(table, key), hashArgs(values)...)
	pipe.ZAdd(ctx, indexKey(table), redis.Z{Score: 0, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Errorf("redis insert failed: %v", err)
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Delete(ctx context.Context, table, key string) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	pipe := c.conn.TxPipeline()
	del := pipe.Del(ctx, hashKey(table, key))
	pipe.ZRem(ctx, indexKey(table), key)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Errorf("redis delete failed: %v", err)
		return driver.StatusError
	}
	if del.Val() == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}
