// Package postgres implements the client contract on PostgreSQL via pgx.
// Records are stored in document mode: a key column plus one JSONB document
// column per table. Partial updates merge into the stored document with the
// JSONB concatenation operator, so untouched fields survive. pgx prepares
// and caches statements per connection, so the client only caches the SQL
// text per verb and table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/benchkv/benchkv/internal/backends/sqlstmt"
	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
	"github.com/benchkv/benchkv/pkg/rowcodec"
)

const (
	keyColumn = "record_key"
	docColumn = "doc"

	uniqueViolation = "23505"
)

func init() {
	driver.Register(NewDriver())
}

// Driver opens PostgreSQL-backed clients. Each client owns its own
// connection pool.
type Driver struct{}

// NewDriver returns the PostgreSQL driver.
func NewDriver() *Driver { return &Driver{} }

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.PostgreSQL }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.PostgreSQL) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	connString := cfg.URL
	if connString == "" {
		if cfg.Host == "" {
			return nil, driver.NewConfigError(dbcaps.PostgreSQL, "host", "a connection URL or host is required")
		}
		connString = fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	}
	return &client{
		id:         uuid.NewString(),
		cfg:        cfg,
		logger:     log,
		codec:      rowcodec.JSON(),
		connString: connString,
		builder:    sqlstmt.Builder{Placeholder: sqlstmt.Dollar, KeyColumn: keyColumn, DocColumn: docColumn},
		sqlText:    make(map[sqlstmt.Key]string),
		tables:     make(map[string]struct{}),
	}, nil
}

type client struct {
	id         string
	cfg        *driver.Config
	logger     *logger.Logger
	codec      rowcodec.Codec
	connString string
	builder    sqlstmt.Builder

	state driver.Lifecycle
	pool  *pgxpool.Pool

	mu      sync.Mutex
	sqlText map[sqlstmt.Key]string
	tables  map[string]struct{}
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("postgres client %s initialized more than once", c.id)
		return nil
	}

	poolCfg, err := pgxpool.ParseConfig(c.connString)
	if err != nil {
		c.state.Abort()
		return driver.NewConfigError(dbcaps.PostgreSQL, "url", err.Error())
	}
	if c.cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(c.cfg.MaxConns)
	}
	if c.cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = c.cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.PostgreSQL, c.cfg.Addr(), err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.PostgreSQL, c.cfg.Addr(), err)
	}
	c.pool = pool
	c.logger.WithFields(map[string]string{"addr": c.cfg.Addr()}).Info("postgres pool opened")
	return nil
}

func (c *client) Cleanup(ctx context.Context) error {
	if !c.state.Stop() {
		return nil
	}
	c.pool.Close()
	return nil
}

// sql returns the cached statement text for a verb and table.
func (c *client) sql(key sqlstmt.Key, build func() string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.sqlText[key]
	if !ok {
		text = build()
		c.sqlText[key] = text
	}
	return text
}

func (c *client) ensureTable(ctx context.Context, table string) error {
	c.mu.Lock()
	created := false
	if _, ok := c.tables[table]; ok {
		created = true
	}
	c.mu.Unlock()
	if created {
		return nil
	}

	ddl := "CREATE TABLE IF NOT EXISTS " + table +
		" (" + keyColumn + " TEXT PRIMARY KEY, " + docColumn + " JSONB NOT NULL)"
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return err
	}

	c.mu.Lock()
	c.tables[table] = struct{}{}
	c.mu.Unlock()
	return nil
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("postgres read failed: %v", err)
		return driver.StatusError, nil
	}

	text := c.sql(sqlstmt.Key{Verb: sqlstmt.VerbRead, Table: table}, func() string {
		return c.builder.ReadDoc(table)
	})

	var doc []byte
	switch err := c.pool.QueryRow(ctx, text, key).Scan(&doc); {
	case errors.Is(err, pgx.ErrNoRows):
		return driver.StatusNotFound, nil
	case err != nil:
		c.logger.Errorf("postgres read failed: %v", err)
		return driver.StatusError, nil
	}

	row, err := c.codec.Decode(doc, fields)
	if err != nil {
		c.logger.Errorf("postgres read decode failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, row
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("postgres scan failed: %v", err)
		return driver.StatusError, nil
	}

	text := c.sql(sqlstmt.Key{Verb: sqlstmt.VerbScan, Table: table}, func() string {
		return c.builder.ScanDoc(table)
	})

	result, err := c.pool.Query(ctx, text, startKey, count)
	if err != nil {
		c.logger.Errorf("postgres scan failed: %v", err)
		return driver.StatusError, nil
	}
	defer result.Close()

	rows := make([]driver.KeyedRow, 0, count)
	for result.Next() {
		var key string
		var doc []byte
		if err := result.Scan(&key, &doc); err != nil {
			c.logger.Errorf("postgres scan row failed: %v", err)
			return driver.StatusError, nil
		}
		row, err := c.codec.Decode(doc, fields)
		if err != nil {
			c.logger.Errorf("postgres scan decode failed: %v", err)
			return driver.StatusError, nil
		}
		rows = append(rows, driver.KeyedRow{Key: key, Row: row})
	}
	if err := result.Err(); err != nil {
		c.logger.Errorf("postgres scan failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, rows
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("postgres update failed: %v", err)
		return driver.StatusError
	}

	patch, err := c.codec.Encode(values)
	if err != nil {
		c.logger.Errorf("postgres update encode failed: %v", err)
		return driver.StatusError
	}

	text := c.sql(sqlstmt.Key{Verb: sqlstmt.VerbUpdate, Table: table}, func() string {
		return c.builder.MergeDoc(table, docColumn+" || $1::jsonb")
	})

	tag, err := c.pool.Exec(ctx, text, patch, key)
	if err != nil {
		c.logger.Errorf("postgres update failed: %v", err)
		return driver.StatusError
	}
	if tag.RowsAffected() == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}

func (c *client) Insert(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("postgres insert failed: %v", err)
		return driver.StatusError
	}

	doc, err := c.codec.Encode(values)
	if err != nil {
		c.logger.Errorf("postgres insert encode failed: %v", err)
		return driver.StatusError
	}

	text := c.sql(sqlstmt.Key{Verb: sqlstmt.VerbInsert, Table: table}, func() string {
		return c.builder.InsertDoc(table)
	})

	if _, err := c.pool.Exec(ctx, text, key, doc); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			c.logger.Debugf("insert of existing key %q in table %q", key, table)
		} else {
			c.logger.Errorf("postgres insert failed: %v", err)
		}
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Delete(ctx context.Context, table, key string) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("postgres delete failed: %v", err)
		return driver.StatusError
	}

	text := c.sql(sqlstmt.Key{Verb: sqlstmt.VerbDelete, Table: table}, func() string {
		return c.builder.Delete(table)
	})

	tag, err := c.pool.Exec(ctx, text, key)
	if err != nil {
		c.logger.Errorf("postgres delete failed: %v", err)
		return driver.StatusError
	}
	if tag.RowsAffected() == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}
