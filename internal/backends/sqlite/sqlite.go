// Package sqlite implements the client contract on an embedded SQLite
// database via the pure-Go modernc driver. Records are stored in document
// mode: a key column plus one JSON document column per table. Tables are
// created lazily on first use and partial updates merge into the stored
// document with json_patch, so untouched fields survive.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/benchkv/benchkv/internal/backends/sqlstmt"
	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
	"github.com/benchkv/benchkv/pkg/rowcodec"
)

const (
	keyColumn = "record_key"
	docColumn = "doc"
)

func init() {
	driver.Register(NewDriver())
}

// Driver opens SQLite-backed clients. Each client owns its own database
// handle and statement cache.
type Driver struct{}

// NewDriver returns the SQLite driver.
func NewDriver() *Driver { return &Driver{} }

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.SQLite }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.SQLite) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	dsn := cfg.URL
	if dsn == "" {
		dsn = cfg.Database
	}
	if dsn == "" {
		return nil, driver.NewConfigError(dbcaps.SQLite, "database", "a database file path is required")
	}
	return &client{
		id:      uuid.NewString(),
		cfg:     cfg,
		logger:  log,
		codec:   rowcodec.JSON(),
		dsn:     dsn,
		builder: sqlstmt.Builder{Placeholder: sqlstmt.Question, KeyColumn: keyColumn, DocColumn: docColumn},
		tables:  make(map[string]struct{}),
	}, nil
}

type client struct {
	id      string
	cfg     *driver.Config
	logger  *logger.Logger
	codec   rowcodec.Codec
	dsn     string
	builder sqlstmt.Builder

	state driver.Lifecycle
	db    *sql.DB
	stmts *sqlstmt.Cache

	mu     sync.Mutex
	tables map[string]struct{}
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("sqlite client %s initialized more than once", c.id)
		return nil
	}

	db, err := sql.Open("sqlite", c.dsn)
	if err != nil {
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.SQLite, c.dsn, err)
	}
	// SQLite serializes writers; one pooled connection avoids lock
	// contention between them.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.SQLite, c.dsn, err)
	}
	c.db = db
	c.stmts = sqlstmt.NewCache(db)
	c.logger.WithFields(map[string]string{"dsn": c.dsn}).Info("sqlite database opened")
	return nil
}

func (c *client) Cleanup(ctx context.Context) error {
	if !c.state.Stop() {
		return nil
	}
	if err := c.stmts.Close(); err != nil {
		c.logger.Warnf("closing prepared statements: %v", err)
	}
	if err := c.db.Close(); err != nil {
		return driver.WrapError(dbcaps.SQLite, "cleanup", err)
	}
	return nil
}

// ensureTable creates the backing table on first use of each logical table.
func (c *client) ensureTable(ctx context.Context, table string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[table]; ok {
		return nil
	}
	ddl := "CREATE TABLE IF NOT EXISTS " + table +
		" (" + keyColumn + " TEXT PRIMARY KEY, " + docColumn + " TEXT NOT NULL)"
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	c.tables[table] = struct{}{}
	return nil
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("sqlite read failed: %v", err)
		return driver.StatusError, nil
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbRead, Table: table}, func() string {
		return c.builder.ReadDoc(table)
	})
	if err != nil {
		c.logger.Errorf("sqlite read prepare failed: %v", err)
		return driver.StatusError, nil
	}

	var doc []byte
	switch err := stmt.QueryRowContext(ctx, key).Scan(&doc); {
	case err == sql.ErrNoRows:
		return driver.StatusNotFound, nil
	case err != nil:
		c.logger.Errorf("sqlite read failed: %v", err)
		return driver.StatusError, nil
	}

	row, err := c.codec.Decode(doc, fields)
	if err != nil {
		c.logger.Errorf("sqlite read decode failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, row
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("sqlite scan failed: %v", err)
		return driver.StatusError, nil
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbScan, Table: table}, func() string {
		return c.builder.ScanDoc(table)
	})
	if err != nil {
		c.logger.Errorf("sqlite scan prepare failed: %v", err)
		return driver.StatusError, nil
	}

	result, err := stmt.QueryContext(ctx, startKey, count)
	if err != nil {
		c.logger.Errorf("sqlite scan failed: %v", err)
		return driver.StatusError, nil
	}
	defer result.Close()

	rows := make([]driver.KeyedRow, 0, count)
	for result.Next() {
		var key string
		var doc []byte
		if err := result.Scan(&key, &doc); err != nil {
			c.logger.Errorf("sqlite scan row failed: %v", err)
			return driver.StatusError, nil
		}
		row, err := c.codec.Decode(doc, fields)
		if err != nil {
			c.logger.Errorf("sqlite scan decode failed: %v", err)
			return driver.StatusError, nil
		}
		rows = append(rows, driver.KeyedRow{Key: key, Row: row})
	}
	if err := result.Err(); err != nil {
		c.logger.Errorf("sqlite scan failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, rows
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("sqlite update failed: %v", err)
		return driver.StatusError
	}

	patch, err := c.codec.Encode(values)
	if err != nil {
		c.logger.Errorf("sqlite update encode failed: %v", err)
		return driver.StatusError
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbUpdate, Table: table}, func() string {
		return c.builder.MergeDoc(table, "json_patch("+docColumn+", ?)")
	})
	if err != nil {
		c.logger.Errorf("sqlite update prepare failed: %v", err)
		return driver.StatusError
	}

	res, err := stmt.ExecContext(ctx, string(patch), key)
	if err != nil {
		c.logger.Errorf("sqlite update failed: %v", err)
		return driver.StatusError
	}
	affected, err := res.RowsAffected()
	if err != nil {
		c.logger.Errorf("sqlite update failed: %v", err)
		return driver.StatusError
	}
	if affected == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}

func (c *client) Insert(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}
	if err := c.ensureTable(ctx, table); err != nil {
		c.logger.Errorf("sqlite insert failed: %v", err)
		return driver.StatusError
	}

	doc, err := c.codec.Encode(values)
	if err != nil {
		c.logger.Errorf("sqlite insert encode failed: %v", err)
		return driver.StatusError
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbInsert, Table: table}, func() string {
		return c.builder.InsertDoc(table)
	})
	if err != nil {
		c.logger.Errorf("sqlite insert prepare failed: %v", err)
		return driver.StatusError
	}

	if _, err := stmt.ExecContext(ctx, key, string(doc)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			c.logger.Debugf("insert of existing key %q in table %q", key, table)
		} else {
			c.logger.Errorf("sqlite insert failed: %v", err)
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
		c.logger.Errorf("sqlite delete failed: %v", err)
		return driver.StatusError
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbDelete, Table: table}, func() string {
		return c.builder.Delete(table)
	})
	if err != nil {
		c.logger.Errorf("sqlite delete prepare failed: %v", err)
		return driver.StatusError
	}

	res, err := stmt.ExecContext(ctx, key)
	if err != nil {
		c.logger.Errorf("sqlite delete failed: %v", err)
		return driver.StatusError
	}
	affected, err := res.RowsAffected()
	if err != nil {
		c.logger.Errorf("sqlite delete failed: %v", err)
		return driver.StatusError
	}
	if affected == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}
