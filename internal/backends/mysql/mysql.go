// Package mysql implements the client contract on MySQL in native
// multi-column mode: every record field lives in its own column next to the
// key column. The backing table must exist before the client runs; the
// statement text therefore depends on the requested field set, and the
// client caches one prepared statement per verb, table and field set.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/benchkv/benchkv/internal/backends/sqlstmt"
	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

const keyColumn = "record_key"

const duplicateEntry = 1062

func init() {
	driver.Register(NewDriver())
}

// Driver opens MySQL-backed clients. Each client owns its own database
// handle and statement cache.
type Driver struct{}

// NewDriver returns the MySQL driver.
func NewDriver() *Driver { return &Driver{} }

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.MySQL }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.MySQL) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}
	return &client{
		id:      uuid.NewString(),
		cfg:     cfg,
		logger:  log,
		dsn:     dsn,
		builder: sqlstmt.Builder{Placeholder: sqlstmt.Question, KeyColumn: keyColumn},
	}, nil
}

// buildDSN assembles a go-sql-driver DSN from the configuration. The update
// verb must report matched rows rather than changed rows, otherwise an
// update that writes identical values would look like a missing record.
func buildDSN(cfg *driver.Config) (string, error) {
	if cfg.URL != "" {
		mc, err := gomysql.ParseDSN(cfg.URL)
		if err != nil {
			return "", driver.NewConfigError(dbcaps.MySQL, "url", err.Error())
		}
		mc.ClientFoundRows = true
		return mc.FormatDSN(), nil
	}
	if cfg.Host == "" {
		return "", driver.NewConfigError(dbcaps.MySQL, "host", "a connection URL or host is required")
	}

	mc := gomysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	mc.ClientFoundRows = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	if !cfg.AutoCommitEnabled() {
		mc.Params = map[string]string{"autocommit": "0"}
	}
	return mc.FormatDSN(), nil
}

type client struct {
	id      string
	cfg     *driver.Config
	logger  *logger.Logger
	dsn     string
	builder sqlstmt.Builder

	state driver.Lifecycle
	db    *sql.DB
	stmts *sqlstmt.Cache
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("mysql client %s initialized more than once", c.id)
		return nil
	}

	db, err := sql.Open("mysql", c.dsn)
	if err != nil {
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.MySQL, c.cfg.Addr(), err)
	}
	if c.cfg.MaxConns > 0 {
		db.SetMaxOpenConns(c.cfg.MaxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.MySQL, c.cfg.Addr(), err)
	}
	c.db = db
	c.stmts = sqlstmt.NewCache(db)
	c.logger.WithFields(map[string]string{"addr": c.cfg.Addr()}).Info("mysql connection opened")
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
		return driver.WrapError(dbcaps.MySQL, "cleanup", err)
	}
	return nil
}

// sortedFields returns the row's field names in a deterministic order, so
// one statement serves every row with the same field set.
func sortedFields(values driver.Row) []string {
	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func fieldVariant(fields []string) string {
	return strings.Join(fields, ",")
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbRead, Table: table, Variant: fieldVariant(fields)}, func() string {
		return c.builder.ReadCols(table, fields)
	})
	if err != nil {
		c.logger.Errorf("mysql read prepare failed: %v", err)
		return driver.StatusError, nil
	}

	result, err := stmt.QueryContext(ctx, key)
	if err != nil {
		c.logger.Errorf("mysql read failed: %v", err)
		return driver.StatusError, nil
	}
	defer result.Close()

	if !result.Next() {
		if err := result.Err(); err != nil {
			c.logger.Errorf("mysql read failed: %v", err)
			return driver.StatusError, nil
		}
		return driver.StatusNotFound, nil
	}

	row, err := scanRecord(result)
	if err != nil {
		c.logger.Errorf("mysql read failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, row
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbScan, Table: table, Variant: fieldVariant(fields)}, func() string {
		return c.builder.ScanCols(table, fields)
	})
	if err != nil {
		c.logger.Errorf("mysql scan prepare failed: %v", err)
		return driver.StatusError, nil
	}

	result, err := stmt.QueryContext(ctx, startKey, count)
	if err != nil {
		c.logger.Errorf("mysql scan failed: %v", err)
		return driver.StatusError, nil
	}
	defer result.Close()

	rows := make([]driver.KeyedRow, 0, count)
	for result.Next() {
		key, row, err := scanKeyedRecord(result)
		if err != nil {
			c.logger.Errorf("mysql scan row failed: %v", err)
			return driver.StatusError, nil
		}
		rows = append(rows, driver.KeyedRow{Key: key, Row: row})
	}
	if err := result.Err(); err != nil {
		c.logger.Errorf("mysql scan failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, rows
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	fields := sortedFields(values)
	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbUpdate, Table: table, Variant: fieldVariant(fields)}, func() string {
		return c.builder.UpdateCols(table, fields)
	})
	if err != nil {
		c.logger.Errorf("mysql update prepare failed: %v", err)
		return driver.StatusError
	}

	args := make([]interface{}, 0, len(fields)+1)
	for _, f := range fields {
		args = append(args, values[f].Bytes())
	}
	args = append(args, key)

	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		c.logger.Errorf("mysql update failed: %v", err)
		return driver.StatusError
	}
	affected, err := res.RowsAffected()
	if err != nil {
		c.logger.Errorf("mysql update failed: %v", err)
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

	fields := sortedFields(values)
	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbInsert, Table: table, Variant: fieldVariant(fields)}, func() string {
		return c.builder.InsertCols(table, fields)
	})
	if err != nil {
		c.logger.Errorf("mysql insert prepare failed: %v", err)
		return driver.StatusError
	}

	args := make([]interface{}, 0, len(fields)+1)
	args = append(args, key)
	for _, f := range fields {
		args = append(args, values[f].Bytes())
	}

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		var myErr *gomysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == duplicateEntry {
			c.logger.Debugf("insert of existing key %q in table %q", key, table)
		} else {
			c.logger.Errorf("mysql insert failed: %v", err)
		}
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Delete(ctx context.Context, table, key string) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	stmt, err := c.stmts.Get(ctx, sqlstmt.Key{Verb: sqlstmt.VerbDelete, Table: table}, func() string {
		return c.builder.Delete(table)
	})
	if err != nil {
		c.logger.Errorf("mysql delete prepare failed: %v", err)
		return driver.StatusError
	}

	res, err := stmt.ExecContext(ctx, key)
	if err != nil {
		c.logger.Errorf("mysql delete failed: %v", err)
		return driver.StatusError
	}
	affected, err := res.RowsAffected()
	if err != nil {
		c.logger.Errorf("mysql delete failed: %v", err)
		return driver.StatusError
	}
	if affected == 0 {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}

// scanRecord reads the current result row into a field map, keyed by the
// result's column names. NULL columns and the key column are skipped.
func scanRecord(rows *sql.Rows) (driver.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	raw := make([]sql.RawBytes, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	row := make(driver.Row, len(cols))
	for i, col := range cols {
		if col == keyColumn || raw[i] == nil {
			continue
		}
		buf := make([]byte, len(raw[i]))
		copy(buf, raw[i])
		row[col] = driver.Bytes(buf)
	}
	return row, nil
}

// scanKeyedRecord reads a scan result row whose first column is the key.
func scanKeyedRecord(rows *sql.Rows) (string, driver.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", nil, err
	}
	raw := make([]sql.RawBytes, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return "", nil, err
	}

	key := string(raw[0])
	row := make(driver.Row, len(cols)-1)
	for i := 1; i < len(cols); i++ {
		if cols[i] == keyColumn || raw[i] == nil {
			continue
		}
		buf := make([]byte, len(raw[i]))
		copy(buf, raw[i])
		row[cols[i]] = driver.Bytes(buf)
	}
	return key, row, nil
}
