// Package cassandra implements the client contract on Cassandra via gocql.
// All clients in the process share one session behind a reference-counted
// handle. Records live in native multi-column mode against a pre-created
// table whose partition key is the record key.
//
// Cassandra has no global key order; Scan walks the token ring from the
// start key's token, so the inclusive start bound holds but result order is
// backend-native. Conditional (lightweight-transaction) statements give
// insert, update and delete their existence semantics.
package cassandra

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/benchkv/benchkv/internal/backends/sqlstmt"
	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/driver"
	"github.com/benchkv/benchkv/pkg/logger"
)

const keyColumn = "record_key"

func init() {
	driver.Register(NewDriver())
}

// Driver opens Cassandra-backed clients sharing one session.
type Driver struct {
	shared driver.SharedConn[*gocql.Session]
}

// NewDriver returns the Cassandra driver.
func NewDriver() *Driver { return &Driver{} }

func (d *Driver) ID() dbcaps.DatabaseID { return dbcaps.Cassandra }

func (d *Driver) Capabilities() dbcaps.Capability { return dbcaps.MustGet(dbcaps.Cassandra) }

func (d *Driver) Open(cfg *driver.Config, log *logger.Logger) (driver.Client, error) {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.Host == "" {
		return nil, driver.NewConfigError(dbcaps.Cassandra, "host", "at least one contact point is required")
	}
	if cfg.Database == "" {
		return nil, driver.NewConfigError(dbcaps.Cassandra, "database", "a keyspace is required")
	}
	return &client{
		id:      uuid.NewString(),
		cfg:     cfg,
		drv:     d,
		logger:  log,
		builder: sqlstmt.Builder{Placeholder: sqlstmt.Question, KeyColumn: keyColumn},
		cql:     make(map[sqlstmt.Key]string),
	}, nil
}

// durabilityConsistency maps the uniform durability levels onto Cassandra
// write consistency levels.
func durabilityConsistency(d driver.Durability) gocql.Consistency {
	switch d {
	case driver.DurabilityNormal:
		return gocql.One
	case driver.DurabilityFsyncSafe:
		return gocql.All
	case driver.DurabilityReplicasSafe:
		return gocql.Two
	default:
		return gocql.Quorum
	}
}

type client struct {
	id      string
	cfg     *driver.Config
	drv     *Driver
	logger  *logger.Logger
	builder sqlstmt.Builder

	state driver.Lifecycle
	sess  *gocql.Session

	mu  sync.Mutex
	cql map[sqlstmt.Key]string
}

func (c *client) Init(ctx context.Context) error {
	if !c.state.Start() {
		if c.state.Closed() {
			return driver.ErrClientClosed
		}
		c.logger.Warnf("cassandra client %s initialized more than once", c.id)
		return nil
	}

	sess, err := c.drv.shared.Acquire(func() (*gocql.Session, error) {
		cluster := gocql.NewCluster(strings.Split(c.cfg.Host, ",")...)
		cluster.Keyspace = c.cfg.Database
		cluster.Consistency = durabilityConsistency(c.cfg.Durability)
		if c.cfg.Port > 0 {
			cluster.Port = c.cfg.Port
		}
		if c.cfg.ConnectTimeout > 0 {
			cluster.ConnectTimeout = c.cfg.ConnectTimeout
		}
		if c.cfg.FetchSize > 0 {
			cluster.PageSize = c.cfg.FetchSize
		}
		if c.cfg.Username != "" {
			cluster.Authenticator = gocql.PasswordAuthenticator{
				Username: c.cfg.Username,
				Password: c.cfg.Password,
			}
		}
		s, err := cluster.CreateSession()
		if err != nil {
			return nil, err
		}
		c.logger.WithFields(map[string]string{
			"hosts":    c.cfg.Host,
			"keyspace": c.cfg.Database,
		}).Info("cassandra session created")
		return s, nil
	})
	if err != nil {
		c.state.Abort()
		return driver.NewConnectionError(dbcaps.Cassandra, c.cfg.Addr(), err)
	}
	c.sess = sess
	return nil
}

func (c *client) Cleanup(ctx context.Context) error {
	if !c.state.Stop() {
		return nil
	}
	return c.drv.shared.Release(func(s *gocql.Session) error {
		c.logger.Info("closing shared cassandra session")
		s.Close()
		return nil
	})
}

// text returns the cached statement text for a verb, table and field set.
// gocql prepares statements per text internally, so caching the text is
// enough to keep each shape prepared once.
func (c *client) text(key sqlstmt.Key, build func() string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.cql[key]
	if !ok {
		t = build()
		c.cql[key] = t
	}
	return t
}

func scanCQL(table string, fields []string) string {
	cols := "*"
	if len(fields) > 0 {
		cols = keyColumn + ", " + strings.Join(fields, ", ")
	}
	return "SELECT " + cols + " FROM " + table +
		" WHERE token(" + keyColumn + ") >= token(?) LIMIT ?"
}

func fieldVariant(fields []string) string {
	return strings.Join(fields, ",")
}

func columnValue(v interface{}) (driver.Value, bool) {
	switch val := v.(type) {
	case []byte:
		return driver.Bytes(val), true
	case string:
		return driver.String(val), true
	default:
		return nil, false
	}
}

func mapToRow(m map[string]interface{}) driver.Row {
	row := make(driver.Row, len(m))
	for col, v := range m {
		if col == keyColumn {
			continue
		}
		if value, ok := columnValue(v); ok && value.Len() > 0 {
			row[col] = value
		}
	}
	return row
}

func (c *client) Read(ctx context.Context, table, key string, fields []string) (driver.Status, driver.Row) {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest, nil
	}

	text := c.text(sqlstmt.Key{Verb: sqlstmt.VerbRead, Table: table, Variant: fieldVariant(fields)}, func() string {
		return c.builder.ReadCols(table, fields)
	})

	m := make(map[string]interface{})
	err := c.sess.Query(text, key).WithContext(ctx).MapScan(m)
	if errors.Is(err, gocql.ErrNotFound) {
		return driver.StatusNotFound, nil
	}
	if err != nil {
		c.logger.Errorf("cassandra read failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, mapToRow(m)
}

func (c *client) Scan(ctx context.Context, table, startKey string, count int, fields []string) (driver.Status, []driver.KeyedRow) {
	if !c.state.Ready() || table == "" || count <= 0 {
		return driver.StatusBadRequest, nil
	}

	text := c.text(sqlstmt.Key{Verb: sqlstmt.VerbScan, Table: table, Variant: fieldVariant(fields)}, func() string {
		return scanCQL(table, fields)
	})

	iter := c.sess.Query(text, startKey, count).WithContext(ctx).Iter()
	rows := make([]driver.KeyedRow, 0, count)
	for {
		m := make(map[string]interface{})
		if !iter.MapScan(m) {
			break
		}
		key, _ := m[keyColumn].(string)
		rows = append(rows, driver.KeyedRow{Key: key, Row: mapToRow(m)})
	}
	if err := iter.Close(); err != nil {
		c.logger.Errorf("cassandra scan failed: %v", err)
		return driver.StatusError, nil
	}
	return driver.StatusOK, rows
}

func (c *client) Update(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	fields := sortedFields(values)
	text := c.text(sqlstmt.Key{Verb: sqlstmt.VerbUpdate, Table: table, Variant: fieldVariant(fields)}, func() string {
		return c.builder.UpdateCols(table, fields) + " IF EXISTS"
	})

	args := make([]interface{}, 0, len(fields)+1)
	for _, f := range fields {
		args = append(args, values[f].Bytes())
	}
	args = append(args, key)

	applied, err := c.sess.Query(text, args...).WithContext(ctx).MapScanCAS(make(map[string]interface{}))
	if err != nil {
		c.logger.Errorf("cassandra update failed: %v", err)
		return driver.StatusError
	}
	if !applied {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}

func (c *client) Insert(ctx context.Context, table, key string, values driver.Row) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	fields := sortedFields(values)
	text := c.text(sqlstmt.Key{Verb: sqlstmt.VerbInsert, Table: table, Variant: fieldVariant(fields)}, func() string {
		return c.builder.InsertCols(table, fields) + " IF NOT EXISTS"
	})

	args := make([]interface{}, 0, len(fields)+1)
	args = append(args, key)
	for _, f := range fields {
		args = append(args, values[f].Bytes())
	}

	applied, err := c.sess.Query(text, args...).WithContext(ctx).MapScanCAS(make(map[string]interface{}))
	if err != nil {
		c.logger.Errorf("cassandra insert failed: %v", err)
		return driver.StatusError
	}
	if !applied {
		c.logger.Debugf("insert of existing key %q in table %q", key, table)
		return driver.StatusError
	}
	return driver.StatusOK
}

func (c *client) Delete(ctx context.Context, table, key string) driver.Status {
	if !c.state.Ready() || table == "" || key == "" {
		return driver.StatusBadRequest
	}

	text := c.text(sqlstmt.Key{Verb: sqlstmt.VerbDelete, Table: table}, func() string {
		return c.builder.Delete(table) + " IF EXISTS"
	})

	applied, err := c.sess.Query(text, key).WithContext(ctx).MapScanCAS(make(map[string]interface{}))
	if err != nil {
		c.logger.Errorf("cassandra delete failed: %v", err)
		return driver.StatusError
	}
	if !applied {
		return driver.StatusNotFound
	}
	return driver.StatusOK
}

// sortedFields keeps one statement per field set by giving every row with
// the same fields the same column order.
func sortedFields(values driver.Row) []string {
	fields := make([]string, 0, len(values))
	for f := range values {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
