package sqlstmt

import (
	"context"
	"database/sql"
	"sync"
)

// Key identifies one cached prepared statement. Variant distinguishes
// statements of the same verb whose SQL depends on the requested field set,
// such as a projected read versus a full-record read.
type Key struct {
	Verb    Verb
	Table   string
	Variant string
}

// Cache lazily prepares statements against one *sql.DB and hands the same
// prepared statement back on every later request for the same key. Safe for
// concurrent use.
type Cache struct {
	db *sql.DB

	mu    sync.RWMutex
	stmts map[Key]*sql.Stmt
}

// NewCache returns an empty statement cache bound to db.
func NewCache(db *sql.DB) *Cache {
	return &Cache{
		db:    db,
		stmts: make(map[Key]*sql.Stmt),
	}
}

// Get returns the prepared statement for key, preparing the SQL produced by
// build on first use.
func (c *Cache) Get(ctx context.Context, key Key, build func() string) (*sql.Stmt, error) {
	c.mu.RLock()
	stmt, ok := c.stmts[key]
	c.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if stmt, ok := c.stmts[key]; ok {
		return stmt, nil
	}
	stmt, err := c.db.PrepareContext(ctx, build())
	if err != nil {
		return nil, err
	}
	c.stmts[key] = stmt
	return stmt, nil
}

// Len returns the number of cached statements.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stmts)
}

// Close closes every cached statement and empties the cache. The first close
// error is returned; remaining statements are still closed.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for key, stmt := range c.stmts {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.stmts, key)
	}
	return firstErr
}
