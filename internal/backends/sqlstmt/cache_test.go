package sqlstmt

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE usertable (record_key TEXT PRIMARY KEY, doc TEXT NOT NULL)")
	require.NoError(t, err)
	return db
}

func TestCache(t *testing.T) {
	db := openTestDB(t)
	cache := NewCache(db)
	b := Builder{Placeholder: Question, KeyColumn: "record_key", DocColumn: "doc"}
	ctx := t.Context()

	t.Run("prepares once per key", func(t *testing.T) {
		builds := 0
		build := func() string {
			builds++
			return b.ReadDoc("usertable")
		}
		key := Key{Verb: VerbRead, Table: "usertable"}

		first, err := cache.Get(ctx, key, build)
		require.NoError(t, err)
		second, err := cache.Get(ctx, key, build)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, builds)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("variants get their own statements", func(t *testing.T) {
		plain := Key{Verb: VerbRead, Table: "usertable"}
		projected := Key{Verb: VerbRead, Table: "usertable", Variant: "doc"}

		a, err := cache.Get(ctx, plain, func() string { return b.ReadDoc("usertable") })
		require.NoError(t, err)
		c, err := cache.Get(ctx, projected, func() string { return b.ReadDoc("usertable") })
		require.NoError(t, err)
		assert.NotSame(t, a, c)
	})

	t.Run("cached statements work", func(t *testing.T) {
		ins, err := cache.Get(ctx, Key{Verb: VerbInsert, Table: "usertable"}, func() string {
			return b.InsertDoc("usertable")
		})
		require.NoError(t, err)
		_, err = ins.ExecContext(ctx, "k1", `{"v":"MQ=="}`)
		require.NoError(t, err)

		rd, err := cache.Get(ctx, Key{Verb: VerbRead, Table: "usertable"}, func() string {
			return b.ReadDoc("usertable")
		})
		require.NoError(t, err)
		var doc string
		require.NoError(t, rd.QueryRowContext(ctx, "k1").Scan(&doc))
		assert.Equal(t, `{"v":"MQ=="}`, doc)
	})

	t.Run("bad sql surfaces the prepare error", func(t *testing.T) {
		_, err := cache.Get(ctx, Key{Verb: VerbScan, Table: "nope"}, func() string {
			return "SELECT FROM WHERE"
		})
		assert.Error(t, err)
	})

	t.Run("close empties the cache", func(t *testing.T) {
		require.NoError(t, cache.Close())
		assert.Equal(t, 0, cache.Len())
	})
}
