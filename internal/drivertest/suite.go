// Package drivertest runs a shared conformance suite against any driver
// implementation. Backend packages call Run from their own tests with a
// factory that yields a fresh client, so every backend is checked against
// the same behavioral contract.
package drivertest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchkv/benchkv/pkg/driver"
)

// Factory yields a fresh, un-initialized client for one suite run. Cleanup
// of the returned client is the suite's responsibility.
type Factory func(t *testing.T) driver.Client

// Options tune the suite to a backend's declared capabilities.
type Options struct {
	// OrderedScan enables assertions on lexicographic scan order. Leave
	// false for backends that return scan results in native order.
	OrderedScan bool

	// SkipDelete skips delete coverage for backends without delete support.
	SkipDelete bool
}

const suiteTable = "usertable"

// Run exercises the full client contract against the backend behind factory.
func Run(t *testing.T, factory Factory, opts Options) {
	t.Run("InsertRead", func(t *testing.T) { testInsertRead(t, factory) })
	t.Run("ReadMissing", func(t *testing.T) { testReadMissing(t, factory) })
	t.Run("ReadSubset", func(t *testing.T) { testReadSubset(t, factory) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, factory) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, factory) })
	t.Run("DuplicateInsert", func(t *testing.T) { testDuplicateInsert(t, factory) })
	t.Run("Scan", func(t *testing.T) { testScan(t, factory, opts) })
	t.Run("Lifecycle", func(t *testing.T) { testLifecycle(t, factory) })
	t.Run("UserScenario", func(t *testing.T) { testUserScenario(t, factory, opts) })
	if !opts.SkipDelete {
		t.Run("Delete", func(t *testing.T) { testDelete(t, factory) })
	}
}

func open(t *testing.T, factory Factory) driver.Client {
	t.Helper()
	client := factory(t)
	ctx := context.Background()
	require.NoError(t, client.Init(ctx))
	t.Cleanup(func() {
		assert.NoError(t, client.Cleanup(context.Background()))
	})
	return client
}

func testInsertRead(t *testing.T, factory Factory) {
	client := open(t, factory)
	ctx := context.Background()

	row := driver.Row{
		"name":    driver.String("Alice"),
		"age":     driver.String("30"),
		"payload": driver.Lazy(101, 256),
	}
	require.Equal(t, driver.StatusOK, client.Insert(ctx, suiteTable, "ir-1", row))

	status, got := client.Read(ctx, suiteTable, "ir-1", nil)
	require.Equal(t, driver.StatusOK, status)
	assert.True(t, driver.RowsEqual(row, got), "read must return the inserted fields byte-for-byte")
}

func testReadMissing(t *testing.T, factory Factory) {
	client := open(t, factory)

	status, row := client.Read(context.Background(), suiteTable, "no-such-key", nil)
	assert.Equal(t, driver.StatusNotFound, status)
	assert.Empty(t, row)
}

func testReadSubset(t *testing.T, factory Factory) {
	client := open(t, factory)
	ctx := context.Background()

	row := driver.RowFromStrings(map[string]string{
		"field0": "a", "field1": "b", "field2": "c",
	})
	require.Equal(t, driver.StatusOK, client.Insert(ctx, suiteTable, "rs-1", row))

	status, got := client.Read(ctx, suiteTable, "rs-1", []string{"field0", "field2"})
	require.Equal(t, driver.StatusOK, status)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got["field0"].String())
	assert.Equal(t, "c", got["field2"].String())
}

func testUpdate(t *testing.T, factory Factory) {
	client := open(t, factory)
	ctx := context.Background()

	require.Equal(t, driver.StatusOK, client.Insert(ctx, suiteTable, "up-1", driver.RowFromStrings(map[string]string{
		"name": "Alice", "age": "30", "city": "Berlin",
	})))

	// A partial update must not disturb the untouched fields.
	require.Equal(t, driver.StatusOK, client.Update(ctx, suiteTable, "up-1", driver.RowFromStrings(map[string]string{
		"age": "31",
	})))

	status, got := client.Read(ctx, suiteTable, "up-1", nil)
	require.Equal(t, driver.StatusOK, status)
	assert.Equal(t, "31", got["age"].String())
	assert.Equal(t, "Alice", got["name"].String())
	assert.Equal(t, "Berlin", got["city"].String())
}

func testUpdateMissing(t *testing.T, factory Factory) {
	client := open(t, factory)

	status := client.Update(context.Background(), suiteTable, "ghost", driver.RowFromStrings(map[string]string{
		"age": "99",
	}))
	assert.Equal(t, driver.StatusNotFound, status)
}

func testDuplicateInsert(t *testing.T, factory Factory) {
	client := open(t, factory)
	ctx := context.Background()

	row := driver.RowFromStrings(map[string]string{"v": "1"})
	require.Equal(t, driver.StatusOK, client.Insert(ctx, suiteTable, "dup-1", row))

	status := client.Insert(ctx, suiteTable, "dup-1", driver.RowFromStrings(map[string]string{"v": "2"}))
	assert.NotEqual(t, driver.StatusOK, status, "inserting an existing key must not report success")
}

func testDelete(t *testing.T, factory Factory) {
	client := open(t, factory)
	ctx := context.Background()

	require.Equal(t, driver.StatusOK, client.Insert(ctx, suiteTable, "del-1", driver.RowFromStrings(map[string]string{"v": "1"})))
	require.Equal(t, driver.StatusOK, client.Delete(ctx, suiteTable, "del-1"))

	status, _ := client.Read(ctx, suiteTable, "del-1", nil)
	assert.Equal(t, driver.StatusNotFound, status)

	assert.Equal(t, driver.StatusNotFound, client.Delete(ctx, suiteTable, "del-1"))
}

func testScan(t *testing.T, factory Factory, opts Options) {
	client := open(t, factory)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("scan-%03d", i)
		row := driver.RowFromStrings(map[string]string{"n": fmt.Sprintf("%d", i)})
		require.Equal(t, driver.StatusOK, client.Insert(ctx, suiteTable, key, row))
	}

	t.Run("inclusive start bound", func(t *testing.T) {
		status, rows := client.Scan(ctx, suiteTable, "scan-003", 4, nil)
		require.Equal(t, driver.StatusOK, status)
		require.Len(t, rows, 4)
		if opts.OrderedScan {
			assert.Equal(t, "scan-003", rows[0].Key, "scan starts at the start key itself")
			assert.Equal(t, []string{"scan-003", "scan-004", "scan-005", "scan-006"}, scanKeys(rows))
		} else {
			for _, r := range rows {
				assert.GreaterOrEqual(t, r.Key, "scan-003")
			}
		}
	})

	t.Run("limit caps the result", func(t *testing.T) {
		status, rows := client.Scan(ctx, suiteTable, "scan-000", 3, nil)
		require.Equal(t, driver.StatusOK, status)
		assert.Len(t, rows, 3)
	})

	t.Run("short tail returns fewer", func(t *testing.T) {
		status, rows := client.Scan(ctx, suiteTable, "scan-008", 10, nil)
		require.Equal(t, driver.StatusOK, status)
		if opts.OrderedScan {
			assert.Len(t, rows, 2)
		} else {
			assert.LessOrEqual(t, len(rows), 10)
		}
	})

	t.Run("non-positive count is rejected", func(t *testing.T) {
		status, rows := client.Scan(ctx, suiteTable, "scan-000", 0, nil)
		assert.Equal(t, driver.StatusBadRequest, status)
		assert.Empty(t, rows)

		status, rows = client.Scan(ctx, suiteTable, "scan-000", -1, nil)
		assert.Equal(t, driver.StatusBadRequest, status)
		assert.Empty(t, rows)
	})

	t.Run("field projection applies to every record", func(t *testing.T) {
		require.Equal(t, driver.StatusOK, client.Update(ctx, suiteTable, "scan-001", driver.RowFromStrings(map[string]string{"extra": "x"})))
		status, rows := client.Scan(ctx, suiteTable, "scan-000", 3, []string{"n"})
		require.Equal(t, driver.StatusOK, status)
		for _, r := range rows {
			assert.Len(t, r.Row, 1)
			assert.Contains(t, r.Row, "n")
		}
	})
}

func testLifecycle(t *testing.T, factory Factory) {
	t.Run("operations before init are rejected", func(t *testing.T) {
		client := factory(t)
		ctx := context.Background()

		status, _ := client.Read(ctx, suiteTable, "k", nil)
		assert.Equal(t, driver.StatusBadRequest, status)
		assert.Equal(t, driver.StatusBadRequest, client.Insert(ctx, suiteTable, "k", driver.RowFromStrings(map[string]string{"v": "1"})))
	})

	t.Run("double init is a warning, not an error", func(t *testing.T) {
		client := factory(t)
		ctx := context.Background()
		require.NoError(t, client.Init(ctx))
		assert.NoError(t, client.Init(ctx))
		assert.NoError(t, client.Cleanup(ctx))
	})

	t.Run("empty table or key is rejected", func(t *testing.T) {
		client := open(t, factory)
		ctx := context.Background()
		row := driver.RowFromStrings(map[string]string{"v": "1"})

		status, _ := client.Read(ctx, "", "k", nil)
		assert.Equal(t, driver.StatusBadRequest, status)
		status, _ = client.Read(ctx, suiteTable, "", nil)
		assert.Equal(t, driver.StatusBadRequest, status)
		status, _ = client.Scan(ctx, "", "k", 1, nil)
		assert.Equal(t, driver.StatusBadRequest, status)
		assert.Equal(t, driver.StatusBadRequest, client.Update(ctx, "", "k", row))
		assert.Equal(t, driver.StatusBadRequest, client.Insert(ctx, suiteTable, "", row))
		assert.Equal(t, driver.StatusBadRequest, client.Delete(ctx, "", "k"))
	})

	t.Run("operations after cleanup are rejected", func(t *testing.T) {
		client := factory(t)
		ctx := context.Background()
		require.NoError(t, client.Init(ctx))
		require.NoError(t, client.Cleanup(ctx))

		status, _ := client.Read(ctx, suiteTable, "k", nil)
		assert.Equal(t, driver.StatusBadRequest, status)
	})

	t.Run("init after cleanup is rejected", func(t *testing.T) {
		client := factory(t)
		ctx := context.Background()
		require.NoError(t, client.Init(ctx))
		require.NoError(t, client.Cleanup(ctx))

		assert.ErrorIs(t, client.Init(ctx), driver.ErrClientClosed)
	})
}

// testUserScenario walks one record through the full verb set.
func testUserScenario(t *testing.T, factory Factory, opts Options) {
	client := open(t, factory)
	ctx := context.Background()

	alice := driver.RowFromStrings(map[string]string{
		"first_name": "Alice",
		"last_name":  "Smith",
		"email":      "alice@example.com",
	})
	require.Equal(t, driver.StatusOK, client.Insert(ctx, suiteTable, "user1", alice))

	status, got := client.Read(ctx, suiteTable, "user1", nil)
	require.Equal(t, driver.StatusOK, status)
	assert.True(t, driver.RowsEqual(alice, got))

	require.Equal(t, driver.StatusOK, client.Update(ctx, suiteTable, "user1", driver.RowFromStrings(map[string]string{
		"email": "alice.smith@example.com",
	})))

	status, got = client.Read(ctx, suiteTable, "user1", []string{"email"})
	require.Equal(t, driver.StatusOK, status)
	assert.Equal(t, "alice.smith@example.com", got["email"].String())

	status, rows := client.Scan(ctx, suiteTable, "user1", 1, nil)
	require.Equal(t, driver.StatusOK, status)
	require.NotEmpty(t, rows)
	if opts.OrderedScan {
		assert.Equal(t, "user1", rows[0].Key)
	}

	if !opts.SkipDelete {
		require.Equal(t, driver.StatusOK, client.Delete(ctx, suiteTable, "user1"))
		status, _ = client.Read(ctx, suiteTable, "user1", nil)
		assert.Equal(t, driver.StatusNotFound, status)
	}
}

func scanKeys(rows []driver.KeyedRow) []string {
	keys := make([]string, len(rows))
	for i, r := range rows {
		keys[i] = r.Key
	}
	return keys
}
