package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/logger"
)

// fakeDriver is a minimal Driver used to exercise the registry.
type fakeDriver struct {
	id      dbcaps.DatabaseID
	openErr error
}

func (d *fakeDriver) ID() dbcaps.DatabaseID { return d.id }

func (d *fakeDriver) Capabilities() dbcaps.Capability {
	return dbcaps.MustGet(d.id)
}

func (d *fakeDriver) Open(cfg *Config, log *logger.Logger) (Client, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	return &fakeClient{}, nil
}

type fakeClient struct{}

func (c *fakeClient) Init(ctx context.Context) error    { return nil }
func (c *fakeClient) Cleanup(ctx context.Context) error { return nil }
func (c *fakeClient) Read(ctx context.Context, table, key string, fields []string) (Status, Row) {
	return StatusNotFound, nil
}
func (c *fakeClient) Scan(ctx context.Context, table, startKey string, count int, fields []string) (Status, []KeyedRow) {
	return StatusOK, nil
}
func (c *fakeClient) Update(ctx context.Context, table, key string, values Row) Status {
	return StatusOK
}
func (c *fakeClient) Insert(ctx context.Context, table, key string, values Row) Status {
	return StatusOK
}
func (c *fakeClient) Delete(ctx context.Context, table, key string) Status {
	return StatusOK
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeDriver{id: dbcaps.Memory})

	t.Run("get by type", func(t *testing.T) {
		d, err := r.Get(dbcaps.Memory)
		require.NoError(t, err)
		assert.Equal(t, dbcaps.Memory, d.ID())
	})

	t.Run("get by alias", func(t *testing.T) {
		d, err := r.GetByName("mem")
		require.NoError(t, err)
		assert.Equal(t, dbcaps.Memory, d.ID())
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := r.GetByName("oracle")
		assert.True(t, errors.Is(err, ErrDriverNotFound))
	})

	t.Run("registered type without driver", func(t *testing.T) {
		_, err := r.Get(dbcaps.MongoDB)
		assert.True(t, errors.Is(err, ErrDriverNotFound))
	})

	t.Run("list and membership", func(t *testing.T) {
		assert.True(t, r.IsRegistered(dbcaps.Memory))
		assert.False(t, r.IsRegistered(dbcaps.Redis))
		assert.Equal(t, []dbcaps.DatabaseID{dbcaps.Memory}, r.ListRegistered())
	})

	t.Run("unregister", func(t *testing.T) {
		r2 := NewRegistry()
		r2.Register(&fakeDriver{id: dbcaps.Memory})
		r2.Unregister(dbcaps.Memory)
		assert.False(t, r2.IsRegistered(dbcaps.Memory))
	})
}

func TestRegistryOpen(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeDriver{id: dbcaps.Memory})
	log := logger.Discard()

	t.Run("validates config before dispatch", func(t *testing.T) {
		_, err := r.Open(&Config{Driver: "memory", Durability: "paranoid"}, log)
		assert.True(t, IsConfigError(err))
	})

	t.Run("resolves alias and opens", func(t *testing.T) {
		client, err := r.Open(&Config{Driver: "mem"}, log)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("driver open errors propagate", func(t *testing.T) {
		r2 := NewRegistry()
		openErr := NewConfigError(dbcaps.Memory, "path", "missing")
		r2.Register(&fakeDriver{id: dbcaps.Memory, openErr: openErr})
		_, err := r2.Open(&Config{Driver: "memory"}, log)
		assert.True(t, IsConfigError(err))
	})
}
