package driver

import (
	"context"

	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/logger"
)

// Client is the uniform CRUD surface every backend implements. A client
// moves through three lifecycle states: UNINITIALIZED (after Open),
// INITIALIZED (after Init), CLOSED (after Cleanup). Operations outside the
// INITIALIZED state return StatusBadRequest, as does any operation with an
// empty table or key; both are caught before the backend is touched.
//
// A Client instance is driven by exactly one worker at a time and is not
// required to be safe for concurrent use. Shared state behind it (a pooled
// physical connection, the reference count) is synchronized by the driver.
//
// Operations block on network I/O; there is no per-operation cancellation or
// retry contract. Timeouts, if any, are connection configuration consumed at
// Init, and retry policy belongs to the workload driver above this contract.
type Client interface {
	// Init establishes the connection or joins the shared pool. Idempotent:
	// a second call on an initialized client warns and is a no-op. Fails
	// with a *ConnectionError when the backend is unreachable or a
	// *ConfigError when a parameter is invalid; these are the only hard
	// errors a client surfaces. A failed Init closes the client: operations
	// answer StatusBadRequest, Cleanup is a no-op, and another Init returns
	// ErrClientClosed, as it does after Cleanup.
	Init(ctx context.Context) error

	// Cleanup releases owned resources. For shared pools it decrements the
	// process-wide reference count; only the last owner tears down the
	// physical connection. Safe to call exactly once per client.
	Cleanup(ctx context.Context) error

	// Read fetches one record. A nil or empty fields slice returns all
	// fields; otherwise only the requested subset. Returns StatusNotFound
	// when no record has the key.
	Read(ctx context.Context, table, key string, fields []string) (Status, Row)

	// Scan returns up to count records whose keys are at-or-after startKey
	// (inclusive). Ordered backends return keys in non-decreasing order;
	// see dbcaps.Capability.OrderedScan. Fewer than count records is not
	// an error. count must be positive; zero or negative counts are
	// rejected with StatusBadRequest.
	Scan(ctx context.Context, table, startKey string, count int, fields []string) (Status, []KeyedRow)

	// Update overwrites exactly the fields present in values, leaving other
	// fields untouched. Zero affected rows is non-success.
	Update(ctx context.Context, table, key string, values Row) Status

	// Insert creates a new record. A duplicate key is reported as
	// non-success, never silently merged.
	Insert(ctx context.Context, table, key string, values Row) Status

	// Delete removes the record. Zero affected rows is non-success.
	Delete(ctx context.Context, table, key string) Status
}

// Driver is the factory for one backend technology. Implementations are
// stateless apart from any shared pool handle they own, and register
// themselves with the global registry from an init function.
type Driver interface {
	// ID returns the canonical database type identifier.
	ID() dbcaps.DatabaseID

	// Capabilities returns the capability metadata for this backend.
	Capabilities() dbcaps.Capability

	// Open constructs an UNINITIALIZED client for the given configuration.
	// Connection establishment is deferred to Client.Init. Open validates
	// backend-specific configuration and may fail with a *ConfigError.
	Open(cfg *Config, log *logger.Logger) (Client, error)
}
