// Package all registers every built-in backend driver. Importing it for
// side effects is the only thing a binary needs to do to make the full
// driver set available through the global registry.
package all

import (
	_ "github.com/benchkv/benchkv/internal/backends/badgerdb"
	_ "github.com/benchkv/benchkv/internal/backends/cassandra"
	_ "github.com/benchkv/benchkv/internal/backends/memory"
	_ "github.com/benchkv/benchkv/internal/backends/mongodb"
	_ "github.com/benchkv/benchkv/internal/backends/mysql"
	_ "github.com/benchkv/benchkv/internal/backends/postgres"
	_ "github.com/benchkv/benchkv/internal/backends/rediskv"
	_ "github.com/benchkv/benchkv/internal/backends/sqlite"
)
