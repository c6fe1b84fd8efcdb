package dbcaps

import "strings"

// DatabaseID is the canonical identifier for a database technology supported
// by benchkv. Use these constants to look up capability information and to
// select a driver in the registry.
type DatabaseID string

const (
	// Embedded / in-process
	Memory   DatabaseID = "memory"
	BadgerDB DatabaseID = "badger"
	SQLite   DatabaseID = "sqlite"

	// Relational SQL
	PostgreSQL DatabaseID = "postgres"
	MySQL      DatabaseID = "mysql"

	// NoSQL
	MongoDB   DatabaseID = "mongodb"
	Redis     DatabaseID = "redis"
	Cassandra DatabaseID = "cassandra"
)

// DataParadigm enumerates the primary data storage paradigms a backend exposes.
type DataParadigm string

const (
	ParadigmRelational DataParadigm = "relational" // Tables, schemas, SQL
	ParadigmDocument   DataParadigm = "document"   // Collections, documents
	ParadigmKeyValue   DataParadigm = "keyvalue"   // Key/Value
	ParadigmWideColumn DataParadigm = "widecolumn" // Wide-column (e.g., Cassandra)
)

// EncodingMode describes how a backend persists a record's field map.
type EncodingMode string

const (
	// EncodingDocument stores the whole field map as one structured value
	// (a JSON/JSONB/BSON document in a single column or attribute).
	EncodingDocument EncodingMode = "document"

	// EncodingColumns stores one physical column or attribute per field.
	EncodingColumns EncodingMode = "columns"
)

// Capability describes what a backend driver can do and how it behaves.
type Capability struct {
	ID       DatabaseID
	Name     string
	Paradigm DataParadigm
	Encoding EncodingMode

	// OrderedScan reports whether the backend returns scan results in
	// lexicographic key order. Backends without a global key order (e.g.,
	// Cassandra token order) still honor the inclusive start bound but
	// return records in backend-native order.
	OrderedScan bool

	// SharedPool reports whether client instances share one process-wide
	// connection pool with reference-counted teardown.
	SharedPool bool

	// Embedded reports whether the backend runs in-process with no server.
	Embedded bool
}

// capabilities is the authoritative capability table, keyed by DatabaseID.
var capabilities = map[DatabaseID]Capability{
	Memory: {
		ID:          Memory,
		Name:        "In-Memory",
		Paradigm:    ParadigmKeyValue,
		Encoding:    EncodingColumns,
		OrderedScan: true,
		SharedPool:  true,
		Embedded:    true,
	},
	BadgerDB: {
		ID:          BadgerDB,
		Name:        "Badger",
		Paradigm:    ParadigmKeyValue,
		Encoding:    EncodingDocument,
		OrderedScan: true,
		Embedded:    true,
	},
	SQLite: {
		ID:          SQLite,
		Name:        "SQLite",
		Paradigm:    ParadigmRelational,
		Encoding:    EncodingDocument,
		OrderedScan: true,
		Embedded:    true,
	},
	PostgreSQL: {
		ID:          PostgreSQL,
		Name:        "PostgreSQL",
		Paradigm:    ParadigmRelational,
		Encoding:    EncodingDocument,
		OrderedScan: true,
	},
	MySQL: {
		ID:          MySQL,
		Name:        "MySQL",
		Paradigm:    ParadigmRelational,
		Encoding:    EncodingColumns,
		OrderedScan: true,
	},
	MongoDB: {
		ID:          MongoDB,
		Name:        "MongoDB",
		Paradigm:    ParadigmDocument,
		Encoding:    EncodingDocument,
		OrderedScan: true,
		SharedPool:  true,
	},
	Redis: {
		ID:          Redis,
		Name:        "Redis",
		Paradigm:    ParadigmKeyValue,
		Encoding:    EncodingColumns,
		OrderedScan: true,
		SharedPool:  true,
	},
	Cassandra: {
		ID:          Cassandra,
		Name:        "Cassandra",
		Paradigm:    ParadigmWideColumn,
		Encoding:    EncodingColumns,
		OrderedScan: false,
		SharedPool:  true,
	},
}

// aliases maps alternative spellings to canonical identifiers.
var aliases = map[string]DatabaseID{
	"mem":        Memory,
	"map":        Memory,
	"badgerdb":   BadgerDB,
	"sqlite3":    SQLite,
	"postgresql": PostgreSQL,
	"pg":         PostgreSQL,
	"pgx":        PostgreSQL,
	"mariadb":    MySQL,
	"mongo":      MongoDB,
	"cql":        Cassandra,
	"scylla":     Cassandra,
}

// Get returns the capability entry for a database type.
func Get(id DatabaseID) (Capability, bool) {
	cap, ok := capabilities[id]
	return cap, ok
}

// MustGet returns the capability entry for a database type and panics if the
// type is unknown. Use only with the package constants.
func MustGet(id DatabaseID) Capability {
	cap, ok := capabilities[id]
	if !ok {
		panic("dbcaps: unknown database type: " + string(id))
	}
	return cap
}

// ParseID resolves a database name or alias to its canonical identifier.
// Matching is case-insensitive.
func ParseID(name string) (DatabaseID, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if _, ok := capabilities[DatabaseID(normalized)]; ok {
		return DatabaseID(normalized), true
	}
	if id, ok := aliases[normalized]; ok {
		return id, true
	}
	return "", false
}

// All returns every known capability entry, in no particular order.
func All() []Capability {
	out := make([]Capability, 0, len(capabilities))
	for _, cap := range capabilities {
		out = append(out, cap)
	}
	return out
}
