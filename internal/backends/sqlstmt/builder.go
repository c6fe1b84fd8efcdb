// Package sqlstmt builds the SQL text for the relational backends and caches
// prepared statements per verb and table, so each statement is prepared once
// and reused for the lifetime of the client.
package sqlstmt

import (
	"fmt"
	"strings"
)

// Verb names a client operation for statement cache keys.
type Verb string

const (
	VerbRead   Verb = "read"
	VerbScan   Verb = "scan"
	VerbUpdate Verb = "update"
	VerbInsert Verb = "insert"
	VerbDelete Verb = "delete"
)

// Placeholder selects the bind-parameter syntax of a SQL dialect.
type Placeholder int

const (
	// Question uses "?" markers (MySQL, SQLite).
	Question Placeholder = iota
	// Dollar uses positional "$1" markers (PostgreSQL).
	Dollar
)

func (p Placeholder) mark(n int) string {
	if p == Dollar {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Builder renders the SQL shapes used by the uniform client contract. The
// key column holds the record's primary key; document-mode backends keep the
// whole field map in one document column next to it.
type Builder struct {
	Placeholder Placeholder
	KeyColumn   string
	DocColumn   string
}

// InsertDoc renders an insert of (key, document).
func (b Builder) InsertDoc(table string) string {
	var s strings.Builder
	s.WriteString("INSERT INTO ")
	s.WriteString(table)
	s.WriteString(" (")
	s.WriteString(b.KeyColumn)
	s.WriteString(", ")
	s.WriteString(b.DocColumn)
	s.WriteString(") VALUES (")
	s.WriteString(b.Placeholder.mark(1))
	s.WriteString(", ")
	s.WriteString(b.Placeholder.mark(2))
	s.WriteString(")")
	return s.String()
}

// ReadDoc renders a single-record document lookup by key.
func (b Builder) ReadDoc(table string) string {
	var s strings.Builder
	s.WriteString("SELECT ")
	s.WriteString(b.DocColumn)
	s.WriteString(" FROM ")
	s.WriteString(table)
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" = ")
	s.WriteString(b.Placeholder.mark(1))
	return s.String()
}

// ScanDoc renders a range scan from an inclusive start key, ordered by key,
// capped by a bound limit parameter.
func (b Builder) ScanDoc(table string) string {
	var s strings.Builder
	s.WriteString("SELECT ")
	s.WriteString(b.KeyColumn)
	s.WriteString(", ")
	s.WriteString(b.DocColumn)
	s.WriteString(" FROM ")
	s.WriteString(table)
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" >= ")
	s.WriteString(b.Placeholder.mark(1))
	s.WriteString(" ORDER BY ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" LIMIT ")
	s.WriteString(b.Placeholder.mark(2))
	return s.String()
}

// UpdateDoc renders a whole-document replacement by key.
func (b Builder) UpdateDoc(table string) string {
	var s strings.Builder
	s.WriteString("UPDATE ")
	s.WriteString(table)
	s.WriteString(" SET ")
	s.WriteString(b.DocColumn)
	s.WriteString(" = ")
	s.WriteString(b.Placeholder.mark(1))
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" = ")
	s.WriteString(b.Placeholder.mark(2))
	return s.String()
}

// MergeDoc renders a partial-document update using a dialect-specific merge
// expression. The expression must reference the document column and the first
// bind parameter, e.g. "doc || $1::jsonb" or "json_patch(doc, ?)".
func (b Builder) MergeDoc(table, mergeExpr string) string {
	var s strings.Builder
	s.WriteString("UPDATE ")
	s.WriteString(table)
	s.WriteString(" SET ")
	s.WriteString(b.DocColumn)
	s.WriteString(" = ")
	s.WriteString(mergeExpr)
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" = ")
	s.WriteString(b.Placeholder.mark(2))
	return s.String()
}

// Delete renders a delete by key.
func (b Builder) Delete(table string) string {
	var s strings.Builder
	s.WriteString("DELETE FROM ")
	s.WriteString(table)
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" = ")
	s.WriteString(b.Placeholder.mark(1))
	return s.String()
}

// InsertCols renders a native multi-column insert of (key, fields...).
// Field order in the statement matches the fields slice, so callers must
// bind values in the same order.
func (b Builder) InsertCols(table string, fields []string) string {
	var s strings.Builder
	s.WriteString("INSERT INTO ")
	s.WriteString(table)
	s.WriteString(" (")
	s.WriteString(b.KeyColumn)
	for _, f := range fields {
		s.WriteString(", ")
		s.WriteString(f)
	}
	s.WriteString(") VALUES (")
	s.WriteString(b.Placeholder.mark(1))
	for i := range fields {
		s.WriteString(", ")
		s.WriteString(b.Placeholder.mark(i + 2))
	}
	s.WriteString(")")
	return s.String()
}

// ReadCols renders a native multi-column lookup by key. An empty field list
// selects all columns.
func (b Builder) ReadCols(table string, fields []string) string {
	var s strings.Builder
	s.WriteString("SELECT ")
	if len(fields) == 0 {
		s.WriteString("*")
	} else {
		s.WriteString(strings.Join(fields, ", "))
	}
	s.WriteString(" FROM ")
	s.WriteString(table)
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" = ")
	s.WriteString(b.Placeholder.mark(1))
	return s.String()
}

// ScanCols renders a native multi-column range scan from an inclusive start
// key. The key column is always selected first so callers can pair each
// record with its key.
func (b Builder) ScanCols(table string, fields []string) string {
	var s strings.Builder
	s.WriteString("SELECT ")
	s.WriteString(b.KeyColumn)
	if len(fields) == 0 {
		// The key column repeats inside table.*; record scanning skips it.
		s.WriteString(", ")
		s.WriteString(table)
		s.WriteString(".*")
	} else {
		for _, f := range fields {
			s.WriteString(", ")
			s.WriteString(f)
		}
	}
	s.WriteString(" FROM ")
	s.WriteString(table)
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" >= ")
	s.WriteString(b.Placeholder.mark(1))
	s.WriteString(" ORDER BY ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" LIMIT ")
	s.WriteString(b.Placeholder.mark(2))
	return s.String()
}

// UpdateCols renders a native multi-column update by key. Assignment order
// matches the fields slice; the key binds last.
func (b Builder) UpdateCols(table string, fields []string) string {
	var s strings.Builder
	s.WriteString("UPDATE ")
	s.WriteString(table)
	s.WriteString(" SET ")
	for i, f := range fields {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(f)
		s.WriteString(" = ")
		s.WriteString(b.Placeholder.mark(i + 1))
	}
	s.WriteString(" WHERE ")
	s.WriteString(b.KeyColumn)
	s.WriteString(" = ")
	s.WriteString(b.Placeholder.mark(len(fields) + 1))
	return s.String()
}
