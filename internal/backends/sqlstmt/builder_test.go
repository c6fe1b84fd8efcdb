package sqlstmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderDocumentMode(t *testing.T) {
	q := Builder{Placeholder: Question, KeyColumn: "record_key", DocColumn: "doc"}
	d := Builder{Placeholder: Dollar, KeyColumn: "record_key", DocColumn: "doc"}

	t.Run("insert", func(t *testing.T) {
		assert.Equal(t, "INSERT INTO usertable (record_key, doc) VALUES (?, ?)", q.InsertDoc("usertable"))
		assert.Equal(t, "INSERT INTO usertable (record_key, doc) VALUES ($1, $2)", d.InsertDoc("usertable"))
	})

	t.Run("read", func(t *testing.T) {
		assert.Equal(t, "SELECT doc FROM usertable WHERE record_key = ?", q.ReadDoc("usertable"))
	})

	t.Run("scan", func(t *testing.T) {
		assert.Equal(t,
			"SELECT record_key, doc FROM usertable WHERE record_key >= $1 ORDER BY record_key LIMIT $2",
			d.ScanDoc("usertable"))
	})

	t.Run("update replaces the document", func(t *testing.T) {
		assert.Equal(t, "UPDATE usertable SET doc = ? WHERE record_key = ?", q.UpdateDoc("usertable"))
	})

	t.Run("merge uses the dialect expression", func(t *testing.T) {
		assert.Equal(t,
			"UPDATE usertable SET doc = doc || $1::jsonb WHERE record_key = $2",
			d.MergeDoc("usertable", "doc || $1::jsonb"))
		assert.Equal(t,
			"UPDATE usertable SET doc = json_patch(doc, ?) WHERE record_key = ?",
			q.MergeDoc("usertable", "json_patch(doc, ?)"))
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, "DELETE FROM usertable WHERE record_key = ?", q.Delete("usertable"))
	})
}

func TestBuilderColumnMode(t *testing.T) {
	b := Builder{Placeholder: Question, KeyColumn: "record_key"}

	t.Run("insert binds key first", func(t *testing.T) {
		assert.Equal(t,
			"INSERT INTO usertable (record_key, field0, field1) VALUES (?, ?, ?)",
			b.InsertCols("usertable", []string{"field0", "field1"}))
	})

	t.Run("read with projection", func(t *testing.T) {
		assert.Equal(t,
			"SELECT field0, field2 FROM usertable WHERE record_key = ?",
			b.ReadCols("usertable", []string{"field0", "field2"}))
	})

	t.Run("read all columns", func(t *testing.T) {
		assert.Equal(t, "SELECT * FROM usertable WHERE record_key = ?", b.ReadCols("usertable", nil))
	})

	t.Run("scan selects the key first", func(t *testing.T) {
		assert.Equal(t,
			"SELECT record_key, field0 FROM usertable WHERE record_key >= ? ORDER BY record_key LIMIT ?",
			b.ScanCols("usertable", []string{"field0"}))
	})

	t.Run("scan of all columns qualifies the star", func(t *testing.T) {
		assert.Equal(t,
			"SELECT record_key, usertable.* FROM usertable WHERE record_key >= ? ORDER BY record_key LIMIT ?",
			b.ScanCols("usertable", nil))
	})

	t.Run("update binds key last", func(t *testing.T) {
		assert.Equal(t,
			"UPDATE usertable SET field0 = ?, field1 = ? WHERE record_key = ?",
			b.UpdateCols("usertable", []string{"field0", "field1"}))
	})
}
