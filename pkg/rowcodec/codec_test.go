package rowcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchkv/benchkv/pkg/driver"
)

func TestJSONRoundTrip(t *testing.T) {
	codec := JSON()

	t.Run("string fields", func(t *testing.T) {
		row := driver.RowFromStrings(map[string]string{
			"name": "Alice",
			"age":  "30",
			"city": "Berlin",
		})

		doc, err := codec.Encode(row)
		require.NoError(t, err)

		decoded, err := codec.Decode(doc, nil)
		require.NoError(t, err)
		assert.True(t, driver.RowsEqual(row, decoded))
	})

	t.Run("arbitrary bytes survive", func(t *testing.T) {
		row := driver.Row{
			"blob": driver.Bytes([]byte{0x00, 0xff, 0x7f, 0x80, '"', '\\'}),
		}

		doc, err := codec.Encode(row)
		require.NoError(t, err)

		decoded, err := codec.Decode(doc, nil)
		require.NoError(t, err)
		assert.Equal(t, row["blob"].Bytes(), decoded["blob"].Bytes())
	})

	t.Run("lazy values are realized at encode time", func(t *testing.T) {
		row := driver.Row{"payload": driver.Lazy(17, 128)}

		doc, err := codec.Encode(row)
		require.NoError(t, err)

		decoded, err := codec.Decode(doc, nil)
		require.NoError(t, err)
		assert.Equal(t, row["payload"].Bytes(), decoded["payload"].Bytes())
	})

	t.Run("empty row", func(t *testing.T) {
		doc, err := codec.Encode(driver.Row{})
		require.NoError(t, err)

		decoded, err := codec.Decode(doc, nil)
		require.NoError(t, err)
		assert.Empty(t, decoded)
	})
}

func TestJSONDecodeProjection(t *testing.T) {
	codec := JSON()
	row := driver.RowFromStrings(map[string]string{
		"field0": "a",
		"field1": "b",
		"field2": "c",
	})
	doc, err := codec.Encode(row)
	require.NoError(t, err)

	t.Run("subset", func(t *testing.T) {
		decoded, err := codec.Decode(doc, []string{"field0", "field2"})
		require.NoError(t, err)
		assert.Len(t, decoded, 2)
		assert.Equal(t, "a", decoded["field0"].String())
		assert.Equal(t, "c", decoded["field2"].String())
	})

	t.Run("unknown fields are skipped", func(t *testing.T) {
		decoded, err := codec.Decode(doc, []string{"field0", "missing"})
		require.NoError(t, err)
		assert.Len(t, decoded, 1)
	})
}

func TestJSONDecodeErrors(t *testing.T) {
	codec := JSON()
	_, err := codec.Decode([]byte("not json"), nil)
	assert.Error(t, err)
}

func TestFilterFields(t *testing.T) {
	row := driver.RowFromStrings(map[string]string{"a": "1", "b": "2", "c": "3"})

	t.Run("empty list returns all", func(t *testing.T) {
		assert.True(t, driver.RowsEqual(row, FilterFields(row, nil)))
	})

	t.Run("subset", func(t *testing.T) {
		out := FilterFields(row, []string{"a", "c"})
		assert.Len(t, out, 2)
		assert.Equal(t, "1", out["a"].String())
	})

	t.Run("missing fields are skipped", func(t *testing.T) {
		out := FilterFields(row, []string{"z"})
		assert.Empty(t, out)
	})
}
