package driver

import (
	"bytes"
	"math/rand"
	"sync"
)

// Value is an opaque byte-sequence field value. Implementations may generate
// their content lazily; Bytes realizes the full deterministic content and
// returns the same bytes on every call. Encoding layers must only ever see
// realized content, never a generator's internal cursor.
type Value interface {
	// Bytes returns the realized content. The returned slice must not be
	// modified by the caller.
	Bytes() []byte

	// Len returns the length of the realized content in bytes.
	Len() int

	// String returns the realized content as a string.
	String() string
}

// Row maps field names to values. Field names are unique within a record;
// insertion order is irrelevant.
type Row map[string]Value

// KeyedRow pairs a record with its primary key, as returned by Scan.
type KeyedRow struct {
	Key string
	Row Row
}

type bytesValue []byte

func (v bytesValue) Bytes() []byte  { return v }
func (v bytesValue) Len() int       { return len(v) }
func (v bytesValue) String() string { return string(v) }

// Bytes wraps a byte slice as a Value. The slice is not copied.
func Bytes(b []byte) Value {
	return bytesValue(b)
}

// String wraps a string as a Value.
func String(s string) Value {
	return bytesValue(s)
}

// lazyValue generates a deterministic pseudo-random payload on first use.
// Realization is memoized so repeated encoding yields identical bytes.
type lazyValue struct {
	seed   int64
	length int

	once sync.Once
	buf  []byte
}

// Lazy returns a Value whose content is a deterministic pseudo-random
// printable payload of the given length, derived from seed. Used by workload
// drivers to defer payload generation until the encoding step.
func Lazy(seed int64, length int) Value {
	return &lazyValue{seed: seed, length: length}
}

const lazyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (v *lazyValue) realize() {
	v.once.Do(func() {
		rng := rand.New(rand.NewSource(v.seed))
		buf := make([]byte, v.length)
		for i := range buf {
			buf[i] = lazyAlphabet[rng.Intn(len(lazyAlphabet))]
		}
		v.buf = buf
	})
}

func (v *lazyValue) Bytes() []byte {
	v.realize()
	return v.buf
}

func (v *lazyValue) Len() int {
	return v.length
}

func (v *lazyValue) String() string {
	return string(v.Bytes())
}

// RowFromStrings builds a Row from a map of string values.
func RowFromStrings(m map[string]string) Row {
	row := make(Row, len(m))
	for k, v := range m {
		row[k] = String(v)
	}
	return row
}

// RowFromBytes builds a Row from a map of byte-slice values.
func RowFromBytes(m map[string][]byte) Row {
	row := make(Row, len(m))
	for k, v := range m {
		row[k] = Bytes(v)
	}
	return row
}

// RowsEqual reports whether two rows contain the same fields with the same
// realized byte content.
func RowsEqual(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !bytes.Equal(av.Bytes(), bv.Bytes()) {
			return false
		}
	}
	return true
}
