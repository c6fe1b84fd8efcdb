package driver

// Status is the result code of a client operation. Every CRUD call resolves
// to exactly one Status; backend-native failures never cross the contract
// boundary.
type Status int

const (
	// StatusOK means the operation completed against the targeted record.
	StatusOK Status = iota

	// StatusNotFound means the backend was reached and the query executed,
	// but no record matched the key (or an update/delete affected zero rows).
	StatusNotFound

	// StatusError means the underlying driver or protocol surfaced a
	// failure. The cause is logged at the operation boundary, never thrown.
	StatusError

	// StatusBadRequest means the caller violated the contract (empty table
	// or key, or an operation outside the INITIALIZED lifecycle state).
	// Detected before any backend call.
	StatusBadRequest
)

// String returns the canonical name of the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusError:
		return "ERROR"
	case StatusBadRequest:
		return "BAD_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// IsOK reports whether the status is StatusOK.
func (s Status) IsOK() bool {
	return s == StatusOK
}
