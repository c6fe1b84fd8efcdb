// Package dbcaps defines the canonical identifiers and capability metadata
// for every database technology benchkv can drive. The capability table is
// the single source of truth for how a backend encodes records, whether its
// scans are ordered, and whether clients share a process-wide pool.
package dbcaps
