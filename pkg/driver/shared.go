package driver

import "sync"

// SharedConn is a reference-counted handle to one process-wide physical
// connection or pool shared by many logical clients (one per worker).
// Acquire builds the resource only on the 0 -> 1 transition; Release tears
// it down only when the count drops to zero. A later Acquire after full
// release rebuilds the resource.
//
// The benchmark harness instantiates one client per worker, so a shared
// backend holds exactly one SharedConn on its Driver value and hands it to
// every client at Open. All methods are safe for concurrent use.
type SharedConn[T any] struct {
	mu    sync.Mutex
	refs  int
	conn  T
	alive bool
}

// Acquire returns the shared resource, constructing it with build on the
// first acquisition, and increments the reference count. When build fails
// the count is unchanged.
func (s *SharedConn[T]) Acquire(build func() (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive {
		conn, err := build()
		if err != nil {
			var zero T
			return zero, err
		}
		s.conn = conn
		s.alive = true
		s.refs = 0
	}
	s.refs++
	return s.conn, nil
}

// Release decrements the reference count and tears the resource down with
// close once the count reaches zero. Releasing an already-dead handle is a
// no-op.
func (s *SharedConn[T]) Release(close func(T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.alive {
		return nil
	}
	s.refs--
	if s.refs > 0 {
		return nil
	}

	s.alive = false
	conn := s.conn
	var zero T
	s.conn = zero
	return close(conn)
}

// Refs returns the current reference count.
func (s *SharedConn[T]) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Alive reports whether the shared resource is currently constructed.
func (s *SharedConn[T]) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}
