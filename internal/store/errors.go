package store

import "errors"

// ErrNotFound is returned when a row does not exist. Ownership failures are
// reported identically so callers cannot probe other users' data.
var ErrNotFound = errors.New("not found")
