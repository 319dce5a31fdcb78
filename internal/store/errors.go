package store

import "errors"

// ErrNotFound is returned by Update and Delete when no label has the ID.
var ErrNotFound = errors.New("label not found")
