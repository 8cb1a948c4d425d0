package store

import "errors"

// ErrNotFound indicates a calendar or event lookup with no matching row.
var ErrNotFound = errors.New("record not found")
