package store

import "errors"

// Sentinel errors surfaced by mutating operations. Lookups return nil, nil
// for missing rows; these exist where the caller must distinguish failure
// modes with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("duplicate name")
	ErrInvalidState  = errors.New("invalid state")
)
