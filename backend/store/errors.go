package store

import "github.com/pkg/errors"

// Error taxonomy. Read paths never return ErrNotFound for a missing id; they
// return nil instead. ErrNotFound is reserved for mutations against an id
// that does not exist.
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrValidation         = errors.New("validation failed")
)
