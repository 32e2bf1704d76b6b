package forest

import "github.com/pkg/errors"

// Sentinel errors for the whole store. Implementations wrap these with
// errors.Wrapf to add the offending id or path, so callers test with
// errors.Is(err, forest.ErrNotFound) and friends.
var (
	// ErrNotFound - a referenced NodeID or RootID does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRange - a path query whose from is not an ancestor of to.
	ErrInvalidRange = errors.New("invalid range")
	// ErrIO - the underlying persistence operation failed; prior state is
	// unchanged.
	ErrIO = errors.New("io error")
	// ErrBusy - the data directory is exclusively held by another store
	// instance.
	ErrBusy = errors.New("data directory busy")
	// ErrValidation - structurally invalid input to a mutator.
	ErrValidation = errors.New("validation error")
)

var errEmptyModel = errors.Wrap(ErrValidation, "root config needs a model")
