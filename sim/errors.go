package sim

import "errors"

// Sentinel errors carried in UnitResult.Err and ExecutionResult.Errors.
// Callers match them with errors.Is; messages add node and stream context.
var (
	ErrInvalidGraph     = errors.New("invalid graph")
	ErrUnknownUnitType  = errors.New("unknown unit type")
	ErrMissingInput     = errors.New("missing input stream")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrZeroFeed         = errors.New("zero feed rate")
)
