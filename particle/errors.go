package particle

import "errors"

// Sentinel errors returned by the storage core. Callers match them with
// errors.Is; returned errors carry context via fmt.Errorf wrapping.
var (
	// ErrConfig indicates invalid construction parameters (zero block size,
	// duplicate attribute names, negative block budget).
	ErrConfig = errors.New("invalid container config")

	// ErrUnknownAttribute indicates an attribute name that was never
	// registered with the schema.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidHandle indicates an operation on a block that is not owned
	// by the container (double release or a foreign block).
	ErrInvalidHandle = errors.New("invalid block handle")

	// ErrOutOfMemory indicates the container's block budget is exhausted.
	ErrOutOfMemory = errors.New("block budget exhausted")

	// ErrCapacityExceeded indicates an active-count mutation outside
	// [0, blockSize].
	ErrCapacityExceeded = errors.New("active count out of range")

	// ErrIndexOutOfRange indicates a particle index outside the active
	// region of a block.
	ErrIndexOutOfRange = errors.New("particle index out of range")
)
