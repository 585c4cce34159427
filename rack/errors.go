package rack

import "errors"

var (
	// ErrGraphCycle is returned by Connect when the requested edge would
	// create a cycle spanning more than one module.
	ErrGraphCycle = errors.New("connection would create a cycle")

	// ErrBlockSizeMismatch is returned when Process is called with a sample
	// count that does not match the block size the patch was built for, or
	// when a module sized for a different block is added.
	ErrBlockSizeMismatch = errors.New("block size mismatch")

	// ErrUnknownModule is returned for modules that were never added.
	ErrUnknownModule = errors.New("unknown module")

	// ErrDuplicateModule is returned when a module instance is added twice.
	ErrDuplicateModule = errors.New("module already added")

	// ErrUnknownPort is returned when a named port does not exist on the
	// module, or exists with the wrong direction for the operation.
	ErrUnknownPort = errors.New("unknown port")

	// ErrTypeMismatch is returned when the source and destination signal
	// types are incompatible.
	ErrTypeMismatch = errors.New("incompatible signal types")
)
