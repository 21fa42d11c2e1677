package native

import "errors"

// Package errors for the WebGPU context.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrDeviceLost is the default reason passed to Lose.
	ErrDeviceLost = errors.New("native: GPU device lost")

	// ErrClosed is the unavailability reason after Close.
	ErrClosed = errors.New("native: context closed")

	// ErrNilTarget is returned when no render target is given.
	ErrNilTarget = errors.New("native: nil render target")

	// ErrInvalidDimensions is returned when the target has no pixels.
	ErrInvalidDimensions = errors.New("native: invalid target dimensions")

	// ErrNoProgram is returned by DrawArrays without a linked current program.
	ErrNoProgram = errors.New("native: no linked program in use")

	// ErrUnboundInput is returned by DrawArrays when a vertex input of the
	// current program has no buffer bound to its location.
	ErrUnboundInput = errors.New("native: vertex input has no bound buffer")

	// ErrUnknownObject is returned for IDs that do not name a live object.
	ErrUnknownObject = errors.New("native: unknown object")
)
