package device

import "errors"

var (
	// ErrUnknownTier is returned by ParseTier for unrecognised names.
	ErrUnknownTier = errors.New("device: unknown tier")

	// ErrNoGPU is returned by a GPUProbe when no usable adapter exists.
	ErrNoGPU = errors.New("device: no GPU adapter")

	// ErrProbePanic wraps a panic recovered from a GPU probe.
	ErrProbePanic = errors.New("device: GPU probe panicked")
)
