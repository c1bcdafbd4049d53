package shader

import "errors"

// Common errors.
var (
	ErrEmptySource       = errors.New("shader: empty source")
	ErrInvalidSPIRV      = errors.New("shader: invalid SPIR-V binary")
	ErrMissingEntryPoint = errors.New("shader: entry point not found")
)
