package webgpu

import "errors"

// Common errors.
var (
	ErrEmptyInput        = errors.New("webgpu: input must contain at least one number")
	ErrTooManyElements   = errors.New("webgpu: input exceeds the device's workgroups per dispatch")
	ErrSPIRVUnsupported  = errors.New("webgpu: SPIR-V shader modules are not supported by the binding; use WGSL")
	ErrNativeUnavailable = errors.New("webgpu: native library not available")
	ErrNoAdapter         = errors.New("webgpu: no compatible adapter")
	ErrNoDevice          = errors.New("webgpu: failed to request device")
	ErrMapFailed         = errors.New("webgpu: buffer mapping failed")
	ErrMisalignedData    = errors.New("webgpu: mapped data is not a whole number of elements")
	ErrReleased          = errors.New("webgpu: session released")
)

// Stages named by StageError.
const (
	StageInput     = "input"
	StageInstance  = "instance"
	StageAdapter   = "adapter"
	StageDevice    = "device"
	StageQuerySet  = "query set"
	StageShader    = "shader"
	StageBuffer    = "buffer"
	StagePipeline  = "pipeline"
	StageEncode    = "encode"
	StageReadback  = "readback"
	StageQueryRead = "query readback"
)

// StageError names the step of the compute sequence that failed.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// stageErr wraps err with a stage unless it is nil.
func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
