// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package compute dispatches a compute shader over an array of unsigned
// integers on the GPU and reads back the result together with the
// pipeline statistics reported by the driver.
//
// WebGPU is provided by wgpu-native and works on:
//   - Windows (via D3D12 or Vulkan)
//   - macOS (via Metal)
//   - Linux (via Vulkan or GL)
//
// Example:
//
//	import "github.com/born-ml/hellocompute/compute"
//
//	func main() {
//	    res, err := compute.Run(context.Background(), compute.DefaultOptions(), []uint32{1, 2, 3, 4})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Output) // [0 1 7 2]
//	}
package compute

import (
	"context"
	"log/slog"

	internalwebgpu "github.com/born-ml/hellocompute/internal/backend/webgpu"
)

// Options controls adapter selection, statistics and the shader artifact.
type Options = internalwebgpu.Options

// Session owns one adapter, logical device and queue.
type Session = internalwebgpu.Session

// Result is the outcome of one invocation.
type Result = internalwebgpu.Result

// StageError names the step of the compute sequence that failed.
type StageError = internalwebgpu.StageError

// Errors returned by the compute sequence.
var (
	ErrEmptyInput        = internalwebgpu.ErrEmptyInput
	ErrTooManyElements   = internalwebgpu.ErrTooManyElements
	ErrSPIRVUnsupported  = internalwebgpu.ErrSPIRVUnsupported
	ErrNativeUnavailable = internalwebgpu.ErrNativeUnavailable
	ErrNoAdapter         = internalwebgpu.ErrNoAdapter
	ErrNoDevice          = internalwebgpu.ErrNoDevice
	ErrMapFailed         = internalwebgpu.ErrMapFailed
)

// DefaultOptions returns options with statistics enabled and the embedded
// Collatz shader.
func DefaultOptions() Options {
	return internalwebgpu.DefaultOptions()
}

// New acquires an adapter and device. Call Release when done to free GPU
// resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New(opts Options) (*Session, error) {
	return internalwebgpu.New(opts)
}

// Run executes numbers once on a fresh session and releases it.
// Independent Run calls may proceed concurrently.
func Run(ctx context.Context, opts Options, numbers []uint32) (*Result, error) {
	return internalwebgpu.Run(ctx, opts, numbers)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	if !compute.IsAvailable() {
//	    log.Println("no GPU, skipping")
//	    return
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// SetLogger routes diagnostic logging of the compute sequence to l.
// By default nothing is logged.
func SetLogger(l *slog.Logger) {
	internalwebgpu.SetLogger(l)
}
