// Package webgpu runs the hello-compute shader on a GPU through WebGPU.
// Uses cogentcore/webgpu (github.com/cogentcore/webgpu), a Go binding of wgpu-native.
package webgpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/hellocompute/internal/config"
	"github.com/born-ml/hellocompute/internal/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/davecgh/go-spew/spew"
)

// Options controls session creation and execution.
type Options struct {
	// Power is the adapter power preference. The zero value lets the
	// library pick its default.
	Power wgpu.PowerPreference

	// Backend restricts adapter selection to one native API.
	// The zero value accepts any backend.
	Backend wgpu.BackendType

	// Statistics enables the compute-shader-invocation query. It is dropped
	// with a warning when the adapter lacks the feature.
	Statistics bool

	// Shader is the artifact dispatched by Execute. The zero value means
	// the embedded default.
	Shader shader.Source
}

// DefaultOptions returns options with statistics enabled and the embedded shader.
func DefaultOptions() Options {
	return Options{Statistics: true, Shader: shader.Default()}
}

// OptionsFromConfig maps resolved configuration onto session options.
// src is the already loaded shader artifact.
func OptionsFromConfig(cfg config.Config, src shader.Source) Options {
	opts := Options{Statistics: cfg.Statistics, Shader: src}
	switch cfg.Power {
	case config.PowerLow:
		opts.Power = wgpu.PowerPreferenceLowPower
	case config.PowerHigh:
		opts.Power = wgpu.PowerPreferenceHighPerformance
	}
	switch cfg.Backend {
	case config.BackendVulkan:
		opts.Backend = wgpu.BackendTypeVulkan
	case config.BackendMetal:
		opts.Backend = wgpu.BackendTypeMetal
	case config.BackendDX12:
		opts.Backend = wgpu.BackendTypeD3D12
	case config.BackendGL:
		opts.Backend = wgpu.BackendTypeOpenGL
	}
	return opts
}

// Session owns one adapter, logical device and queue.
// Sessions share no state; create one per independent caller.
type Session struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Device info
	adapterInfo *wgpu.AdapterInfo

	// statistics is true when the device was created with the
	// pipeline-statistics feature.
	statistics bool

	shader shader.Source

	// Execute is serialised per session: the blocking poll drains every
	// outstanding map request on the device.
	mu sync.Mutex
}

// New acquires instance, adapter, device and queue, in that order.
// Returns an error if WebGPU is not available or any step fails.
func New(opts Options) (session *Session, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			session = nil
			err = &StageError{Stage: StageInstance, Err: fmt.Errorf("%w: %v", ErrNativeUnavailable, r)}
		}
	}()

	src := opts.Shader
	if src.WGSL == "" && len(src.SPIRV) == 0 {
		src = shader.Default()
	}
	if err := shader.Validate(src); err != nil {
		return nil, &StageError{Stage: StageShader, Err: err}
	}
	if err := checkUploadable(src); err != nil {
		return nil, &StageError{Stage: StageShader, Err: err}
	}

	// Adapter options alone do not restrict the backend in wgpu-native.
	var instanceDesc *wgpu.InstanceDescriptor
	if opts.Backend != wgpu.BackendTypeUndefined {
		instanceDesc = &wgpu.InstanceDescriptor{Backends: instanceBackends(opts.Backend)}
	}
	instance := wgpu.CreateInstance(instanceDesc)
	if instance == nil {
		return nil, &StageError{Stage: StageInstance, Err: ErrNativeUnavailable}
	}

	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: opts.Power,
		BackendType:     opts.Backend,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, &StageError{Stage: StageAdapter, Err: fmt.Errorf("%w: %w", ErrNoAdapter, adapterErr)}
	}

	adapterInfo := adapter.GetInfo()
	if !backendMatches(opts.Backend, adapterInfo.BackendType) {
		adapter.Release()
		instance.Release()
		return nil, &StageError{Stage: StageAdapter, Err: fmt.Errorf("%w: want backend %s, got %s",
			ErrNoAdapter, opts.Backend, adapterInfo.BackendType)}
	}
	if log := slogger(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("webgpu: adapter selected", "info", spew.Sdump(adapterInfo))
	}

	statistics := opts.Statistics && adapterSupportsStatistics(adapter)
	if opts.Statistics && !statistics {
		slogger().Warn("webgpu: adapter does not support pipeline statistics queries; statistics disabled",
			"adapter", adapterInfo.Name)
	}

	desc := &wgpu.DeviceDescriptor{Label: "hello-compute device"}
	if statistics {
		desc.RequiredFeatures = []wgpu.FeatureName{featurePipelineStatistics}
	}
	device, deviceErr := adapter.RequestDevice(desc)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, &StageError{Stage: StageDevice, Err: fmt.Errorf("%w: %w", ErrNoDevice, deviceErr)}
	}

	// Get default queue
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, &StageError{Stage: StageDevice, Err: fmt.Errorf("%w: no queue", ErrNoDevice)}
	}

	slogger().Info("webgpu: device ready",
		"adapter", adapterInfo.Name,
		"backend", adapterInfo.BackendType.String(),
		"statistics", statistics)

	return &Session{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: &adapterInfo,
		statistics:  statistics,
		shader:      src,
	}, nil
}

// instanceBackends maps a backend type onto the instance backend mask.
func instanceBackends(bt wgpu.BackendType) wgpu.InstanceBackend {
	switch bt {
	case wgpu.BackendTypeVulkan:
		return wgpu.InstanceBackendVulkan
	case wgpu.BackendTypeMetal:
		return wgpu.InstanceBackendMetal
	case wgpu.BackendTypeD3D12:
		return wgpu.InstanceBackendDX12
	case wgpu.BackendTypeD3D11:
		return wgpu.InstanceBackendDX11
	case wgpu.BackendTypeOpenGL, wgpu.BackendTypeOpenGLES:
		return wgpu.InstanceBackendGL
	default:
		return wgpu.InstanceBackendAll
	}
}

// backendMatches reports whether an adapter on got satisfies want.
// OpenGL and OpenGL ES share one instance backend.
func backendMatches(want, got wgpu.BackendType) bool {
	if want == wgpu.BackendTypeUndefined || want == got {
		return true
	}
	isGL := func(bt wgpu.BackendType) bool {
		return bt == wgpu.BackendTypeOpenGL || bt == wgpu.BackendTypeOpenGLES
	}
	return isGL(want) && isGL(got)
}

// Release releases all WebGPU resources. It is safe to call more than once.
func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	if s.adapter != nil {
		s.adapter.Release()
		s.adapter = nil
	}
	if s.instance != nil {
		s.instance.Release()
		s.instance = nil
	}
}

// Name returns a human-readable adapter description.
func (s *Session) Name() string {
	if s.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", s.adapterInfo.Name, s.adapterInfo.VendorName)
	}
	return "WebGPU"
}

// AdapterInfo returns information about the GPU adapter.
func (s *Session) AdapterInfo() *wgpu.AdapterInfo {
	return s.adapterInfo
}

// SupportsPipelineStatistics reports whether Execute collects statistics.
func (s *Session) SupportsPipelineStatistics() bool {
	return s.statistics
}

// MaxElements returns the largest input Execute accepts: one workgroup per
// element along X.
func (s *Session) MaxElements() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return 0
	}
	return s.device.GetLimits().Limits.MaxComputeWorkgroupsPerDimension
}

// Shader returns the artifact the session dispatches.
func (s *Session) Shader() shader.Source {
	return s.shader
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// ListAdapters returns information about the default adapter.
// WebGPU has no portable way to enumerate every adapter.
func ListAdapters() (adapters []*wgpu.AdapterInfo, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			adapters = nil
			err = fmt.Errorf("%w: %v", ErrNativeUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, adapterErr := instance.RequestAdapter(nil)
	if adapterErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, adapterErr)
	}
	defer adapter.Release()

	info := adapter.GetInfo()

	return []*wgpu.AdapterInfo{&info}, nil
}
