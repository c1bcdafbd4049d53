package webgpu

import (
	"testing"

	"github.com/born-ml/hellocompute/internal/config"
	"github.com/born-ml/hellocompute/internal/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSession skips the test when no adapter is available.
func newSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available on this system")
	}
	s, err := New(opts)
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(s.Release)
	return s
}

func TestIsAvailable(t *testing.T) {
	available := IsAvailable()
	t.Logf("WebGPU available: %v", available)
}

func TestListAdapters(t *testing.T) {
	adapters, err := ListAdapters()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	require.NotEmpty(t, adapters)
	for i, info := range adapters {
		t.Logf("Adapter %d: %s (%s) backend=%v type=%v", i, info.Name, info.VendorName, info.BackendType, info.AdapterType)
	}
}

func TestNew(t *testing.T) {
	s := newSession(t, DefaultOptions())

	assert.NotEmpty(t, s.Name())
	require.NotNil(t, s.AdapterInfo())
	assert.Equal(t, shader.KindWGSL, s.Shader().Kind())
	t.Logf("Using GPU: %s, statistics=%v", s.Name(), s.SupportsPipelineStatistics())
}

func TestNew_DefaultsShader(t *testing.T) {
	s := newSession(t, Options{})
	assert.Equal(t, shader.Default().Label, s.Shader().Label)
	assert.False(t, s.SupportsPipelineStatistics())
}

func TestNew_InvalidShader(t *testing.T) {
	_, err := New(Options{Shader: shader.Source{Label: "bad.spv", SPIRV: []uint32{1}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, shader.ErrInvalidSPIRV)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageShader, se.Stage)
}

func TestRelease_Idempotent(t *testing.T) {
	s := newSession(t, DefaultOptions())
	s.Release()
	s.Release()
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Power = config.PowerHigh
	cfg.Backend = config.BackendVulkan
	cfg.Statistics = false

	opts := OptionsFromConfig(cfg, shader.Default())
	assert.Equal(t, wgpu.PowerPreferenceHighPerformance, opts.Power)
	assert.Equal(t, wgpu.BackendTypeVulkan, opts.Backend)
	assert.False(t, opts.Statistics)
	assert.Equal(t, "collatz.wgsl", opts.Shader.Label)

	cfg.Power = config.PowerLow
	cfg.Backend = config.BackendAny
	opts = OptionsFromConfig(cfg, shader.Default())
	assert.Equal(t, wgpu.PowerPreferenceLowPower, opts.Power)
	assert.Equal(t, wgpu.BackendType(0), opts.Backend)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.Statistics)
	assert.Equal(t, shader.KindWGSL, opts.Shader.Kind())
}

func TestInstanceBackends(t *testing.T) {
	assert.Equal(t, wgpu.InstanceBackendVulkan, instanceBackends(wgpu.BackendTypeVulkan))
	assert.Equal(t, wgpu.InstanceBackendMetal, instanceBackends(wgpu.BackendTypeMetal))
	assert.Equal(t, wgpu.InstanceBackendDX12, instanceBackends(wgpu.BackendTypeD3D12))
	assert.Equal(t, wgpu.InstanceBackendGL, instanceBackends(wgpu.BackendTypeOpenGL))
	assert.Equal(t, wgpu.InstanceBackendGL, instanceBackends(wgpu.BackendTypeOpenGLES))
	assert.Equal(t, wgpu.InstanceBackendAll, instanceBackends(wgpu.BackendTypeUndefined))
}

func TestBackendMatches(t *testing.T) {
	assert.True(t, backendMatches(wgpu.BackendTypeUndefined, wgpu.BackendTypeOpenGL))
	assert.True(t, backendMatches(wgpu.BackendTypeVulkan, wgpu.BackendTypeVulkan))
	assert.True(t, backendMatches(wgpu.BackendTypeOpenGL, wgpu.BackendTypeOpenGLES))
	assert.False(t, backendMatches(wgpu.BackendTypeVulkan, wgpu.BackendTypeOpenGL))
	assert.False(t, backendMatches(wgpu.BackendTypeMetal, wgpu.BackendTypeVulkan))
}

// The session must run on the requested backend or fail; it never falls
// back to whatever adapter the library prefers.
func TestNew_BackendIsHonoured(t *testing.T) {
	if !IsAvailable() {
		t.Skip("WebGPU not available on this system")
	}
	for _, bt := range []wgpu.BackendType{wgpu.BackendTypeVulkan, wgpu.BackendTypeOpenGL, wgpu.BackendTypeMetal} {
		t.Run(bt.String(), func(t *testing.T) {
			s, err := New(Options{Backend: bt})
			if err != nil {
				assert.ErrorIs(t, err, ErrNoAdapter)
				var se *StageError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, StageAdapter, se.Stage)
				return
			}
			defer s.Release()
			assert.True(t, backendMatches(bt, s.AdapterInfo().BackendType),
				"asked for %s, got %s", bt, s.AdapterInfo().BackendType)
		})
	}
}

func TestNew_SPIRVRejected(t *testing.T) {
	src := shader.Source{Label: "collatz.spv", SPIRV: []uint32{shader.SPIRVMagic, 0x00010300, 0, 1, 0}}
	_, err := New(Options{Shader: src})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSPIRVUnsupported)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageShader, se.Stage)
}

func TestMaxElements(t *testing.T) {
	s := newSession(t, Options{})
	assert.GreaterOrEqual(t, s.MaxElements(), uint32(65535))

	s.Release()
	assert.Zero(t, s.MaxElements())
}
