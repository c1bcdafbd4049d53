package webgpu

import (
	"fmt"

	"github.com/born-ml/hellocompute/internal/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// checkUploadable rejects artifacts the binding cannot hand to the driver.
// cogentcore/webgpu passes the SPIR-V byte length where wgpu-native expects a
// word count, so the driver would read past the end of the module.
func checkUploadable(src shader.Source) error {
	if src.Kind() == shader.KindSPIRV {
		return fmt.Errorf("%w: %s", ErrSPIRVUnsupported, src.Label)
	}
	return nil
}

// createShaderModule uploads the session's shader artifact.
func (s *Session) createShaderModule() (*wgpu.ShaderModule, error) {
	if err := checkUploadable(s.shader); err != nil {
		return nil, err
	}
	module, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.shader.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.shader.WGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %s: %w", s.shader.Label, err)
	}
	return module, nil
}

// computePipeline is the pipeline plus the bindings it is dispatched with.
type computePipeline struct {
	bindLayout *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	pipeline   *wgpu.ComputePipeline
	bindGroup  *wgpu.BindGroup
}

// createPipeline builds the single-storage-buffer layout, binds storage to
// it and links a compute pipeline against module's entry point.
func (s *Session) createPipeline(module *wgpu.ShaderModule, storage *wgpu.Buffer, size uint64) (*computePipeline, error) {
	p := &computePipeline{}

	bindLayout, err := s.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "hello-compute bind layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    shader.StorageBinding,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeStorage,
					MinBindingSize: 4,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	bindGroup, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "hello-compute bind group",
		Layout: bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: shader.StorageBinding, Buffer: storage, Offset: 0, Size: size},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	p.bindGroup = bindGroup

	pipeLayout, err := s.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "hello-compute pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "hello-compute pipeline",
		Layout: pipeLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: shader.EntryPoint,
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("create compute pipeline: %w", err)
	}
	p.pipeline = pipeline

	return p, nil
}

// Release frees whatever was created, newest first.
func (p *computePipeline) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.pipeLayout.Release()
		p.pipeLayout = nil
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindLayout != nil {
		p.bindLayout.Release()
		p.bindLayout = nil
	}
}
