// Package shader owns the compute shader artifact dispatched by hello-compute.
//
// The binding contract every artifact must honour:
//
//	@group(0) @binding(0) var<storage, read_write> data: array<u32>;
//	@compute @workgroup_size(1) fn main(...)
//
// The default artifact is embedded WGSL. A precompiled SPIR-V binary can be
// supplied instead (see [LoadSPIRV] and cmd/shaderc); its transform is opaque
// to the rest of the program.
package shader
