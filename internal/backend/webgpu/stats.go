package webgpu

import "github.com/cogentcore/webgpu/wgpu"

// Pipeline statistics are a wgpu-native extension, not core WebGPU.
var (
	featurePipelineStatistics = wgpu.FeatureName(wgpu.NativeFeaturePipelineStatisticsQuery)
	queryTypePipelineStats    = wgpu.QueryType(wgpu.NativeQueryTypePipelineStatistics)
)

// collectedStatistics lists the counters recorded by the query set, in the
// order they are resolved.
var collectedStatistics = []wgpu.PipelineStatisticName{
	wgpu.PipelineStatisticNameComputeShaderInvocations,
}

// queryRecordSize is the size of the resolve buffer: one 128-bit record.
const queryRecordSize = 16

func adapterSupportsStatistics(adapter *wgpu.Adapter) bool {
	for _, f := range adapter.EnumerateFeatures() {
		if f == featurePipelineStatistics {
			return true
		}
	}
	return false
}

// newStatisticsQuery creates a one-slot pipeline statistics query set.
func newStatisticsQuery(device *wgpu.Device) (*wgpu.QuerySet, error) {
	return device.CreateQuerySet(&wgpu.QuerySetDescriptor{
		Label:              "hello-compute statistics",
		Type:               queryTypePipelineStats,
		Count:              1,
		PipelineStatistics: collectedStatistics,
	})
}
