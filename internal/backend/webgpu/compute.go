package webgpu

import (
	"context"
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// Result is the outcome of one compute invocation.
type Result struct {
	InvocationID uuid.UUID
	Adapter      string
	Input        []uint32
	Output       []uint32 // One element per input element, same order.
	Statistics   []uint64 // Compute shader invocations; nil when not collected.
	Elapsed      time.Duration
}

// Run opens a session, executes numbers once and releases every GPU object.
// Concurrent Run calls share nothing.
func Run(ctx context.Context, opts Options, numbers []uint32) (*Result, error) {
	if len(numbers) == 0 {
		return nil, stageErr(StageInput, ErrEmptyInput)
	}
	session, err := New(opts)
	if err != nil {
		return nil, err
	}
	defer session.Release()
	return session.Execute(ctx, numbers)
}

// releaser collects cleanup calls and runs them newest first.
type releaser []func()

func (r *releaser) add(f func()) { *r = append(*r, f) }

func (r releaser) run() {
	for i := len(r) - 1; i >= 0; i-- {
		r[i]()
	}
}

// checkpoint fails fast when ctx is done before stage starts.
// In-flight GPU work is never interrupted.
func checkpoint(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("webgpu: canceled before %s: %w", stage, err)
	}
	return nil
}

// Execute dispatches the shader over numbers and reads back the output and,
// when enabled, the pipeline statistics. Every GPU object it creates is
// released before it returns.
func (s *Session) Execute(ctx context.Context, numbers []uint32) (*Result, error) {
	if len(numbers) == 0 {
		return nil, stageErr(StageInput, ErrEmptyInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == nil {
		return nil, ErrReleased
	}

	// One workgroup per element along X.
	maxElements := s.device.GetLimits().Limits.MaxComputeWorkgroupsPerDimension
	if uint64(len(numbers)) > uint64(maxElements) {
		return nil, stageErr(StageInput, fmt.Errorf("%w: %d elements, limit %d",
			ErrTooManyElements, len(numbers), maxElements))
	}

	id := uuid.New()
	log := slogger().With("invocation", id.String())
	start := time.Now()

	var cleanup releaser
	defer cleanup.run()

	//nolint:gosec // G115: Safe conversion, bounded by maxElements above
	count := uint32(len(numbers))
	size := uint64(len(numbers)) * 4

	// Query set
	if err := checkpoint(ctx, StageQuerySet); err != nil {
		return nil, err
	}
	var querySet *wgpu.QuerySet
	if s.statistics {
		qs, err := newStatisticsQuery(s.device)
		if err != nil {
			return nil, stageErr(StageQuerySet, err)
		}
		cleanup.add(qs.Release)
		querySet = qs
	}

	// Shader module
	module, err := s.createShaderModule()
	if err != nil {
		return nil, stageErr(StageShader, err)
	}
	cleanup.add(module.Release)

	// Buffers
	if err := checkpoint(ctx, StageBuffer); err != nil {
		return nil, err
	}
	storage, err := s.createBufferInit("storage", EncodeUint32s(numbers),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, stageErr(StageBuffer, err)
	}
	cleanup.add(storage.Release)

	staging, err := s.createBuffer("staging", size, wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, stageErr(StageBuffer, err)
	}
	cleanup.add(staging.Release)

	// The resolve target cannot be mappable, so it is copied into a twin.
	var queryResolve, queryStaging *wgpu.Buffer
	if querySet != nil {
		queryResolve, err = s.createBuffer("query resolve", queryRecordSize,
			wgpu.BufferUsageQueryResolve|wgpu.BufferUsageCopySrc)
		if err != nil {
			return nil, stageErr(StageBuffer, err)
		}
		cleanup.add(queryResolve.Release)

		queryStaging, err = s.createBuffer("query staging", queryRecordSize,
			wgpu.BufferUsageMapRead|wgpu.BufferUsageCopyDst)
		if err != nil {
			return nil, stageErr(StageBuffer, err)
		}
		cleanup.add(queryStaging.Release)
	}

	// Pipeline
	pipeline, err := s.createPipeline(module, storage, size)
	if err != nil {
		return nil, stageErr(StagePipeline, err)
	}
	cleanup.add(pipeline.Release)

	// Encode
	encoder, err := s.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "hello-compute encoder"})
	if err != nil {
		return nil, stageErr(StageEncode, fmt.Errorf("create command encoder: %w", err))
	}
	cleanup.add(encoder.Release)

	pass := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "hello-compute pass"})
	if querySet != nil {
		pass.BeginPipelineStatisticsQuery(querySet, 0)
	}
	pass.SetPipeline(pipeline.pipeline)
	pass.SetBindGroup(0, pipeline.bindGroup, nil)
	pass.DispatchWorkgroups(count, 1, 1)
	if querySet != nil {
		pass.EndPipelineStatisticsQuery()
	}
	endErr := pass.End()
	pass.Release() // must happen before Finish
	if endErr != nil {
		return nil, stageErr(StageEncode, fmt.Errorf("end compute pass: %w", endErr))
	}

	if err := encoder.CopyBufferToBuffer(storage, 0, staging, 0, size); err != nil {
		return nil, stageErr(StageEncode, fmt.Errorf("copy storage to staging: %w", err))
	}
	if querySet != nil {
		if err := encoder.ResolveQuerySet(querySet, 0, 1, queryResolve, 0); err != nil {
			return nil, stageErr(StageEncode, fmt.Errorf("resolve query set: %w", err))
		}
		if err := encoder.CopyBufferToBuffer(queryResolve, 0, queryStaging, 0, queryRecordSize); err != nil {
			return nil, stageErr(StageEncode, fmt.Errorf("copy query resolve to staging: %w", err))
		}
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, stageErr(StageEncode, fmt.Errorf("finish command encoder: %w", err))
	}
	cleanup.add(cmdBuffer.Release)

	// Submit
	if err := checkpoint(ctx, StageEncode); err != nil {
		return nil, err
	}
	s.queue.Submit(cmdBuffer)
	log.Debug("webgpu: submitted", "workgroups", count, "statistics", querySet != nil)

	// Map both read-back buffers, then poll once for both.
	stagingReq, err := requestRead(StageReadback, "staging", staging, size)
	if err != nil {
		return nil, stageErr(StageReadback, err)
	}
	reqs := []*mapRequest{stagingReq}
	var queryReq *mapRequest
	if querySet != nil {
		queryReq, err = requestRead(StageQueryRead, "query", queryStaging, uint64(len(collectedStatistics))*8)
		if err != nil {
			// Drain the staging request so its buffer is not released while mapped.
			s.device.Poll(true, nil)
			if stagingReq.result() == nil {
				_ = stagingReq.unmap()
			}
			return nil, stageErr(StageQueryRead, err)
		}
		reqs = append(reqs, queryReq)
	}

	// Blocks until the queue is idle and both callbacks have fired.
	s.device.Poll(true, nil)

	if err := settle(reqs...); err != nil {
		return nil, err
	}
	// Runs before the buffers are released; a no-op for ranges already read.
	defer func() {
		for _, r := range reqs {
			_ = r.unmap()
		}
	}()

	var statistics []uint64
	if queryReq != nil {
		err := queryReq.withMappedRange(func(view []byte) error {
			var decodeErr error
			statistics, decodeErr = DecodeUint64s(view)
			return decodeErr
		})
		if err != nil {
			return nil, stageErr(StageQueryRead, err)
		}
		log.Debug("webgpu: raw query data", "statistics", statistics)
	}

	var output []uint32
	err = stagingReq.withMappedRange(func(view []byte) error {
		var decodeErr error
		output, decodeErr = DecodeUint32s(view)
		return decodeErr
	})
	if err != nil {
		return nil, stageErr(StageReadback, err)
	}

	elapsed := time.Since(start)
	log.Info("webgpu: invocation finished", "elements", len(output), "elapsed", elapsed)

	return &Result{
		InvocationID: id,
		Adapter:      s.Name(),
		Input:        append([]uint32(nil), numbers...),
		Output:       output,
		Statistics:   statistics,
		Elapsed:      elapsed,
	}, nil
}
