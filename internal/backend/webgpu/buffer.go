package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
)

// createBuffer creates an uninitialised GPU buffer.
func (s *Session) createBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	slogger().Debug("webgpu: buffer created", "label", label, "size", humanize.IBytes(size))
	return buf, nil
}

// createBufferInit creates a GPU buffer initialised with data.
func (s *Session) createBufferInit(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := s.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: data,
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	slogger().Debug("webgpu: buffer created", "label", label, "size", humanize.IBytes(uint64(len(data))))
	return buf, nil
}

// mappable is the part of *wgpu.Buffer used once a mapping has completed.
type mappable interface {
	GetMappedRange(offset, size uint) []byte
	Unmap() error
}

// mapRequest is an outstanding MapAsync on a host-readable buffer.
// The callback fires from inside device.Poll.
type mapRequest struct {
	label  string
	stage  string
	buffer mappable
	size   uint64
	status chan wgpu.BufferMapAsyncStatus
	mapped bool
}

// requestRead issues MapAsync(Read) for the first size bytes of buf.
// It does not wait; poll the device to drive completion.
func requestRead(stage, label string, buf *wgpu.Buffer, size uint64) (*mapRequest, error) {
	req := &mapRequest{
		label:  label,
		stage:  stage,
		buffer: buf,
		size:   size,
		status: make(chan wgpu.BufferMapAsyncStatus, 1),
	}
	err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		req.status <- status
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMapFailed, label, err)
	}
	return req, nil
}

// result reports how the mapping ended. Call it only after polling.
func (r *mapRequest) result() error {
	select {
	case status := <-r.status:
		if status != wgpu.BufferMapAsyncStatusSuccess {
			return fmt.Errorf("%w: %s: status %v", ErrMapFailed, r.label, status)
		}
		r.mapped = true
		return nil
	default:
		return fmt.Errorf("%w: %s: still pending after poll", ErrMapFailed, r.label)
	}
}

// unmap releases a completed mapping. It is a no-op otherwise.
func (r *mapRequest) unmap() error {
	if !r.mapped {
		return nil
	}
	r.mapped = false
	if err := r.buffer.Unmap(); err != nil {
		return fmt.Errorf("%w: unmap %s: %w", ErrMapFailed, r.label, err)
	}
	return nil
}

// withMappedRange hands the mapped bytes to fn and unmaps on return.
// fn must copy what it needs: the view is invalid once withMappedRange returns.
func (r *mapRequest) withMappedRange(fn func(view []byte) error) (err error) {
	defer func() {
		if unmapErr := r.unmap(); err == nil {
			err = unmapErr
		}
	}()

	return fn(r.buffer.GetMappedRange(0, uint(r.size)))
}

// settle collects the outcome of every request after polling. When any
// mapping failed, the ones that succeeded are unmapped and the failures are
// returned, aggregated when there is more than one.
func settle(reqs ...*mapRequest) error {
	var errs *multierror.Error
	for _, r := range reqs {
		if err := r.result(); err != nil {
			errs = multierror.Append(errs, stageErr(r.stage, err))
		}
	}
	if errs == nil {
		return nil
	}
	for _, r := range reqs {
		if err := r.unmap(); err != nil {
			errs = multierror.Append(errs, stageErr(r.stage, err))
		}
	}
	if len(errs.Errors) == 1 {
		return errs.Errors[0]
	}
	return errs
}
