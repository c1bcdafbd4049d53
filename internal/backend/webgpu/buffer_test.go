package webgpu

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBuffer records Unmap calls and serves a fixed view.
type fakeBuffer struct {
	view     []byte
	unmaps   int
	unmapErr error
}

func (f *fakeBuffer) GetMappedRange(offset, size uint) []byte { return f.view[offset : offset+size] }

func (f *fakeBuffer) Unmap() error {
	f.unmaps++
	return f.unmapErr
}

func completed(stage string, buf *fakeBuffer, status wgpu.BufferMapAsyncStatus) *mapRequest {
	r := &mapRequest{
		label:  stage,
		stage:  stage,
		buffer: buf,
		size:   uint64(len(buf.view)),
		status: make(chan wgpu.BufferMapAsyncStatus, 1),
	}
	r.status <- status
	return r
}

func TestSettle_AllMapped(t *testing.T) {
	staging := &fakeBuffer{view: EncodeUint32s([]uint32{0, 1, 7, 2})}
	query := &fakeBuffer{view: make([]byte, 8)}
	reqs := []*mapRequest{
		completed(StageReadback, staging, wgpu.BufferMapAsyncStatusSuccess),
		completed(StageQueryRead, query, wgpu.BufferMapAsyncStatusSuccess),
	}

	require.NotPanics(t, func() {
		assert.NoError(t, settle(reqs...))
	})
	assert.Zero(t, staging.unmaps)
	assert.Zero(t, query.unmaps)

	var out []uint32
	err := reqs[0].withMappedRange(func(view []byte) error {
		var decodeErr error
		out, decodeErr = DecodeUint32s(view)
		return decodeErr
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 7, 2}, out)
	assert.Equal(t, 1, staging.unmaps)
}

func TestSettle_OneFailureUnmapsTheOther(t *testing.T) {
	staging := &fakeBuffer{view: make([]byte, 16)}
	query := &fakeBuffer{view: make([]byte, 8)}

	err := settle(
		completed(StageReadback, staging, wgpu.BufferMapAsyncStatusSuccess),
		completed(StageQueryRead, query, wgpu.BufferMapAsyncStatusValidationError),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMapFailed)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageQueryRead, se.Stage)

	assert.Equal(t, 1, staging.unmaps)
	assert.Zero(t, query.unmaps)
}

func TestSettle_BothFail(t *testing.T) {
	err := settle(
		completed(StageReadback, &fakeBuffer{}, wgpu.BufferMapAsyncStatusValidationError),
		completed(StageQueryRead, &fakeBuffer{}, wgpu.BufferMapAsyncStatusValidationError),
	)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Contains(t, err.Error(), "query readback: webgpu: buffer mapping failed: query readback:")
	assert.Contains(t, err.Error(), "readback: webgpu: buffer mapping failed: readback:")
}

func TestSettle_Pending(t *testing.T) {
	r := &mapRequest{label: "staging", stage: StageReadback, buffer: &fakeBuffer{}, status: make(chan wgpu.BufferMapAsyncStatus, 1)}
	err := settle(r)
	assert.ErrorIs(t, err, ErrMapFailed)
	assert.Contains(t, err.Error(), "still pending")
}

func TestWithMappedRange_UnmapError(t *testing.T) {
	unmapErr := errors.New("device lost")
	buf := &fakeBuffer{view: make([]byte, 4), unmapErr: unmapErr}
	r := completed(StageReadback, buf, wgpu.BufferMapAsyncStatusSuccess)
	require.NoError(t, r.result())

	err := r.withMappedRange(func([]byte) error { return nil })
	assert.ErrorIs(t, err, unmapErr)
	assert.ErrorIs(t, err, ErrMapFailed)
}

func TestWithMappedRange_FnErrorWins(t *testing.T) {
	buf := &fakeBuffer{view: make([]byte, 5), unmapErr: errors.New("ignored")}
	r := completed(StageReadback, buf, wgpu.BufferMapAsyncStatusSuccess)
	require.NoError(t, r.result())

	err := r.withMappedRange(func(view []byte) error {
		_, err := DecodeUint32s(view)
		return err
	})
	assert.ErrorIs(t, err, ErrMisalignedData)
	assert.Equal(t, 1, buf.unmaps)

	// A second unmap is a no-op.
	assert.NoError(t, r.unmap())
	assert.Equal(t, 1, buf.unmaps)
}
