package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// EncodeUint32s returns the native-endian bytes of v, ready for upload.
func EncodeUint32s(v []uint32) []byte {
	return wgpu.ToBytes(v)
}

// DecodeUint32s reads consecutive 4-byte native-endian unsigned integers.
// The result does not alias b.
func DecodeUint32s(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes for 4-byte elements", ErrMisalignedData, len(b))
	}
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.NativeEndian.Uint32(b[i*4:])
	}
	return out, nil
}

// DecodeUint64s reads consecutive 8-byte native-endian unsigned integers.
// The result does not alias b.
func DecodeUint64s(b []byte) ([]uint64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: %d bytes for 8-byte elements", ErrMisalignedData, len(b))
	}
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.NativeEndian.Uint64(b[i*8:])
	}
	return out, nil
}
