package shader

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
)

const (
	// EntryPoint is the compute entry point every artifact must export.
	EntryPoint = "main"

	// StorageBinding is the binding index of the read-write storage buffer.
	StorageBinding = 0

	// SPIRVMagic is the first word of every SPIR-V module.
	SPIRVMagic uint32 = 0x07230203
)

//go:embed collatz.wgsl
var collatzWGSL string

// Kind identifies the encoding of a Source.
type Kind int

const (
	// KindWGSL is textual WGSL handed to the driver as is.
	KindWGSL Kind = iota
	// KindSPIRV is a precompiled SPIR-V module.
	KindSPIRV
)

func (k Kind) String() string {
	switch k {
	case KindWGSL:
		return "wgsl"
	case KindSPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source is a shader artifact ready to be uploaded as a shader module.
// Exactly one of WGSL or SPIRV is set.
type Source struct {
	Label string
	WGSL  string
	SPIRV []uint32
}

// Default returns the embedded Collatz shader.
func Default() Source {
	return Source{Label: "collatz.wgsl", WGSL: collatzWGSL}
}

// DefaultWGSL returns the embedded shader text.
func DefaultWGSL() string {
	return collatzWGSL
}

// Kind reports whether the source carries WGSL or SPIR-V.
func (s Source) Kind() Kind {
	if len(s.SPIRV) > 0 {
		return KindSPIRV
	}
	return KindWGSL
}

// Size returns the artifact size in bytes.
func (s Source) Size() int {
	if s.Kind() == KindSPIRV {
		return len(s.SPIRV) * 4
	}
	return len(s.WGSL)
}

// Load reads a shader artifact from path. Files starting with the SPIR-V
// magic number are decoded as SPIR-V; anything else is taken as WGSL text.
func Load(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("shader: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return Source{}, fmt.Errorf("%s: %w", path, ErrEmptySource)
	}
	if len(data) >= 4 && binary.LittleEndian.Uint32(data) == SPIRVMagic {
		words, err := DecodeSPIRV(data)
		if err != nil {
			return Source{}, fmt.Errorf("%s: %w", path, err)
		}
		return Source{Label: filepath.Base(path), SPIRV: words}, nil
	}
	return Source{Label: filepath.Base(path), WGSL: string(data)}, nil
}

// LoadSPIRV reads a precompiled SPIR-V binary from path.
func LoadSPIRV(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("shader: read %s: %w", path, err)
	}
	words, err := DecodeSPIRV(data)
	if err != nil {
		return Source{}, fmt.Errorf("%s: %w", path, err)
	}
	return Source{Label: filepath.Base(path), SPIRV: words}, nil
}

// DecodeSPIRV converts a little-endian SPIR-V byte stream into words and
// checks the module header.
func DecodeSPIRV(data []byte) ([]uint32, error) {
	if len(data) == 0 {
		return nil, ErrEmptySource
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: size %d is not a multiple of 4", ErrInvalidSPIRV, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if words[0] != SPIRVMagic {
		return nil, fmt.Errorf("%w: magic 0x%08x", ErrInvalidSPIRV, words[0])
	}
	return words, nil
}

// EncodeSPIRV is the inverse of DecodeSPIRV.
func EncodeSPIRV(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// Compile translates WGSL into SPIR-V words with naga.
func Compile(wgsl string) ([]uint32, error) {
	if wgsl == "" {
		return nil, ErrEmptySource
	}
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	return DecodeSPIRV(spirvBytes)
}

// Validate checks the artifact against the binding contract as far as its
// encoding allows. WGSL is parsed and lowered with naga and must export
// EntryPoint; SPIR-V is opaque and only its header is checked.
func Validate(src Source) error {
	switch src.Kind() {
	case KindSPIRV:
		if src.SPIRV[0] != SPIRVMagic {
			return fmt.Errorf("%w: magic 0x%08x", ErrInvalidSPIRV, src.SPIRV[0])
		}
		return nil
	default:
		if src.WGSL == "" {
			return ErrEmptySource
		}
		ast, err := naga.Parse(src.WGSL)
		if err != nil {
			return fmt.Errorf("shader: parse %s: %w", src.Label, err)
		}
		module, err := naga.Lower(ast)
		if err != nil {
			return fmt.Errorf("shader: lower %s: %w", src.Label, err)
		}
		for _, ep := range module.EntryPoints {
			if ep.Name == EntryPoint {
				return nil
			}
		}
		return fmt.Errorf("%w: %q in %s", ErrMissingEntryPoint, EntryPoint, src.Label)
	}
}
