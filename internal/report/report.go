// Package report writes invocation results for humans or for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/born-ml/hellocompute/internal/backend/webgpu"
)

// Printer writes results to W, as text lines or as one JSON object per result.
type Printer struct {
	W    io.Writer
	JSON bool
}

// Invocation is the JSON form of a result.
type Invocation struct {
	ID         string   `json:"id"`
	Adapter    string   `json:"adapter"`
	Defaulted  bool     `json:"defaulted,omitempty"`
	Input      []uint32 `json:"input"`
	Times      []uint32 `json:"times"`
	Statistics []uint64 `json:"statistics"`
	ElapsedMS  float64  `json:"elapsed_ms"`
}

// Defaulted announces that the built-in input is used.
func (p Printer) Defaulted(numbers []uint32) error {
	_, err := fmt.Fprintf(p.W, "No numbers were provided, defaulting to %v\n", numbers)
	return err
}

// Statistics prints the raw pipeline statistics.
func (p Printer) Statistics(stats []uint64) error {
	if stats == nil {
		_, err := fmt.Fprintln(p.W, "raw query data: unavailable")
		return err
	}
	_, err := fmt.Fprintf(p.W, "raw query data: %v\n", stats)
	return err
}

// Times prints the shader output.
func (p Printer) Times(output []uint32) error {
	_, err := fmt.Fprintf(p.W, "Times: %v\n", output)
	return err
}

// Result writes res in the configured format. In text mode only the
// statistics and output lines are written; callers print Defaulted before
// starting GPU work.
func (p Printer) Result(res *webgpu.Result, defaulted bool) error {
	if p.JSON {
		return json.NewEncoder(p.W).Encode(Invocation{
			ID:         res.InvocationID.String(),
			Adapter:    res.Adapter,
			Defaulted:  defaulted,
			Input:      res.Input,
			Times:      res.Output,
			Statistics: res.Statistics,
			ElapsedMS:  float64(res.Elapsed.Microseconds()) / 1000,
		})
	}

	if err := p.Statistics(res.Statistics); err != nil {
		return err
	}
	return p.Times(res.Output)
}
