// Package main provides shaderc, which compiles WGSL compute shaders into
// SPIR-V modules accepted by hello-compute --shader.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/born-ml/hellocompute/internal/shader"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func main() {
	if err := newCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "shaderc: %v\n", err)
		os.Exit(1)
	}
}

func newCmd(stdout io.Writer) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:           "shaderc --out file.spv [--in file.wgsl]",
		Short:         "Compile a WGSL compute shader to SPIR-V",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			src := shader.Default()
			if in != "" {
				text, err := os.ReadFile(in)
				if err != nil {
					return fmt.Errorf("read %s: %w", in, err)
				}
				src = shader.Source{Label: in, WGSL: string(text)}
			}
			return compile(stdout, src, out)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "WGSL source `file` (default: built-in Collatz shader)")
	cmd.Flags().StringVar(&out, "out", "", "SPIR-V output `file`")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// compile validates src, translates it and writes the binary to path.
func compile(stdout io.Writer, src shader.Source, path string) error {
	if err := shader.Validate(src); err != nil {
		return err
	}
	words, err := shader.Compile(src.WGSL)
	if err != nil {
		return err
	}
	data := shader.EncodeSPIRV(words)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: shader binaries are not secret
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, err = fmt.Fprintf(stdout, "%s -> %s (%s)\n", src.Label, path, humanize.IBytes(uint64(len(data))))
	return err
}
