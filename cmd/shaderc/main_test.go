package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/hellocompute/internal/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnNagaLimitation(t *testing.T, err error) {
	t.Helper()
	if err != nil && (strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported")) {
		t.Skipf("naga limitation: %v", err)
	}
}

func TestCompileDefault(t *testing.T) {
	out := filepath.Join(t.TempDir(), "collatz.spv")
	var stdout bytes.Buffer

	cmd := newCmd(&stdout)
	cmd.SetArgs([]string{"--out", out})
	err := cmd.Execute()
	skipOnNagaLimitation(t, err)
	require.NoError(t, err)

	src, err := shader.LoadSPIRV(out)
	require.NoError(t, err)
	assert.Equal(t, shader.KindSPIRV, src.Kind())
	assert.Contains(t, stdout.String(), "collatz.wgsl -> ")
}

func TestCompileMissingOut(t *testing.T) {
	cmd := newCmd(&bytes.Buffer{})
	cmd.SetArgs(nil)
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestCompileMissingEntryPoint(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "renamed.wgsl")
	text := strings.Replace(shader.DefaultWGSL(), "fn main(", "fn entry(", 1)
	require.NoError(t, os.WriteFile(in, []byte(text), 0o600))
	out := filepath.Join(dir, "renamed.spv")

	cmd := newCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--in", in, "--out", out})
	err := cmd.Execute()
	skipOnNagaLimitation(t, err)
	assert.ErrorIs(t, err, shader.ErrMissingEntryPoint)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompileUnreadableInput(t *testing.T) {
	cmd := newCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--in", filepath.Join(t.TempDir(), "nope.wgsl"), "--out", filepath.Join(t.TempDir(), "x.spv")})
	err := cmd.Execute()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
