package sysinfo

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	h, err := Describe()
	require.NoError(t, err)
	assert.Equal(t, runtime.GOOS, h.OS)
	t.Logf("host: %s", h)
}

func TestHostString(t *testing.T) {
	h := Host{
		Hostname:        "box",
		OS:              "linux",
		Platform:        "ubuntu",
		PlatformVersion: "24.04",
		KernelArch:      "x86_64",
	}
	assert.Equal(t, "box: linux ubuntu 24.04 (x86_64)", h.String())

	h.Memory = 16 << 30
	assert.Equal(t, "box: linux ubuntu 24.04 (x86_64), 16 GiB RAM", h.String())
}
