// Package sysinfo describes the host the GPU adapters live on.
package sysinfo

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// Host is a short description of the machine.
type Host struct {
	Hostname        string
	OS              string
	Platform        string
	PlatformVersion string
	KernelArch      string
	Memory          uint64 // Total physical memory in bytes; 0 if unknown.
}

// Describe queries the operating system. Memory is best effort.
func Describe() (Host, error) {
	info, err := host.Info()
	if err != nil {
		return Host{}, fmt.Errorf("sysinfo: host info: %w", err)
	}
	h := Host{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelArch:      info.KernelArch,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.Memory = vm.Total
	}
	return h, nil
}

// String renders the host on one line.
func (h Host) String() string {
	s := fmt.Sprintf("%s: %s %s %s (%s)", h.Hostname, h.OS, h.Platform, h.PlatformVersion, h.KernelArch)
	if h.Memory > 0 {
		s += ", " + humanize.IBytes(h.Memory) + " RAM"
	}
	return s
}
