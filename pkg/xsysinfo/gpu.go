package xsysinfo

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/gpu"
)

var (
	gpuCache     []*gpu.GraphicsCard
	gpuCacheOnce sync.Once
	gpuCacheErr  error
)

func GPUs() ([]*gpu.GraphicsCard, error) {
	gpuCacheOnce.Do(func() {
		gpu, err := ghw.GPU()
		if err != nil {
			gpuCacheErr = err
			return
		}
		gpuCache = gpu.GraphicsCards
	})

	return gpuCache, gpuCacheErr
}

func TotalAvailableVRAM() (uint64, error) {
	gpus, err := GPUs()
	if err != nil {
		return 0, err
	}

	var totalVRAM uint64
	for _, gpu := range gpus {
		if gpu != nil && gpu.Node != nil && gpu.Node.Memory != nil {
			if gpu.Node.Memory.TotalUsableBytes > 0 {
				totalVRAM += uint64(gpu.Node.Memory.TotalUsableBytes)
			}
		}
	}

	return totalVRAM, nil
}

func HasGPU(vendor string) bool {
	gpus, err := GPUs()
	if err != nil {
		return false
	}
	if vendor == "" {
		return len(gpus) > 0
	}
	for _, gpu := range gpus {
		if strings.Contains(strings.ToLower(gpu.String()), strings.ToLower(vendor)) {
			return true
		}
	}
	return false
}

// DeviceVendor returns the GPU vendor backing a torch style device name
// ("cuda", "cuda:1", "rocm", "xpu"). Devices that are not PCI GPUs, like
// "cpu" or "mps", have no vendor.
func DeviceVendor(device string) string {
	kind, _, _ := strings.Cut(strings.ToLower(device), ":")
	switch kind {
	case "cuda":
		return "nvidia"
	case "rocm", "hip":
		return "amd"
	case "xpu":
		return "intel"
	}
	return ""
}

// CheckDevice reports whether this host has a GPU for device.
func CheckDevice(device string) error {
	vendor := DeviceVendor(device)
	if vendor == "" || HasGPU(vendor) {
		return nil
	}
	return fmt.Errorf("no %s GPU found for device %q", vendor, device)
}
