package xsysinfo

import (
	"slices"

	"github.com/jaypipes/ghw"
	"github.com/klauspost/cpuid/v2"
)

// CPU describes the host processor the diffusion runtime shares.
type CPU struct {
	Brand         string
	PhysicalCores int
	// Features is empty when ghw cannot read the processor flags.
	Features []string
}

func DetectCPU() CPU {
	c := CPU{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: max(cpuid.CPU.PhysicalCores, 1),
	}

	info, err := ghw.CPU()
	if err != nil {
		return c
	}
	for _, proc := range info.Processors {
		for _, f := range proc.Capabilities {
			if !slices.Contains(c.Features, f) {
				c.Features = append(c.Features, f)
			}
		}
	}
	slices.Sort(c.Features)
	return c
}
