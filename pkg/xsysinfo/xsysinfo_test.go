package xsysinfo_test

import (
	"slices"

	"github.com/go-skynet/inpaintd/pkg/xsysinfo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Device vendors", func() {
	DescribeTable("maps devices to GPU vendors",
		func(device, vendor string) {
			Expect(xsysinfo.DeviceVendor(device)).To(Equal(vendor))
		},
		Entry("cuda", "cuda", "nvidia"),
		Entry("indexed cuda", "cuda:1", "nvidia"),
		Entry("rocm", "rocm", "amd"),
		Entry("xpu", "XPU", "intel"),
		Entry("cpu", "cpu", ""),
		Entry("mps", "mps", ""),
	)

	It("accepts devices without a GPU vendor", func() {
		Expect(xsysinfo.CheckDevice("cpu")).To(Succeed())
	})
})

var _ = Describe("Host resources", func() {
	It("reports at least one core and sorted unique features", func() {
		cpu := xsysinfo.DetectCPU()
		Expect(cpu.PhysicalCores).To(BeNumerically(">=", 1))
		Expect(slices.IsSorted(cpu.Features)).To(BeTrue())
		Expect(slices.Compact(slices.Clone(cpu.Features))).To(HaveLen(len(cpu.Features)))
	})

	It("reports no usable VRAM without GPUs", func() {
		vram, err := xsysinfo.TotalAvailableVRAM()
		if err != nil {
			Skip("GPU information unavailable: " + err.Error())
		}
		if !xsysinfo.HasGPU("") {
			Expect(vram).To(BeZero())
		}
	})

	It("reports consistent memory figures", func() {
		ram := xsysinfo.GetSystemRAMInfo()
		Expect(ram.Used).To(BeNumerically("<=", ram.Total))
	})
})
