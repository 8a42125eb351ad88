package xsysinfo

import (
	"github.com/mudler/memory"
)

// SystemRAMInfo contains system RAM usage information
type SystemRAMInfo struct {
	Total     uint64
	Used      uint64
	Available uint64
}

// GetSystemRAMInfo returns real-time system RAM usage
func GetSystemRAMInfo() SystemRAMInfo {
	total := memory.TotalMemory()
	available := memory.AvailableMemory()

	var used uint64
	if total > available {
		used = total - available
	}
	return SystemRAMInfo{
		Total:     total,
		Used:      used,
		Available: available,
	}
}
