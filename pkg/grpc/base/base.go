package base

// This is a wrapper to satisfy the Diffuser interface.
// It is meant to be embedded by runtimes written in Go (the mock runtime,
// tests) that only implement part of the pipeline surface.
import (
	"fmt"
	"os"

	grpc "github.com/go-skynet/inpaintd/pkg/grpc"
	gopsutil "github.com/shirou/gopsutil/v3/process"
)

// Base is a base class for all diffusers to implement
// Note: runtimes that do not support concurrent requests
// should use SingleThread instead
type Base struct {
}

func (d *Base) Locking() bool {
	return false
}

func (d *Base) Lock() {
	panic("not implemented")
}

func (d *Base) Unlock() {
	panic("not implemented")
}

func (d *Base) Busy() bool {
	return false
}

func (d *Base) Load(opts *grpc.ModelOptions) error {
	return fmt.Errorf("unimplemented")
}

func (d *Base) SchedulerConfig() (*grpc.SchedulerState, error) {
	return nil, fmt.Errorf("unimplemented")
}

func (d *Base) SetScheduler(*grpc.SchedulerState) error {
	return fmt.Errorf("unimplemented")
}

func (d *Base) ToDevice(string) error {
	return fmt.Errorf("unimplemented")
}

func (d *Base) Inpaint(*grpc.InpaintRequest) (*grpc.InpaintResult, error) {
	return nil, fmt.Errorf("unimplemented")
}

func (d *Base) Status() (grpc.StatusResponse, error) {
	return grpc.StatusResponse{
		State:  grpc.StateReady,
		Memory: memoryUsage(),
	}, nil
}

func memoryUsage() *grpc.MemoryUsageData {
	mud := grpc.MemoryUsageData{
		Breakdown: make(map[string]uint64),
	}

	pid := int32(os.Getpid())

	backendProcess, err := gopsutil.NewProcess(pid)

	if err == nil {
		memInfo, err := backendProcess.MemoryInfo()
		if err == nil {
			mud.Total = memInfo.VMS
			mud.Breakdown["gopsutil-RSS"] = memInfo.RSS
		}
	}
	return &mud
}
