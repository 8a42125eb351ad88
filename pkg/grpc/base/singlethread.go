package base

import (
	"sync"

	grpc "github.com/go-skynet/inpaintd/pkg/grpc"
)

// SingleThread are diffusers that do not support multiple requests.
// There will be only one request being served at the time, which is what a
// pipeline with a mutable scheduler and device needs.
type SingleThread struct {
	Base
	backendBusy sync.Mutex
}

// Locking returns true if the diffuser needs to lock resources
func (d *SingleThread) Locking() bool {
	return true
}

func (d *SingleThread) Lock() {
	d.backendBusy.Lock()
}

func (d *SingleThread) Unlock() {
	d.backendBusy.Unlock()
}

func (d *SingleThread) Busy() bool {
	r := d.backendBusy.TryLock()
	if r {
		d.backendBusy.Unlock()
	}
	return !r
}

func (d *SingleThread) Status() (grpc.StatusResponse, error) {
	mud := memoryUsage()

	state := grpc.StateReady
	if d.Busy() {
		state = grpc.StateBusy
	}

	return grpc.StatusResponse{
		State:  state,
		Memory: mud,
	}, nil
}
