package grpc

// Diffuser is implemented by runtimes that serve an inpainting pipeline.
// Runtimes that cannot handle concurrent calls embed base.SingleThread.
type Diffuser interface {
	Locking() bool
	Lock()
	Unlock()
	Busy() bool

	Load(*ModelOptions) error
	SchedulerConfig() (*SchedulerState, error)
	SetScheduler(*SchedulerState) error
	ToDevice(device string) error
	Inpaint(*InpaintRequest) (*InpaintResult, error)
	Status() (StatusResponse, error)
}

func newReply(s string) *Reply {
	return &Reply{Message: s}
}
