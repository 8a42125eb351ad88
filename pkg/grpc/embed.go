package grpc

import (
	"context"

	"google.golang.org/grpc"
)

var _ Backend = new(embedBackend)
var _ Backend = new(Client)

type embedBackend struct {
	s *server
}

func (e *embedBackend) IsBusy() bool {
	return e.s.diffuser.Busy()
}

func (e *embedBackend) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

func (e *embedBackend) LoadModel(ctx context.Context, in *ModelOptions, opts ...grpc.CallOption) (*Result, error) {
	return e.s.LoadModel(in)
}

func (e *embedBackend) SchedulerConfig(ctx context.Context, opts ...grpc.CallOption) (*SchedulerState, error) {
	return e.s.SchedulerConfig()
}

func (e *embedBackend) SetScheduler(ctx context.Context, in *SchedulerState, opts ...grpc.CallOption) (*Result, error) {
	return e.s.SetScheduler(in)
}

func (e *embedBackend) ToDevice(ctx context.Context, device string, opts ...grpc.CallOption) (*Result, error) {
	return e.s.ToDevice(&DeviceRequest{Device: device})
}

func (e *embedBackend) Inpaint(ctx context.Context, in *InpaintRequest, opts ...grpc.CallOption) (*InpaintResult, error) {
	return e.s.Inpaint(in)
}

func (e *embedBackend) Status(ctx context.Context) (*StatusResponse, error) {
	return e.s.Status()
}

func (e *embedBackend) Close() error {
	return nil
}
