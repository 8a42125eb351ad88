package grpc

import (
	"context"

	"google.golang.org/grpc"
)

var embeds = map[string]*embedBackend{}

// Provide registers an in-process diffuser under addr. NewClient returns it
// instead of dialing, which lets Go runtimes and tests skip the network.
func Provide(addr string, d Diffuser) {
	embeds[addr] = &embedBackend{s: &server{diffuser: d}}
}

func NewClient(address string) Backend {
	if bc, ok := embeds[address]; ok {
		return bc
	}
	return NewGrpcClient(address)
}

func NewGrpcClient(address string) *Client {
	return &Client{
		address: address,
	}
}

// Backend is the client side of a diffusion runtime.
type Backend interface {
	IsBusy() bool
	HealthCheck(ctx context.Context) (bool, error)
	LoadModel(ctx context.Context, in *ModelOptions, opts ...grpc.CallOption) (*Result, error)
	SchedulerConfig(ctx context.Context, opts ...grpc.CallOption) (*SchedulerState, error)
	SetScheduler(ctx context.Context, in *SchedulerState, opts ...grpc.CallOption) (*Result, error)
	ToDevice(ctx context.Context, device string, opts ...grpc.CallOption) (*Result, error)
	Inpaint(ctx context.Context, in *InpaintRequest, opts ...grpc.CallOption) (*InpaintResult, error)
	Status(ctx context.Context) (*StatusResponse, error)
	Close() error
}
