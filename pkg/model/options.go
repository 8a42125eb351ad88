package model

import (
	"context"
	"time"

	"github.com/go-skynet/inpaintd/pkg/grpc"
)

const (
	DefaultModel        = "runwayml/stable-diffusion-inpainting"
	DefaultPipelineType = "StableDiffusionInpaintPipeline"
	DefaultDType        = "float16"
)

type Options struct {
	backendBinary  string
	backendArgs    []string
	backendAddress string
	environment    []string
	context        context.Context

	gRPCOptions *grpc.ModelOptions

	healthRetries  int
	healthInterval time.Duration
}

type Option func(*Options)

// WithBackendBinary makes the loader start the diffusion runtime itself.
func WithBackendBinary(path string, args ...string) Option {
	return func(o *Options) {
		o.backendBinary = path
		o.backendArgs = args
	}
}

// WithBackendAddress connects to an already running diffusion runtime.
func WithBackendAddress(address string) Option {
	return func(o *Options) {
		o.backendAddress = address
	}
}

func WithEnvironment(env ...string) Option {
	return func(o *Options) {
		o.environment = append(o.environment, env...)
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.gRPCOptions.Model = model
	}
}

func WithPipelineType(pipeline string) Option {
	return func(o *Options) {
		o.gRPCOptions.PipelineType = pipeline
	}
}

func WithDType(dtype string) Option {
	return func(o *Options) {
		o.gRPCOptions.DType = dtype
	}
}

func WithSchedulerType(class string) Option {
	return func(o *Options) {
		o.gRPCOptions.SchedulerType = class
	}
}

func WithCUDA(cuda bool) Option {
	return func(o *Options) {
		o.gRPCOptions.CUDA = cuda
	}
}

func WithHealthCheck(retries int, interval time.Duration) Option {
	return func(o *Options) {
		o.healthRetries = retries
		o.healthInterval = interval
	}
}

func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.context = ctx
	}
}

func NewOptions(opts ...Option) *Options {
	o := &Options{
		gRPCOptions: &grpc.ModelOptions{
			Model:        DefaultModel,
			PipelineType: DefaultPipelineType,
			DType:        DefaultDType,
		},
		context:        context.Background(),
		healthRetries:  30,
		healthInterval: 1 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
