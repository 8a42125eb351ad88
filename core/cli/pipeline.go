package cli

import (
	"time"

	"github.com/go-skynet/inpaintd/core/config"
)

// PipelineFlags select the checkpoint and the diffusion runtime. Values
// given here take precedence over the pipeline config file.
type PipelineFlags struct {
	PipelineConfig string        `env:"INPAINTD_PIPELINE_CONFIG,PIPELINE_CONFIG" type:"path" help:"YAML file describing the pipeline and runtime" group:"pipeline"`
	Model          string        `env:"INPAINTD_MODEL,MODEL" help:"Pretrained inpainting checkpoint to load" group:"pipeline"`
	DType          string        `name:"dtype" env:"INPAINTD_DTYPE,DTYPE" help:"Precision of the loaded weights" group:"pipeline"`
	Device         string        `env:"INPAINTD_DEVICE,DEVICE" help:"Accelerator device the pipeline runs on" group:"pipeline"`
	NoAutocast     bool          `env:"INPAINTD_NO_AUTOCAST,NO_AUTOCAST" help:"Disable mixed precision autocast during generation" group:"pipeline"`
	BackendBinary  string        `env:"INPAINTD_BACKEND_BINARY,BACKEND_BINARY" type:"path" help:"Diffusion runtime executable to start" group:"runtime"`
	BackendArgs    []string      `env:"INPAINTD_BACKEND_ARGS,BACKEND_ARGS" help:"Extra arguments for the diffusion runtime" group:"runtime"`
	BackendAddress string        `env:"INPAINTD_BACKEND_ADDRESS,BACKEND_ADDRESS" help:"Address of an already running diffusion runtime" group:"runtime"`
	StartupTimeout time.Duration `env:"INPAINTD_STARTUP_TIMEOUT,STARTUP_TIMEOUT" help:"How long to wait for the diffusion runtime to become healthy" group:"runtime"`
}

func (p *PipelineFlags) appOptions() ([]config.AppOption, error) {
	var opts []config.AppOption
	if p.PipelineConfig != "" {
		pc, err := config.LoadPipelineConfig(p.PipelineConfig)
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.WithPipelineConfig(pc))
	}
	opts = append(opts,
		config.WithModel(p.Model),
		config.WithDType(p.DType),
		config.WithDevice(p.Device),
		config.WithBackendBinary(p.BackendBinary, p.BackendArgs...),
		config.WithBackendAddress(p.BackendAddress),
		config.WithStartupTimeout(p.StartupTimeout),
	)
	if p.NoAutocast {
		opts = append(opts, config.WithAutocast(false))
	}
	return opts, nil
}
