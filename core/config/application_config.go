package config

import (
	"context"
	"time"
)

type ApplicationConfig struct {
	Context       context.Context
	Address       string
	UploadLimitMB int

	// Pipeline holds the model and runtime settings, possibly read from a
	// YAML file and then overridden by flags.
	Pipeline PipelineConfig

	ArchiveDir        string
	ArchiveS3Bucket   string
	ArchiveS3Endpoint string
	ArchiveS3Region   string
	ArchiveS3KeyID    string
	ArchiveS3Secret   string

	DisableMetrics bool
}

type AppOption func(*ApplicationConfig)

func NewApplicationConfig(o ...AppOption) *ApplicationConfig {
	opt := &ApplicationConfig{
		Context:       context.Background(),
		Address:       ":5000",
		UploadLimitMB: 15,
		Pipeline:      DefaultPipelineConfig(),
	}
	for _, oo := range o {
		oo(opt)
	}
	return opt
}

func WithContext(ctx context.Context) AppOption {
	return func(o *ApplicationConfig) {
		o.Context = ctx
	}
}

func WithAddress(address string) AppOption {
	return func(o *ApplicationConfig) {
		o.Address = address
	}
}

func WithUploadLimitMB(limit int) AppOption {
	return func(o *ApplicationConfig) {
		o.UploadLimitMB = limit
	}
}

// WithPipelineConfig replaces the whole pipeline section, typically with
// one read by LoadPipelineConfig.
func WithPipelineConfig(p PipelineConfig) AppOption {
	return func(o *ApplicationConfig) {
		o.Pipeline = p
	}
}

func WithModel(model string) AppOption {
	return func(o *ApplicationConfig) {
		if model != "" {
			o.Pipeline.Model = model
		}
	}
}

func WithDType(dtype string) AppOption {
	return func(o *ApplicationConfig) {
		if dtype != "" {
			o.Pipeline.DType = dtype
		}
	}
}

func WithDevice(device string) AppOption {
	return func(o *ApplicationConfig) {
		if device != "" {
			o.Pipeline.Device = device
		}
	}
}

func WithAutocast(autocast bool) AppOption {
	return func(o *ApplicationConfig) {
		o.Pipeline.Autocast = autocast
	}
}

func WithScheduler(name string) AppOption {
	return func(o *ApplicationConfig) {
		if name != "" {
			o.Pipeline.Scheduler = name
		}
	}
}

func WithBackendBinary(path string, args ...string) AppOption {
	return func(o *ApplicationConfig) {
		if path != "" {
			o.Pipeline.BackendBinary = path
			o.Pipeline.BackendArgs = args
		}
	}
}

func WithBackendAddress(address string) AppOption {
	return func(o *ApplicationConfig) {
		if address != "" {
			o.Pipeline.BackendAddress = address
		}
	}
}

func WithStartupTimeout(t time.Duration) AppOption {
	return func(o *ApplicationConfig) {
		if t > 0 {
			o.Pipeline.StartupTimeout = t
		}
	}
}

func WithArchiveDir(dir string) AppOption {
	return func(o *ApplicationConfig) {
		o.ArchiveDir = dir
	}
}

func WithArchiveS3(bucket, endpoint, region string) AppOption {
	return func(o *ApplicationConfig) {
		o.ArchiveS3Bucket = bucket
		o.ArchiveS3Endpoint = endpoint
		o.ArchiveS3Region = region
	}
}

func WithArchiveS3Credentials(keyID, secret string) AppOption {
	return func(o *ApplicationConfig) {
		o.ArchiveS3KeyID = keyID
		o.ArchiveS3Secret = secret
	}
}

var DisableMetricsEndpoint AppOption = func(o *ApplicationConfig) {
	o.DisableMetrics = true
}
