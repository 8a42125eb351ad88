package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-skynet/inpaintd/pkg/model"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDevice         = "cuda"
	DefaultStartupTimeout = 5 * time.Minute
)

// PipelineConfig describes which checkpoint to load and where the
// diffusion runtime runs.
type PipelineConfig struct {
	Model          string        `yaml:"model"`
	PipelineType   string        `yaml:"pipeline_type"`
	DType          string        `yaml:"dtype"`
	Device         string        `yaml:"device"`
	Autocast       bool          `yaml:"autocast"`
	Scheduler      string        `yaml:"scheduler"`
	BackendBinary  string        `yaml:"backend_binary"`
	BackendArgs    []string      `yaml:"backend_args"`
	BackendAddress string        `yaml:"backend_address"`
	StartupTimeout time.Duration `yaml:"startup_timeout"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Model:          model.DefaultModel,
		PipelineType:   model.DefaultPipelineType,
		DType:          model.DefaultDType,
		Device:         DefaultDevice,
		Autocast:       true,
		Scheduler:      scheduler.Default.String(),
		StartupTimeout: DefaultStartupTimeout,
	}
}

// LoadPipelineConfig reads a YAML pipeline file on top of the defaults.
func LoadPipelineConfig(file string) (PipelineConfig, error) {
	c := DefaultPipelineConfig()
	f, err := os.ReadFile(file)
	if err != nil {
		return c, fmt.Errorf("cannot read pipeline config %q: %w", file, err)
	}
	if err := yaml.Unmarshal(f, &c); err != nil {
		return c, fmt.Errorf("cannot unmarshal pipeline config %q: %w", file, err)
	}
	return c, c.Validate()
}

func (c PipelineConfig) Validate() error {
	if c.Model == "" {
		return errors.New("pipeline config: model is required")
	}
	if _, err := scheduler.Parse(c.Scheduler); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	if c.BackendBinary != "" && c.BackendAddress != "" {
		return errors.New("pipeline config: backend_binary and backend_address are mutually exclusive")
	}
	return nil
}

// DefaultScheduler is the scheduler attached when the runtime loads the
// pipeline.
func (c PipelineConfig) DefaultScheduler() scheduler.Kind {
	k, err := scheduler.Parse(c.Scheduler)
	if err != nil {
		return scheduler.Default
	}
	return k
}

// LoaderOptions translates the pipeline section into model loader options.
func (c PipelineConfig) LoaderOptions() []model.Option {
	opts := []model.Option{
		model.WithModel(c.Model),
		model.WithDType(c.DType),
		model.WithSchedulerType(c.DefaultScheduler().Class()),
		model.WithCUDA(c.Device == "cuda"),
	}
	if c.PipelineType != "" {
		opts = append(opts, model.WithPipelineType(c.PipelineType))
	}
	if c.BackendBinary != "" {
		opts = append(opts, model.WithBackendBinary(c.BackendBinary, c.BackendArgs...))
	}
	if c.BackendAddress != "" {
		opts = append(opts, model.WithBackendAddress(c.BackendAddress))
	}
	if c.StartupTimeout > 0 {
		opts = append(opts, model.WithHealthCheck(int(c.StartupTimeout/time.Second)+1, time.Second))
	}
	return opts
}
