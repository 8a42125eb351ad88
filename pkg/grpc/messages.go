package grpc

import (
	"github.com/go-skynet/inpaintd/pkg/scheduler"
)

// Messages exchanged with the diffusion runtime. They travel as
// google.protobuf.Struct values, so field names are the JSON names below.

type HealthMessage struct{}

type Reply struct {
	Message string `json:"message"`
}

// ModelOptions describes the pipeline the runtime should construct.
type ModelOptions struct {
	Model        string `json:"model"`
	PipelineType string `json:"pipeline_type"`
	DType        string `json:"dtype"`
	// SchedulerType optionally replaces the checkpoint's scheduler at load.
	SchedulerType string `json:"scheduler_type,omitempty"`
	CUDA          bool   `json:"cuda"`
}

type Result struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// SchedulerState is the scheduler attached to the pipeline: the sampler
// class and the configuration it was built from.
type SchedulerState struct {
	Class  string           `json:"class"`
	Config scheduler.Config `json:"config"`
}

type DeviceRequest struct {
	Device string `json:"device"`
}

// Generator seeds a device-bound random generator. The seed is carried as a
// decimal string because Struct numbers are doubles.
type Generator struct {
	Device string `json:"device"`
	Seed   int64  `json:"seed,string"`
}

type InpaintRequest struct {
	Prompt         string     `json:"prompt"`
	NegativePrompt string     `json:"negative_prompt,omitempty"`
	GuidanceScale  float64    `json:"guidance_scale"`
	Steps          int        `json:"num_inference_steps"`
	Generator      *Generator `json:"generator,omitempty"`
	// Image and MaskImage are PNG encoded.
	Image     []byte `json:"image"`
	MaskImage []byte `json:"mask_image"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	// Autocast names the device whose reduced precision context wraps the call.
	Autocast string `json:"autocast,omitempty"`
}

// InpaintResult holds the PNG encoded images the pipeline produced.
type InpaintResult struct {
	Images [][]byte `json:"images"`
}

type StatusState string

const (
	StateUninitialized StatusState = "UNINITIALIZED"
	StateReady         StatusState = "READY"
	StateBusy          StatusState = "BUSY"
	StateError         StatusState = "ERROR"
)

type MemoryUsageData struct {
	Total     uint64            `json:"total"`
	Breakdown map[string]uint64 `json:"breakdown,omitempty"`
}

type StatusResponse struct {
	State  StatusState      `json:"state"`
	Memory *MemoryUsageData `json:"memory,omitempty"`
}
