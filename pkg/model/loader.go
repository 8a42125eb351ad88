package model

import (
	"errors"
	"sync"

	"github.com/go-skynet/inpaintd/pkg/grpc"
	process "github.com/mudler/go-processmanager"
)

var ErrAlreadyLoaded = errors.New("model already loaded")

// ModelLoader owns the connection to the diffusion runtime and, when it
// started one, the runtime process. The pipeline it loads lives for as long
// as the process does.
type ModelLoader struct {
	mu      sync.Mutex
	client  grpc.Backend
	process *process.Process
	address string
	options *grpc.ModelOptions
}

func NewModelLoader() *ModelLoader {
	return &ModelLoader{}
}

// Client returns the runtime client, or nil before Load.
func (ml *ModelLoader) Client() grpc.Backend {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.client
}

func (ml *ModelLoader) Address() string {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.address
}

// LoadedModel returns the options the pipeline was loaded with.
func (ml *ModelLoader) LoadedModel() *grpc.ModelOptions {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.options
}
