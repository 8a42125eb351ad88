package backend

import (
	"sync"
	"sync/atomic"

	"github.com/go-skynet/inpaintd/pkg/scheduler"
)

// Model owns the process-wide pipeline. Device placement, scheduler swaps
// and generation only happen while the model is locked, so one request's
// scheduler can never apply to another request's denoising loop.
type Model struct {
	Name     string
	Device   string
	Autocast bool

	pipeline Pipeline
	busy     sync.Mutex
	// attached holds the last scheduler kind set on the pipeline, plus one.
	attached atomic.Int32
}

func NewModel(name, device string, autocast bool, p Pipeline) *Model {
	return &Model{
		Name:     name,
		Device:   device,
		Autocast: autocast,
		pipeline: p,
	}
}

func (m *Model) Pipeline() Pipeline {
	return m.pipeline
}

func (m *Model) Lock() {
	m.busy.Lock()
}

func (m *Model) Unlock() {
	m.busy.Unlock()
}

// Busy reports whether a request currently holds the model.
func (m *Model) Busy() bool {
	if m.busy.TryLock() {
		m.busy.Unlock()
		return false
	}
	return true
}

// Scheduler returns the scheduler attached by the last request, if any.
func (m *Model) Scheduler() (scheduler.Kind, bool) {
	v := m.attached.Load()
	if v == 0 {
		return 0, false
	}
	return scheduler.Kind(v - 1), true
}
