package main

import (
	"bytes"
	"errors"
	"flag"
	"image"
	"image/color"
	"image/png"
	"math/rand"

	"github.com/go-skynet/inpaintd/pkg/grpc"
	"github.com/go-skynet/inpaintd/pkg/grpc/base"
	"github.com/go-skynet/inpaintd/pkg/imageproc"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
	"github.com/mudler/xlog"
)

var (
	addr = flag.String("addr", "localhost:50051", "the address to listen on")
)

// MockDiffuser paints the white part of the mask with a colour drawn from
// the generator seed and keeps the rest of the init image.
type MockDiffuser struct {
	base.SingleThread

	model  *grpc.ModelOptions
	state  grpc.SchedulerState
	device string
}

func (m *MockDiffuser) Load(opts *grpc.ModelOptions) error {
	xlog.Debug("Load called", "model", opts.Model, "dtype", opts.DType)
	if opts.Model == "" {
		return errors.New("no model given")
	}
	m.model = opts
	class := opts.SchedulerType
	if class == "" {
		class = scheduler.PNDM.Class()
	}
	m.state = grpc.SchedulerState{Class: class, Config: scheduler.StableDiffusionConfig()}
	return nil
}

func (m *MockDiffuser) SchedulerConfig() (*grpc.SchedulerState, error) {
	s := m.state
	return &s, nil
}

func (m *MockDiffuser) SetScheduler(s *grpc.SchedulerState) error {
	if _, ok := scheduler.FromClass(s.Class); !ok {
		return errors.New("unsupported scheduler class " + s.Class)
	}
	m.state = *s
	return nil
}

func (m *MockDiffuser) ToDevice(device string) error {
	m.device = device
	return nil
}

func (m *MockDiffuser) Inpaint(in *grpc.InpaintRequest) (*grpc.InpaintResult, error) {
	if m.model == nil {
		return nil, errors.New("model not loaded")
	}
	initImage, _, err := image.Decode(bytes.NewReader(in.Image))
	if err != nil {
		return nil, err
	}
	mask, _, err := image.Decode(bytes.NewReader(in.MaskImage))
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if in.Generator != nil {
		rng = rand.New(rand.NewSource(in.Generator.Seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	paint := color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}

	src := imageproc.ToRGB(initImage)
	b := src.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := mask.At(x, y).RGBA()
			if r > 0x7fff {
				out.SetRGBA(x, y, paint)
			} else {
				out.SetRGBA(x, y, src.RGBAAt(x, y))
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, imageproc.Resize(out, in.Width, in.Height)); err != nil {
		return nil, err
	}
	return &grpc.InpaintResult{Images: [][]byte{buf.Bytes()}}, nil
}

func main() {
	xlog.SetLogger(xlog.NewLogger(xlog.LogLevel("debug"), "text"))
	flag.Parse()

	if err := grpc.StartServer(*addr, &MockDiffuser{}); err != nil {
		panic(err)
	}
}
