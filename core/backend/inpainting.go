package backend

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/go-skynet/inpaintd/core/schema"
	"github.com/go-skynet/inpaintd/pkg/grpc"
	"github.com/go-skynet/inpaintd/pkg/imageproc"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
	"github.com/mudler/xlog"
)

const (
	MessageNoPrompt = "No prompt was provided"
	MessageNoMask   = "No mask was provided"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNoImages        = errors.New("pipeline returned no images")
)

// Output is the result of an inpainting request. JPEG is only set when an
// image was produced.
type Output struct {
	Response  *schema.InferenceResponse
	JPEG      []byte
	Scheduler scheduler.Kind
}

// Inference runs one request and returns the response mapping.
func Inference(ctx context.Context, m *Model, req *schema.InferenceRequest) (*schema.InferenceResponse, error) {
	out, err := Inpaint(ctx, m, req)
	if err != nil {
		return nil, err
	}
	return out.Response, nil
}

// Inpaint validates req, prepares the generation arguments and runs them
// against the model. Missing prompt or mask are reported in-band; every
// other problem is returned as an error.
func Inpaint(ctx context.Context, m *Model, req *schema.InferenceRequest) (*Output, error) {
	xlog.Debug("Inference request", "request", req.Redacted())

	if req.Prompt == "" {
		return &Output{Response: schema.MessageResponse(MessageNoPrompt)}, nil
	}
	if req.Mask == "" {
		return &Output{Response: schema.MessageResponse(MessageNoMask)}, nil
	}
	if req.InitImage == "" {
		return nil, fmt.Errorf("%w: mask was provided without init_image", ErrInvalidArgument)
	}

	args, kind, err := generationArgs(m, req)
	if err != nil {
		return nil, err
	}

	images, err := generate(ctx, m, kind, args)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	encoded, data, err := imageproc.EncodeBase64JPEG(images[0])
	if err != nil {
		return nil, fmt.Errorf("failed encoding result: %w", err)
	}

	return &Output{
		Response:  &schema.InferenceResponse{ImageBase64: encoded},
		JPEG:      data,
		Scheduler: kind,
	}, nil
}

func generationArgs(m *Model, req *schema.InferenceRequest) (*GenerationArgs, scheduler.Kind, error) {
	initImage, err := imageproc.Decode(req.InitImage)
	if err != nil {
		return nil, 0, fmt.Errorf("init_image: %w", err)
	}
	mask, err := imageproc.Decode(req.Mask)
	if err != nil {
		return nil, 0, fmt.Errorf("mask: %w", err)
	}

	kind, err := scheduler.Parse(req.Scheduler)
	if err != nil {
		return nil, 0, err
	}

	args := &GenerationArgs{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		GuidanceScale:  req.GuidanceScale,
		Steps:          req.Steps,
		Image:          initImage,
		MaskImage:      imageproc.ResizeTo(mask, initImage),
		Width:          req.Width,
		Height:         req.Height,
	}
	if req.HasSeed() {
		args.Generator = &grpc.Generator{Device: m.Device, Seed: *req.Seed}
	}
	if m.Autocast {
		args.Autocast = m.Device
	}
	return args, kind, nil
}

func generate(ctx context.Context, m *Model, kind scheduler.Kind, args *GenerationArgs) ([]image.Image, error) {
	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Generation is not interruptible; the lock is held until the runtime
	// has returned, whatever happens to the caller.
	ctx = context.WithoutCancel(ctx)

	p := m.Pipeline()
	if err := p.ToDevice(ctx, m.Device); err != nil {
		return nil, fmt.Errorf("failed moving pipeline to %s: %w", m.Device, err)
	}

	current, err := p.CurrentScheduler(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed reading scheduler config: %w", err)
	}
	if err := p.SetScheduler(ctx, kind, current.Config); err != nil {
		return nil, fmt.Errorf("failed setting scheduler %s: %w", kind, err)
	}
	m.attached.Store(int32(kind) + 1)
	xlog.Debug("Scheduler swapped", "from", current.Class, "to", kind.Class())

	return p.Inpaint(ctx, args)
}
