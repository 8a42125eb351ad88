package backend

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/go-skynet/inpaintd/pkg/grpc"
	"github.com/go-skynet/inpaintd/pkg/imageproc"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
)

// GenerationArgs is one inpainting call against the pipeline.
type GenerationArgs struct {
	Prompt         string
	NegativePrompt string
	GuidanceScale  float64
	Steps          int
	// Generator is nil when the call should use ambient randomness.
	Generator *grpc.Generator
	Image     image.Image
	MaskImage image.Image
	Width     int
	Height    int
	Autocast  string
}

// Pipeline is the loaded inpainting pipeline. Implementations are not safe
// for concurrent use; Model serializes access.
type Pipeline interface {
	CurrentScheduler(ctx context.Context) (*grpc.SchedulerState, error)
	SetScheduler(ctx context.Context, kind scheduler.Kind, cfg scheduler.Config) error
	ToDevice(ctx context.Context, device string) error
	Inpaint(ctx context.Context, args *GenerationArgs) ([]image.Image, error)
}

// RuntimePipeline drives a pipeline living in a diffusion runtime.
type RuntimePipeline struct {
	client grpc.Backend
}

func NewRuntimePipeline(client grpc.Backend) *RuntimePipeline {
	return &RuntimePipeline{client: client}
}

func (p *RuntimePipeline) CurrentScheduler(ctx context.Context) (*grpc.SchedulerState, error) {
	return p.client.SchedulerConfig(ctx)
}

func (p *RuntimePipeline) SetScheduler(ctx context.Context, kind scheduler.Kind, cfg scheduler.Config) error {
	res, err := p.client.SetScheduler(ctx, &grpc.SchedulerState{Class: kind.Class(), Config: cfg})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("could not set scheduler %s: %s", kind, res.Message)
	}
	return nil
}

func (p *RuntimePipeline) ToDevice(ctx context.Context, device string) error {
	res, err := p.client.ToDevice(ctx, device)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("could not move pipeline to %s: %s", device, res.Message)
	}
	return nil
}

func (p *RuntimePipeline) Inpaint(ctx context.Context, args *GenerationArgs) ([]image.Image, error) {
	img, err := imageproc.EncodePNG(args.Image)
	if err != nil {
		return nil, err
	}
	mask, err := imageproc.EncodePNG(args.MaskImage)
	if err != nil {
		return nil, err
	}

	res, err := p.client.Inpaint(ctx, &grpc.InpaintRequest{
		Prompt:         args.Prompt,
		NegativePrompt: args.NegativePrompt,
		GuidanceScale:  args.GuidanceScale,
		Steps:          args.Steps,
		Generator:      args.Generator,
		Image:          img,
		MaskImage:      mask,
		Width:          args.Width,
		Height:         args.Height,
		Autocast:       args.Autocast,
	})
	if err != nil {
		return nil, err
	}

	images := make([]image.Image, 0, len(res.Images))
	for i, data := range res.Images {
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("runtime returned an undecodable image #%d: %w", i, err)
		}
		images = append(images, decoded)
	}
	return images, nil
}
