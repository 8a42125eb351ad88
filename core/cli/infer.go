package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/go-skynet/inpaintd/core/application"
	"github.com/go-skynet/inpaintd/core/backend"
	cliContext "github.com/go-skynet/inpaintd/core/cli/context"
	"github.com/go-skynet/inpaintd/core/config"
	"github.com/go-skynet/inpaintd/core/schema"
	"github.com/mudler/xlog"
)

type InferCMD struct {
	PipelineFlags `embed:""`

	Prompt         string  `short:"p" required:"" help:"What to paint into the masked region"`
	NegativePrompt string  `help:"What to steer away from"`
	InitImage      string  `short:"i" required:"" type:"existingfile" help:"Image to inpaint"`
	Mask           string  `short:"k" required:"" type:"existingfile" help:"Mask image, white marks the region to repaint"`
	Width          int     `default:"512" help:"Output width"`
	Height         int     `default:"512" help:"Output height"`
	Steps          int     `default:"20" help:"Number of denoising steps"`
	GuidanceScale  float64 `default:"7" help:"Classifier free guidance scale"`
	Seed           *int64  `help:"Seed for reproducible output, 0 means random"`
	Scheduler      string  `default:"K_EULER_ANCESTRAL" help:"Sampling scheduler, see 'inpaintd schedulers'"`
	OutputFile     string  `short:"o" type:"path" default:"output.jpg" help:"The path to write the output JPEG"`
}

func (t *InferCMD) Run(ctx *cliContext.Context) error {
	initImage, err := readBase64(t.InitImage)
	if err != nil {
		return err
	}
	mask, err := readBase64(t.Mask)
	if err != nil {
		return err
	}

	opts, err := t.appOptions()
	if err != nil {
		return err
	}
	opts = append(opts, config.WithContext(context.Background()), config.DisableMetricsEndpoint)

	app, err := application.New(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Shutdown(context.Background()); err != nil {
			xlog.Error("error while stopping the diffusion runtime", "error", err)
		}
	}()

	req := schema.NewInferenceRequest()
	req.Prompt = t.Prompt
	req.NegativePrompt = t.NegativePrompt
	req.Width = t.Width
	req.Height = t.Height
	req.Steps = t.Steps
	req.GuidanceScale = t.GuidanceScale
	req.Seed = t.Seed
	req.Scheduler = t.Scheduler
	req.InitImage = initImage
	req.Mask = mask

	out, err := backend.Inpaint(context.Background(), app.Model(), req)
	if err != nil {
		return err
	}
	if out.Response.IsMessage() {
		fmt.Println(out.Response.Message)
		return nil
	}

	if err := os.WriteFile(t.OutputFile, out.JPEG, 0644); err != nil {
		return err
	}
	fmt.Printf("Generated file %q\n", t.OutputFile)
	return nil
}

func readBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
