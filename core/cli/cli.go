package cli

import (
	cliContext "github.com/go-skynet/inpaintd/core/cli/context"
)

var CLI struct {
	cliContext.Context `embed:""`

	Run        RunCMD        `cmd:"" help:"Run inpaintd, this is the default command if no other command is specified. Run 'inpaintd run --help' for more information" default:"withargs"`
	Infer      InferCMD      `cmd:"" help:"Inpaint a single image from local files"`
	Schedulers SchedulersCMD `cmd:"" help:"List the supported schedulers"`
}
