package cli

import (
	"fmt"

	cliContext "github.com/go-skynet/inpaintd/core/cli/context"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
)

type SchedulersCMD struct{}

func (s *SchedulersCMD) Run(ctx *cliContext.Context) error {
	for _, k := range scheduler.Kinds() {
		suffix := ""
		if k == scheduler.Default {
			suffix = " (default)"
		}
		fmt.Printf("%s\t%s%s\n", k, k.Class(), suffix)
	}
	return nil
}
