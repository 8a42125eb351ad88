package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mudler/xlog"
)

var (
	signalHandlers      []func()
	signalHandlersMutex sync.Mutex
	signalHandlersOnce  sync.Once

	exit = os.Exit
)

// RegisterGracefulTerminationHandler runs fn on SIGINT or SIGTERM. Handlers
// run in reverse registration order, so resources are released in the
// opposite order they were acquired.
func RegisterGracefulTerminationHandler(fn func()) {
	signalHandlersOnce.Do(func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-c
			xlog.Info("Received termination signal, shutting down", "signal", sig.String())
			terminate()
		}()
	})

	signalHandlersMutex.Lock()
	defer signalHandlersMutex.Unlock()
	signalHandlers = append(signalHandlers, fn)
}

func terminate() {
	runHandlers()
	exit(0)
}

func runHandlers() {
	signalHandlersMutex.Lock()
	defer signalHandlersMutex.Unlock()
	for i := len(signalHandlers) - 1; i >= 0; i-- {
		signalHandlers[i]()
	}
	signalHandlers = nil
}
