package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-skynet/inpaintd/pkg/grpc"
	process "github.com/mudler/go-processmanager"
	"github.com/mudler/xlog"
	"github.com/phayes/freeport"
)

// Load resolves the diffusion runtime, waits for it to become healthy and
// constructs the inpainting pipeline in it. It may only succeed once per
// loader; the returned client is the process-wide pipeline handle.
func (ml *ModelLoader) Load(opts ...Option) (grpc.Backend, error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.client != nil {
		return nil, ErrAlreadyLoaded
	}

	o := NewOptions(opts...)

	var proc *process.Process
	serverAddress := o.backendAddress
	switch {
	case o.backendBinary != "":
		port, err := freeport.GetFreePort()
		if err != nil {
			return nil, fmt.Errorf("failed allocating a port for the runtime: %w", err)
		}
		serverAddress = fmt.Sprintf("127.0.0.1:%d", port)

		proc, err = ml.startProcess(o.backendBinary, serverAddress, o.environment, o.backendArgs...)
		if err != nil {
			return nil, fmt.Errorf("failed starting runtime %s: %w", o.backendBinary, err)
		}
	case serverAddress == "":
		return nil, errors.New("no diffusion runtime configured: set a backend binary or address")
	}

	client := grpc.NewClient(serverAddress)
	if err := waitHealthy(o.context, client, o.healthRetries, o.healthInterval); err != nil {
		if proc != nil {
			xlog.Debug("GRPC Service NOT ready", "alive", proc.IsAlive())
			_ = proc.Stop()
		}
		return nil, err
	}

	options := *o.gRPCOptions
	xlog.Info("Loading inpainting pipeline", "model", options.Model, "pipeline", options.PipelineType, "dtype", options.DType, "address", serverAddress)

	res, err := client.LoadModel(o.context, &options)
	if err == nil && !res.Success {
		err = fmt.Errorf("could not load model: %s", res.Message)
	}
	if err != nil {
		_ = client.Close()
		if proc != nil {
			_ = proc.Stop()
		}
		return nil, fmt.Errorf("failed loading %s: %w", options.Model, err)
	}

	ml.client = client
	ml.process = proc
	ml.address = serverAddress
	ml.options = &options

	xlog.Info("Inpainting pipeline loaded", "model", options.Model)
	return client, nil
}

func waitHealthy(ctx context.Context, client grpc.Backend, retries int, interval time.Duration) error {
	if retries < 1 {
		retries = 1
	}
	var lastErr error
	for i := 0; i < retries; i++ {
		ok, err := client.HealthCheck(ctx)
		if ok {
			xlog.Debug("GRPC Service Ready")
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("grpc service not ready after %d attempts: %w", retries, lastErr)
}
