package application

import (
	"context"
	"fmt"

	"github.com/go-skynet/inpaintd/core/backend"
	"github.com/go-skynet/inpaintd/core/config"
	"github.com/go-skynet/inpaintd/internal"
	"github.com/go-skynet/inpaintd/metrics"
	"github.com/go-skynet/inpaintd/pkg/model"
	"github.com/go-skynet/inpaintd/pkg/storage"
	"github.com/go-skynet/inpaintd/pkg/xsysinfo"
	"github.com/mudler/xlog"
)

// New loads the inpainting pipeline exactly once and wires the services
// around it. A failure here leaves nothing to serve.
func New(opts ...config.AppOption) (*Application, error) {
	options := config.NewApplicationConfig(opts...)
	application := newApplication(options)

	xlog.Info("Starting inpaintd", "model", options.Pipeline.Model, "device", options.Pipeline.Device)
	xlog.Info("inpaintd version", "version", internal.PrintableVersion())

	if err := options.Pipeline.Validate(); err != nil {
		return nil, err
	}

	cpu := xsysinfo.DetectCPU()
	xlog.Debug("CPU", "brand", cpu.Brand, "cores", cpu.PhysicalCores, "features", len(cpu.Features))
	if gpus, err := xsysinfo.GPUs(); err == nil {
		xlog.Debug("GPU count", "count", len(gpus))
		for _, gpu := range gpus {
			xlog.Debug("GPU", "gpu", gpu.String())
		}
	}
	// A runtime we start shares this host, so its device must be here.
	if options.Pipeline.BackendBinary != "" {
		if err := xsysinfo.CheckDevice(options.Pipeline.Device); err != nil {
			xlog.Warn("Requested device may be unavailable", "error", err)
		}
	}

	loaderOpts := append(options.Pipeline.LoaderOptions(), model.WithContext(options.Context))
	client, err := application.modelLoader.Load(loaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed loading inpainting pipeline: %w", err)
	}
	if pid, err := application.modelLoader.PID(); err == nil {
		xlog.Info("Diffusion runtime started", "pid", pid, "address", application.modelLoader.Address())
	}

	application.model = backend.NewModel(
		options.Pipeline.Model,
		options.Pipeline.Device,
		options.Pipeline.Autocast,
		backend.NewRuntimePipeline(client),
	)

	if !options.DisableMetrics {
		m, err := metrics.SetupMetrics()
		if err != nil {
			_ = application.modelLoader.Stop()
			return nil, fmt.Errorf("failed setting up metrics: %w", err)
		}
		application.metrics = m
	}

	store, err := resultStore(options.Context, options)
	if err != nil {
		_ = application.Shutdown(context.Background())
		return nil, err
	}
	application.resultStore = store

	xlog.Info("Inpainting pipeline ready", "address", application.modelLoader.Address())
	return application, nil
}

func resultStore(ctx context.Context, options *config.ApplicationConfig) (storage.ResultStore, error) {
	switch {
	case options.ArchiveS3Bucket != "":
		xlog.Info("Archiving results to S3", "bucket", options.ArchiveS3Bucket, "endpoint", options.ArchiveS3Endpoint)
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:   options.ArchiveS3Bucket,
			Region:   options.ArchiveS3Region,
			Endpoint: options.ArchiveS3Endpoint,
			KeyID:    options.ArchiveS3KeyID,
			Secret:   options.ArchiveS3Secret,
		})
	case options.ArchiveDir != "":
		xlog.Info("Archiving results", "dir", options.ArchiveDir)
		return storage.NewLocalStore(options.ArchiveDir)
	}
	return nil, nil
}
