package application

import (
	"context"
	"errors"

	"github.com/go-skynet/inpaintd/core/backend"
	"github.com/go-skynet/inpaintd/core/config"
	"github.com/go-skynet/inpaintd/metrics"
	"github.com/go-skynet/inpaintd/pkg/model"
	"github.com/go-skynet/inpaintd/pkg/storage"
)

type Application struct {
	modelLoader       *model.ModelLoader
	applicationConfig *config.ApplicationConfig
	model             *backend.Model
	metrics           *metrics.Metrics
	resultStore       storage.ResultStore
}

func newApplication(appConfig *config.ApplicationConfig) *Application {
	return &Application{
		modelLoader:       model.NewModelLoader(),
		applicationConfig: appConfig,
	}
}

func (a *Application) ModelLoader() *model.ModelLoader {
	return a.modelLoader
}

func (a *Application) ApplicationConfig() *config.ApplicationConfig {
	return a.applicationConfig
}

// Model is the single loaded inpainting pipeline.
func (a *Application) Model() *backend.Model {
	return a.model
}

// Metrics is nil when metrics are disabled.
func (a *Application) Metrics() *metrics.Metrics {
	return a.metrics
}

// ResultStore is nil when no archive is configured.
func (a *Application) ResultStore() storage.ResultStore {
	return a.resultStore
}

// Shutdown stops the diffusion runtime and flushes metrics.
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.modelLoader.Stop(); err != nil {
		errs = append(errs, err)
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
