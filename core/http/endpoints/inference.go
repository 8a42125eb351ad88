package endpoints

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-skynet/inpaintd/core/application"
	"github.com/go-skynet/inpaintd/core/backend"
	"github.com/go-skynet/inpaintd/core/http/middleware"
	"github.com/go-skynet/inpaintd/core/schema"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
	"github.com/go-skynet/inpaintd/pkg/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mudler/xlog"
)

// HeaderResultID names the archived result of a request. Result ids are
// always generated here; client supplied request ids only correlate logs.
const HeaderResultID = "X-Result-ID"

// InferenceEndpoint inpaints the init image inside the mask.
// @Summary Inpaint an image
// @Param request body schema.InferenceRequest true "query params"
// @Success 200 {object} schema.InferenceResponse "Response"
// @Router /inference [post]
func InferenceEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := schema.NewInferenceRequest()
		if err := c.Bind(req); err != nil {
			return err
		}

		start := time.Now()
		out, err := backend.Inpaint(c.Request().Context(), app.Model(), req)
		observe(app, req, out, err, time.Since(start))
		if err != nil {
			return err
		}

		if out.JPEG != nil && app.ResultStore() != nil {
			id := uuid.NewString()
			c.Response().Header().Set(HeaderResultID, id)
			archive(app.ResultStore(), middleware.GetRequestID(c), id, out.JPEG)
		}

		return c.JSON(http.StatusOK, out.Response)
	}
}

// ResultEndpoint returns an archived result by the id sent in X-Result-ID.
// @Produce jpeg
// @Param id path string true "result id"
// @Router /results/{id} [get]
func ResultEndpoint(store storage.ResultStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return echo.ErrNotFound
		}
		data, err := store.Get(c.Request().Context(), storage.Key(id.String()))
		if errors.Is(err, storage.ErrNotFound) {
			return echo.ErrNotFound
		}
		if err != nil {
			return err
		}
		return c.Blob(http.StatusOK, "image/jpeg", data)
	}
}

func observe(app *application.Application, req *schema.InferenceRequest, out *backend.Output, err error, elapsed time.Duration) {
	m := app.Metrics()
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case out.Response.IsMessage():
		outcome = "message"
	}
	label := "invalid"
	if kind, perr := scheduler.Parse(req.Scheduler); perr == nil {
		label = kind.String()
	}
	m.ObserveInference(label, outcome, elapsed)
}

func archive(store storage.ResultStore, requestID, resultID string, jpeg []byte) {
	key := storage.Key(resultID)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Put(ctx, key, jpeg, "image/jpeg"); err != nil {
		xlog.Error("failed archiving result", "key", key, "request_id", requestID, "error", err)
		return
	}
	xlog.Debug("Result archived", "key", key, "request_id", requestID)
}
