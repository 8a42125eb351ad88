package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/go-skynet/inpaintd/core/application"
	"github.com/go-skynet/inpaintd/core/backend"
	httpMiddleware "github.com/go-skynet/inpaintd/core/http/middleware"
	"github.com/go-skynet/inpaintd/core/http/routes"
	"github.com/go-skynet/inpaintd/core/schema"
	"github.com/go-skynet/inpaintd/metrics"
	"github.com/go-skynet/inpaintd/pkg/imageproc"
	"github.com/go-skynet/inpaintd/pkg/scheduler"

	"github.com/mudler/xlog"
)

func API(application *application.Application) (*echo.Echo, error) {
	e := echo.New()

	// Set body limit
	if application.ApplicationConfig().UploadLimitMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", application.ApplicationConfig().UploadLimitMB)))
	}

	e.HTTPErrorHandler = errorHandler

	// Hide banner
	e.HideBanner = true

	e.Use(httpMiddleware.RequestID())

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			err := next(c)
			xlog.Info("HTTP request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"request_id", httpMiddleware.GetRequestID(c))
			return err
		}
	})

	e.Use(middleware.Recover())

	if m := application.Metrics(); m != nil {
		e.Use(metrics.APIMiddleware(m))
		e.GET("/metrics", m.Handler())
	}

	routes.HealthRoutes(e, application)
	routes.RegisterInferenceRoutes(e, application)

	return e, nil
}

// errorHandler maps request errors to 400 and everything else to 500.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusCode(err)
	errType := "server_error"
	if code < http.StatusInternalServerError {
		errType = "invalid_request_error"
	}
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}

	if code >= http.StatusInternalServerError {
		xlog.Error("request failed", "error", err, "request_id", httpMiddleware.GetRequestID(c))
	}

	if err := c.JSON(code, schema.ErrorResponse{
		Error: &schema.APIError{Message: msg, Code: code, Type: errType},
	}); err != nil {
		xlog.Error("failed writing error response", "error", err)
	}
}

func statusCode(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, backend.ErrInvalidArgument),
		errors.Is(err, scheduler.ErrUnknownScheduler),
		errors.Is(err, imageproc.ErrDecode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
