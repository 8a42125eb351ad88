package routes

import (
	"github.com/go-skynet/inpaintd/core/application"
	"github.com/go-skynet/inpaintd/core/http/endpoints"
	"github.com/labstack/echo/v4"
)

func RegisterInferenceRoutes(e *echo.Echo, app *application.Application) {
	inference := endpoints.InferenceEndpoint(app)
	e.POST("/", inference)
	e.POST("/inference", inference)

	e.GET("/schedulers", endpoints.SchedulersEndpoint())

	if store := app.ResultStore(); store != nil {
		e.GET("/results/:id", endpoints.ResultEndpoint(store))
	}
}

func HealthRoutes(e *echo.Echo, app *application.Application) {
	e.GET("/healthz", endpoints.HealthEndpoint(app))
	e.GET("/readyz", endpoints.HealthEndpoint(app))
}
