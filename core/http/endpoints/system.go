package endpoints

import (
	"net/http"
	"strings"

	"github.com/go-skynet/inpaintd/core/application"
	"github.com/go-skynet/inpaintd/core/schema"
	"github.com/go-skynet/inpaintd/pkg/grpc"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
	"github.com/go-skynet/inpaintd/pkg/xsysinfo"
	"github.com/labstack/echo/v4"
)

// SchedulersEndpoint lists the scheduler names accepted by /inference.
// @Success 200 {object} schema.SchedulersResponse "Response"
// @Router /schedulers [get]
func SchedulersEndpoint() echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := schema.SchedulersResponse{Default: scheduler.Default.String()}
		for _, k := range scheduler.Kinds() {
			resp.Schedulers = append(resp.Schedulers, k.String())
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// HealthEndpoint reports whether the diffusion runtime can take requests.
// @Success 200 {object} schema.HealthResponse "Response"
// @Router /healthz [get]
func HealthEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		resp := schema.HealthResponse{Model: app.Model().Name}
		if kind, ok := app.Model().Scheduler(); ok {
			resp.Scheduler = kind.String()
		}

		client := app.ModelLoader().Client()
		if client == nil {
			resp.Status = strings.ToLower(string(grpc.StateUninitialized))
			return c.JSON(http.StatusServiceUnavailable, resp)
		}

		status, err := client.Status(c.Request().Context())
		if err != nil {
			resp.Status = strings.ToLower(string(grpc.StateError))
			return c.JSON(http.StatusServiceUnavailable, resp)
		}

		resp.Status = strings.ToLower(string(status.State))
		if app.Model().Busy() || client.IsBusy() {
			resp.Status = strings.ToLower(string(grpc.StateBusy))
		}
		ram := xsysinfo.GetSystemRAMInfo()
		resp.Memory = map[string]uint64{
			"system_total":     ram.Total,
			"system_available": ram.Available,
		}
		if vram, err := xsysinfo.TotalAvailableVRAM(); err == nil && vram > 0 {
			resp.Memory["gpu_total"] = vram
		}
		if status.Memory != nil {
			resp.Memory["runtime_total"] = status.Memory.Total
			for k, v := range status.Memory.Breakdown {
				resp.Memory["runtime_"+k] = v
			}
		}

		code := http.StatusOK
		if status.State == grpc.StateError || status.State == grpc.StateUninitialized {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, resp)
	}
}
