package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-skynet/inpaintd/core/application"
	"github.com/go-skynet/inpaintd/core/config"
	. "github.com/go-skynet/inpaintd/core/http"
	"github.com/go-skynet/inpaintd/core/http/endpoints"
	"github.com/go-skynet/inpaintd/core/schema"
	"github.com/go-skynet/inpaintd/pkg/grpc"
	"github.com/go-skynet/inpaintd/pkg/grpc/base"
	"github.com/go-skynet/inpaintd/pkg/scheduler"
	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const runtimeAddress = "embedded://http-test"

type paintingDiffuser struct {
	base.SingleThread

	state   grpc.SchedulerState
	failure error
}

func (p *paintingDiffuser) Load(opts *grpc.ModelOptions) error {
	p.state = grpc.SchedulerState{Class: "PNDMScheduler", Config: scheduler.StableDiffusionConfig()}
	return nil
}

func (p *paintingDiffuser) SchedulerConfig() (*grpc.SchedulerState, error) {
	s := p.state
	return &s, nil
}

func (p *paintingDiffuser) SetScheduler(s *grpc.SchedulerState) error {
	p.state = *s
	return nil
}

func (p *paintingDiffuser) ToDevice(string) error {
	return nil
}

func (p *paintingDiffuser) Inpaint(in *grpc.InpaintRequest) (*grpc.InpaintResult, error) {
	if p.failure != nil {
		return nil, p.failure
	}
	img := image.NewRGBA(image.Rect(0, 0, in.Width, in.Height))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return &grpc.InpaintResult{Images: [][]byte{buf.Bytes()}}, nil
}

func pngPayload(w, h int) string {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

var _ = Describe("API", func() {
	var (
		diffuser   *paintingDiffuser
		app        *application.Application
		e          *echo.Echo
		archiveDir string
	)

	BeforeEach(func() {
		diffuser = &paintingDiffuser{}
		grpc.Provide(runtimeAddress, diffuser)
		archiveDir = filepath.Join(GinkgoT().TempDir(), "results")

		var err error
		app, err = application.New(
			config.WithBackendAddress(runtimeAddress),
			config.WithArchiveDir(archiveDir),
		)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(func() { _ = app.Shutdown(context.Background()) })

		e, err = API(app)
		Expect(err).ToNot(HaveOccurred())
	})

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var reader io.Reader
		switch b := body.(type) {
		case nil:
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			Expect(err).ToNot(HaveOccurred())
			reader = bytes.NewReader(data)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	Context("inference", func() {
		It("returns the inpainted image as base64 JPEG", func() {
			rec := do(http.MethodPost, "/inference", map[string]any{
				"prompt":     "a red bench in a park",
				"init_image": pngPayload(64, 64),
				"mask":       pngPayload(32, 32),
				"width":      128,
				"height":     96,
				"seed":       42,
				"scheduler":  "DDIM",
			})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp map[string]string
			decode(rec, &resp)
			Expect(resp).To(HaveLen(1))
			data, err := base64.StdEncoding.DecodeString(resp["image_base64"])
			Expect(err).ToNot(HaveOccurred())
			img, err := jpeg.Decode(bytes.NewReader(data))
			Expect(err).ToNot(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(128))
			Expect(img.Bounds().Dy()).To(Equal(96))

			Expect(diffuser.state.Class).To(Equal("DDIMScheduler"))
		})

		It("serves the root path too", func() {
			rec := do(http.MethodPost, "/", map[string]any{})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp schema.InferenceResponse
			decode(rec, &resp)
			Expect(resp.Message).To(Equal("No prompt was provided"))
			Expect(resp.ImageBase64).To(BeEmpty())
		})

		It("reports a missing mask in-band", func() {
			rec := do(http.MethodPost, "/inference", map[string]any{"prompt": "a cat"})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp map[string]string
			decode(rec, &resp)
			Expect(resp).To(Equal(map[string]string{"message": "No mask was provided"}))
		})

		It("archives results under a server generated id", func() {
			rec := do(http.MethodPost, "/inference", map[string]any{
				"prompt":     "a cat",
				"init_image": pngPayload(16, 16),
				"mask":       pngPayload(16, 16),
			})
			Expect(rec.Code).To(Equal(http.StatusOK))

			Expect(rec.Header().Get(echo.HeaderXRequestID)).ToNot(BeEmpty())
			id := rec.Header().Get(endpoints.HeaderResultID)
			Expect(id).ToNot(BeEmpty())
			Expect(filepath.Join(archiveDir, id+".jpg")).To(BeARegularFile())
		})

		It("serves archived results back by id", func() {
			rec := do(http.MethodPost, "/inference", map[string]any{
				"prompt":     "a cat",
				"init_image": pngPayload(16, 16),
				"mask":       pngPayload(16, 16),
			})
			Expect(rec.Code).To(Equal(http.StatusOK))
			id := rec.Header().Get(endpoints.HeaderResultID)

			got := do(http.MethodGet, "/results/"+id, nil)
			Expect(got.Code).To(Equal(http.StatusOK))
			Expect(got.Header().Get(echo.HeaderContentType)).To(Equal("image/jpeg"))
			onDisk, err := os.ReadFile(filepath.Join(archiveDir, id+".jpg"))
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Body.Bytes()).To(Equal(onDisk))

			Expect(do(http.MethodGet, "/results/00000000-0000-0000-0000-000000000000", nil).Code).To(Equal(http.StatusNotFound))
			Expect(do(http.MethodGet, "/results/..%2Fresults", nil).Code).To(Equal(http.StatusNotFound))
		})

		It("never archives under a client supplied request id", func() {
			send := func(requestID string) *httptest.ResponseRecorder {
				data, err := json.Marshal(map[string]any{
					"prompt":     "a cat",
					"init_image": pngPayload(16, 16),
					"mask":       pngPayload(16, 16),
				})
				Expect(err).ToNot(HaveOccurred())
				req := httptest.NewRequest(http.MethodPost, "/inference", bytes.NewReader(data))
				req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				req.Header.Set(echo.HeaderXRequestID, requestID)
				rec := httptest.NewRecorder()
				e.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusOK))
				return rec
			}

			first := send("../escape")
			second := send("../escape")
			Expect(first.Header().Get(endpoints.HeaderResultID)).ToNot(Equal(second.Header().Get(endpoints.HeaderResultID)))

			entries, err := os.ReadDir(archiveDir)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(filepath.Join(filepath.Dir(archiveDir), "escape.jpg")).ToNot(BeAnExistingFile())
		})

		It("does not archive in-band messages", func() {
			rec := do(http.MethodPost, "/inference", map[string]any{"prompt": "a cat"})
			Expect(rec.Code).To(Equal(http.StatusOK))

			entries, err := os.ReadDir(archiveDir)
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})

		DescribeTable("treats falsy prompt and mask values as missing",
			func(body string, message string) {
				rec := do(http.MethodPost, "/inference", body)
				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp map[string]string
				decode(rec, &resp)
				Expect(resp).To(Equal(map[string]string{"message": message}))
			},
			Entry("false prompt", `{"prompt": false}`, "No prompt was provided"),
			Entry("zero prompt", `{"prompt": 0}`, "No prompt was provided"),
			Entry("null prompt", `{"prompt": null}`, "No prompt was provided"),
			Entry("empty list prompt", `{"prompt": []}`, "No prompt was provided"),
			Entry("empty object prompt", `{"prompt": {}}`, "No prompt was provided"),
			Entry("false mask", `{"prompt": "x", "mask": false}`, "No mask was provided"),
			Entry("zero mask", `{"prompt": "x", "mask": 0.0, "init_image": false}`, "No mask was provided"),
		)

		It("keeps defaults for fields absent next to falsy ones", func() {
			req := schema.NewInferenceRequest()
			Expect(json.Unmarshal([]byte(`{"prompt": false, "steps": 5}`), req)).To(Succeed())
			Expect(req.Prompt).To(BeEmpty())
			Expect(req.Steps).To(Equal(5))
			Expect(req.Width).To(Equal(schema.DefaultWidth))
			Expect(req.Scheduler).To(Equal(schema.DefaultScheduler))
		})

		DescribeTable("maps request errors to 400",
			func(body func() any) {
				rec := do(http.MethodPost, "/inference", body())
				Expect(rec.Code).To(Equal(http.StatusBadRequest))

				var resp schema.ErrorResponse
				decode(rec, &resp)
				Expect(resp.Error).ToNot(BeNil())
				Expect(resp.Error.Type).To(Equal("invalid_request_error"))
				Expect(resp.Error.Message).ToNot(BeEmpty())
			},
			Entry("mask without init image", func() any {
				return map[string]any{"prompt": "a cat", "mask": "aGVsbG8="}
			}),
			Entry("unknown scheduler", func() any {
				return map[string]any{
					"prompt": "a cat", "mask": pngPayload(8, 8), "init_image": pngPayload(8, 8), "scheduler": "UniPC",
				}
			}),
			Entry("undecodable image", func() any {
				return map[string]any{"prompt": "a cat", "mask": "aGVsbG8=", "init_image": "!!!"}
			}),
			Entry("malformed JSON", func() any { return `{"prompt": ` }),
			Entry("truthy non-string prompt", func() any { return `{"prompt": true}` }),
		)

		It("maps runtime failures to 500", func() {
			diffuser.failure = errors.New("CUDA out of memory")
			rec := do(http.MethodPost, "/inference", map[string]any{
				"prompt":     "a cat",
				"init_image": pngPayload(16, 16),
				"mask":       pngPayload(16, 16),
			})
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))

			var resp schema.ErrorResponse
			decode(rec, &resp)
			Expect(resp.Error.Type).To(Equal("server_error"))
			Expect(resp.Error.Message).To(ContainSubstring("CUDA out of memory"))
		})
	})

	It("lists the schedulers", func() {
		rec := do(http.MethodGet, "/schedulers", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp schema.SchedulersResponse
		decode(rec, &resp)
		Expect(resp.Default).To(Equal("K_EULER_ANCESTRAL"))
		Expect(resp.Schedulers).To(ConsistOf(
			"PNDM", "KLMS", "DDIM", "K_EULER", "K_EULER_ANCESTRAL", "DPMSolverMultistep",
		))
	})

	It("reports runtime health", func() {
		rec := do(http.MethodGet, "/healthz", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp schema.HealthResponse
		decode(rec, &resp)
		Expect(resp.Status).To(Equal("ready"))
		Expect(resp.Model).To(Equal("runwayml/stable-diffusion-inpainting"))
		Expect(resp.Scheduler).To(BeEmpty())
	})

	It("reports busy while the runtime is occupied", func() {
		diffuser.Lock()
		rec := do(http.MethodGet, "/readyz", nil)
		diffuser.Unlock()
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp schema.HealthResponse
		decode(rec, &resp)
		Expect(resp.Status).To(Equal("busy"))
		Expect(resp.Memory).To(HaveKey("system_total"))
	})

	It("exposes prometheus metrics", func() {
		Expect(do(http.MethodGet, "/schedulers", nil).Code).To(Equal(http.StatusOK))

		rec := do(http.MethodGet, "/metrics", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("api_call"))
	})
})
