package e2e_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"path/filepath"

	"github.com/go-skynet/inpaintd/core/http/endpoints"
	"github.com/go-skynet/inpaintd/core/schema"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func solid(w, h int, c color.Color) string {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// halfMask is white on the left half only.
func halfMask(w, h int) string {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if x < w/2 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func inference(body map[string]any) (*http.Response, map[string]any) {
	data, err := json.Marshal(body)
	Expect(err).ToNot(HaveOccurred())
	resp, err := http.Post(apiURL+"/inference", "application/json", bytes.NewReader(data))
	Expect(err).ToNot(HaveOccurred())
	defer resp.Body.Close()

	var out map[string]any
	Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
	return resp, out
}

func decodeJPEG(encoded any) image.Image {
	s, ok := encoded.(string)
	Expect(ok).To(BeTrue())
	data, err := base64.StdEncoding.DecodeString(s)
	Expect(err).ToNot(HaveOccurred())
	img, err := jpeg.Decode(bytes.NewReader(data))
	Expect(err).ToNot(HaveOccurred())
	return img
}

var _ = Describe("inpaintd against a diffusion runtime process", func() {
	request := func(seed int64) map[string]any {
		return map[string]any{
			"prompt":     "a wooden bench",
			"init_image": solid(64, 64, color.RGBA{B: 255, A: 255}),
			"mask":       halfMask(16, 16),
			"width":      64,
			"height":     64,
			"seed":       seed,
			"scheduler":  "K_EULER",
		}
	}

	It("repaints only the masked region", func() {
		resp, out := inference(request(7))
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		img := decodeJPEG(out["image_base64"])
		Expect(img.Bounds().Dx()).To(Equal(64))

		_, _, b, _ := img.At(60, 32).RGBA()
		Expect(b >> 8).To(BeNumerically(">", 200))
	})

	It("is reproducible for a fixed seed", func() {
		_, first := inference(request(1234))
		_, second := inference(request(1234))
		Expect(first["image_base64"]).To(Equal(second["image_base64"]))
	})

	It("keeps scheduler selection per request", func() {
		for _, name := range []string{"PNDM", "KLMS", "DDIM", "K_EULER", "K_EULER_ANCESTRAL", "DPMSolverMultistep"} {
			body := request(1)
			body["scheduler"] = name
			resp, out := inference(body)
			Expect(resp.StatusCode).To(Equal(http.StatusOK), name)
			Expect(out).To(HaveKey("image_base64"))
		}

		resp, err := http.Get(apiURL + "/healthz")
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()
		var health schema.HealthResponse
		Expect(json.NewDecoder(resp.Body).Decode(&health)).To(Succeed())
		Expect(health.Scheduler).To(Equal("DPMSolverMultistep"))
		Expect(health.Status).To(Equal("ready"))
	})

	It("answers soft validation messages in-band", func() {
		resp, out := inference(map[string]any{"prompt": ""})
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(out).To(Equal(map[string]any{"message": "No prompt was provided"}))
	})

	It("archives generated images", func() {
		resp, _ := inference(request(3))
		id := resp.Header.Get(endpoints.HeaderResultID)
		Expect(id).ToNot(BeEmpty())
		Expect(filepath.Join(archiveDir, id+".jpg")).To(BeARegularFile())
	})
})
