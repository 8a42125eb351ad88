package imageproc_test

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"

	. "github.com/go-skynet/inpaintd/pkg/imageproc"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBase64(img image.Image) string {
	data, err := EncodePNG(img)
	Expect(err).ToNot(HaveOccurred())
	return base64.StdEncoding.EncodeToString(data)
}

var _ = Describe("Image payloads", func() {
	Context("decoding", func() {
		It("decodes bare base64", func() {
			img, err := Decode(pngBase64(solid(4, 3, color.White)))
			Expect(err).ToNot(HaveOccurred())
			Expect(img.Bounds().Size()).To(Equal(image.Pt(4, 3)))
		})

		It("strips data URI prefixes", func() {
			img, err := Decode("data:image/png;base64," + pngBase64(solid(2, 2, color.Black)))
			Expect(err).ToNot(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(2))
		})

		It("accepts base64 without padding", func() {
			b64 := pngBase64(solid(5, 5, color.White))
			img, err := Decode(base64.RawStdEncoding.EncodeToString(mustDecode(b64)))
			Expect(err).ToNot(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(5))
		})

		It("fetches http payloads", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				_ = png.Encode(w, solid(7, 9, color.White))
			}))
			defer srv.Close()

			img, err := Decode(srv.URL + "/mask.png")
			Expect(err).ToNot(HaveOccurred())
			Expect(img.Bounds().Size()).To(Equal(image.Pt(7, 9)))
		})

		It("reports failed downloads as decode errors", func() {
			srv := httptest.NewServer(http.NotFoundHandler())
			defer srv.Close()

			_, err := Decode(srv.URL)
			Expect(err).To(MatchError(ErrDecode))
			var de *DecodeError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Source).To(Equal(SourceURL))
		})

		It("rejects malformed payloads", func() {
			_, err := Decode("not an image at all")
			Expect(err).To(MatchError(ErrDecode))

			_, err = Decode(base64.StdEncoding.EncodeToString([]byte("plain text")))
			Expect(err).To(MatchError(ErrDecode))
		})

		It("rejects canvases above the pixel limit before decoding them", func() {
			data, err := EncodePNG(solid(1, 1, color.White))
			Expect(err).ToNot(HaveOccurred())
			// IHDR width and height follow the signature, length and type.
			binary.BigEndian.PutUint32(data[16:20], 100000)
			binary.BigEndian.PutUint32(data[20:24], 100000)
			binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

			_, err = Decode(base64.StdEncoding.EncodeToString(data))
			Expect(err).To(MatchError(ErrDecode))
			Expect(err).To(MatchError(ErrTooLarge))
			var de *DecodeError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Source).To(Equal(SourceBase64))
		})

		It("drops alpha when converting to RGB", func() {
			rgb := ToRGB(solid(1, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 0x40}))
			Expect(rgb.RGBAAt(0, 0)).To(Equal(color.RGBA{R: 200, G: 100, B: 50, A: 0xff}))
		})
	})

	Context("resizing", func() {
		It("resizes a mask to the exact init image dimensions", func() {
			initImage := solid(512, 512, color.White)
			mask := solid(256, 256, color.Black)

			resized := ResizeTo(mask, initImage)
			Expect(resized.Bounds().Size()).To(Equal(initImage.Bounds().Size()))
		})

		It("ignores aspect ratio", func() {
			resized := Resize(solid(100, 10, color.White), 30, 60)
			Expect(resized.Bounds().Size()).To(Equal(image.Pt(30, 60)))
		})

		It("keeps binary masks binary", func() {
			mask := image.NewRGBA(image.Rect(0, 0, 2, 1))
			mask.Set(0, 0, color.Black)
			mask.Set(1, 0, color.White)
			resized := Resize(mask, 8, 8)
			for y := 0; y < 8; y++ {
				for x := 0; x < 8; x++ {
					c := resized.RGBAAt(x, y)
					Expect(c.R == 0 || c.R == 0xff).To(BeTrue())
				}
			}
		})
	})

	Context("encoding", func() {
		It("produces JPEG bytes behind standard base64", func() {
			text, raw, err := EncodeBase64JPEG(solid(16, 16, color.White))
			Expect(err).ToNot(HaveOccurred())

			decoded, err := base64.StdEncoding.DecodeString(text)
			Expect(err).ToNot(HaveOccurred())
			Expect(IsJPEG(decoded)).To(BeTrue())
			Expect(decoded).To(Equal(raw))
		})

		It("detects non JPEG data", func() {
			data, err := EncodePNG(solid(1, 1, color.White))
			Expect(err).ToNot(HaveOccurred())
			Expect(IsJPEG(data)).To(BeFalse())
			Expect(IsJPEG(nil)).To(BeFalse())
		})
	})
})

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	Expect(err).ToNot(HaveOccurred())
	return b
}
