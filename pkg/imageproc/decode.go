package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mudler/xlog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxPixels bounds the canvas a payload may declare.
const MaxPixels = 4096 * 4096

var (
	ErrDecode   = errors.New("cannot decode image payload")
	ErrTooLarge = errors.New("image dimensions too large")
)

// DecodeError reports a payload that could not be resolved or decoded.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrDecode.Error(), e.Source, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

const (
	SourceURL     = "url"
	SourceDataURI = "data-uri"
	SourceBase64  = "base64"
)

var downloadClient = http.Client{
	Timeout: 30 * time.Second,
}

var dataURIPattern = regexp.MustCompile(`^data:([^;]+);base64,`)

// PayloadBytes resolves an image payload to raw bytes. A payload is either an
// http(s) URL, a base64 data URI or a bare base64 string.
func PayloadBytes(payload string) ([]byte, string, error) {
	if strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://") {
		resp, err := downloadClient.Get(payload)
		if err != nil {
			return nil, SourceURL, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, SourceURL, fmt.Errorf("unexpected status fetching image: %s", resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		return data, SourceURL, err
	}

	source := SourceBase64
	if match := dataURIPattern.FindString(payload); match != "" {
		xlog.Debug("Found data URI prefix", "prefix", match)
		payload = strings.TrimPrefix(payload, match)
		source = SourceDataURI
	}

	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some clients strip the padding
		if raw, rerr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rerr == nil {
			return raw, source, nil
		}
		return nil, source, err
	}
	return data, source, nil
}

// Decode resolves the payload and decodes it as an RGB image. Alpha is
// dropped, not composited.
func Decode(payload string) (*image.RGBA, error) {
	data, source, err := PayloadBytes(payload)
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, &DecodeError{Source: source, Err: fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	xlog.Debug("Decoded image payload", "source", source, "format", format, "size", img.Bounds().Size())
	return ToRGB(img), nil
}

// ToRGB copies img into an opaque RGBA image anchored at the origin.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}
