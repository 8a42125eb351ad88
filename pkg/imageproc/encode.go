package imageproc

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const JPEGQuality = 75

// Resize scales img to exactly width x height with nearest neighbour
// sampling. The aspect ratio is not preserved.
func Resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ResizeTo scales img to the pixel dimensions of ref.
func ResizeTo(img image.Image, ref image.Image) *image.RGBA {
	size := ref.Bounds().Size()
	return Resize(img, size.X, size.Y)
}

func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeBase64JPEG encodes img as JPEG and returns both the standard base64
// text and the underlying JPEG bytes.
func EncodeBase64JPEG(img image.Image) (string, []byte, error) {
	data, err := EncodeJPEG(img)
	if err != nil {
		return "", nil, err
	}
	return base64.StdEncoding.EncodeToString(data), data, nil
}

// IsJPEG reports whether data starts with the JPEG SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}
