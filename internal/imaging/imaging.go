// Package imaging decodes leaf images and turns them into the normalized
// NHWC tensors the backbone expects.
package imaging

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nfnt/resize"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

// Channels is the number of color channels fed to the backbone.
const Channels = 3

// SupportedExtensions lists the accepted image file extensions.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png"}

// IsSupported reports whether the file name has a supported image extension.
func IsSupported(name string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(name)))
}

// Tensor is a float32 image batch in NHWC layout.
type Tensor struct {
	Data  []float32
	Shape []int // [batch, height, width, channels]
}

// MaxPixels caps the declared canvas of an image before it is decoded, so a
// small file cannot claim a huge allocation.
const MaxPixels = 40_000_000

// DecodeBytes decodes an in-memory upload.
func DecodeBytes(data []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	if format != "jpeg" && format != "png" {
		return nil, errors.Newf("unsupported image format %q", format).
			Component("imaging").
			Category(errors.CategoryImageDecode).
			Context("format", format).
			Build()
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, errors.Newf("image dimensions %dx%d too large, limit is %d pixels", cfg.Width, cfg.Height, MaxPixels).
			Component("imaging").
			Category(errors.CategoryImageDecode).
			Context("format", format).
			Context("width", cfg.Width).
			Context("height", cfg.Height).
			Build()
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(err)
	}
	return img, nil
}

func decodeError(err error) error {
	return errors.New(err).
		Component("imaging").
		Category(errors.CategoryImageDecode).
		Context("operation", "decode").
		Build()
}

// DecodeFile opens and decodes the image at path.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user on purpose
	if err != nil {
		return nil, errors.New(err).
			Component("imaging").
			Category(errors.CategoryFileIO).
			Context("operation", "open-image").
			FileContext(path, 0).
			Build()
	}
	return DecodeBytes(data)
}

// Preprocess resizes img to size×size, scales every channel to [0,1] and
// adds a batch dimension of one.
func Preprocess(img image.Image, size int) *Tensor {
	resized := resize.Resize(uint(size), uint(size), img, resize.Bilinear) //nolint:gosec // size is validated positive
	b := resized.Bounds()

	data := make([]float32, 0, size*size*Channels)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// NRGBA drops premultiplication so transparent PNG pixels keep their color.
			c, _ := color.NRGBAModel.Convert(resized.At(x, y)).(color.NRGBA)
			data = append(data,
				float32(c.R)/255.0,
				float32(c.G)/255.0,
				float32(c.B)/255.0,
			)
		}
	}

	return &Tensor{
		Data:  data,
		Shape: []int{1, size, size, Channels},
	}
}
