package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{"leaf.jpg", true},
		{"leaf.JPEG", true},
		{"dir/leaf.png", true},
		{"leaf.gif", false},
		{"leaf", false},
		{"leaf.jpg.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsSupported(tt.name))
		})
	}
}

func TestPreprocessShapeAndRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		img   image.Image
		first [3]float32
	}{
		{"black", solidImage(50, 30, color.Black), [3]float32{0, 0, 0}},
		{"white", solidImage(300, 300, color.White), [3]float32{1, 1, 1}},
		{"red", solidImage(10, 20, color.RGBA{R: 255, A: 255}), [3]float32{1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tensor := Preprocess(tt.img, 224)

			assert.Equal(t, []int{1, 224, 224, Channels}, tensor.Shape)
			require.Len(t, tensor.Data, 224*224*Channels)
			for i := range Channels {
				assert.InDelta(t, tt.first[i], tensor.Data[i], 1e-6)
			}
			for _, v := range tensor.Data {
				assert.GreaterOrEqual(t, v, float32(0))
				assert.LessOrEqual(t, v, float32(1))
			}
		})
	}
}

func TestPreprocessIgnoresAlpha(t *testing.T) {
	t.Parallel()

	img := solidImage(4, 4, color.NRGBA{G: 255, A: 64})
	tensor := Preprocess(img, 224)
	assert.InDelta(t, 1.0, tensor.Data[1], 0.02)
}

func TestDecodeFormats(t *testing.T) {
	t.Parallel()

	src := solidImage(8, 8, color.RGBA{G: 200, A: 255})

	var pngBuf, jpgBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	require.NoError(t, jpeg.Encode(&jpgBuf, src, nil))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "jpeg": jpgBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			img, err := DecodeBytes(data)
			require.NoError(t, err)
			assert.Equal(t, 8, img.Bounds().Dx())
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeBytes([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryImageDecode))
}

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "leaf.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solidImage(3, 5, color.White)))
	require.NoError(t, f.Close())

	img, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 5), img.Bounds())

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	ctx := ee.GetContext()
	assert.Equal(t, "jpg", ctx["file_extension"])
	assert.NotContains(t, ctx, "path")
}

// pngHeader returns a PNG signature and IHDR chunk declaring w×h pixels with
// no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeRejectsHugeCanvas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		w, h uint32
	}{
		{"wide", 100_000, 1_000},
		{"square", 20_000, 20_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeBytes(pngHeader(tt.w, tt.h))
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryImageDecode))
			assert.Contains(t, err.Error(), "too large")
		})
	}
}

func TestTransformHorizontalFlip(t *testing.T) {
	t.Parallel()

	img := solidImage(4, 2, color.Black)
	img.Set(0, 0, color.White)

	out := transform(img, 0, 1, 1, true)
	require.Equal(t, img.Bounds(), out.Bounds())

	r, _, _, _ := out.At(3, 0).RGBA()
	assert.InDelta(t, 0xffff, r, 0x200)
	r, _, _, _ = out.At(0, 0).RGBA()
	assert.InDelta(t, 0, r, 0x200)
}

func TestAugmenterKeepsBounds(t *testing.T) {
	t.Parallel()

	aug := Augmenter{Rotation: 25, Zoom: 0.2, HorizontalFlip: true}
	rng := rand.New(rand.NewPCG(1, 2))
	img := solidImage(64, 48, color.RGBA{G: 180, A: 255})

	for range 10 {
		out := aug.Apply(img, rng)
		assert.Equal(t, 64, out.Bounds().Dx())
		assert.Equal(t, 48, out.Bounds().Dy())
		// A solid image stays solid under any affine transform.
		_, g, _, _ := out.At(32, 24).RGBA()
		assert.InDelta(t, 180*0x101, g, 0x200)
	}
}

func TestAugmenterDisabledIsIdentity(t *testing.T) {
	t.Parallel()

	img := solidImage(2, 2, color.White)
	out := Augmenter{}.Apply(img, rand.New(rand.NewPCG(1, 1)))
	assert.Same(t, img, out)
}
