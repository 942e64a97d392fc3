package trainer

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
)

var classColors = map[string]color.RGBA{
	"Potato___Early_blight": {R: 200, G: 40, B: 30, A: 255},
	"Tomato___healthy":      {R: 30, G: 190, B: 40, A: 255},
}

// writeImage writes a 16×16 PNG filled with c, nudged by shade so images
// of one class are not identical.
func writeImage(t *testing.T, path string, c color.RGBA, shade uint8) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	c.B += shade
	for y := range 16 {
		for x := range 16 {
			img.SetRGBA(x, y, c)
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// makeDataset creates root/<class>/img_N.png for every class in classColors.
func makeDataset(t *testing.T, root string, perClass int) string {
	t.Helper()
	for class, c := range classColors {
		for i := range perClass {
			writeImage(t, filepath.Join(root, class, "img_"+string(rune('a'+i))+".png"), c, uint8(i*3))
		}
	}
	return root
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		TrainDir:     makeDataset(t, filepath.Join(dir, "train"), 6),
		ValDir:       makeDataset(t, filepath.Join(dir, "val"), 2),
		BatchSize:    4,
		Epochs:       25,
		LearningRate: 0.05,
		HiddenUnits:  16,
		Dropout:      0.2,
		Seed:         7,
		Workers:      3,
		OutputPath:   filepath.Join(dir, "out", "model.zip"),
		Backbone:     artifact.BackboneRef{Runtime: "tflite", Path: "fake.tflite"},
	}
}
