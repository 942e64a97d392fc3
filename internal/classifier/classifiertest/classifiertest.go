// Package classifiertest builds small artifacts with known behavior for
// tests of packages that sit on top of the classifier.
package classifiertest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone/backbonetest"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/head"
)

// Features is the width of the fake backbone output.
const Features = 6

var (
	// Red images classify as the first class.
	Red = color.RGBA{R: 200, G: 40, B: 30, A: 255}
	// Green images classify as the second class.
	Green = color.RGBA{R: 30, G: 190, B: 40, A: 255}
)

// ColorArtifact returns an artifact whose head picks redClass for reddish
// images and greenClass for greenish ones, with the fake backbone.
func ColorArtifact(redClass, greenClass string) *artifact.Artifact {
	// hidden unit 0 sees the red mean, unit 1 the green mean
	w1 := mat.NewDense(2, Features, []float64{
		1, 0, 0, 0, 0, 0,
		0, 1, 0, 0, 0, 0,
	})
	w2 := mat.NewDense(2, 2, []float64{
		10, -10,
		-10, 10,
	})
	return &artifact.Artifact{
		Metadata: artifact.Metadata{
			Version:   artifact.FormatVersion,
			Backbone:  artifact.BackboneRef{Runtime: "tflite", Path: "fake.tflite", FeatureSize: Features},
			InputSize: artifact.InputSize,
			Channels:  artifact.Channels,
			Head:      artifact.HeadSpec{Input: Features, Hidden: 2, Output: 2, Activation: "relu"},
			Classes:   []string{redClass, greenClass},
		},
		Head: &head.Head{
			W1: w1,
			B1: mat.NewVecDense(2, nil),
			W2: w2,
			B2: mat.NewVecDense(2, nil),
		},
	}
}

// WithExtraClasses appends classes that never win to a color artifact. Their
// head rows are zero, so they rank below the red and green classes.
func WithExtraClasses(a *artifact.Artifact, classes ...string) *artifact.Artifact {
	n := len(a.Metadata.Classes) + len(classes)
	_, hidden := a.Head.W2.Dims()
	w2 := mat.NewDense(n, hidden, nil)
	w2.Slice(0, len(a.Metadata.Classes), 0, hidden).(*mat.Dense).Copy(a.Head.W2)

	a.Head.W2 = w2
	a.Head.B2 = mat.NewVecDense(n, nil)
	a.Metadata.Classes = append(a.Metadata.Classes, classes...)
	a.Metadata.Head.Output = n
	return a
}

// SaveArtifact writes a to a temp directory and returns its path.
func SaveArtifact(t *testing.T, a *artifact.Artifact) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plant_disease_model.zip")
	require.NoError(t, artifact.Save(path, a))
	return path
}

// OpenFake is a classifier.OpenFunc that ignores the options and returns a
// fake backbone.
func OpenFake(backbone.Options) (backbone.FeatureExtractor, error) {
	return backbonetest.New(artifact.InputSize, Features), nil
}

// NewLoader saves a color artifact and returns a loader backed by the fake
// backbone.
func NewLoader(t *testing.T, redClass, greenClass string, opts ...classifier.Option) *classifier.Loader {
	t.Helper()
	path := SaveArtifact(t, ColorArtifact(redClass, greenClass))
	return classifier.NewLoader(path, backbone.Options{}, OpenFake, opts...)
}

func solid(c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.Set(x, y, c)
		}
	}
	return img
}

// EncodePNG returns a 16×16 PNG filled with c.
func EncodePNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(c)))
	return buf.Bytes()
}

// WritePNG writes a 16×16 PNG filled with c to path.
func WritePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, EncodePNG(t, c), 0o600))
}
