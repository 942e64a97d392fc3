package classifier

import (
	"context"
	"image"
	"image/color"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone/backbonetest"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/head"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
)

const testFeatures = 6

var testClasses = []string{
	"Pepper__bell___Bacterial_spot",
	"Pepper__bell___healthy",
	"Tomato___Early_blight",
	"Tomato___Late_blight",
	"Tomato___healthy",
}

func newTestArtifact() *artifact.Artifact {
	return &artifact.Artifact{
		Metadata: artifact.Metadata{
			Version:   artifact.FormatVersion,
			Backbone:  artifact.BackboneRef{Runtime: "tflite", Path: "backbone.tflite", FeatureSize: testFeatures},
			InputSize: artifact.InputSize,
			Channels:  artifact.Channels,
			Head:      artifact.HeadSpec{Input: testFeatures, Hidden: 8, Output: len(testClasses), Activation: "relu"},
			Classes:   testClasses,
		},
		Head: head.New(testFeatures, 8, len(testClasses), rand.New(rand.NewPCG(11, 13))),
	}
}

func newTestClassifier(t *testing.T, opts ...Option) *Classifier {
	t.Helper()
	clf, err := New(backbonetest.New(artifact.InputSize, testFeatures), newTestArtifact(), opts...)
	require.NoError(t, err)
	return clf
}

func leafImage(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := range 48 {
		for x := range 64 {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPredictInvariants(t *testing.T) {
	t.Parallel()

	clf := newTestClassifier(t)
	images := map[string]image.Image{
		"green":  leafImage(color.RGBA{G: 200, A: 255}),
		"brown":  leafImage(color.RGBA{R: 120, G: 80, B: 20, A: 255}),
		"yellow": leafImage(color.RGBA{R: 230, G: 220, B: 40, A: 255}),
	}

	for name, img := range images {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p, err := clf.Predict(context.Background(), img)
			require.NoError(t, err)

			require.Len(t, p.Probabilities, len(testClasses))
			assert.GreaterOrEqual(t, p.Confidence, 0.0)
			assert.LessOrEqual(t, p.Confidence, 1.0)

			maxIdx := ArgMax(p.Probabilities)
			assert.Equal(t, maxIdx, p.Index)
			assert.Equal(t, testClasses[maxIdx], p.Label)
			assert.InDelta(t, p.Probabilities[maxIdx], p.Confidence, 0)

			require.Len(t, p.Top, DefaultTopK)
			assert.Equal(t, p.Label, p.Top[0].Label)
		})
	}
}

func TestPredictDeterministic(t *testing.T) {
	t.Parallel()

	clf := newTestClassifier(t)
	img := leafImage(color.RGBA{R: 30, G: 160, B: 60, A: 255})

	first, err := clf.Predict(context.Background(), img)
	require.NoError(t, err)
	for range 5 {
		again, err := clf.Predict(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, first.Label, again.Label)
		assert.Equal(t, first.Probabilities, again.Probabilities)
	}
}

func TestPredictAllZeroImage(t *testing.T) {
	t.Parallel()

	clf := newTestClassifier(t)
	tensor := &imaging.Tensor{
		Data:  make([]float32, 224*224*3),
		Shape: []int{1, 224, 224, 3},
	}

	p, err := clf.PredictTensor(tensor)
	require.NoError(t, err)
	require.Len(t, p.Probabilities, len(testClasses))

	var sum float64
	for _, v := range p.Probabilities {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestPredictConcurrent(t *testing.T) {
	t.Parallel()

	clf := newTestClassifier(t)
	img := leafImage(color.RGBA{G: 255, A: 255})
	want, err := clf.Predict(context.Background(), img)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			p, err := clf.Predict(context.Background(), img)
			assert.NoError(t, err)
			assert.Equal(t, want.Label, p.Label)
		})
	}
	wg.Wait()
}

func TestPredictCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClassifier(t).Predict(ctx, leafImage(color.White))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))
}

func TestPredictBytesRejectsGarbage(t *testing.T) {
	t.Parallel()

	rec := &recordingRecorder{}
	_, err := newTestClassifier(t, WithRecorder(rec)).PredictBytes(context.Background(), []byte("nope"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryImageDecode))
	assert.Equal(t, []string{"decode"}, rec.errors)
}

func TestNewRejectsMismatchedBackbone(t *testing.T) {
	t.Parallel()

	_, err := New(backbonetest.New(artifact.InputSize, testFeatures+1), newTestArtifact())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	_, err = New(backbonetest.New(192, testFeatures), newTestArtifact())
	require.Error(t, err)
}

type recordingRecorder struct {
	mu     sync.Mutex
	labels []string
	errors []string
}

func (r *recordingRecorder) RecordPrediction(label string, _ float64, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

func (r *recordingRecorder) RecordPredictionError(errorType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, errorType)
}

func TestRecorderAndTopK(t *testing.T) {
	t.Parallel()

	rec := &recordingRecorder{}
	clf := newTestClassifier(t, WithRecorder(rec), WithTopK(5))

	p, err := clf.Predict(context.Background(), leafImage(color.Black))
	require.NoError(t, err)
	assert.Len(t, p.Top, 5)
	assert.Equal(t, []string{p.Label}, rec.labels)
}

func TestLoaderMemoizes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plant_disease_model.zip")
	require.NoError(t, artifact.Save(path, newTestArtifact()))

	var opened []backbone.Options
	open := func(opts backbone.Options) (backbone.FeatureExtractor, error) {
		opened = append(opened, opts)
		return backbonetest.New(artifact.InputSize, testFeatures), nil
	}

	loader := NewLoader(path, backbone.Options{Threads: 2, UseXNNPACK: true}, open)
	assert.False(t, loader.Loaded())

	first, err := loader.Get()
	require.NoError(t, err)
	second, err := loader.Get()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, loader.Loaded())
	require.Len(t, opened, 1)
	assert.Equal(t, "tflite", opened[0].Runtime)
	assert.Equal(t, 2, opened[0].Threads)
	assert.True(t, opened[0].UseXNNPACK)
	assert.Equal(t, testClasses, first.Classes())
}

func TestLoaderRemembersFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	open := func(backbone.Options) (backbone.FeatureExtractor, error) {
		calls++
		return nil, nil
	}

	loader := NewLoader(filepath.Join(t.TempDir(), "missing.zip"), backbone.Options{}, open)
	_, err := loader.Get()
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = loader.Get()
	require.Error(t, err)
	assert.Zero(t, calls)
	assert.False(t, loader.Loaded())
}

func TestLoaderClosesBackboneOnMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.zip")
	require.NoError(t, artifact.Save(path, newTestArtifact()))

	fake := backbonetest.New(artifact.InputSize, testFeatures+2)
	loader := NewLoader(path, backbone.Options{}, func(backbone.Options) (backbone.FeatureExtractor, error) {
		return fake, nil
	})

	_, err := loader.Get()
	require.Error(t, err)
	assert.True(t, fake.Closed())
}

func TestLoaderClose(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.zip")
	require.NoError(t, artifact.Save(path, newTestArtifact()))

	fake := backbonetest.New(artifact.InputSize, testFeatures)
	loader := NewLoader(path, backbone.Options{}, func(backbone.Options) (backbone.FeatureExtractor, error) {
		return fake, nil
	})

	// nothing loaded yet
	require.NoError(t, loader.Close())
	assert.False(t, fake.Closed())

	_, err := loader.Get()
	require.NoError(t, err)
	require.NoError(t, loader.Close())
	assert.True(t, fake.Closed())
}
