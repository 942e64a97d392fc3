// Package classifier implements the shared inference recipe: resize to the
// backbone input, scale to [0,1], add a batch dimension, run backbone and
// head, then softmax and arg-max.
package classifier

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/head"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// DefaultTopK is the number of ranked classes kept per prediction.
const DefaultTopK = 3

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the classifier package logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("classifier")
	})
	return serviceLogger
}

// Recorder receives prediction metrics.
type Recorder interface {
	RecordPrediction(label string, confidence float64, duration time.Duration)
	RecordPredictionError(errorType string)
}

// Prediction is the result of one forward pass.
type Prediction struct {
	Label         string        `json:"label"`
	Index         int           `json:"index"`
	Confidence    float64       `json:"confidence"` // max softmax probability
	Probabilities []float64     `json:"probabilities"`
	Top           []Ranked      `json:"top"`
	Duration      time.Duration `json:"duration_ns"`
}

// Classifier pairs a backbone with a trained head and its class list.
// Predictions are serialized because backbone interpreters are not
// goroutine-safe.
type Classifier struct {
	mu        sync.Mutex
	backbone  backbone.FeatureExtractor
	head      *head.Head
	classes   []string
	inputSize int
	topK      int
	recorder  Recorder
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTopK sets how many ranked classes each prediction carries.
func WithTopK(k int) Option {
	return func(c *Classifier) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Classifier) {
		c.recorder = r
	}
}

// New builds a Classifier from an open backbone and a loaded artifact. The
// backbone geometry must match what the head was trained on.
func New(fe backbone.FeatureExtractor, a *artifact.Artifact, opts ...Option) (*Classifier, error) {
	m := &a.Metadata
	if fe.InputSize() != m.InputSize {
		return nil, errors.Newf("backbone input size %d does not match artifact input size %d", fe.InputSize(), m.InputSize).
			Component("classifier").
			Category(errors.CategoryValidation).
			Context("backbone", m.Backbone.Path).
			Build()
	}
	if fe.FeatureSize() != m.Head.Input {
		return nil, errors.Newf("backbone feature width %d does not match head input %d", fe.FeatureSize(), m.Head.Input).
			Component("classifier").
			Category(errors.CategoryValidation).
			Context("backbone", m.Backbone.Path).
			Build()
	}

	c := &Classifier{
		backbone:  fe,
		head:      a.Head,
		classes:   a.Classes(),
		inputSize: m.InputSize,
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classes returns a copy of the ordered class list.
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.classes...)
}

// InputSize returns the square input edge length.
func (c *Classifier) InputSize() int {
	return c.inputSize
}

// Predict classifies a decoded image.
func (c *Classifier) Predict(ctx context.Context, img image.Image) (*Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryCancellation).
			Build()
	}
	return c.PredictTensor(imaging.Preprocess(img, c.inputSize))
}

// PredictFile decodes and classifies the image at path.
func (c *Classifier) PredictFile(ctx context.Context, path string) (*Prediction, error) {
	img, err := imaging.DecodeFile(path)
	if err != nil {
		c.recordError("decode")
		return nil, err
	}
	return c.Predict(ctx, img)
}

// PredictBytes decodes and classifies an in-memory image.
func (c *Classifier) PredictBytes(ctx context.Context, data []byte) (*Prediction, error) {
	img, err := imaging.DecodeBytes(data)
	if err != nil {
		c.recordError("decode")
		return nil, err
	}
	return c.Predict(ctx, img)
}

// PredictTensor runs backbone and head on a preprocessed tensor.
func (c *Classifier) PredictTensor(t *imaging.Tensor) (*Prediction, error) {
	start := time.Now()

	logits, err := c.forward(t.Data)
	if err != nil {
		c.recordError("inference")
		return nil, err
	}

	probs := Softmax(logits)
	idx := ArgMax(probs)
	if idx < 0 || idx >= len(c.classes) {
		c.recordError("output_shape")
		return nil, errors.New(fmt.Errorf("head produced %d outputs for %d classes", len(probs), len(c.classes))).
			Component("classifier").
			Category(errors.CategoryInference).
			Build()
	}

	p := &Prediction{
		Label:         c.classes[idx],
		Index:         idx,
		Confidence:    probs[idx],
		Probabilities: probs,
		Top:           TopK(probs, c.classes, c.topK),
		Duration:      time.Since(start),
	}

	if c.recorder != nil {
		c.recorder.RecordPrediction(p.Label, p.Confidence, p.Duration)
	}
	GetLogger().Debug("prediction",
		logger.String("label", p.Label),
		logger.Float64("confidence", p.Confidence),
		logger.Duration("duration", p.Duration))
	return p, nil
}

// forward holds the lock only around the backbone and head.
func (c *Classifier) forward(input []float32) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	features, err := c.backbone.Extract(input)
	if err != nil {
		return nil, err
	}
	return c.head.Forward(features), nil
}

func (c *Classifier) recordError(errorType string) {
	if c.recorder != nil {
		c.recorder.RecordPredictionError(errorType)
	}
}

// Close releases the backbone.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backbone.Close()
}
