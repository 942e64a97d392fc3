// Package tflitert runs a frozen TensorFlow Lite backbone through go-tflite.
package tflitert

import (
	"fmt"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/cpuspec"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

const runtimeName = "tflite"

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the logger scoped to the tflite backbone module.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("backbone.tflite")
	})
	return serviceLogger
}

// Backbone is a TensorFlow Lite feature extractor.
type Backbone struct {
	path        string
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	shape       backbone.Shape
	features    []float32
	scratch     []float32
}

// New loads the model at opts.Path and allocates its tensors.
func New(opts backbone.Options) (*Backbone, error) {
	start := time.Now()
	log := GetLogger()

	model := tflite.NewModelFromFile(opts.Path)
	if model == nil {
		return nil, errors.New(fmt.Errorf("cannot load TensorFlow Lite model")).
			Component("backbone").
			Category(errors.CategoryModelLoad).
			ModelContext(opts.Path, runtimeName).
			Timing("model-load", time.Since(start)).
			Build()
	}

	threads := cpuspec.ThreadCount(opts.Threads)
	options := tflite.NewInterpreterOptions()
	if opts.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // bounded by CPU count
		if delegate == nil {
			log.Warn("failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}
	options.SetErrorReporter(func(msg string, _ any) {
		GetLogger().Error("TFLite error", logger.String("message", msg))
	}, nil)

	b := &Backbone{path: opts.Path, model: model, options: options}

	b.interpreter = tflite.NewInterpreter(model, options)
	if b.interpreter == nil {
		_ = b.Close()
		return nil, errors.New(fmt.Errorf("cannot create interpreter")).
			Component("backbone").
			Category(errors.CategoryModelInit).
			ModelContext(opts.Path, runtimeName).
			Build()
	}
	if status := b.interpreter.AllocateTensors(); status != tflite.OK {
		_ = b.Close()
		return nil, errors.New(fmt.Errorf("tensor allocation failed: %v", status)).
			Component("backbone").
			Category(errors.CategoryModelInit).
			ModelContext(opts.Path, runtimeName).
			Build()
	}

	shape, err := b.resolveShape()
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.shape = shape
	b.features = make([]float32, shape.FeatureSize)
	if shape.InputLayout == backbone.NCHW {
		b.scratch = make([]float32, shape.InputElements)
	}

	log.Info("TFLite backbone initialized",
		logger.String("model", opts.Path),
		logger.Int("threads", threads),
		logger.Int("input_size", shape.InputSize),
		logger.Int("feature_size", shape.FeatureSize),
		logger.Bool("pooled", shape.Spatial > 1),
		logger.Duration("elapsed", time.Since(start)))
	return b, nil
}

func (b *Backbone) resolveShape() (backbone.Shape, error) {
	in := b.interpreter.GetInputTensor(0)
	out := b.interpreter.GetOutputTensor(0)
	if in == nil || out == nil {
		return backbone.Shape{}, errors.New(fmt.Errorf("cannot get input or output tensor from model")).
			Component("backbone").
			Category(errors.CategoryValidation).
			ModelContext(b.path, runtimeName).
			Build()
	}
	if in.Type() != tflite.Float32 || out.Type() != tflite.Float32 {
		return backbone.Shape{}, errors.New(fmt.Errorf("backbone tensors must be float32, got %v and %v", in.Type(), out.Type())).
			Component("backbone").
			Category(errors.CategoryValidation).
			ModelContext(b.path, runtimeName).
			Build()
	}
	return backbone.ResolveShape(dims(in), dims(out))
}

func dims(t *tflite.Tensor) []int {
	d := make([]int, t.NumDims())
	for i := range d {
		d[i] = t.Dim(i)
	}
	return d
}

// Extract runs one forward pass. The returned slice is reused by the next call.
func (b *Backbone) Extract(input []float32) ([]float32, error) {
	if err := backbone.CheckInput(input, b.shape.InputElements); err != nil {
		return nil, err
	}

	in := b.interpreter.GetInputTensor(0)
	if b.shape.InputLayout == backbone.NCHW {
		backbone.ToNCHW(input, b.shape.InputSize, b.scratch)
		copy(in.Float32s(), b.scratch)
	} else {
		copy(in.Float32s(), input)
	}

	if status := b.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.New(fmt.Errorf("tflite invoke failed: %v", status)).
			Component("backbone").
			Category(errors.CategoryInference).
			ModelContext(b.path, runtimeName).
			Build()
	}

	backbone.GlobalAveragePool(b.interpreter.GetOutputTensor(0).Float32s(), b.shape, b.features)
	return b.features, nil
}

func (b *Backbone) InputSize() int   { return b.shape.InputSize }
func (b *Backbone) FeatureSize() int { return b.shape.FeatureSize }

// Close releases the interpreter and model.
func (b *Backbone) Close() error {
	if b.interpreter != nil {
		b.interpreter.Delete()
		b.interpreter = nil
	}
	if b.options != nil {
		b.options.Delete()
		b.options = nil
	}
	if b.model != nil {
		b.model.Delete()
		b.model = nil
	}
	return nil
}
