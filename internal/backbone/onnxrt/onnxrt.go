// Package onnxrt runs a frozen ONNX backbone through onnxruntime.
package onnxrt

import (
	"fmt"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/cpuspec"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

const runtimeName = "onnx"

var (
	serviceLogger logger.Logger
	initOnce      sync.Once

	// the onnxruntime environment is process-wide and shared by all sessions
	envMu   sync.Mutex
	envRefs int
)

// GetLogger returns the logger scoped to the onnx backbone module.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("backbone.onnx")
	})
	return serviceLogger
}

func acquireEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs == 0 {
		if err := ort.DestroyEnvironment(); err != nil {
			GetLogger().Warn("failed to destroy ONNX environment", logger.Error(err))
		}
	}
}

// Backbone is an ONNX feature extractor with pre-allocated tensors.
type Backbone struct {
	path         string
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	shape        backbone.Shape
	features     []float32
	envHeld      bool
}

// New opens an ONNX session for the model at opts.Path.
func New(opts backbone.Options) (*Backbone, error) {
	start := time.Now()

	if err := acquireEnvironment(opts.ONNXLibrary); err != nil {
		return nil, errors.New(err).
			Component("backbone").
			Category(errors.CategoryModelInit).
			ModelContext(opts.Path, runtimeName).
			Build()
	}
	b := &Backbone{path: opts.Path, envHeld: true}

	inDims, outDims, err := tensorDims(opts)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	shape, err := backbone.ResolveShape(inDims, outDims)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.shape = shape

	b.inputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(toInt64(inDims)...))
	if err != nil {
		_ = b.Close()
		return nil, b.initError(fmt.Errorf("failed to create input tensor: %w", err))
	}
	b.outputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(toInt64(outDims)...))
	if err != nil {
		_ = b.Close()
		return nil, b.initError(fmt.Errorf("failed to create output tensor: %w", err))
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		_ = b.Close()
		return nil, b.initError(fmt.Errorf("failed to create session options: %w", err))
	}
	defer func() { _ = sessionOpts.Destroy() }()
	if err := sessionOpts.SetIntraOpNumThreads(cpuspec.ThreadCount(opts.Threads)); err != nil {
		_ = b.Close()
		return nil, b.initError(fmt.Errorf("failed to set thread count: %w", err))
	}

	b.session, err = ort.NewAdvancedSession(opts.Path,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.ArbitraryTensor{b.inputTensor}, []ort.ArbitraryTensor{b.outputTensor},
		sessionOpts)
	if err != nil {
		_ = b.Close()
		return nil, b.initError(fmt.Errorf("failed to create ONNX session: %w", err))
	}

	b.features = make([]float32, shape.FeatureSize)

	GetLogger().Info("ONNX backbone initialized",
		logger.String("model", opts.Path),
		logger.Int("input_size", shape.InputSize),
		logger.Int("feature_size", shape.FeatureSize),
		logger.Bool("channels_first", shape.InputLayout == backbone.NCHW),
		logger.Duration("elapsed", time.Since(start)))
	return b, nil
}

// tensorDims reads the declared shapes of the named input and output,
// fixing a dynamic batch dimension to one.
func tensorDims(opts backbone.Options) (in, out []int, err error) {
	inputs, outputs, err := ort.GetInputOutputInfo(opts.Path)
	if err != nil {
		return nil, nil, errors.New(err).
			Component("backbone").
			Category(errors.CategoryModelLoad).
			ModelContext(opts.Path, runtimeName).
			Build()
	}

	find := func(infos []ort.InputOutputInfo, name string) ([]int, bool) {
		for _, info := range infos {
			if info.Name == name {
				d := make([]int, len(info.Dimensions))
				for i, v := range info.Dimensions {
					d[i] = int(v)
				}
				if len(d) > 0 && d[0] <= 0 {
					d[0] = 1
				}
				return d, true
			}
		}
		return nil, false
	}

	in, ok := find(inputs, opts.InputName)
	if !ok {
		return nil, nil, errors.Newf("model has no input named %q", opts.InputName).
			Component("backbone").
			Category(errors.CategoryValidation).
			ModelContext(opts.Path, runtimeName).
			Build()
	}
	out, ok = find(outputs, opts.OutputName)
	if !ok {
		return nil, nil, errors.Newf("model has no output named %q", opts.OutputName).
			Component("backbone").
			Category(errors.CategoryValidation).
			ModelContext(opts.Path, runtimeName).
			Build()
	}
	return in, out, nil
}

func toInt64(d []int) []int64 {
	out := make([]int64, len(d))
	for i, v := range d {
		out[i] = int64(v)
	}
	return out
}

func (b *Backbone) initError(err error) error {
	return errors.New(err).
		Component("backbone").
		Category(errors.CategoryModelInit).
		ModelContext(b.path, runtimeName).
		Build()
}

// Extract runs one forward pass. The returned slice is reused by the next call.
func (b *Backbone) Extract(input []float32) ([]float32, error) {
	if err := backbone.CheckInput(input, b.shape.InputElements); err != nil {
		return nil, err
	}

	if b.shape.InputLayout == backbone.NCHW {
		backbone.ToNCHW(input, b.shape.InputSize, b.inputTensor.GetData())
	} else {
		copy(b.inputTensor.GetData(), input)
	}

	if err := b.session.Run(); err != nil {
		return nil, errors.New(fmt.Errorf("inference failed: %w", err)).
			Component("backbone").
			Category(errors.CategoryInference).
			ModelContext(b.path, runtimeName).
			Build()
	}

	backbone.GlobalAveragePool(b.outputTensor.GetData(), b.shape, b.features)
	return b.features, nil
}

func (b *Backbone) InputSize() int   { return b.shape.InputSize }
func (b *Backbone) FeatureSize() int { return b.shape.FeatureSize }

// Close destroys the session and tensors and releases the environment.
func (b *Backbone) Close() error {
	var errs []error
	if b.session != nil {
		errs = append(errs, b.session.Destroy())
		b.session = nil
	}
	if b.inputTensor != nil {
		errs = append(errs, b.inputTensor.Destroy())
		b.inputTensor = nil
	}
	if b.outputTensor != nil {
		errs = append(errs, b.outputTensor.Destroy())
		b.outputTensor = nil
	}
	if b.envHeld {
		releaseEnvironment()
		b.envHeld = false
	}
	return errors.Join(errs...)
}
