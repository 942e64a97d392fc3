// Package runtimes opens a backbone for the configured inference runtime.
package runtimes

import (
	"strings"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone/onnxrt"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone/tflitert"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

const (
	TFLite = "tflite"
	ONNX   = "onnx"
)

// Open loads the backbone described by opts.
func Open(opts backbone.Options) (backbone.FeatureExtractor, error) {
	switch strings.ToLower(opts.Runtime) {
	case TFLite, "":
		return tflitert.New(opts)
	case ONNX:
		return onnxrt.New(opts)
	default:
		return nil, errors.Newf("unknown backbone runtime %q", opts.Runtime).
			Component("backbone").
			Category(errors.CategoryConfiguration).
			Context("runtime", opts.Runtime).
			Build()
	}
}
