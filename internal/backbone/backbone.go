// Package backbone defines the frozen feature extractor that sits in front of
// the trainable classification head.
package backbone

import (
	"fmt"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

// FeatureExtractor runs the frozen backbone over one preprocessed
// image tensor (NHWC, batch of one, values in [0,1]) and returns the pooled
// feature vector. Implementations are not safe for concurrent use.
type FeatureExtractor interface {
	Extract(input []float32) ([]float32, error)
	// InputSize is the square edge length the backbone expects.
	InputSize() int
	// FeatureSize is the length of the vector returned by Extract.
	FeatureSize() int
	Close() error
}

// Options selects and configures a backbone runtime.
type Options struct {
	Runtime     string // "tflite" or "onnx"
	Path        string
	InputName   string // onnx only
	OutputName  string // onnx only
	Threads     int
	UseXNNPACK  bool
	ONNXLibrary string
}

// Layout describes where the channel axis sits in a 4-D tensor.
type Layout int

const (
	NHWC Layout = iota
	NCHW
)

// Shape is the resolved geometry of a backbone.
type Shape struct {
	InputSize   int
	InputLayout Layout
	FeatureSize int
	// Spatial is the number of positions averaged by global pooling, 1 if
	// the backbone already returns a flat vector.
	Spatial       int
	OutputLayout  Layout
	InputElements int
}

// ResolveShape validates input and output dimensions of a backbone and works
// out its layout. Dimensions may use -1 or 0 for a dynamic batch.
func ResolveShape(in, out []int) (Shape, error) {
	var s Shape

	if len(in) != 4 {
		return s, shapeError("input must be 4-D, got %v", in)
	}
	switch {
	case in[3] == 3 && in[1] == in[2]:
		s.InputLayout = NHWC
		s.InputSize = in[1]
	case in[1] == 3 && in[2] == in[3]:
		s.InputLayout = NCHW
		s.InputSize = in[2]
	default:
		return s, shapeError("input must be square with 3 channels, got %v", in)
	}
	if s.InputSize <= 0 {
		return s, shapeError("input size must be fixed, got %v", in)
	}
	s.InputElements = s.InputSize * s.InputSize * 3

	switch len(out) {
	case 2:
		s.FeatureSize = out[1]
		s.Spatial = 1
	case 4:
		// feature maps keep the input's channel position
		s.OutputLayout = s.InputLayout
		if s.OutputLayout == NHWC {
			s.FeatureSize = out[3]
			s.Spatial = out[1] * out[2]
		} else {
			s.FeatureSize = out[1]
			s.Spatial = out[2] * out[3]
		}
	default:
		return s, shapeError("output must be 2-D or 4-D, got %v", out)
	}
	if s.FeatureSize <= 0 || s.Spatial <= 0 {
		return s, shapeError("output dimensions must be fixed, got %v", out)
	}
	return s, nil
}

func shapeError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("backbone").
		Category(errors.CategoryModelInit).
		Build()
}

// CheckInput returns a validation error if input does not match the
// backbone's expected element count.
func CheckInput(input []float32, want int) error {
	if len(input) != want {
		return errors.New(fmt.Errorf("input has %d elements, backbone expects %d", len(input), want)).
			Component("backbone").
			Category(errors.CategoryValidation).
			Context("expected_elements", want).
			Context("actual_elements", len(input)).
			Build()
	}
	return nil
}

// GlobalAveragePool averages a feature map over its spatial positions into dst.
// Flat outputs (Spatial == 1) are copied as is.
func GlobalAveragePool(data []float32, s Shape, dst []float32) {
	if s.Spatial == 1 {
		copy(dst, data[:s.FeatureSize])
		return
	}

	clear(dst)
	c := s.FeatureSize
	if s.OutputLayout == NHWC {
		for p := range s.Spatial {
			row := data[p*c : (p+1)*c]
			for i, v := range row {
				dst[i] += v
			}
		}
	} else {
		for i := range c {
			var sum float32
			for _, v := range data[i*s.Spatial : (i+1)*s.Spatial] {
				sum += v
			}
			dst[i] = sum
		}
	}

	inv := 1 / float32(s.Spatial)
	for i := range dst {
		dst[i] *= inv
	}
}

// ToNCHW reorders an NHWC image tensor for channels-first backbones.
func ToNCHW(src []float32, size int, dst []float32) {
	plane := size * size
	for p := range plane {
		dst[p] = src[p*3]
		dst[plane+p] = src[p*3+1]
		dst[2*plane+p] = src[p*3+2]
	}
}
