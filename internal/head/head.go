// Package head implements the trainable classification head placed on top of
// the frozen backbone: Dense(hidden, ReLU) followed by Dense(classes). Dropout
// only exists at training time and is applied by the trainer.
package head

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

// Head holds the weights of both dense layers.
type Head struct {
	W1 *mat.Dense    // hidden × in
	B1 *mat.VecDense // hidden
	W2 *mat.Dense    // out × hidden
	B2 *mat.VecDense // out
}

// New creates a head with Glorot-uniform weights and zero biases.
func New(in, hidden, out int, rng *rand.Rand) *Head {
	return &Head{
		W1: glorot(hidden, in, rng),
		B1: mat.NewVecDense(hidden, nil),
		W2: glorot(out, hidden, rng),
		B2: mat.NewVecDense(out, nil),
	}
}

func glorot(rows, cols int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return mat.NewDense(rows, cols, data)
}

// Sizes returns the input, hidden and output widths.
func (h *Head) Sizes() (in, hidden, out int) {
	hidden, in = h.W1.Dims()
	out, _ = h.W2.Dims()
	return in, hidden, out
}

// Forward returns the logits for one feature vector.
func (h *Head) Forward(features []float32) []float64 {
	in, hidden, out := h.Sizes()
	x := mat.NewVecDense(in, toFloat64(features))

	z1 := mat.NewVecDense(hidden, nil)
	z1.MulVec(h.W1, x)
	z1.AddVec(z1, h.B1)
	ReLU(z1.RawVector().Data)

	z2 := mat.NewVecDense(out, nil)
	z2.MulVec(h.W2, z1)
	z2.AddVec(z2, h.B2)
	return z2.RawVector().Data
}

// ReLU clamps negative values to zero in place.
func ReLU(v []float64) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}

// Params returns the backing storage of W1, B1, W2 and B2, in that order.
// Writes through these slices update the head.
func (h *Head) Params() [][]float64 {
	return [][]float64{
		h.W1.RawMatrix().Data,
		h.B1.RawVector().Data,
		h.W2.RawMatrix().Data,
		h.B2.RawVector().Data,
	}
}

// ParamCount is the number of scalar weights for the given layer sizes.
func ParamCount(in, hidden, out int) int {
	return hidden*in + hidden + out*hidden + out
}

// Encode writes all weights as little-endian float32.
func (h *Head) Encode(w io.Writer) error {
	in, hidden, out := h.Sizes()
	buf := make([]float32, 0, ParamCount(in, hidden, out))
	for _, p := range h.Params() {
		for _, v := range p {
			buf = append(buf, float32(v))
		}
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return errors.New(err).
			Component("head").
			Category(errors.CategoryFileIO).
			Context("operation", "encode-head").
			Build()
	}
	return nil
}

// Decode reads weights written by Encode for a head of the given sizes.
func Decode(r io.Reader, in, hidden, out int) (*Head, error) {
	if in <= 0 || hidden <= 0 || out <= 0 {
		return nil, errors.Newf("invalid head sizes %d/%d/%d", in, hidden, out).
			Component("head").
			Category(errors.CategoryValidation).
			Build()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(err).
			Component("head").
			Category(errors.CategoryFileIO).
			Context("operation", "decode-head").
			Build()
	}

	n := ParamCount(in, hidden, out)
	if len(data) != n*4 {
		return nil, errors.New(fmt.Errorf("head weights have %d bytes, want %d for sizes %d/%d/%d",
			len(data), n*4, in, hidden, out)).
			Component("head").
			Category(errors.CategoryValidation).
			Context("expected_bytes", n*4).
			Context("actual_bytes", len(data)).
			Build()
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}

	h := &Head{
		W1: mat.NewDense(hidden, in, values[:hidden*in:hidden*in]),
	}
	off := hidden * in
	h.B1 = mat.NewVecDense(hidden, values[off:off+hidden:off+hidden])
	off += hidden
	h.W2 = mat.NewDense(out, hidden, values[off:off+out*hidden:off+out*hidden])
	off += out * hidden
	h.B2 = mat.NewVecDense(out, values[off:off+out:off+out])
	return h, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
