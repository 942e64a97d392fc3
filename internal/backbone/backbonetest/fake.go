// Package backbonetest provides a deterministic in-memory backbone for tests.
package backbonetest

import (
	"sync/atomic"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
)

// Fake derives features from per-channel image statistics: feature i is the
// mean of channel i%3 scaled by 1+i/3. Images of different colors therefore
// land far apart in feature space.
type Fake struct {
	Size     int
	Features int

	calls  atomic.Int64
	closed atomic.Bool
}

var _ backbone.FeatureExtractor = (*Fake)(nil)

// New returns a Fake for size×size inputs producing n features.
func New(size, n int) *Fake {
	return &Fake{Size: size, Features: n}
}

func (f *Fake) Extract(input []float32) ([]float32, error) {
	if err := backbone.CheckInput(input, f.Size*f.Size*3); err != nil {
		return nil, err
	}
	f.calls.Add(1)

	var means [3]float32
	for p := 0; p < len(input); p += 3 {
		means[0] += input[p]
		means[1] += input[p+1]
		means[2] += input[p+2]
	}
	pixels := float32(len(input) / 3)

	out := make([]float32, f.Features)
	for i := range out {
		out[i] = means[i%3] / pixels * float32(1+i/3)
	}
	return out, nil
}

func (f *Fake) InputSize() int   { return f.Size }
func (f *Fake) FeatureSize() int { return f.Features }

func (f *Fake) Close() error {
	f.closed.Store(true)
	return nil
}

// Calls returns how many times Extract succeeded.
func (f *Fake) Calls() int64 { return f.calls.Load() }

// Closed reports whether Close was called.
func (f *Fake) Closed() bool { return f.closed.Load() }
