package trainer

import (
	"context"
	"math/rand/v2"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
)

// featureSet holds backbone features and class indices, aligned by sample.
type featureSet struct {
	x [][]float32
	y []int
}

func (t *Trainer) workers() int {
	if t.cfg.Workers > 0 {
		return t.cfg.Workers
	}
	return runtime.NumCPU()
}

// extract decodes, optionally augments and preprocesses every sample on a
// bounded pool of goroutines. Backbone calls are serialized. Each sample
// draws its augmentation from its own generator so results do not depend
// on scheduling.
func (t *Trainer) extract(ctx context.Context, ds *Dataset, aug imaging.Augmenter, seed uint64) (*featureSet, error) {
	set := &featureSet{
		x: make([][]float32, len(ds.Samples)),
		y: make([]int, len(ds.Samples)),
	}
	size := t.fe.InputSize()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers())
	for i, s := range ds.Samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := imaging.DecodeFile(s.Path)
			if err != nil {
				return err
			}
			if aug.Enabled() {
				img = aug.Apply(img, rand.New(rand.NewPCG(seed, uint64(i)))) //nolint:gosec // index is non-negative
			}
			tensor := imaging.Preprocess(img, size)

			t.feMu.Lock()
			features, err := t.fe.Extract(tensor.Data)
			if err == nil {
				features = slices.Clone(features)
			}
			t.feMu.Unlock()
			if err != nil {
				return err
			}

			set.x[i] = features
			set.y[i] = s.Class
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx.Err())
		}
		return nil, err
	}
	return set, nil
}
