// Package trainer fine-tunes the classification head on top of a frozen
// backbone: Dense(hidden, ReLU), Dropout, Dense(classes, softmax), trained
// with Adam on categorical cross-entropy.
package trainer

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/classifier"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/head"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/imaging"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// probability floor used by the loss, matching the Keras epsilon
const lossEpsilon = 1e-7

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the trainer package logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("trainer")
	})
	return serviceLogger
}

// EpochStats are the metrics of one finished epoch.
type EpochStats struct {
	Epoch       int // 1-based
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
	Duration    time.Duration
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithEpochCallback registers fn to run after every epoch.
func WithEpochCallback(fn func(EpochStats)) Option {
	return func(t *Trainer) {
		t.onEpoch = fn
	}
}

// Trainer fits a head for one backbone.
type Trainer struct {
	cfg     Config
	fe      backbone.FeatureExtractor
	feMu    sync.Mutex
	onEpoch func(EpochStats)
}

// New validates cfg and checks that the backbone accepts the artifact
// input size.
func New(cfg Config, fe backbone.FeatureExtractor, opts ...Option) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if fe.InputSize() != artifact.InputSize {
		return nil, errors.Newf("backbone input size %d, want %d", fe.InputSize(), artifact.InputSize).
			Component("trainer").
			Category(errors.CategoryValidation).
			Context("backbone", cfg.Backbone.Path).
			Build()
	}

	t := &Trainer{cfg: cfg, fe: fe}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func cancelled(err error) error {
	return errors.New(err).
		Component("trainer").
		Category(errors.CategoryCancellation).
		Build()
}

// Fit trains a fresh head on train and reports validation metrics after
// every epoch. Augmented training features are recomputed each epoch;
// validation features are computed once.
func (t *Trainer) Fit(ctx context.Context, train, val *Dataset) (*head.Head, *History, error) {
	if err := CheckSameClasses(train, val); err != nil {
		return nil, nil, err
	}
	log := GetLogger()

	seed := uint64(t.cfg.Seed) //nolint:gosec // any bit pattern is a valid seed
	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	h := head.New(t.fe.FeatureSize(), t.cfg.HiddenUnits, len(train.Classes), rng)
	opt := NewAdam(t.cfg.LearningRate, h.Params())
	grads := newGradients(h)

	start := time.Now()
	valSet, err := t.extract(ctx, val, imaging.Augmenter{}, 0)
	if err != nil {
		return nil, nil, err
	}
	var trainSet *featureSet
	if !t.cfg.Augment.Enabled() {
		if trainSet, err = t.extract(ctx, train, imaging.Augmenter{}, 0); err != nil {
			return nil, nil, err
		}
	}
	log.Info("features extracted",
		logger.Int("train_images", len(train.Samples)),
		logger.Int("val_images", len(val.Samples)),
		logger.Bool("augmented", t.cfg.Augment.Enabled()),
		logger.Duration("elapsed", time.Since(start)))

	hist := &History{}
	for epoch := range t.cfg.Epochs {
		epochStart := time.Now()
		if t.cfg.Augment.Enabled() {
			if trainSet, err = t.extract(ctx, train, t.cfg.Augment, seed+uint64(epoch)+1); err != nil { //nolint:gosec // epoch is non-negative
				return nil, nil, err
			}
		}

		loss, acc, fitErr := t.trainEpoch(ctx, h, opt, grads, trainSet, rng)
		if fitErr != nil {
			return nil, nil, fitErr
		}
		valLoss, valAcc := evaluate(h, valSet)

		stats := EpochStats{
			Epoch:       epoch + 1,
			Loss:        loss,
			Accuracy:    acc,
			ValLoss:     valLoss,
			ValAccuracy: valAcc,
			Duration:    time.Since(epochStart),
		}
		hist.Append(stats)

		log.Info("epoch complete",
			logger.Int("epoch", stats.Epoch),
			logger.Int("epochs", t.cfg.Epochs),
			logger.Float64("loss", loss),
			logger.Float64("accuracy", acc),
			logger.Float64("val_loss", valLoss),
			logger.Float64("val_accuracy", valAcc),
			logger.Duration("elapsed", stats.Duration))
		if t.onEpoch != nil {
			t.onEpoch(stats)
		}
	}
	return h, hist, nil
}

// trainEpoch runs one shuffled pass over set in mini-batches. Cancellation
// is checked between batches.
func (t *Trainer) trainEpoch(ctx context.Context, h *head.Head, opt *Adam, g *gradients, set *featureSet, rng *rand.Rand) (loss, accuracy float64, err error) {
	n := len(set.x)
	order := rng.Perm(n)
	params := h.Params()

	var sumLoss float64
	var correct int
	for lo := 0; lo < n; lo += t.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return 0, 0, cancelled(err)
		}
		hi := min(lo+t.cfg.BatchSize, n)

		g.reset()
		for _, idx := range order[lo:hi] {
			l, ok := g.accumulate(h, set.x[idx], set.y[idx], t.cfg.Dropout, rng)
			sumLoss += l
			if ok {
				correct++
			}
		}
		g.scale(1 / float64(hi-lo))
		opt.Step(params, g.params())
	}
	return sumLoss / float64(n), float64(correct) / float64(n), nil
}

// evaluate returns mean loss and accuracy without dropout.
func evaluate(h *head.Head, set *featureSet) (loss, accuracy float64) {
	if len(set.x) == 0 {
		return 0, 0
	}
	var correct int
	for i, x := range set.x {
		probs := classifier.Softmax(h.Forward(x))
		loss += crossEntropy(probs, set.y[i])
		if classifier.ArgMax(probs) == set.y[i] {
			correct++
		}
	}
	n := float64(len(set.x))
	return loss / n, float64(correct) / n
}

func crossEntropy(probs []float64, label int) float64 {
	return -math.Log(min(max(probs[label], lossEpsilon), 1-lossEpsilon))
}

// gradients mirrors the head parameters.
type gradients struct {
	w1 *mat.Dense
	b1 *mat.VecDense
	w2 *mat.Dense
	b2 *mat.VecDense
}

func newGradients(h *head.Head) *gradients {
	in, hidden, out := h.Sizes()
	return &gradients{
		w1: mat.NewDense(hidden, in, nil),
		b1: mat.NewVecDense(hidden, nil),
		w2: mat.NewDense(out, hidden, nil),
		b2: mat.NewVecDense(out, nil),
	}
}

// params returns the gradient storage in the order of head.Params.
func (g *gradients) params() [][]float64 {
	return [][]float64{
		g.w1.RawMatrix().Data,
		g.b1.RawVector().Data,
		g.w2.RawMatrix().Data,
		g.b2.RawVector().Data,
	}
}

func (g *gradients) reset() {
	g.w1.Zero()
	g.b1.Zero()
	g.w2.Zero()
	g.b2.Zero()
}

func (g *gradients) scale(f float64) {
	g.w1.Scale(f, g.w1)
	g.b1.ScaleVec(f, g.b1)
	g.w2.Scale(f, g.w2)
	g.b2.ScaleVec(f, g.b2)
}

// accumulate adds the cross-entropy gradient of one sample. Dropout uses
// inverted scaling so inference needs no correction.
func (g *gradients) accumulate(h *head.Head, features []float32, label int, dropout float64, rng *rand.Rand) (loss float64, correct bool) {
	in, hidden, out := h.Sizes()

	x := mat.NewVecDense(in, nil)
	for i, v := range features {
		x.SetVec(i, float64(v))
	}

	z1 := mat.NewVecDense(hidden, nil)
	z1.MulVec(h.W1, x)
	z1.AddVec(z1, h.B1)

	// mask folds the ReLU derivative and the dropout scale together
	keep := 1 - dropout
	mask := make([]float64, hidden)
	a := mat.NewVecDense(hidden, nil)
	for j := range hidden {
		z := z1.AtVec(j)
		if z <= 0 {
			continue
		}
		if dropout > 0 && rng.Float64() >= keep {
			continue
		}
		mask[j] = 1 / keep
		a.SetVec(j, z*mask[j])
	}

	z2 := mat.NewVecDense(out, nil)
	z2.MulVec(h.W2, a)
	z2.AddVec(z2, h.B2)
	probs := classifier.Softmax(z2.RawVector().Data)

	loss = crossEntropy(probs, label)
	correct = classifier.ArgMax(probs) == label

	dz2 := mat.NewVecDense(out, probs)
	dz2.SetVec(label, dz2.AtVec(label)-1)
	g.w2.RankOne(g.w2, 1, dz2, a)
	g.b2.AddVec(g.b2, dz2)

	da := mat.NewVecDense(hidden, nil)
	da.MulVec(h.W2.T(), dz2)
	for j, m := range mask {
		da.SetVec(j, da.AtVec(j)*m)
	}
	g.w1.RankOne(g.w1, 1, da, x)
	g.b1.AddVec(g.b1, da)
	return loss, correct
}
