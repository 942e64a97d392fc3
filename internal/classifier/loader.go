package classifier

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/artifact"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/backbone"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// OpenFunc opens a backbone for the given options.
type OpenFunc func(backbone.Options) (backbone.FeatureExtractor, error)

// Loader loads the artifact and its backbone once per process and hands out
// the same Classifier afterwards. A failed load is remembered too.
type Loader struct {
	artifactPath string
	runtimeOpts  backbone.Options
	open         OpenFunc
	options      []Option

	once  sync.Once
	ready atomic.Bool
	clf   *Classifier
	err   error
}

// NewLoader returns a Loader for the artifact at path. Runtime tuning
// (threads, XNNPACK, onnx library) comes from runtimeOpts; the backbone
// runtime, path and tensor names always come from the artifact.
func NewLoader(path string, runtimeOpts backbone.Options, open OpenFunc, opts ...Option) *Loader {
	return &Loader{
		artifactPath: path,
		runtimeOpts:  runtimeOpts,
		open:         open,
		options:      opts,
	}
}

// Get returns the memoized Classifier, loading it on the first call.
func (l *Loader) Get() (*Classifier, error) {
	l.once.Do(func() {
		l.clf, l.err = l.load()
		l.ready.Store(l.err == nil)
	})
	return l.clf, l.err
}

// Loaded reports whether a Classifier is ready without triggering a load.
func (l *Loader) Loaded() bool {
	return l.ready.Load()
}

func (l *Loader) load() (*Classifier, error) {
	start := time.Now()
	log := GetLogger()

	a, err := artifact.Load(l.artifactPath)
	if err != nil {
		return nil, err
	}

	opts := l.runtimeOpts
	ref := a.Metadata.Backbone
	opts.Runtime = ref.Runtime
	opts.Path = a.ResolveBackbonePath(l.artifactPath)
	opts.InputName = ref.InputName
	opts.OutputName = ref.OutputName

	fe, err := l.open(opts)
	if err != nil {
		return nil, err
	}

	clf, err := New(fe, a, l.options...)
	if err != nil {
		_ = fe.Close()
		return nil, err
	}

	log.Info("model loaded",
		logger.String("artifact", l.artifactPath),
		logger.String("backbone", opts.Path),
		logger.String("runtime", opts.Runtime),
		logger.Int("classes", len(clf.classes)),
		logger.Duration("elapsed", time.Since(start)))
	return clf, nil
}

// Close releases the classifier when one was loaded. The Loader must not be
// used afterwards.
func (l *Loader) Close() error {
	if !l.Loaded() {
		return nil
	}
	return l.clf.Close()
}
