// Package artifact reads and writes the trained model bundle: a zip file
// holding metadata.yaml (backbone reference, input shape, head sizes and the
// ordered class list) and head.bin (the head weights).
package artifact

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/head"
)

const (
	// FormatVersion is bumped whenever the bundle layout changes.
	FormatVersion = 1

	// InputSize and Channels are fixed by the backbone recipe.
	InputSize = 224
	Channels  = 3

	metadataEntry = "metadata.yaml"
	headEntry     = "head.bin"
)

// BackboneRef names the frozen backbone the head was trained against.
type BackboneRef struct {
	Runtime     string `yaml:"runtime"`
	Path        string `yaml:"path"`
	InputName   string `yaml:"input_name,omitempty"`
	OutputName  string `yaml:"output_name,omitempty"`
	FeatureSize int    `yaml:"feature_size"`
}

// HeadSpec records the head layer sizes.
type HeadSpec struct {
	Input      int     `yaml:"input"`
	Hidden     int     `yaml:"hidden"`
	Output     int     `yaml:"output"`
	Activation string  `yaml:"activation"`
	Dropout    float64 `yaml:"dropout"`
}

// TrainingSummary is informational and not used at inference time.
type TrainingSummary struct {
	Epochs           int       `yaml:"epochs"`
	BatchSize        int       `yaml:"batch_size"`
	LearningRate     float64   `yaml:"learning_rate"`
	TrainImages      int       `yaml:"train_images"`
	ValImages        int       `yaml:"val_images"`
	FinalAccuracy    float64   `yaml:"final_accuracy"`
	FinalLoss        float64   `yaml:"final_loss"`
	FinalValAccuracy float64   `yaml:"final_val_accuracy"`
	FinalValLoss     float64   `yaml:"final_val_loss"`
	CreatedAt        time.Time `yaml:"created_at"`
}

// Metadata is the content of metadata.yaml.
type Metadata struct {
	Version   int             `yaml:"version"`
	Backbone  BackboneRef     `yaml:"backbone"`
	InputSize int             `yaml:"input_size"`
	Channels  int             `yaml:"channels"`
	Head      HeadSpec        `yaml:"head"`
	Classes   []string        `yaml:"classes"`
	Training  TrainingSummary `yaml:"training"`
}

// Artifact is a loaded model bundle.
type Artifact struct {
	Metadata Metadata
	Head     *head.Head
}

// Classes returns a copy of the ordered class list.
func (a *Artifact) Classes() []string {
	return append([]string(nil), a.Metadata.Classes...)
}

func validationError(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("artifact").
		Category(errors.CategoryValidation).
		Build()
}

// Validate checks the bundle invariants: the head output width equals the
// number of classes and the input shape is 224×224×3.
func (a *Artifact) Validate() error {
	m := &a.Metadata
	if m.Version != FormatVersion {
		return validationError("unsupported artifact version %d, want %d", m.Version, FormatVersion)
	}
	if m.InputSize != InputSize || m.Channels != Channels {
		return validationError("artifact input shape %dx%dx%d, want %dx%dx%d",
			m.InputSize, m.InputSize, m.Channels, InputSize, InputSize, Channels)
	}
	if len(m.Classes) == 0 {
		return validationError("artifact has no classes")
	}
	seen := make(map[string]struct{}, len(m.Classes))
	for _, c := range m.Classes {
		if c == "" {
			return validationError("artifact contains an empty class name")
		}
		if _, dup := seen[c]; dup {
			return validationError("artifact contains duplicate class %q", c)
		}
		seen[c] = struct{}{}
	}
	if m.Head.Output != len(m.Classes) {
		return validationError("head output width %d does not match %d classes", m.Head.Output, len(m.Classes))
	}
	if m.Backbone.FeatureSize != m.Head.Input {
		return validationError("backbone feature width %d does not match head input %d",
			m.Backbone.FeatureSize, m.Head.Input)
	}
	if a.Head == nil {
		return validationError("artifact has no head weights")
	}
	in, hidden, out := a.Head.Sizes()
	if in != m.Head.Input || hidden != m.Head.Hidden || out != m.Head.Output {
		return validationError("head weights are %d/%d/%d, metadata says %d/%d/%d",
			in, hidden, out, m.Head.Input, m.Head.Hidden, m.Head.Output)
	}
	return nil
}

// Save validates a and writes it to path atomically.
func Save(path string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return err
	}

	meta, err := yaml.Marshal(&a.Metadata)
	if err != nil {
		return fileError(err, path, "marshal-metadata")
	}

	var weights bytes.Buffer
	if err := a.Head.Encode(&weights); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fileError(err, path, "create-directory")
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.zip")
	if err != nil {
		return fileError(err, path, "create-temp")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	zw := zip.NewWriter(tmp)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{metadataEntry, meta},
		{headEntry, weights.Bytes()},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			_ = tmp.Close()
			return fileError(err, path, "write-"+entry.name)
		}
		if _, err := w.Write(entry.data); err != nil {
			_ = tmp.Close()
			return fileError(err, path, "write-"+entry.name)
		}
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return fileError(err, path, "close-zip")
	}
	if err := tmp.Close(); err != nil {
		return fileError(err, path, "close-temp")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fileError(err, path, "rename")
	}
	return nil
}

// Load opens the bundle at path and validates it.
func Load(path string) (*Artifact, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(err).
				Component("artifact").
				Category(errors.CategoryNotFound).
				ModelContext(path, "artifact").
				Build()
		}
		return nil, errors.New(err).
			Component("artifact").
			Category(errors.CategoryModelLoad).
			ModelContext(path, "artifact").
			Build()
	}
	defer zr.Close() //nolint:errcheck // read-only

	metaData, err := readEntry(&zr.Reader, metadataEntry)
	if err != nil {
		return nil, fileError(err, path, "read-metadata")
	}

	a := &Artifact{}
	if err := yaml.Unmarshal(metaData, &a.Metadata); err != nil {
		return nil, errors.New(err).
			Component("artifact").
			Category(errors.CategoryModelLoad).
			Context("operation", "parse-metadata").
			Context("path", path).
			Build()
	}

	f, err := zr.Open(headEntry)
	if err != nil {
		return nil, fileError(err, path, "open-head")
	}
	defer f.Close() //nolint:errcheck // read-only

	m := &a.Metadata
	a.Head, err = head.Decode(f, m.Head.Input, m.Head.Hidden, m.Head.Output)
	if err != nil {
		return nil, err
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only
	return io.ReadAll(f)
}

// ResolveBackbonePath returns the backbone path recorded in the artifact. A
// relative path that does not exist from the working directory is tried
// next to the artifact file.
func (a *Artifact) ResolveBackbonePath(artifactPath string) string {
	p := a.Metadata.Backbone.Path
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	candidate := filepath.Join(filepath.Dir(artifactPath), p)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return p
}

func fileError(err error, path, operation string) error {
	return errors.New(fmt.Errorf("%s: %w", operation, err)).
		Component("artifact").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Context("path", path).
		Build()
}
