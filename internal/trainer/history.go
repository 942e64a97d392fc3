package trainer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

// History collects per-epoch metrics in the shape Keras reports them.
type History struct {
	Loss        []float64
	Accuracy    []float64
	ValLoss     []float64
	ValAccuracy []float64
}

// Append records one epoch.
func (h *History) Append(s EpochStats) {
	h.Loss = append(h.Loss, s.Loss)
	h.Accuracy = append(h.Accuracy, s.Accuracy)
	h.ValLoss = append(h.ValLoss, s.ValLoss)
	h.ValAccuracy = append(h.ValAccuracy, s.ValAccuracy)
}

// Len returns the number of recorded epochs.
func (h *History) Len() int {
	return len(h.Loss)
}

// Last returns the metrics of the final epoch; ok is false when empty.
func (h *History) Last() (s EpochStats, ok bool) {
	n := h.Len()
	if n == 0 {
		return s, false
	}
	return EpochStats{
		Epoch:       n,
		Loss:        h.Loss[n-1],
		Accuracy:    h.Accuracy[n-1],
		ValLoss:     h.ValLoss[n-1],
		ValAccuracy: h.ValAccuracy[n-1],
	}, true
}

// WriteCSV writes one row per epoch with a header line.
func (h *History) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"epoch", "loss", "accuracy", "val_loss", "val_accuracy"}); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for i := range h.Len() {
		row := []string{
			strconv.Itoa(i + 1),
			format(h.Loss[i]),
			format(h.Accuracy[i]),
			format(h.ValLoss[i]),
			format(h.ValAccuracy[i]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the history to path.
func (h *History) SaveCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return historyFileError(err, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return historyFileError(err, path)
	}
	if err := h.WriteCSV(f); err != nil {
		_ = f.Close()
		return historyFileError(err, path)
	}
	if err := f.Close(); err != nil {
		return historyFileError(err, path)
	}
	return nil
}

func historyFileError(err error, path string) error {
	return errors.New(err).
		Component("trainer").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}
