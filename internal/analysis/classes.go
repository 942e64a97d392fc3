package analysis

import (
	"os"
	"slices"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

// ListClassDir returns the sorted names of the sub-directories of dir, the
// order training assigned class indices in.
func ListClassDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("analysis").
			Category(errors.CategoryLabelLoad).
			Context("directory", dir).
			Build()
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	slices.Sort(classes)
	return classes, nil
}

// CheckClassDir compares the listing of dir with the artifact classes and
// logs a warning on mismatch. Labels always come from the artifact, so a
// mismatch is not an error. It reports whether the lists agree.
func CheckClassDir(dir string, classes []string) (bool, error) {
	listed, err := ListClassDir(dir)
	if err != nil {
		return false, err
	}
	if slices.Equal(listed, classes) {
		return true, nil
	}
	GetLogger().Warn("class directory does not match the model's class list; using the model's labels",
		logger.String("directory", dir),
		logger.Int("directory_classes", len(listed)),
		logger.Int("model_classes", len(classes)),
		logger.Any("directory_listing", listed),
		logger.Any("model_classes_listing", classes))
	return false, nil
}
