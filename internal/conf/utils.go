// conf/utils.go path helpers for the configuration package
package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
)

const appDirName = "leafscan"

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// The working directory comes first; if a config.yaml exists in any of the
// paths, only that path is returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	configPaths := []string{"."}
	switch runtime.GOOS {
	case "windows":
		configPaths = append(configPaths, filepath.Join(homeDir, "AppData", "Roaming", appDirName))
	default:
		configPaths = append(configPaths,
			filepath.Join(homeDir, ".config", appDirName),
			filepath.Join("/etc", appDirName),
		)
	}

	for _, path := range configPaths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}
