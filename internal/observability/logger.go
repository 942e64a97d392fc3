package observability

import "github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"

// GetLogger returns the observability module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("observability")
}
