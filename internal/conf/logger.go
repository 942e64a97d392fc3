// Package conf provides configuration management for leafscan.
package conf

import "github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time so it follows
// the central logger once it is replaced at startup.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
