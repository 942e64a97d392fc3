package logger

import (
	"io"
	"os"
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	DefaultLevel string            `yaml:"default_level" json:"default_level"` // default log level for all modules
	Timezone     string            `yaml:"timezone" json:"timezone"`           // "Local", "UTC", or IANA timezone name
	Console      *ConsoleOutput    `yaml:"console" json:"console"`             // console output configuration
	FileOutput   *FileOutput       `yaml:"file_output" json:"file_output"`     // file output configuration
	ModuleLevels map[string]string `yaml:"module_levels" json:"module_levels"` // per-module log levels
}

// ConsoleOutput represents console logging configuration.
// Console output uses human-readable text format without timestamps and goes
// to stderr, leaving stdout to command results.
type ConsoleOutput struct {
	Enabled bool      `yaml:"enabled" json:"enabled"`
	Level   string    `yaml:"level" json:"level"`
	Writer  io.Writer `yaml:"-" json:"-"` // nil means os.Stderr
}

// Output returns the writer console records go to.
func (c *ConsoleOutput) Output() io.Writer {
	if c == nil || c.Writer == nil {
		return os.Stderr
	}
	return c.Writer
}

// FileOutput represents file logging configuration.
// File output uses JSON format with RFC3339 timestamps for machine parsing.
type FileOutput struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Level   string `yaml:"level" json:"level"`
}

// Default values for logging configuration.
const (
	DefaultLogLevel       = "info"
	DefaultLogPath        = "logs/leafscan.log"
	DefaultConsoleEnabled = true
	DefaultFileEnabled    = false
)

// applyConfigDefaults fills nil configuration sections with defaults.
func applyConfigDefaults(cfg *LoggingConfig) {
	if cfg == nil {
		return
	}

	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLogLevel
	}

	if cfg.Console == nil {
		cfg.Console = &ConsoleOutput{
			Enabled: DefaultConsoleEnabled,
			Level:   cfg.DefaultLevel,
		}
	}

	if cfg.FileOutput == nil {
		cfg.FileOutput = &FileOutput{
			Enabled: DefaultFileEnabled,
			Path:    DefaultLogPath,
			Level:   cfg.DefaultLevel,
		}
	}
}
