// config.go: settings struct for leafscan and the functions that load it.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// LogSettings controls console and file logging.
type LogSettings struct {
	Level    string // default level for all modules
	Timezone string // "Local", "UTC" or an IANA name
	Console  struct {
		Enabled bool
		Level   string
	}
	File struct {
		Enabled bool
		Path    string // JSON log file
		Level   string
	}
	ModuleLevels map[string]string // per-module overrides, e.g. trainer: debug
}

// ModelSettings points at the trained artifact used for inference.
type ModelSettings struct {
	Path string // path to plant_disease_model.zip
	TopK int    // number of ranked classes kept on each prediction
}

// BackboneSettings describes the frozen feature extractor.
type BackboneSettings struct {
	Runtime     string // "tflite" or "onnx"
	Path        string // backbone model file
	InputName   string // onnx input tensor name
	OutputName  string // onnx output tensor name
	FeatureSize int    // feature width, 0 to detect from the model
	Threads     int    // tflite interpreter threads, 0 for all cores
	UseXNNPACK  bool   // true to add the XNNPACK delegate
	ONNXLibrary string // path to the onnxruntime shared library
}

// AugmentSettings holds the random transforms applied to training images.
type AugmentSettings struct {
	Enabled        bool
	Rotation       float64 // max rotation in degrees, either direction
	Zoom           float64 // zoom range, 0.2 gives [0.8, 1.2]
	HorizontalFlip bool
}

// TrainSettings contains the fine-tuning recipe.
type TrainSettings struct {
	TrainDir     string
	ValDir       string
	ImageSize    int
	BatchSize    int
	Epochs       int
	LearningRate float64
	HiddenUnits  int     // width of the dense layer before the output layer
	Dropout      float64 // dropout rate applied after the hidden layer
	Seed         int64
	Workers      int // image preprocessing workers, 0 for NumCPU
	Augment      AugmentSettings
	PlotPath     string // PNG with accuracy and loss curves, empty to skip
	HistoryPath  string // CSV with per-epoch metrics, empty to skip
}

// PredictSettings contains console predictor options.
type PredictSettings struct {
	Image      string // default image for leafscan predict
	ClassesDir string // optional directory re-listed to cross-check class order
	Top        int    // print top-N ranking after the result lines, 0 to disable
	Format     string // directory output: "table" or "csv"
}

// RemedySettings points at an optional remedy override file.
type RemedySettings struct {
	Path string // YAML file merged over the built-in remedy table
}

// RateLimitSettings throttles predict requests per client IP.
type RateLimitSettings struct {
	Enabled bool
	Rate    float64 // requests per second
	Burst   int
}

// CacheSettings controls the prediction result cache.
type CacheSettings struct {
	Enabled bool
	TTL     time.Duration
}

// WebServerSettings contains settings for the web app.
type WebServerSettings struct {
	Enabled         bool
	Listen          string // listen address, e.g. ":8501"
	MaxUploadSize   int64  // upload body limit in bytes
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Cache           CacheSettings
	RateLimit       RateLimitSettings
}

// OutputSettings configures the optional prediction history store.
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to enable sqlite output
		Path    string // path to sqlite database
	}
	MySQL struct {
		Enabled  bool   // true to enable mysql output
		Username string // username for mysql database
		Password string // password for mysql database
		Host     string // host for mysql database
		Port     string // port for mysql database
		Database string // database name for mysql database
	}
}

// SentrySettings controls error telemetry.
type SentrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
	Debug       bool
}

// Settings contains all configuration options for leafscan.
type Settings struct {
	Version string `yaml:"-"` // runtime value, set from build flags
	Debug   bool

	Main struct {
		Name string
		Log  LogSettings
	}

	Model     ModelSettings
	Backbone  BackboneSettings
	Train     TrainSettings
	Predict   PredictSettings
	Remedies  RemedySettings
	WebServer WebServerSettings
	Output    OutputSettings
	Sentry    SentrySettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file, .env and environment variables into
// the global settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	v := viper.GetViper()
	if err := initViper(v); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings, err := loadFromViper(v)
	if err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// loadFromViper unmarshals and validates settings from an initialized viper.
func loadFromViper(v *viper.Viper) (*Settings, error) {
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

// initViper sets defaults, environment bindings and reads the config file.
func initViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	err = v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(v, userConfigDir(configPaths))
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// userConfigDir picks the per-user directory from the search paths.
func userConfigDir(configPaths []string) string {
	if len(configPaths) > 1 {
		return configPaths[1]
	}
	return configPaths[0]
}

// createDefaultConfig writes the embedded config.yaml into dir and reads it.
func createDefaultConfig(v *viper.Viper, dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o644); err != nil { //nolint:gosec // config is not secret by default
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	return v.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading it on first use.
// It panics if the configuration cannot be loaded.
func Setting() *Settings {
	once.Do(func() {
		if GetSettings() == nil {
			if _, err := Load(); err != nil {
				panic(fmt.Sprintf("error loading settings: %v", err))
			}
		}
	})
	return GetSettings()
}

// LoggingConfig converts log settings into the central logger configuration.
func (l *LogSettings) LoggingConfig() *logger.LoggingConfig {
	return &logger.LoggingConfig{
		DefaultLevel: l.Level,
		Timezone:     l.Timezone,
		Console: &logger.ConsoleOutput{
			Enabled: l.Console.Enabled,
			Level:   l.Console.Level,
		},
		FileOutput: &logger.FileOutput{
			Enabled: l.File.Enabled,
			Path:    l.File.Path,
			Level:   l.File.Level,
		},
		ModuleLevels: l.ModuleLevels,
	}
}
