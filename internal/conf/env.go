// env.go - environment variable and .env support
package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// LEAFSCAN_TRAIN_EPOCHS=20 overrides train.epochs.
const EnvPrefix = "LEAFSCAN"

// envBinding holds a validated environment variable binding
type envBinding struct {
	ConfigKey string
	Validate  func(string) error
}

// envVar returns the environment variable name for a config key.
func envVar(configKey string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(configKey, ".", "_"))
}

// getEnvBindings returns the keys whose environment values are checked
// before they reach viper.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"backbone.runtime", validateEnvRuntime},
		{"backbone.threads", validateEnvNonNegativeInt},
		{"backbone.usexnnpack", validateEnvBool},
		{"train.epochs", validateEnvPositiveInt},
		{"train.batchsize", validateEnvPositiveInt},
		{"train.learningrate", validateEnvPositiveFloat},
		{"predict.top", validateEnvNonNegativeInt},
		{"output.sqlite.enabled", validateEnvBool},
		{"output.mysql.enabled", validateEnvBool},
		{"sentry.enabled", validateEnvBool},
	}
}

// loadDotEnv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for viper
func configureEnvironmentVariables(v *viper.Viper) error {
	var warnings []string

	if err := loadDotEnv(); err != nil {
		warnings = append(warnings, err.Error())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, binding := range getEnvBindings() {
		name := envVar(binding.ConfigKey)
		if value := os.Getenv(name); value != "" && binding.Validate != nil {
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", name, value, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be a boolean")
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateEnvRuntime(value string) error {
	switch strings.ToLower(value) {
	case RuntimeTFLite, RuntimeONNX:
		return nil
	default:
		return fmt.Errorf("must be %q or %q", RuntimeTFLite, RuntimeONNX)
	}
}
