// conf/validate.go

package conf

import (
	"fmt"
	"strings"
)

// Backbone runtimes.
const (
	RuntimeTFLite = "tflite"
	RuntimeONNX   = "onnx"
)

// Directory predictor output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) []string{
		validateLogSettings,
		validateModelSettings,
		validateBackboneSettings,
		validateTrainSettings,
		validatePredictSettings,
		validateWebServerSettings,
		validateOutputSettings,
		validateSentrySettings,
	}
	for _, validate := range validators {
		ve.Errors = append(ve.Errors, validate(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "", "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

func validateLogSettings(s *Settings) []string {
	var errs []string
	log := &s.Main.Log
	for name, level := range map[string]string{
		"main.log.level":         log.Level,
		"main.log.console.level": log.Console.Level,
		"main.log.file.level":    log.File.Level,
	} {
		if !validLogLevel(level) {
			errs = append(errs, fmt.Sprintf("%s must be one of trace, debug, info, warn, error", name))
		}
	}
	for module, level := range log.ModuleLevels {
		if !validLogLevel(level) {
			errs = append(errs, fmt.Sprintf("log level %q for module %s is invalid", level, module))
		}
	}
	if log.File.Enabled && log.File.Path == "" {
		errs = append(errs, "main.log.file.path must be set when file logging is enabled")
	}
	return errs
}

func validateModelSettings(s *Settings) []string {
	var errs []string
	if s.Model.Path == "" {
		errs = append(errs, "model.path must not be empty")
	}
	if s.Model.TopK < 1 {
		errs = append(errs, "model.topk must be at least 1")
	}
	return errs
}

func validateBackboneSettings(s *Settings) []string {
	var errs []string
	b := &s.Backbone
	b.Runtime = strings.ToLower(b.Runtime)
	switch b.Runtime {
	case RuntimeTFLite, RuntimeONNX:
	default:
		errs = append(errs, fmt.Sprintf("backbone.runtime must be %q or %q", RuntimeTFLite, RuntimeONNX))
	}
	if b.Threads < 0 {
		errs = append(errs, "backbone.threads must be at least 0")
	}
	if b.FeatureSize < 0 {
		errs = append(errs, "backbone.featuresize must be at least 0")
	}
	if b.Runtime == RuntimeONNX && (b.InputName == "" || b.OutputName == "") {
		errs = append(errs, "backbone.inputname and backbone.outputname are required for onnx")
	}
	return errs
}

func validateTrainSettings(s *Settings) []string {
	var errs []string
	t := &s.Train
	if t.ImageSize != DefaultImageSize {
		errs = append(errs, fmt.Sprintf("train.imagesize must be %d", DefaultImageSize))
	}
	if t.BatchSize < 1 {
		errs = append(errs, "train.batchsize must be at least 1")
	}
	if t.Epochs < 1 {
		errs = append(errs, "train.epochs must be at least 1")
	}
	if t.LearningRate <= 0 || t.LearningRate > 1 {
		errs = append(errs, "train.learningrate must be in (0, 1]")
	}
	if t.HiddenUnits < 1 {
		errs = append(errs, "train.hiddenunits must be at least 1")
	}
	if t.Dropout < 0 || t.Dropout >= 1 {
		errs = append(errs, "train.dropout must be in [0, 1)")
	}
	if t.Workers < 0 {
		errs = append(errs, "train.workers must be at least 0")
	}
	if t.Augment.Rotation < 0 || t.Augment.Rotation > 180 {
		errs = append(errs, "train.augment.rotation must be between 0 and 180 degrees")
	}
	if t.Augment.Zoom < 0 || t.Augment.Zoom >= 1 {
		errs = append(errs, "train.augment.zoom must be in [0, 1)")
	}
	return errs
}

func validatePredictSettings(s *Settings) []string {
	var errs []string
	if s.Predict.Top < 0 {
		errs = append(errs, "predict.top must be at least 0")
	}
	s.Predict.Format = strings.ToLower(s.Predict.Format)
	if s.Predict.Format != FormatTable && s.Predict.Format != FormatCSV {
		errs = append(errs, fmt.Sprintf("predict.format must be %q or %q", FormatTable, FormatCSV))
	}
	return errs
}

func validateWebServerSettings(s *Settings) []string {
	var errs []string
	w := &s.WebServer
	if w.Listen == "" {
		errs = append(errs, "webserver.listen must not be empty")
	}
	if w.MaxUploadSize <= 0 {
		errs = append(errs, "webserver.maxuploadsize must be positive")
	}
	if w.Cache.Enabled && w.Cache.TTL <= 0 {
		errs = append(errs, "webserver.cache.ttl must be positive when the cache is enabled")
	}
	if w.RateLimit.Enabled && (w.RateLimit.Rate <= 0 || w.RateLimit.Burst < 1) {
		errs = append(errs, "webserver.ratelimit.rate and burst must be positive when rate limiting is enabled")
	}
	return errs
}

func validateOutputSettings(s *Settings) []string {
	var errs []string
	o := &s.Output
	if o.SQLite.Enabled && o.MySQL.Enabled {
		errs = append(errs, "only one of output.sqlite and output.mysql can be enabled")
	}
	if o.SQLite.Enabled && o.SQLite.Path == "" {
		errs = append(errs, "output.sqlite.path must be set when sqlite is enabled")
	}
	if o.MySQL.Enabled && (o.MySQL.Host == "" || o.MySQL.Database == "") {
		errs = append(errs, "output.mysql.host and database must be set when mysql is enabled")
	}
	return errs
}

func validateSentrySettings(s *Settings) []string {
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		return []string{"sentry.dsn must be set when sentry is enabled"}
	}
	return nil
}
