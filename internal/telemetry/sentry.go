// Package telemetry provides opt-in, privacy-filtered error reporting to
// Sentry.
package telemetry

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/conf"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/errors"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/logger"
	"github.com/vishaljadhav12345/Plant-Disease-Analysis/internal/privacy"
)

// DefaultFlushTimeout bounds Flush at shutdown.
const DefaultFlushTimeout = 2 * time.Second

var (
	sentryInitialized atomic.Bool

	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the telemetry module logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("telemetry")
	})
	return serviceLogger
}

// PlatformInfo holds privacy-safe platform information attached to events.
type PlatformInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

func collectPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// InitSentry initializes the Sentry SDK when the user enabled it and wires
// the errors package to report through it. Disabled settings are a no-op.
func InitSentry(settings *conf.Settings) error {
	return initSentry(settings, nil)
}

// initSentry accepts a transport override for tests.
func initSentry(settings *conf.Settings, transport sentry.Transport) error {
	if !settings.Sentry.Enabled {
		GetLogger().Debug("sentry telemetry is disabled")
		return nil
	}
	if settings.Sentry.DSN == "" {
		return errors.Newf("sentry is enabled but no DSN is configured").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	environment := settings.Sentry.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		Debug:            settings.Sentry.Debug,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          fmt.Sprintf("leafscan@%s", settings.Version),
		BeforeSend:       beforeSend,
		Transport:        transport,
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	info := collectPlatformInfo()
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("app", "leafscan")
		scope.SetTag("os", info.OS)
		scope.SetTag("arch", info.Architecture)
		scope.SetContext("platform", map[string]any{
			"num_cpu":    info.NumCPU,
			"go_version": info.GoVersion,
		})
	})

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	sentryInitialized.Store(true)

	GetLogger().Info("sentry telemetry initialized",
		logger.String("environment", environment),
		logger.String("release", settings.Version))
	return nil
}

// IsInitialized reports whether InitSentry enabled reporting.
func IsInitialized() bool {
	return sentryInitialized.Load()
}

// Flush waits for queued events to be delivered.
func Flush(timeout time.Duration) bool {
	if !sentryInitialized.Load() {
		return true
	}
	return sentry.Flush(timeout)
}

// Shutdown detaches the error reporter and flushes pending events.
func Shutdown() {
	if !sentryInitialized.Swap(false) {
		return
	}
	errors.SetTelemetryReporter(nil)
	if !sentry.Flush(DefaultFlushTimeout) {
		GetLogger().Warn("sentry flush timed out", logger.Duration("timeout", DefaultFlushTimeout))
	}
}

func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	return applyPrivacyFilters(event)
}

// applyPrivacyFilters strips host and user identifying data from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Request = nil
	event.Message = privacy.ScrubMessage(event.Message)
	for i := range event.Exception {
		event.Exception[i].Value = privacy.ScrubMessage(event.Exception[i].Value)
	}

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}
	return event
}
