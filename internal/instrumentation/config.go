package instrumentation

import (
	"os"
	"strconv"
)

// Config controls metrics collection.
type Config struct {
	// Enabled turns metric collection on. Off by default.
	Enabled bool

	// ServiceName and ServiceVersion identify the process in the exported
	// target metadata.
	ServiceName    string
	ServiceVersion string

	// ListenAddr is where serve mode exposes /metrics, e.g. ":9464".
	// Empty disables the endpoint even when collection is enabled.
	ListenAddr string

	// DetailedLabels adds the request path to API metrics. The endpoint
	// set is small and fixed, so cardinality stays bounded, but the label
	// is still optional for operators who aggregate across endpoints.
	DetailedLabels bool
}

// ConfigFromEnv builds a Config from GM_METRICS_* environment variables.
func ConfigFromEnv(serviceName, serviceVersion string) Config {
	cfg := Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		ListenAddr:     os.Getenv("GM_METRICS_ADDR"),
	}
	if v, err := strconv.ParseBool(os.Getenv("GM_METRICS_ENABLED")); err == nil {
		cfg.Enabled = v
	}
	if v, err := strconv.ParseBool(os.Getenv("GM_METRICS_DETAILED")); err == nil {
		cfg.DetailedLabels = v
	}
	// An explicit listen address implies the operator wants metrics.
	if cfg.ListenAddr != "" {
		cfg.Enabled = true
	}
	return cfg
}
