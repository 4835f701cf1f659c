package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidConfig is wrapped by every error Validate returns.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if !slices.Contains(Transports, c.Server.Transport) {
		add("server.transport %q must be one of %s", c.Server.Transport, strings.Join(Transports, ", "))
	}
	if (c.Server.Transport == "http" || c.Server.Transport == "rpc-http") && strings.TrimSpace(c.Server.Addr) == "" {
		add("server.addr is required for %s transport", c.Server.Transport)
	}
	if strings.TrimSpace(c.Bot.Document) == "" {
		add("bot.document is required")
	}
	if c.Audit.Retention <= 0 {
		add("audit.retention must be positive, got %d", c.Audit.Retention)
	}
	if c.Actions.Timeout <= 0 {
		add("actions.timeout must be positive, got %s", c.Actions.Timeout)
	}
	if !slices.Contains(Engines, c.Search.Engine) {
		add("search.engine %q must be one of %s", c.Search.Engine, strings.Join(Engines, ", "))
	}
	if c.Search.DefaultLimit <= 0 {
		add("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit <= 0 {
		add("search.max_limit must be positive, got %d", c.Search.MaxLimit)
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit && c.Search.MaxLimit > 0 {
		add("search.default_limit %d exceeds search.max_limit %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Search.TitleWeight <= 0 || c.Search.BodyWeight <= 0 {
		add("search weights must be positive")
	}
	if c.Search.HybridAlpha < 0 || c.Search.HybridAlpha > 1 {
		add("search.hybrid_alpha must be within [0, 1], got %v", c.Search.HybridAlpha)
	}
	if !slices.Contains(Exporters, c.Telemetry.Exporter) {
		add("telemetry.exporter %q must be one of %s", c.Telemetry.Exporter, strings.Join(Exporters, ", "))
	}
	if c.Telemetry.Exporter == "otlp" && strings.TrimSpace(c.Telemetry.OTLPEndpoint) == "" {
		add("telemetry.otlp_endpoint is required for the otlp exporter")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
