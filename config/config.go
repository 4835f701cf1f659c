// Package config loads the supportbot service configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// an optional .env file, then SUPPORTBOT_* environment variables. The
// variable for a key is its upper-cased path with dots replaced by
// underscores, e.g. SUPPORTBOT_SEARCH_DEFAULT_LIMIT for search.default_limit.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SUPPORTBOT_"

// DotEnvVar names the variable that overrides the .env file path.
const DotEnvVar = EnvPrefix + "DOTENV"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Bot       BotConfig       `koanf:"bot"`
	Audit     AuditConfig     `koanf:"audit"`
	Actions   ActionsConfig   `koanf:"actions"`
	Search    SearchConfig    `koanf:"search"`
	Effects   EffectsConfig   `koanf:"effects"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// ServerConfig selects the transport and the identity reported to clients.
type ServerConfig struct {
	Name      string `koanf:"name"`
	Version   string `koanf:"version"`
	Transport string `koanf:"transport"` // stdio, http, rpc-http, rpc-stdio
	Addr      string `koanf:"addr"`
}

// BotConfig points at the bot document (JSON or YAML).
type BotConfig struct {
	Document string `koanf:"document"`
}

// AuditConfig bounds the in-memory action audit log. Zero keeps the
// registry default.
type AuditConfig struct {
	Retention int `koanf:"retention"`
}

// ActionsConfig holds limits applied to every action invocation.
type ActionsConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// SearchConfig chooses the knowledge search engine and its tuning.
type SearchConfig struct {
	Engine       string  `koanf:"engine"` // token, bm25, hybrid
	DefaultLimit int     `koanf:"default_limit"`
	MaxLimit     int     `koanf:"max_limit"`
	TitleWeight  float64 `koanf:"title_weight"`
	BodyWeight   float64 `koanf:"body_weight"`
	HybridAlpha  float64 `koanf:"hybrid_alpha"` // BM25 share of hybrid scores
}

// EffectsConfig configures the built-in effect handlers.
type EffectsConfig struct {
	TicketWebhook WebhookConfig `koanf:"ticket_webhook"`
}

// WebhookConfig describes an outbound HTTP endpoint. An empty URL
// disables it.
type WebhookConfig struct {
	URL     string            `koanf:"url"`
	Headers map[string]string `koanf:"headers"`
}

// LogConfig sets the slog level and handler format.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

// TelemetryConfig selects the OpenTelemetry exporter.
type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

// Transports, engines and exporters accepted by Validate.
var (
	Transports = []string{"stdio", "http", "rpc-http", "rpc-stdio"}
	Engines    = []string{"token", "bm25", "hybrid"}
	Exporters  = []string{"none", "stdout", "otlp"}
)

func setDefaults(k *koanf.Koanf) {
	_ = k.Set("server.name", "supportbot")
	_ = k.Set("server.version", "0.1.0")
	_ = k.Set("server.transport", "stdio")
	_ = k.Set("server.addr", ":8080")
	_ = k.Set("bot.document", "config.json")
	_ = k.Set("audit.retention", 1000)
	_ = k.Set("actions.timeout", "10s")
	_ = k.Set("search.engine", "token")
	_ = k.Set("search.default_limit", 5)
	_ = k.Set("search.max_limit", 50)
	_ = k.Set("search.title_weight", 2.0)
	_ = k.Set("search.body_weight", 1.0)
	_ = k.Set("search.hybrid_alpha", 0.7)
	_ = k.Set("log.level", "info")
	_ = k.Set("log.format", "text")
	_ = k.Set("telemetry.exporter", "none")
	_ = k.Set("telemetry.otlp_insecure", false)
}

// envKeys maps environment variable names to keys whose path segments
// contain underscores.
var envKeys = func() map[string]string {
	keys := []string{
		"search.default_limit",
		"search.max_limit",
		"search.title_weight",
		"search.body_weight",
		"search.hybrid_alpha",
		"effects.ticket_webhook.url",
		"effects.ticket_webhook.headers",
		"telemetry.otlp_endpoint",
		"telemetry.otlp_insecure",
	}
	m := make(map[string]string, len(keys))
	for _, key := range keys {
		m[EnvPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return m
}()

// Load reads the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	setDefaults(k)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// loadDotEnv exports the variables of the .env file without overriding
// ones already set. A missing default file is ignored.
func loadDotEnv() error {
	path, explicit := os.LookupEnv(DotEnvVar)
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// envValue maps SUPPORTBOT_LOG_LEVEL to log.level. Header lists are given
// as comma-separated Name=Value pairs.
func envValue(name, value string) (string, any) {
	if name == DotEnvVar {
		return "", nil
	}
	key, ok := envKeys[name]
	if !ok {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_", ".")
	}
	if key == "effects.ticket_webhook.headers" {
		return key, parseHeaders(value)
	}
	return key, value
}

func parseHeaders(s string) map[string]any {
	out := make(map[string]any)
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	return out
}
