package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the .env lookup at a missing file inside a temp dir so
// that a developer's own .env does not leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Transport != "stdio" {
		t.Errorf("expected default transport stdio, got %s", cfg.Server.Transport)
	}
	if cfg.Actions.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.Actions.Timeout)
	}
	if cfg.Audit.Retention != 1000 {
		t.Errorf("expected default retention 1000, got %d", cfg.Audit.Retention)
	}
	if cfg.Search.HybridAlpha != 0.7 {
		t.Errorf("expected default hybrid alpha 0.7, got %v", cfg.Search.HybridAlpha)
	}
	if cfg.Search.Engine != "token" || cfg.Search.DefaultLimit != 5 || cfg.Search.MaxLimit != 50 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "supportbot.yaml")
	content := `
server:
  transport: http
  addr: ":9090"
bot:
  document: /etc/supportbot/bot.yaml
actions:
  timeout: 2s
search:
  engine: bm25
  default_limit: 3
effects:
  ticket_webhook:
    url: https://tickets.example.com/hook
    headers:
      Authorization: Bearer abc
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Transport != "http" || cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Actions.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %s", cfg.Actions.Timeout)
	}
	if cfg.Search.Engine != "bm25" || cfg.Search.DefaultLimit != 3 {
		t.Errorf("unexpected search config: %+v", cfg.Search)
	}
	if cfg.Effects.TicketWebhook.Headers["Authorization"] != "Bearer abc" {
		t.Errorf("unexpected webhook headers: %v", cfg.Effects.TicketWebhook.Headers)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("defaults should survive a partial file, got level %q", cfg.Log.Level)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	isolate(t)
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SUPPORTBOT_LOG_LEVEL", "debug")
	t.Setenv("SUPPORTBOT_SEARCH_DEFAULT_LIMIT", "7")
	t.Setenv("SUPPORTBOT_TELEMETRY_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("SUPPORTBOT_ACTIONS_TIMEOUT", "1500ms")
	t.Setenv("SUPPORTBOT_EFFECTS_TICKET_WEBHOOK_HEADERS", "X-Api-Key=secret, X-Team = support")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected level debug from env, got %s", cfg.Log.Level)
	}
	if cfg.Search.DefaultLimit != 7 {
		t.Errorf("expected default_limit 7 from env, got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Telemetry.OTLPEndpoint != "collector:4317" {
		t.Errorf("expected otlp endpoint from env, got %q", cfg.Telemetry.OTLPEndpoint)
	}
	if cfg.Actions.Timeout != 1500*time.Millisecond {
		t.Errorf("expected 1.5s timeout, got %s", cfg.Actions.Timeout)
	}
	headers := cfg.Effects.TicketWebhook.Headers
	if headers["X-Api-Key"] != "secret" || headers["X-Team"] != "support" {
		t.Errorf("unexpected headers from env: %v", headers)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SUPPORTBOT_SERVER_NAME=from-dotenv\nSUPPORTBOT_LOG_FORMAT=json\n"), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	// An explicit variable wins over the file.
	t.Setenv("SUPPORTBOT_LOG_FORMAT", "text")
	t.Cleanup(func() { os.Unsetenv("SUPPORTBOT_SERVER_NAME") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Name != "from-dotenv" {
		t.Errorf("expected server name from .env, got %q", cfg.Server.Name)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected environment to override .env, got %q", cfg.Log.Format)
	}
}

func TestLoadDotEnv_ExplicitMissing(t *testing.T) {
	dir := isolate(t)
	t.Setenv(DotEnvVar, filepath.Join(dir, "custom.env"))
	if _, err := Load(""); err == nil {
		t.Error("expected error for an explicit .env path that does not exist")
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg.Server.Transport = "carrier-pigeon"
	cfg.Search.Engine = "grep"
	cfg.Search.MaxLimit = 0
	cfg.Audit.Retention = -1
	cfg.Telemetry.Exporter = "otlp"
	cfg.Search.HybridAlpha = 1.5

	err = cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	for _, want := range []string{"server.transport", "search.engine", "search.max_limit", "audit.retention", "telemetry.otlp_endpoint", "search.hybrid_alpha"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %q", want, err.Error())
		}
	}
}

func TestValidate_DefaultExceedsMax(t *testing.T) {
	isolate(t)
	cfg, _ := Load("")
	cfg.Search.DefaultLimit = 100
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("expected default_limit error, got %v", err)
	}
}
