package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if len(cfg.WebSocket.AllowedOrigins) != 0 {
		t.Errorf("expected empty allowed origins by default, got %v", cfg.WebSocket.AllowedOrigins)
	}

	if cfg.WebSocket.MaxMessageSize != 4096 {
		t.Errorf("expected max message size 4096, got %d", cfg.WebSocket.MaxMessageSize)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite driver by default, got %s", cfg.Database.Driver)
	}

	if len(cfg.Selection.Priority) == 0 || cfg.Selection.Priority[0] != "hunt" {
		t.Errorf("expected hunt first in default priority, got %v", cfg.Selection.Priority)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	if err != nil {
		t.Errorf("expected no error for missing file, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected default config for missing file, got nil")
	}

	// Should return defaults
	if len(cfg.WebSocket.AllowedOrigins) != 0 {
		t.Errorf("expected empty allowed origins by default")
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "server.yaml")

	content := `
websocket:
  allowed_origins:
    - "https://example.com"
    - "http://localhost:3000"
  max_message_size: 8192
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.WebSocket.AllowedOrigins) != 2 {
		t.Errorf("expected 2 allowed origins, got %d", len(cfg.WebSocket.AllowedOrigins))
	}

	if cfg.WebSocket.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("expected first origin 'https://example.com', got %s", cfg.WebSocket.AllowedOrigins[0])
	}

	if cfg.WebSocket.MaxMessageSize != 8192 {
		t.Errorf("expected max message size 8192, got %d", cfg.WebSocket.MaxMessageSize)
	}
}

func TestLoadConfig_SelectionAndDatabase(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "questgen.yaml")
	content := `
address: "127.0.0.1:9000"
database:
  driver: postgres
  postgres_database: quests
  conn_max_lifetime: 90s
selection:
  priority: [hometown, hunt]
  weights:
    delivery: 0
    spying: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Errorf("expected address 127.0.0.1:9000, got %s", cfg.Address)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.PostgresDatabase != "quests" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Database.ConnMaxLifetime != 90*time.Second {
		t.Errorf("expected conn max lifetime 90s, got %v", cfg.Database.ConnMaxLifetime)
	}
	// Unset database keys keep their defaults
	if cfg.Database.PostgresPort != 5432 {
		t.Errorf("expected default postgres port, got %d", cfg.Database.PostgresPort)
	}

	if len(cfg.Selection.Priority) != 2 || cfg.Selection.Priority[0] != "hometown" {
		t.Errorf("unexpected priority: %v", cfg.Selection.Priority)
	}
	if cfg.Selection.Weights["delivery"] != 0 || cfg.Selection.Weights["spying"] != 5 {
		t.Errorf("unexpected weights: %v", cfg.Selection.Weights)
	}
	// YAML maps merge into the default table
	if cfg.Selection.Weights["caravan"] != 2 {
		t.Errorf("expected default caravan weight 2, got %d", cfg.Selection.Weights["caravan"])
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "questgen.yaml")
	if err := os.WriteFile(configPath, []byte("websocket: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if cfg == nil || cfg.WebSocket.MaxMessageSize != 4096 {
		t.Error("expected defaults alongside the parse error")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("QUESTGEN_ADDRESS", ":5000")
	t.Setenv("QUESTGEN_WS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("QUESTGEN_CONN_MAX_PER_IP", "7")
	t.Setenv("QUESTGEN_DB_SQLITE_PATH", "/tmp/heroes.db")
	t.Setenv("QUESTGEN_METRICS_ENABLED", "false")
	t.Setenv("QUESTGEN_DATA_WORLD", "/srv/world.yaml")
	t.Setenv("QUESTGEN_RATE_MAX_FAILURES", "2")

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Address != ":5000" {
		t.Errorf("expected address :5000, got %s", cfg.Address)
	}
	if len(cfg.WebSocket.AllowedOrigins) != 2 || cfg.WebSocket.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected origins: %v", cfg.WebSocket.AllowedOrigins)
	}
	if cfg.Connections.MaxPerIP != 7 {
		t.Errorf("expected max per IP 7, got %d", cfg.Connections.MaxPerIP)
	}
	if cfg.Database.SQLitePath != "/tmp/heroes.db" {
		t.Errorf("expected sqlite path override, got %s", cfg.Database.SQLitePath)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled by env")
	}
	if cfg.Data.World != "/srv/world.yaml" {
		t.Errorf("expected world override, got %s", cfg.Data.World)
	}
	if cfg.RateLimit.MaxFailures != 2 {
		t.Errorf("expected max failures 2, got %d", cfg.RateLimit.MaxFailures)
	}
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("QUESTGEN_CONN_MAX_TOTAL", "lots")

	if _, err := LoadConfig("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error for non-numeric override")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr bool
	}{
		{"defaults", func(c *ServerConfig) {}, false},
		{"unknown driver", func(c *ServerConfig) { c.Database.Driver = "mysql" }, true},
		{"sqlite without path", func(c *ServerConfig) { c.Database.SQLitePath = "" }, true},
		{"postgres without sqlite path", func(c *ServerConfig) {
			c.Database.Driver = "postgres"
			c.Database.SQLitePath = ""
		}, false},
		{"negative limit", func(c *ServerConfig) { c.Connections.MaxPerIP = -1 }, true},
		{"negative lockout", func(c *ServerConfig) { c.RateLimit.LockoutSeconds = -1 }, true},
		{"relative metrics path", func(c *ServerConfig) { c.Metrics.Path = "metrics" }, true},
		{"metrics disabled ignores path", func(c *ServerConfig) {
			c.Metrics.Enabled = false
			c.Metrics.Path = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsOriginAllowed_EmptyList_SameOrigin(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{},
	}

	// Same origin (no Origin header)
	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected empty origin to be allowed (same-origin)")
	}

	// Same origin (matching host)
	if !cfg.IsOriginAllowed("http://localhost:4000", "localhost:4000") {
		t.Error("expected matching origin to be allowed (same-origin)")
	}

	// Different origin should be rejected
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected different origin to be rejected (same-origin policy)")
	}
}

func TestIsOriginAllowed_Wildcard(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{"*"},
	}

	// Wildcard allows everything
	if !cfg.IsOriginAllowed("http://anything.com", "localhost:4000") {
		t.Error("expected wildcard to allow any origin")
	}

	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected wildcard to allow empty origin")
	}
}

func TestIsOriginAllowed_ExactMatch(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{
			"https://example.com",
			"http://localhost:3000",
		},
	}

	// Exact matches
	if !cfg.IsOriginAllowed("https://example.com", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}

	if !cfg.IsOriginAllowed("http://localhost:3000", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}

	// Non-matching origin
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected non-matching origin to be rejected")
	}

	// Partial match should not work
	if cfg.IsOriginAllowed("https://example.com:8080", "localhost:4000") {
		t.Error("expected partial match to be rejected")
	}
}

func TestIsSameOrigin(t *testing.T) {
	tests := []struct {
		origin      string
		requestHost string
		expected    bool
	}{
		{"", "localhost:4000", true},                                // No origin header
		{"http://localhost:4000", "localhost:4000", true},           // HTTP match
		{"https://localhost:4000", "localhost:4000", true},          // HTTPS match
		{"http://localhost:4000/", "localhost:4000", true},          // Trailing slash
		{"http://example.com", "localhost:4000", false},             // Different host
		{"http://localhost:3000", "localhost:4000", false},          // Different port
		{"ws://localhost:4000", "localhost:4000", true},             // WebSocket scheme
	}

	for _, tt := range tests {
		result := isSameOrigin(tt.origin, tt.requestHost)
		if result != tt.expected {
			t.Errorf("isSameOrigin(%q, %q) = %v, want %v",
				tt.origin, tt.requestHost, result, tt.expected)
		}
	}
}
