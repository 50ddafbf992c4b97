package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ripd/ripd/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Admin.Addr != ":8080" {
		t.Errorf("Admin.Addr = %q, want %q", cfg.Admin.Addr, ":8080")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	if cfg.RIP.PeriodicInterval != 30*time.Second {
		t.Errorf("RIP.PeriodicInterval = %v, want %v", cfg.RIP.PeriodicInterval, 30*time.Second)
	}

	if cfg.RIP.TriggeredHoldDown != 2*time.Second {
		t.Errorf("RIP.TriggeredHoldDown = %v, want %v", cfg.RIP.TriggeredHoldDown, 2*time.Second)
	}

	if cfg.RIP.ReceiveTimeout != 1*time.Second {
		t.Errorf("RIP.ReceiveTimeout = %v, want %v", cfg.RIP.ReceiveTimeout, 1*time.Second)
	}

	// Defaults must pass validation.
	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
admin:
  addr: ":9000"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
rip:
  periodic_interval: "10s"
  triggered_hold_down: "500ms"
  receive_timeout: "2s"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Admin.Addr != ":9000" {
		t.Errorf("Admin.Addr = %q, want %q", cfg.Admin.Addr, ":9000")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/custom-metrics")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}

	if cfg.RIP.PeriodicInterval != 10*time.Second {
		t.Errorf("RIP.PeriodicInterval = %v, want %v", cfg.RIP.PeriodicInterval, 10*time.Second)
	}

	if cfg.RIP.TriggeredHoldDown != 500*time.Millisecond {
		t.Errorf("RIP.TriggeredHoldDown = %v, want %v", cfg.RIP.TriggeredHoldDown, 500*time.Millisecond)
	}

	if cfg.RIP.ReceiveTimeout != 2*time.Second {
		t.Errorf("RIP.ReceiveTimeout = %v, want %v", cfg.RIP.ReceiveTimeout, 2*time.Second)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	// Partial YAML: only override admin.addr and log.level.
	// Everything else should inherit from defaults.
	yamlContent := `
admin:
  addr: ":55555"
log:
  level: "warn"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	// Overridden values.
	if cfg.Admin.Addr != ":55555" {
		t.Errorf("Admin.Addr = %q, want %q", cfg.Admin.Addr, ":55555")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	// Default values should be preserved.
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}

	if cfg.RIP.PeriodicInterval != 30*time.Second {
		t.Errorf("RIP.PeriodicInterval = %v, want default %v", cfg.RIP.PeriodicInterval, 30*time.Second)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty admin addr",
			modify: func(cfg *config.Config) {
				cfg.Admin.Addr = ""
			},
			wantErr: config.ErrEmptyAdminAddr,
		},
		{
			name: "zero periodic interval",
			modify: func(cfg *config.Config) {
				cfg.RIP.PeriodicInterval = 0
			},
			wantErr: config.ErrInvalidPeriodicInterval,
		},
		{
			name: "negative periodic interval",
			modify: func(cfg *config.Config) {
				cfg.RIP.PeriodicInterval = -1 * time.Second
			},
			wantErr: config.ErrInvalidPeriodicInterval,
		},
		{
			name: "negative triggered hold-down",
			modify: func(cfg *config.Config) {
				cfg.RIP.TriggeredHoldDown = -1 * time.Second
			},
			wantErr: config.ErrInvalidTriggeredHoldDown,
		},
		{
			name: "zero receive timeout",
			modify: func(cfg *config.Config) {
				cfg.RIP.ReceiveTimeout = 0
			},
			wantErr: config.ErrInvalidReceiveTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

// -------------------------------------------------------------------------
// Interface config tests
// -------------------------------------------------------------------------

func TestLoadWithInterfaces(t *testing.T) {
	t.Parallel()

	yamlContent := `
admin:
  addr: ":8080"
interfaces:
  - name: "eth0"
    addr: "10.0.0.2"
    if_index: 1
  - name: "eth1"
    addr: "10.1.0.2"
    if_index: 2
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if len(cfg.Interfaces) != 2 {
		t.Fatalf("Interfaces count = %d, want 2", len(cfg.Interfaces))
	}

	i1 := cfg.Interfaces[0]
	if i1.Name != "eth0" {
		t.Errorf("Interfaces[0].Name = %q, want %q", i1.Name, "eth0")
	}
	if i1.Addr != "10.0.0.2" {
		t.Errorf("Interfaces[0].Addr = %q, want %q", i1.Addr, "10.0.0.2")
	}
	if i1.IfIndex != 1 {
		t.Errorf("Interfaces[0].IfIndex = %d, want %d", i1.IfIndex, 1)
	}

	stored, err := i1.StoredAddr()
	if err != nil {
		t.Fatalf("StoredAddr() error: %v", err)
	}
	if stored != 0x0200000A {
		t.Errorf("StoredAddr() = %#08x, want 0x0200000a", stored)
	}
}

func TestValidateInterfaceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty interface name",
			modify: func(cfg *config.Config) {
				cfg.Interfaces = []config.InterfaceConfig{{Name: "", Addr: "10.0.0.1"}}
			},
			wantErr: config.ErrEmptyInterfaceName,
		},
		{
			name: "invalid interface addr",
			modify: func(cfg *config.Config) {
				cfg.Interfaces = []config.InterfaceConfig{{Name: "eth0", Addr: "not-an-ip"}}
			},
			wantErr: config.ErrInvalidInterfaceAddr,
		},
		{
			name: "duplicate if_index",
			modify: func(cfg *config.Config) {
				cfg.Interfaces = []config.InterfaceConfig{
					{Name: "eth0", Addr: "10.0.0.1", IfIndex: 1},
					{Name: "eth1", Addr: "10.0.0.2", IfIndex: 1},
				}
			},
			wantErr: config.ErrDuplicateIfIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInterfaceConfigStoredAddr(t *testing.T) {
	t.Parallel()

	ic := config.InterfaceConfig{Addr: "172.16.10.99"}
	stored, err := ic.StoredAddr()
	if err != nil {
		t.Fatalf("StoredAddr() error: %v", err)
	}
	if stored != 0x630A10AC {
		t.Errorf("StoredAddr() = %#08x, want 0x630a10ac", stored)
	}
}

// -------------------------------------------------------------------------
// Environment Variable Override Tests
// -------------------------------------------------------------------------

func TestLoadEnvOverrides(t *testing.T) {
	// Environment variable tests cannot be parallel because they modify
	// process-wide state (os.Setenv).

	yamlContent := `
admin:
  addr: ":8080"
log:
  level: "info"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("RIPD_ADMIN_ADDR", ":60000")
	t.Setenv("RIPD_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Admin.Addr != ":60000" {
		t.Errorf("Admin.Addr = %q, want %q (from env)", cfg.Admin.Addr, ":60000")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}
}

func TestLoadEnvOverridesMetrics(t *testing.T) {
	yamlContent := `
admin:
  addr: ":8080"
metrics:
  addr: ":9100"
  path: "/metrics"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("RIPD_METRICS_ADDR", ":9200")
	t.Setenv("RIPD_METRICS_PATH", "/custom")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "ripd.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
