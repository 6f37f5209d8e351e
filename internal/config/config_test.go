package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
server:
  access_token: token-1
  account_id: acct-1
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9500 {
		t.Errorf("port = %d, want 9500", cfg.Server.Port)
	}
	if cfg.Server.AccountCapital != 1_000_000 {
		t.Errorf("account_capital = %f, want 1000000", cfg.Server.AccountCapital)
	}
	if cfg.Server.CaseDir != "cases" {
		t.Errorf("case_dir = %q, want cases", cfg.Server.CaseDir)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("read_timeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Encoding != "console" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Encoding)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 8080
  access_token: token-1
  account_id: acct-1
  case_dir: /srv/cases
  shutdown_timeout: 30s
logging:
  level: debug
  encoding: json
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.CaseDir != "/srv/cases" {
		t.Errorf("case_dir = %q", cfg.Server.CaseDir)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("shutdown_timeout = %v, want 30s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Encoding != "json" {
		t.Errorf("logging = %q/%q", cfg.Logging.Level, cfg.Logging.Encoding)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MOCKSERVER_SERVER_PORT", "7700")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7700 {
		t.Errorf("port = %d, want env override 7700", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           -1,
			AccountCapital: -5,
		},
		Logging: LoggingConfig{
			Level:    "verbose",
			Encoding: "xml",
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	for _, want := range []string{
		"server.port",
		"server.access_token",
		"server.account_id",
		"server.account_capital",
		"server.case_dir",
		"logging.level",
		"logging.encoding",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, err)
		}
	}
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	_, err := Load(writeConfig(t, `
server:
  access_token: token-1
  account_id: acct-1
logging:
  level: chatty
`))
	if err == nil {
		t.Fatal("expected error for invalid logging level")
	}
}
