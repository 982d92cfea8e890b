package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(cfg.Connections) != 0 {
		t.Errorf("expected no connections, got %d", len(cfg.Connections))
	}
	if cfg.Preferences.LogLevel != "info" || cfg.Preferences.ExportFormat != "csv" {
		t.Errorf("expected defaults, got %+v", cfg.Preferences)
	}
}

func TestLoadFrom_File(t *testing.T) {
	dir := t.TempDir()
	data := `connections:
  - name: prod
    dialect: mssql
    host: db01
    port: 1433
    user: loader
    database: sales
preferences:
  default_connection: prod
  log_format: json
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(cfg.Connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(cfg.Connections))
	}
	want := Connection{Name: "prod", Dialect: "mssql", Host: "db01", Port: 1433, User: "loader", Database: "sales"}
	if cfg.Connections[0] != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Connections[0])
	}
	if cfg.Preferences.LogFormat != "json" || cfg.Preferences.LogLevel != "info" {
		t.Errorf("expected file value merged with defaults, got %+v", cfg.Preferences)
	}
	if got := DefaultConnection(cfg); got == nil || got.Name != "prod" {
		t.Errorf("expected prod as default, got %+v", got)
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("TDSQL_PREFERENCES_LOG_LEVEL", "debug")
	t.Setenv("TDSQL_PREFERENCES_DELIVERY", "each")

	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Preferences.LogLevel != "debug" || cfg.Preferences.Delivery != "each" {
		t.Errorf("expected environment overrides, got %+v", cfg.Preferences)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg := &Config{
		Connections: []Connection{{Name: "ase", Dialect: "sybase", Host: "ase01", Port: 5000, User: "sa", Database: "stage"}},
		Preferences: Preferences{DefaultConnection: "ase", LogLevel: "warn", LogFormat: "text", Delivery: "last", ExportFormat: "xlsx"},
	}
	if err := SaveTo(dir, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(got.Connections) != 1 || got.Connections[0] != cfg.Connections[0] {
		t.Errorf("expected %+v, got %+v", cfg.Connections, got.Connections)
	}
	if got.Preferences != cfg.Preferences {
		t.Errorf("expected %+v, got %+v", cfg.Preferences, got.Preferences)
	}
}

func TestDefaultConnection(t *testing.T) {
	if DefaultConnection(&Config{}) != nil {
		t.Error("expected nil for empty config")
	}
	cfg := &Config{
		Connections: []Connection{{Name: "a"}, {Name: "b"}},
		Preferences: Preferences{DefaultConnection: "missing"},
	}
	if got := DefaultConnection(cfg); got.Name != "a" {
		t.Errorf("expected fallback to the first profile, got %s", got.Name)
	}
}

func TestKeyringPasswords(t *testing.T) {
	keyring.MockInit()

	conn := Connection{Name: "prod", Password: "s3cret"}
	if err := StorePassword(&conn); err != nil {
		t.Fatalf("StorePassword: %v", err)
	}
	if conn.Password != "" {
		t.Errorf("expected password to be cleared, got %q", conn.Password)
	}

	if err := ResolvePassword(&conn); err != nil {
		t.Fatalf("ResolvePassword: %v", err)
	}
	if conn.Password != "s3cret" {
		t.Errorf("expected password from keyring, got %q", conn.Password)
	}

	other := Connection{Name: "unknown"}
	if err := ResolvePassword(&other); err != nil {
		t.Fatalf("expected missing entry to be ignored, got %v", err)
	}
	if other.Password != "" {
		t.Errorf("expected empty password, got %q", other.Password)
	}
}

func TestSaveConnection_KeepsPasswordOutOfFile(t *testing.T) {
	keyring.MockInit()
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &Config{}
	if err := SaveConnection(cfg, Connection{Name: "prod", Host: "db01", Password: "s3cret"}); err != nil {
		t.Fatalf("SaveConnection: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, configDir, "config.yaml"))
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if strings.Contains(string(data), "s3cret") {
		t.Errorf("expected the password to stay out of the file, got:\n%s", data)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	conn, ok := loaded.Connection("prod")
	if !ok {
		t.Fatal("expected the saved profile")
	}
	if err := ResolvePassword(&conn); err != nil || conn.Password != "s3cret" {
		t.Errorf("expected password from keyring, got %q (%v)", conn.Password, err)
	}
}
