package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func noFlags(string) bool { return false }

func flags(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, "listen_addr: \":9090\"\nlog_format: json\n")

	var c Config
	if err := c.LoadFromFile(path, noFlags); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090", c.ListenAddr)
	}
	if c.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", c.LogFormat)
	}
}

func TestLoadFromFile_ExplicitFlagWins(t *testing.T) {
	path := writeConfig(t, "listen_addr: \":9090\"\nlog_format: text\n")

	c := Config{ListenAddr: ":7070", LogFormat: "json"}
	if err := c.LoadFromFile(path, flags("listen", "log-format")); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q, want flag value :7070", c.ListenAddr)
	}
	if c.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want flag value json", c.LogFormat)
	}
}

func TestLoadFromFile_FileOverridesFlagDefault(t *testing.T) {
	path := writeConfig(t, "listen_addr: \":9090\"\nlog_format: json\n")

	// Flag defaults are populated in the struct but not marked as set, so
	// the file value applies.
	c := Config{ListenAddr: ":8080", LogFormat: "text"}
	if err := c.LoadFromFile(path, noFlags); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want file value :9090", c.ListenAddr)
	}
	if c.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want file value json", c.LogFormat)
	}
}

func TestLoadFromFile_BadLogFormat(t *testing.T) {
	path := writeConfig(t, "log_format: verbose\n")

	var c Config
	if err := c.LoadFromFile(path, noFlags); err == nil {
		t.Fatal("expected error for unknown log format")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	var c Config
	if err := c.LoadFromFile("/nonexistent/config.yaml", noFlags); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	var c Config
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing --file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "extract.csv")
	os.WriteFile(path, []byte("Product,Description,Code,GeoZip\n"), 0644)

	c.FilePath = path
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := c.ValidateWithDSN(); err == nil {
		t.Fatal("expected error for missing DSN")
	}
	c.DSN = "postgresql://localhost/feesched"
	if err := c.ValidateWithDSN(); err != nil {
		t.Fatalf("ValidateWithDSN: %v", err)
	}
}
