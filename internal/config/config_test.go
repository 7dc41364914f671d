package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("KANBAN_CONFIG_DIR", t.TempDir())
	t.Setenv("KANBAN_API_URL", "")
	os.Unsetenv("KANBAN_API_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:3000/" {
		t.Fatalf("expected default api url; got %q", cfg.APIURL)
	}
	if cfg.PollInterval.Std() != 10*time.Second {
		t.Fatalf("expected 10s poll interval; got %s", cfg.PollInterval)
	}
}

func TestSaveThenLoad_FileValuesAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBAN_CONFIG_DIR", dir)

	if err := Save(&Config{APIURL: "https://boards.example.com/", PollInterval: Duration(3 * time.Second), Token: "tok"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 config; got %v", info.Mode().Perm())
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://boards.example.com/" || cfg.Token != "tok" || cfg.PollInterval.Std() != 3*time.Second {
		t.Fatalf("expected file values; got %+v", cfg)
	}

	t.Setenv("KANBAN_TOKEN", "from-env")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "from-env" {
		t.Fatalf("expected env to override file; got %q", cfg.Token)
	}
}

func TestUpdate_DoesNotPersistEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBAN_CONFIG_DIR", dir)
	t.Setenv("KANBAN_API_URL", "http://env-only/")

	if err := Update(func(c *Config) { c.Token = "saved" }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := Update(func(c *Config) { c.LogFile = "/tmp/k.log" }); err != nil {
		t.Fatalf("Update: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(b), "env-only") {
		t.Fatalf("expected env value not written; got %s", b)
	}
	if !strings.Contains(string(b), `"token": "saved"`) {
		t.Fatalf("expected token kept across updates; got %s", b)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json.bak")); err != nil {
		t.Fatalf("expected backup of previous config: %v", err)
	}
}

func TestDuration_Parse(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte(`5`)); err != nil || d.Std() != 5*time.Second {
		t.Fatalf("expected 5s from bare number; got %s err=%v", d, err)
	}
	if err := d.UnmarshalJSON([]byte(`"2m"`)); err != nil || d.Std() != 2*time.Minute {
		t.Fatalf("expected 2m; got %s err=%v", d, err)
	}
	if err := d.SetValue("soon"); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLogPath_DefaultsUnderConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBAN_CONFIG_DIR", dir)
	if got := (&Config{}).LogPath(); got != filepath.Join(dir, "kanban.log") {
		t.Fatalf("expected default log path; got %q", got)
	}
	if got := (&Config{LogFile: "/var/log/k.log"}).LogPath(); got != "/var/log/k.log" {
		t.Fatalf("expected configured log path; got %q", got)
	}
}

func TestLoad_EmptyEnvDoesNotOverrideFile(t *testing.T) {
	t.Setenv("KANBAN_CONFIG_DIR", t.TempDir())
	if err := Save(&Config{APIURL: "http://svc/", Token: "tok"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("KANBAN_TOKEN", "")
	t.Setenv("KANBAN_API_URL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "tok" || cfg.APIURL != "http://svc/" {
		t.Fatalf("expected file values with empty env; got token=%q api=%q", cfg.Token, cfg.APIURL)
	}
}

func TestLoad_EmptyEnvKeepsDefaults(t *testing.T) {
	t.Setenv("KANBAN_CONFIG_DIR", t.TempDir())
	t.Setenv("KANBAN_API_URL", "")
	t.Setenv("KANBAN_POLL_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:3000/" || cfg.PollInterval.Std() != 10*time.Second {
		t.Fatalf("expected defaults with empty env; got %+v", cfg)
	}
}
