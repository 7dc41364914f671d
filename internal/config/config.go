package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Duration accepts "10s", "5m" or a bare number of seconds, in JSON and in env.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(s string) error {
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	if d == 0 {
		return []byte(`""`), nil
	}
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n * float64(time.Second)))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("pollInterval: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	return d.SetValue(s)
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

type Config struct {
	// APIURL is the board service base URL.
	APIURL string `json:"apiUrl,omitempty" env:"KANBAN_API_URL" env-default:"http://localhost:3000/"`

	PollInterval Duration `json:"pollInterval,omitempty" env:"KANBAN_POLL_INTERVAL" env-default:"10s"`

	// LogFile receives background failures. Empty means Dir()/kanban.log.
	LogFile string `json:"logFile,omitempty" env:"KANBAN_LOG_FILE"`

	// Token is the bearer token stored by `kanban login`.
	Token string `json:"token,omitempty" env:"KANBAN_TOKEN"`

	Debug bool `json:"-" env:"KANBAN_DEBUG"`

	// ColorProfile forces the TUI palette: "ascii", "ansi", "ansi256" or "truecolor".
	ColorProfile string `json:"colorProfile,omitempty" env:"KANBAN_COLOR_PROFILE"`
}

func Dir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.kanban).
	if v := strings.TrimSpace(os.Getenv("KANBAN_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kanban"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file (if any) and applies env overrides and defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	unsetEmptyEnv()
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	} else {
		return nil, err
	}
	return &cfg, nil
}

// unsetEmptyEnv drops KANBAN_* variables that are set but empty. cleanenv
// treats them as overrides; flags and the rest of the CLI treat them as unset.
func unsetEmptyEnv() {
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && v == "" && strings.HasPrefix(k, "KANBAN_") {
			_ = os.Unsetenv(k)
		}
	}
}

// LoadFile reads only the file, without env or defaults. Used before Save so
// env values are never written back.
func LoadFile() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LogPath returns the configured log file or the default under Dir().
func (c *Config) LogPath() string {
	if c != nil && strings.TrimSpace(c.LogFile) != "" {
		return c.LogFile
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kanban.log")
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

// Save writes cfg atomically, keeping the previous file as config.json.bak.
// The file holds the token, so it is written 0600.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o600)
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// Update loads the file, applies fn and saves it.
func Update(fn func(*Config)) error {
	cfg, err := LoadFile()
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg)
}
