package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type StorageConfig struct {
	Backend string `yaml:"backend"`
	// DSN is the postgres connection URI. The password is not kept here; it
	// lives in the OS keyring.
	DSN     string `yaml:"dsn,omitempty"`
	DataDir string `yaml:"data_dir"`
	// Key is the document opened at startup.
	Key string `yaml:"key"`
}

type EditorConfig struct {
	DeselectAfter time.Duration `yaml:"deselect_after"`
	ImagePrefix   string        `yaml:"image_prefix"`
	// MarkdownStyle is a glamour style name or "auto".
	MarkdownStyle string `yaml:"markdown_style"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type Config struct {
	ConfigVersion int           `yaml:"config_version"`
	Storage       StorageConfig `yaml:"storage"`
	Editor        EditorConfig  `yaml:"editor"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Env var names used as overrides.
const (
	EnvConfigPath    = "CLIPAGE_CONFIG"
	EnvBackend       = "CLIPAGE_STORAGE_BACKEND"
	EnvDSN           = "CLIPAGE_STORAGE_DSN"
	EnvDataDir       = "CLIPAGE_DATA_DIR"
	EnvDocument      = "CLIPAGE_DOCUMENT"
	EnvDeselectAfter = "CLIPAGE_DESELECT_AFTER"
	EnvMarkdownStyle = "CLIPAGE_MARKDOWN_STYLE"
	EnvLogLevel      = "CLIPAGE_LOG_LEVEL"
	EnvLogFormat     = "CLIPAGE_LOG_FORMAT"
	EnvLogSource     = "CLIPAGE_LOG_SOURCE"
	EnvLogFile       = "CLIPAGE_LOG_FILE"
)

const (
	keyringService    = "cli-page"
	currentConfigVers = 1
)

// Defaults returns the application defaults.
func Defaults() Config {
	return Config{
		ConfigVersion: currentConfigVers,
		Storage: StorageConfig{
			Backend: BackendSQLite,
			DataDir: defaultDataDir(),
			Key:     "editor-rows",
		},
		Editor: EditorConfig{
			DeselectAfter: 15 * time.Second,
			ImagePrefix:   "https",
			MarkdownStyle: "auto",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "cli-page")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cli-page-data"
	}
	return filepath.Join(home, ".local", "share", "cli-page")
}

// Path returns the config file location.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cli-page", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cli-page", "config.yaml"), nil
}

// Load reads the config file if present, applies defaults and merges
// environment overrides. A malformed file is reported alongside a usable
// config built from defaults and env.
func Load() (Config, error) {
	cfg := Defaults()
	path, err := Path()
	if err != nil {
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	var loadErr error
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("failed to parse config %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	case !errors.Is(err, os.ErrNotExist):
		loadErr = fmt.Errorf("failed to read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil && loadErr == nil {
		loadErr = err
	}
	return cfg, loadErr
}

// Save writes cfg as YAML. A password embedded in the DSN is moved into the
// keyring first.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if cfg.Storage.DSN != "" {
		stripped, err := StorePassword(cfg.Storage.DSN)
		if err != nil {
			return err
		}
		cfg.Storage.DSN = stripped
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate reports settings the application cannot run with.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.Storage.DataDir) == "" {
			return fmt.Errorf("storage.data_dir is required for the %s backend", c.Storage.Backend)
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("storage.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Editor.DeselectAfter <= 0 {
		return fmt.Errorf("editor.deselect_after must be positive, got %s", c.Editor.DeselectAfter)
	}
	return nil
}

func mergeInto(dst *Config, src *Config) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.ToLower(strings.TrimSpace(src.Storage.Backend)); v != "" {
		dst.Storage.Backend = v
	}
	if v := strings.TrimSpace(src.Storage.DSN); v != "" {
		dst.Storage.DSN = v
	}
	if v := strings.TrimSpace(src.Storage.DataDir); v != "" {
		dst.Storage.DataDir = expandHome(v)
	}
	if v := strings.TrimSpace(src.Storage.Key); v != "" {
		dst.Storage.Key = v
	}
	if src.Editor.DeselectAfter > 0 {
		dst.Editor.DeselectAfter = src.Editor.DeselectAfter
	}
	if v := strings.TrimSpace(src.Editor.ImagePrefix); v != "" {
		dst.Editor.ImagePrefix = v
	}
	if v := strings.TrimSpace(src.Editor.MarkdownStyle); v != "" {
		dst.Editor.MarkdownStyle = v
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = expandHome(v)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Storage.DataDir = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDocument)); v != "" {
		cfg.Storage.Key = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDeselectAfter)); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.Editor.DeselectAfter = d
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvMarkdownStyle)); v != "" {
		cfg.Editor.MarkdownStyle = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = expandHome(v)
	}
}

// parseDuration accepts Go durations ("15s") and bare seconds ("15").
func parseDuration(s string) (time.Duration, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, n > 0
	}
	d, err := time.ParseDuration(s)
	return d, err == nil && d > 0
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// TokenStore abstracts the OS keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error { return keyring.Delete(service, key) }

var tokenStore TokenStore = osKeyring{}

// SetTokenStore replaces the keyring backend and returns a function that
// restores the previous one.
func SetTokenStore(ts TokenStore) (restore func()) {
	prev := tokenStore
	tokenStore = ts
	return func() { tokenStore = prev }
}

// passwordKey names the keyring entry for a postgres DSN: user@host/db.
func passwordKey(u *url.URL) string {
	return u.User.Username() + "@" + u.Host + u.Path
}

// StorePassword moves the password out of a postgres URI into the keyring
// and returns the URI without it. DSNs that are not URIs or carry no password
// are returned unchanged.
func StorePassword(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil || u.Host == "" {
		return dsn, nil
	}
	pw, ok := u.User.Password()
	if !ok {
		return dsn, nil
	}
	if err := tokenStore.Set(keyringService, passwordKey(u), pw); err != nil {
		return dsn, fmt.Errorf("failed to store password in keyring: %w", err)
	}
	u.User = url.User(u.User.Username())
	return u.String(), nil
}

// ResolveDSN returns the storage DSN with the keyring password filled in
// when the URI does not carry one.
func (c Config) ResolveDSN() string {
	dsn := c.Storage.DSN
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil || u.Host == "" {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		return dsn
	}
	pw, err := tokenStore.Get(keyringService, passwordKey(u))
	if err != nil || pw == "" {
		return dsn
	}
	u.User = url.UserPassword(u.User.Username(), pw)
	return u.String()
}

// ForgetPassword removes the keyring entry for dsn. A missing entry is not
// an error.
func ForgetPassword(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return nil
	}
	if err := tokenStore.Delete(keyringService, passwordKey(u)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}
