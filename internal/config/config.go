package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "walink"

// EnvConfigPath overrides the config file location
const EnvConfigPath = "WALINK_CONFIG"

// Link methods accepted in [link] method
const (
	MethodQR      = "qr"
	MethodPairing = "pairing"
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Service  ServiceConfig  `toml:"service"`
	Link     LinkConfig     `toml:"link"`
	Browser  BrowserConfig  `toml:"browser"`
	Timeouts TimeoutsConfig `toml:"timeouts"`
	Sync     SyncConfig     `toml:"sync"`
	Store    StoreConfig    `toml:"store"`
	Email    EmailConfig    `toml:"email"`
	Output   OutputConfig   `toml:"output"`
}

// ServiceConfig locates the pages and endpoint of the bot service
type ServiceConfig struct {
	LoginURL   string `toml:"login_url"`
	SuccessURL string `toml:"success_url"`
	BotsURL    string `toml:"bots_url"`
	APIURL     string `toml:"api_url"`
}

type LinkConfig struct {
	Method      string `toml:"method"`
	PhoneNumber string `toml:"phone_number"`
	OpenQR      bool   `toml:"open_qr"`
}

type BrowserConfig struct {
	Headless  bool   `toml:"headless"`
	UserAgent string `toml:"user_agent"`
}

// TimeoutsConfig bounds every wait of a browser workflow
type TimeoutsConfig struct {
	Navigation    Duration `toml:"navigation"`
	LoginRedirect Duration `toml:"login_redirect"`
	Response      Duration `toml:"response"`
}

type SyncConfig struct {
	CallbackURLs   []string `toml:"callback_urls"`
	Secret         string   `toml:"secret"`
	Schedule       string   `toml:"schedule"`
	Timezone       string   `toml:"timezone"`
	RequestTimeout Duration `toml:"request_timeout"`
}

type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // empty means <CacheDir>/walink.db
}

type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

type OutputConfig struct {
	ScreenshotPath string `toml:"screenshot_path"`
	LogLevel       string `toml:"log_level"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Service: ServiceConfig{
			LoginURL:   "https://app.terimawa.com/login",
			SuccessURL: "https://app.terimawa.com/",
			BotsURL:    "https://app.terimawa.com/bots",
			APIURL:     "https://app.terimawa.com/api/bots",
		},
		Link: LinkConfig{
			Method: MethodQR,
		},
		Browser: BrowserConfig{
			Headless:  true,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},
		Timeouts: TimeoutsConfig{
			Navigation:    Duration(60 * time.Second),
			LoginRedirect: Duration(30 * time.Second),
			Response:      Duration(30 * time.Second),
		},
		Sync: SyncConfig{
			CallbackURLs:   []string{},
			Schedule:       "*/30 * * * *",
			Timezone:       "UTC",
			RequestTimeout: Duration(15 * time.Second),
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
		Output: OutputConfig{
			ScreenshotPath: "error_screenshot.png",
			LogLevel:       "info",
		},
	}
}

// Validate checks the fields every workflow depends on
func (c *Config) Validate() error {
	if c.Service.LoginURL == "" || c.Service.SuccessURL == "" || c.Service.BotsURL == "" || c.Service.APIURL == "" {
		return fmt.Errorf("service URLs must all be set")
	}

	// An empty method means qr. The pairing phone number is only checked when
	// [link] actually drives a run.
	switch c.Link.Method {
	case MethodQR, MethodPairing, "":
	default:
		return fmt.Errorf("unknown link method: %s", c.Link.Method)
	}

	if c.Timeouts.Navigation <= 0 || c.Timeouts.LoginRedirect <= 0 || c.Timeouts.Response <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	return nil
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// ConfigPath returns the full path to the config file.
// WALINK_CONFIG wins over the user config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path. Keys missing from the file keep their defaults.
// A .env file in the working directory is loaded first so its sync settings apply.
func LoadFrom(path string) (*Config, error) {
	LoadDotEnv()

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadOrCreate reads the config at path, writing the defaults there first
// when the file does not exist yet. created reports whether it was written.
func LoadOrCreate(path string) (cfg *Config, created bool, err error) {
	cfg, err = LoadFrom(path)
	if err == nil {
		return cfg, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("could not load config %s: %w", path, err)
	}

	cfg = Default()
	if err := cfg.SaveTo(path); err != nil {
		return nil, false, fmt.Errorf("could not save default config: %w", err)
	}
	cfg.applyEnv()
	return cfg, true, nil
}

// applyEnv folds the sync environment variables into the config
func (c *Config) applyEnv() {
	if u := os.Getenv("SYNC_CALLBACK_URL"); u != "" && !slices.Contains(c.Sync.CallbackURLs, u) {
		c.Sync.CallbackURLs = append(c.Sync.CallbackURLs, u)
	}
	if s := os.Getenv("SYNC_SECRET"); s != "" {
		c.Sync.Secret = s
	}
}

// Save writes config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// StorePath resolves the SQLite database location
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}

	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "walink.db"), nil
}
