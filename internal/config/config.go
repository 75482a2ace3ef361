// Package config loads bot configuration from a TOML file, environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// AppName names the config directory
const AppName = "yt-downloader-bot"

// Environment variable keys
const (
	KeyToken         = "YTBOT_TOKEN"
	KeyDownloadDir   = "YTBOT_DOWNLOAD_DIR"
	KeySizeThreshold = "YTBOT_SIZE_THRESHOLD_MIB"
	KeyDeleteAfter   = "YTBOT_DELETE_AFTER"
	KeyStaleAfter    = "YTBOT_STALE_AFTER"
	KeyMaxWorkers    = "YTBOT_MAX_WORKERS"
	KeyAudioQuality  = "YTBOT_AUDIO_QUALITY"
	KeyLanguage      = "YTBOT_LANGUAGE"
	KeyScheduleDB    = "YTBOT_SCHEDULE_DB"
	KeyInstallYTDLP  = "YTBOT_INSTALL_YTDLP"
	KeyDebug         = "YTBOT_DEBUG"
)

// Default values
const (
	DefaultDownloadDir      = "downloads"
	DefaultSizeThresholdMiB = 50
	DefaultDeleteAfter      = 4 * time.Hour
	DefaultStaleAfter       = 24 * time.Hour
	DefaultMaxWorkers       = 2
	DefaultAudioQuality     = "192"
	DefaultLanguage         = "en"
)

// Limits
const (
	MinMaxWorkers = 1
	MaxMaxWorkers = 16

	// MaxSizeThresholdMiB is Telegram's upload ceiling with a local Bot API server
	MaxSizeThresholdMiB = 2000
	bytesPerMiB         = 1024 * 1024
)

// SupportedLanguages lists the languages the bot can talk in
var SupportedLanguages = []string{"en", "uk", "ru"}

// Duration is a time.Duration that reads from strings like "4h" in TOML
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all application configuration.
type Config struct {
	BotToken         string   `toml:"bot_token"`
	DownloadDir      string   `toml:"download_dir"`
	SizeThresholdMiB int64    `toml:"size_threshold_mib"`
	DeleteAfter      Duration `toml:"delete_after"`
	StaleAfter       Duration `toml:"stale_after"`
	MaxWorkers       int      `toml:"max_workers"`
	AudioQuality     string   `toml:"audio_quality"`
	Language         string   `toml:"language"`
	ScheduleDB       string   `toml:"schedule_db"`
	InstallYTDLP     bool     `toml:"install_ytdlp"`
	Debug            bool     `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DownloadDir:      DefaultDownloadDir,
		SizeThresholdMiB: DefaultSizeThresholdMiB,
		DeleteAfter:      Duration{DefaultDeleteAfter},
		StaleAfter:       Duration{DefaultStaleAfter},
		MaxWorkers:       DefaultMaxWorkers,
		AudioQuality:     DefaultAudioQuality,
		Language:         DefaultLanguage,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ConfigPath returns the default path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file at path (the default location when empty),
// merges it over the defaults and applies YTBOT_* environment overrides.
// A missing file is only accepted at the default location. The result is not validated, so that
// flags can still be applied before Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(KeyToken); ok {
		c.BotToken = v
	}
	if v, ok := lookup(KeyDownloadDir); ok && v != "" {
		c.DownloadDir = v
	}
	if v, ok := lookup(KeySizeThreshold); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", KeySizeThreshold, err)
		}
		c.SizeThresholdMiB = n
	}
	if v, ok := lookup(KeyDeleteAfter); ok && v != "" {
		if err := c.DeleteAfter.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", KeyDeleteAfter, err)
		}
	}
	if v, ok := lookup(KeyStaleAfter); ok && v != "" {
		if err := c.StaleAfter.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", KeyStaleAfter, err)
		}
	}
	if v, ok := lookup(KeyMaxWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", KeyMaxWorkers, err)
		}
		c.MaxWorkers = n
	}
	if v, ok := lookup(KeyAudioQuality); ok && v != "" {
		c.AudioQuality = v
	}
	if v, ok := lookup(KeyLanguage); ok && v != "" {
		c.Language = v
	}
	if v, ok := lookup(KeyScheduleDB); ok {
		c.ScheduleDB = v
	}
	if v, ok := lookup(KeyInstallYTDLP); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", KeyInstallYTDLP, err)
		}
		c.InstallYTDLP = b
	}
	if v, ok := lookup(KeyDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", KeyDebug, err)
		}
		c.Debug = b
	}
	return nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DownloadDir) == "" {
		return fmt.Errorf("download_dir cannot be empty")
	}
	if c.SizeThresholdMiB <= 0 || c.SizeThresholdMiB > MaxSizeThresholdMiB {
		return fmt.Errorf("size_threshold_mib must be between 1 and %d, got %d", MaxSizeThresholdMiB, c.SizeThresholdMiB)
	}
	if c.DeleteAfter.Duration <= 0 {
		return fmt.Errorf("delete_after must be positive, got %s", c.DeleteAfter)
	}
	if c.StaleAfter.Duration <= c.DeleteAfter.Duration {
		return fmt.Errorf("stale_after (%s) must be greater than delete_after (%s)", c.StaleAfter, c.DeleteAfter)
	}
	if c.MaxWorkers < MinMaxWorkers || c.MaxWorkers > MaxMaxWorkers {
		return fmt.Errorf("max_workers must be between %d and %d, got %d", MinMaxWorkers, MaxMaxWorkers, c.MaxWorkers)
	}
	if !c.isSupportedLanguage() {
		return fmt.Errorf("unsupported language %q (valid: %s)", c.Language, strings.Join(SupportedLanguages, ", "))
	}
	if c.ScheduleDB != "" {
		inside, err := isInside(c.DownloadDir, c.ScheduleDB)
		if err != nil {
			return err
		}
		if inside {
			return fmt.Errorf("schedule_db must live outside download_dir, the sweep would remove it")
		}
	}
	return nil
}

// ValidateForServe additionally requires the bot token
func (c *Config) ValidateForServe() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return fmt.Errorf("bot token is required (set bot_token or %s)", KeyToken)
	}
	return c.Validate()
}

// SizeThresholdBytes returns the delivery threshold in bytes
func (c *Config) SizeThresholdBytes() int64 {
	return c.SizeThresholdMiB * bytesPerMiB
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	return expandPath(c.DownloadDir)
}

// ExpandScheduleDB resolves ~ in the journal path; empty stays empty
func (c *Config) ExpandScheduleDB() (string, error) {
	if c.ScheduleDB == "" {
		return "", nil
	}
	return expandPath(c.ScheduleDB)
}

// LogSummary prints the effective configuration without secrets
func (c *Config) LogSummary() {
	log.Printf("INFO: config: dir=%s threshold=%dMiB delete_after=%s stale_after=%s workers=%d lang=%s journal=%q",
		c.DownloadDir, c.SizeThresholdMiB, c.DeleteAfter, c.StaleAfter, c.MaxWorkers, c.Language, c.ScheduleDB)
}

func (c *Config) isSupportedLanguage() bool {
	for _, lang := range SupportedLanguages {
		if c.Language == lang {
			return true
		}
	}
	return false
}

func expandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		p = filepath.Join(home, p[2:])
	}
	return filepath.Abs(p)
}

// isInside reports whether target resolves to a path within dir
func isInside(dir, target string) (bool, error) {
	absDir, err := expandPath(dir)
	if err != nil {
		return false, err
	}
	absTarget, err := expandPath(target)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absDir, absTarget)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}
