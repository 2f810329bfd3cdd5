package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jfmyers9/scrobblesync/internal/resolver"
	"github.com/spf13/viper"
)

// ErrMissingCredentials is returned by RequireLastFM when the API key or
// username is not configured.
var ErrMissingCredentials = errors.New("Last.fm api_key and username must be configured")

// Config holds application configuration
type Config struct {
	LastFM   LastFMConfig   `mapstructure:"lastfm"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Backup   BackupConfig   `mapstructure:"backup"`
}

// LastFMConfig holds Last.fm specific configuration
type LastFMConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Username string `mapstructure:"username"`
	BaseURL  string `mapstructure:"base_url"` // empty means the public API
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig tunes the sync coordinator and the daemon loop.
type SyncConfig struct {
	PageSize             int           `mapstructure:"page_size"`
	PageDelay            time.Duration `mapstructure:"page_delay"`
	Interval             time.Duration `mapstructure:"interval"`
	CompilationThreshold int           `mapstructure:"compilation_threshold"`
	EnrichLimit          int           `mapstructure:"enrich_limit"`
}

// ResolverConfig tunes the external metadata lookups.
type ResolverConfig struct {
	Threshold         int              `mapstructure:"threshold"`
	Languages         []string         `mapstructure:"languages"`
	UserAgent         string           `mapstructure:"user_agent"`
	RequestsPerSecond float64          `mapstructure:"requests_per_second"`
	Weights           resolver.Weights `mapstructure:"weights"`
}

// BackupConfig controls where backups go and how many are kept.
type BackupConfig struct {
	Dir  string `mapstructure:"dir"`
	Keep int    `mapstructure:"keep"`
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	setDefaults(v)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// SCROBBLESYNC_LASTFM_API_KEY overrides lastfm.api_key
	v.SetEnvPrefix("SCROBBLESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	dataDir := GetDataDir()

	v.SetDefault("lastfm.api_key", "")
	v.SetDefault("lastfm.username", "")
	v.SetDefault("lastfm.base_url", "")
	v.SetDefault("database.path", filepath.Join(dataDir, "scrobbles.db"))

	v.SetDefault("sync.page_size", 200)
	v.SetDefault("sync.page_delay", "250ms")
	v.SetDefault("sync.interval", "30m")
	v.SetDefault("sync.compilation_threshold", 3)
	v.SetDefault("sync.enrich_limit", 25)

	v.SetDefault("resolver.threshold", resolver.DefaultThreshold)
	v.SetDefault("resolver.languages", resolver.DefaultLanguages)
	v.SetDefault("resolver.user_agent", resolver.DefaultUserAgent)
	v.SetDefault("resolver.requests_per_second", 1.0)
	for key, value := range weightValues(resolver.DefaultWeights()) {
		v.SetDefault("resolver.weights."+key, value)
	}

	v.SetDefault("backup.dir", filepath.Join(dataDir, "backups"))
	v.SetDefault("backup.keep", 30)
}

func weightValues(w resolver.Weights) map[string]int {
	return map[string]int{
		"album_in_title":      w.AlbumInTitle,
		"album_at_start":      w.AlbumAtStart,
		"album_tag_trailing":  w.AlbumTagTrailing,
		"album_tag_inner":     w.AlbumTagInner,
		"artist_in_title":     w.ArtistInTitle,
		"snippet_album":       w.SnippetAlbum,
		"word_overlap_max":    w.WordOverlapMax,
		"word_overlap_each":   w.WordOverlapEach,
		"wrong_album_penalty": w.WrongAlbumPenalty,
		"no_signal_penalty":   w.NoSignalPenalty,
	}
}

// RequireLastFM reports whether the Last.fm settings needed for a sync
// are present.
func (c *Config) RequireLastFM() error {
	if c.LastFM.APIKey == "" || c.LastFM.Username == "" {
		return ErrMissingCredentials
	}
	return nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "scrobblesync")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// GetDataDir returns the directory holding the database, backups and logs.
func GetDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "scrobblesync")
}

// Save writes configuration to file
func (c *Config) Save() error {
	v := viper.New()

	configFile := filepath.Join(getConfigDir(), "config.yaml")

	v.Set("lastfm.api_key", c.LastFM.APIKey)
	v.Set("lastfm.username", c.LastFM.Username)
	v.Set("lastfm.base_url", c.LastFM.BaseURL)
	v.Set("database.path", c.Database.Path)
	v.Set("sync.page_size", c.Sync.PageSize)
	v.Set("sync.page_delay", c.Sync.PageDelay.String())
	v.Set("sync.interval", c.Sync.Interval.String())
	v.Set("sync.compilation_threshold", c.Sync.CompilationThreshold)
	v.Set("sync.enrich_limit", c.Sync.EnrichLimit)
	v.Set("resolver.threshold", c.Resolver.Threshold)
	v.Set("resolver.languages", c.Resolver.Languages)
	v.Set("resolver.user_agent", c.Resolver.UserAgent)
	v.Set("resolver.requests_per_second", c.Resolver.RequestsPerSecond)
	for key, value := range weightValues(c.Resolver.Weights) {
		v.Set("resolver.weights."+key, value)
	}
	v.Set("backup.dir", c.Backup.Dir)
	v.Set("backup.keep", c.Backup.Keep)

	return v.WriteConfigAs(configFile)
}
