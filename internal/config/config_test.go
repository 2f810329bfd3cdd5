package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jfmyers9/scrobblesync/internal/resolver"
)

func setHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := setHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if want := filepath.Join(home, ".local", "share", "scrobblesync", "scrobbles.db"); cfg.Database.Path != want {
		t.Errorf("expected database path %s, got %s", want, cfg.Database.Path)
	}
	if cfg.Sync.PageSize != 200 || cfg.Sync.PageDelay != 250*time.Millisecond || cfg.Sync.Interval != 30*time.Minute {
		t.Errorf("unexpected sync defaults: %+v", cfg.Sync)
	}
	if cfg.Resolver.Threshold != resolver.DefaultThreshold {
		t.Errorf("expected threshold %d, got %d", resolver.DefaultThreshold, cfg.Resolver.Threshold)
	}
	if !reflect.DeepEqual(cfg.Resolver.Languages, resolver.DefaultLanguages) {
		t.Errorf("expected languages %v, got %v", resolver.DefaultLanguages, cfg.Resolver.Languages)
	}
	if cfg.Resolver.Weights != resolver.DefaultWeights() {
		t.Errorf("expected default weights, got %+v", cfg.Resolver.Weights)
	}
	if cfg.Backup.Keep != 30 {
		t.Errorf("expected keep 30, got %d", cfg.Backup.Keep)
	}
	if err := cfg.RequireLastFM(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	home := setHome(t)

	configDir := filepath.Join(home, ".config", "scrobblesync")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	yaml := `lastfm:
  api_key: file-key
  username: rj
sync:
  page_delay: 1s
resolver:
  languages: [en]
  weights:
    artist_in_title: 45
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("SCROBBLESYNC_LASTFM_API_KEY", "env-key")
	t.Setenv("SCROBBLESYNC_BACKUP_KEEP", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.LastFM.APIKey != "env-key" {
		t.Errorf("expected env to override api key, got %q", cfg.LastFM.APIKey)
	}
	if cfg.LastFM.Username != "rj" {
		t.Errorf("expected username from file, got %q", cfg.LastFM.Username)
	}
	if cfg.Sync.PageDelay != time.Second {
		t.Errorf("expected page delay 1s, got %v", cfg.Sync.PageDelay)
	}
	if !reflect.DeepEqual(cfg.Resolver.Languages, []string{"en"}) {
		t.Errorf("expected [en], got %v", cfg.Resolver.Languages)
	}
	if cfg.Resolver.Weights.ArtistInTitle != 45 {
		t.Errorf("expected overridden weight 45, got %d", cfg.Resolver.Weights.ArtistInTitle)
	}
	if cfg.Resolver.Weights.AlbumInTitle != resolver.DefaultWeights().AlbumInTitle {
		t.Errorf("expected untouched weights to keep defaults, got %+v", cfg.Resolver.Weights)
	}
	if cfg.Backup.Keep != 7 {
		t.Errorf("expected keep 7, got %d", cfg.Backup.Keep)
	}
	if err := cfg.RequireLastFM(); err != nil {
		t.Errorf("expected credentials to be complete, got %v", err)
	}
}

func TestSave(t *testing.T) {
	setHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg.LastFM.APIKey = "saved-key"
	cfg.LastFM.Username = "rj"
	cfg.Sync.Interval = time.Hour
	cfg.Resolver.Weights.NoSignalPenalty = 10

	if err := cfg.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	reloaded, err := Load()
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if !reflect.DeepEqual(cfg, reloaded) {
		t.Errorf("expected %+v, got %+v", cfg, reloaded)
	}
}
