package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"flixhaven/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	m := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))

	settings, err := m.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if settings.Server.ListenAddr != ":8590" {
		t.Errorf("unexpected default listen addr: %s", settings.Server.ListenAddr)
	}
	if settings.Sync.BatchSize != 50 {
		t.Errorf("unexpected default batch size: %d", settings.Sync.BatchSize)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))

	settings := config.DefaultSettings()
	settings.Catalog.BaseURL = "https://catalog.test"
	settings.Sync.CronSecret = "s3cret"
	ranAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	settings.Sync.LastRunAt = &ranAt
	settings.Sync.LastStatus = "success"
	settings.Sync.LastCount = 120

	if err := m.Save(settings); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Catalog.BaseURL != "https://catalog.test" {
		t.Errorf("base url not round-tripped: %s", got.Catalog.BaseURL)
	}
	if got.Sync.LastRunAt == nil || !got.Sync.LastRunAt.Equal(ranAt) {
		t.Errorf("last run time not round-tripped: %v", got.Sync.LastRunAt)
	}
	if got.Sync.LastStatus != "success" || got.Sync.LastCount != 120 {
		t.Errorf("last run bookkeeping not round-tripped: %+v", got.Sync)
	}
}

func TestCronSecretPrefersEnv(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Sync.CronSecret = "from-file"

	t.Setenv("CRON_SECRET", "")
	if got := settings.CronSecret(); got != "from-file" {
		t.Errorf("expected file secret, got %q", got)
	}

	t.Setenv("CRON_SECRET", "from-env")
	if got := settings.CronSecret(); got != "from-env" {
		t.Errorf("expected env secret, got %q", got)
	}
}
