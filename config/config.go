package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Settings is the on-disk configuration for the backend.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Database DatabaseSettings `json:"database"`
	Catalog  CatalogSettings  `json:"catalog"`
	Sync     SyncSettings     `json:"sync"`
	Proxy    ProxySettings    `json:"proxy"`
}

// ServerSettings controls the HTTP listener and process logging.
type ServerSettings struct {
	ListenAddr     string   `json:"listenAddr"`
	LogPath        string   `json:"logPath,omitempty"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// DatabaseSettings locates the sqlite database file.
type DatabaseSettings struct {
	Path string `json:"path"`
}

// CatalogSettings configures the external catalog client.
type CatalogSettings struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// SyncSettings configures the catalog sync job and the cron relay.
type SyncSettings struct {
	BatchSize     int    `json:"batchSize"`
	CronSecret    string `json:"cronSecret"`
	WorkerBaseURL string `json:"workerBaseUrl"`

	// Last-run bookkeeping, written by the sync service after each run.
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	LastStatus string     `json:"lastStatus,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
	LastCount  int        `json:"lastCount,omitempty"`
}

// ProxySettings configures playback URL rewriting.
type ProxySettings struct {
	BasePath string `json:"basePath"`
}

// DefaultSettings returns the configuration used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			ListenAddr: ":8590",
		},
		Database: DatabaseSettings{
			Path: "data/flixhaven.db",
		},
		Catalog: CatalogSettings{
			BaseURL:        "",
			TimeoutSeconds: 15,
		},
		Sync: SyncSettings{
			BatchSize: 50,
		},
		Proxy: ProxySettings{
			BasePath: "/api/proxy",
		},
	}
}

// CronSecret resolves the shared cron secret, preferring the CRON_SECRET
// environment variable over the settings file.
func (s Settings) CronSecret() string {
	if v := os.Getenv("CRON_SECRET"); v != "" {
		return v
	}
	return s.Sync.CronSecret
}

// Manager loads and saves the settings file. Safe for concurrent use.
type Manager struct {
	path string
	mu   sync.Mutex
}

// NewManager creates a settings manager for the given file path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads the settings file. A missing file yields DefaultSettings.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// Save writes the settings file atomically.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("ensure settings dir: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
