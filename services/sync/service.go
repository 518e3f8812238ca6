package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"flixhaven/config"
	"flixhaven/models"
	"flixhaven/services/catalog"
)

// ErrAlreadyRunning is returned by Start when a run is already in flight.
// The job is single-flight: a second start fails fast instead of queueing.
var ErrAlreadyRunning = errors.New("sync job already running")

// State is the lifecycle of the sync job.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Fetcher retrieves one catalog page at a time.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) ([]catalog.RawItem, bool, error)
}

// Writer persists normalized records.
type Writer interface {
	UpsertMedia(ctx context.Context, records []models.MediaRecord) error
	SyncTaxonomy(ctx context.Context, records []models.MediaRecord) error
}

// Status is a point-in-time snapshot of the job.
type Status struct {
	State      State      `json:"state"`
	Pages      int        `json:"pages"`
	Records    int        `json:"records"`
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	LastStatus string     `json:"lastStatus,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
}

// Service drives one paged catalog ingestion run at a time: fetch page,
// normalize, batch-upsert, advance. Cancellation is cooperative and observed
// between pages only; committed upserts survive a cancelled run.
type Service struct {
	fetcher       Fetcher
	writer        Writer
	batchSize     int
	configManager *config.Manager

	mu      gosync.Mutex
	state   State
	pages   int
	records int
}

// NewService creates the sync job. configManager may be nil; when set, the
// last-run outcome is persisted to the settings file after every run.
func NewService(fetcher Fetcher, writer Writer, batchSize int, configManager *config.Manager) *Service {
	if batchSize < 1 {
		batchSize = 50
	}
	return &Service{
		fetcher:       fetcher,
		writer:        writer,
		batchSize:     batchSize,
		configManager: configManager,
		state:         StateIdle,
	}
}

// Start executes a full ingestion run, blocking until it completes, fails or
// is cancelled. Returns ErrAlreadyRunning without side effects when a run is
// already in flight.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.state = StateRunning
	s.pages = 0
	s.records = 0
	s.mu.Unlock()

	log.Printf("[sync] Catalog sync started")
	err := s.run(ctx)

	s.mu.Lock()
	cancelled := s.state == StateStopping
	s.state = StateIdle
	pages, records := s.pages, s.records
	s.mu.Unlock()

	switch {
	case err != nil:
		log.Printf("[sync] Catalog sync failed after %d pages: %v", pages, err)
		s.recordOutcome("error", err, records)
	case cancelled:
		log.Printf("[sync] Catalog sync cancelled after %d pages (%d records committed)", pages, records)
		s.recordOutcome("cancelled", nil, records)
	default:
		log.Printf("[sync] Catalog sync completed: %d pages, %d records", pages, records)
		s.recordOutcome("success", nil, records)
	}
	return err
}

func (s *Service) run(ctx context.Context) error {
	for page := 1; ; page++ {
		if s.stopRequested() || ctx.Err() != nil {
			return nil
		}

		items, hasNext, err := s.fetcher.FetchPage(ctx, page)
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", page, err)
		}

		records := make([]models.MediaRecord, len(items))
		for i, item := range items {
			records[i] = catalog.Normalize(item)
		}

		err = RunBulk(ctx, records, s.batchSize, func(ctx context.Context, chunk []models.MediaRecord) error {
			if err := s.writer.UpsertMedia(ctx, chunk); err != nil {
				return err
			}
			return s.writer.SyncTaxonomy(ctx, chunk)
		}, func(processed, total int) {
			log.Printf("[sync] Page %d: %d/%d records written", page, processed, total)
		})
		if err != nil {
			return fmt.Errorf("write page %d: %w", page, err)
		}

		s.mu.Lock()
		s.pages++
		s.records += len(records)
		s.mu.Unlock()

		if !hasNext {
			return nil
		}
	}
}

// Cancel requests a cooperative stop. The run exits cleanly before the next
// page fetch; in-flight page work is not preempted.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StateStopping
		log.Printf("[sync] Cancellation requested")
	}
}

func (s *Service) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateStopping
}

// Status reports the current lifecycle state, in-run progress and the
// persisted outcome of the previous run.
func (s *Service) Status() Status {
	s.mu.Lock()
	status := Status{State: s.state, Pages: s.pages, Records: s.records}
	s.mu.Unlock()

	if s.configManager != nil {
		if settings, err := s.configManager.Load(); err == nil {
			status.LastRunAt = settings.Sync.LastRunAt
			status.LastStatus = settings.Sync.LastStatus
			status.LastError = settings.Sync.LastError
		}
	}
	return status
}

func (s *Service) recordOutcome(outcome string, runErr error, count int) {
	if s.configManager == nil {
		return
	}

	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[sync] Failed to load settings to record outcome: %v", err)
		return
	}

	now := time.Now().UTC()
	settings.Sync.LastRunAt = &now
	settings.Sync.LastStatus = outcome
	settings.Sync.LastCount = count
	settings.Sync.LastError = ""
	if runErr != nil {
		settings.Sync.LastError = runErr.Error()
	}

	if err := s.configManager.Save(settings); err != nil {
		log.Printf("[sync] Failed to save run outcome: %v", err)
	}
}
