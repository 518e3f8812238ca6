package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"flixhaven/models"
)

// ErrMediaNotFound is returned when a media lookup matches no row.
var ErrMediaNotFound = errors.New("media not found")

// MediaRepository persists canonical media records and reads back the
// scraped playback sources and subtitles attached to them.
type MediaRepository struct {
	db *sql.DB
}

// NewMediaRepository creates a repository over an open database.
func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// UpsertMedia inserts or updates the given records in one transaction.
// Conflict key is (kind, external_id): on conflict the mutable fields are
// overwritten and the internal id is left untouched. Relationship tables are
// not modified here; see SyncTaxonomy. Safe to call repeatedly with the same
// input.
func (r *MediaRepository) UpsertMedia(ctx context.Context, records []models.MediaRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO media (id, external_id, kind, title, description, image_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, external_id) DO UPDATE SET
		  title = excluded.title,
		  description = excluded.description,
		  image_url = excluded.image_url,
		  updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.ExecContext(ctx, id, rec.ExternalID, string(rec.Kind), rec.Title, rec.Description, rec.ImageURL); err != nil {
			return fmt.Errorf("upsert media %s/%s: %w", rec.Kind, rec.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SyncTaxonomy replaces the genre and country sets for the given records.
// Records are matched by (kind, external_id); records not yet upserted are
// skipped.
func (r *MediaRepository) SyncTaxonomy(ctx context.Context, records []models.MediaRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		var id string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM media WHERE kind = ? AND external_id = ?`,
			string(rec.Kind), rec.ExternalID,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("lookup media %s/%s: %w", rec.Kind, rec.ExternalID, err)
		}

		if err := replaceSet(ctx, tx, "media_genres", "genre", id, rec.Genres); err != nil {
			return err
		}
		if err := replaceSet(ctx, tx, "media_countries", "country", id, rec.Countries); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func replaceSet(ctx context.Context, tx *sql.Tx, table, column, mediaID string, values []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE media_id = ?`, mediaID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` (media_id, `+column+`) VALUES (?, ?)`,
			mediaID, v,
		); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// GetMedia fetches one media record by kind and internal id, including its
// taxonomy sets.
func (r *MediaRepository) GetMedia(ctx context.Context, kind models.MediaKind, id string) (*models.MediaRecord, error) {
	rec := models.MediaRecord{ID: id, Kind: kind}
	err := r.db.QueryRowContext(ctx,
		`SELECT external_id, title, description, image_url FROM media WHERE kind = ? AND id = ?`,
		string(kind), id,
	).Scan(&rec.ExternalID, &rec.Title, &rec.Description, &rec.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select media: %w", err)
	}

	rec.Genres, err = r.listSet(ctx, "media_genres", "genre", id)
	if err != nil {
		return nil, err
	}
	rec.Countries, err = r.listSet(ctx, "media_countries", "country", id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetMediaByExternalID fetches one media record by its catalog identity.
func (r *MediaRepository) GetMediaByExternalID(ctx context.Context, kind models.MediaKind, externalID string) (*models.MediaRecord, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM media WHERE kind = ? AND external_id = ?`,
		string(kind), externalID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select media: %w", err)
	}
	return r.GetMedia(ctx, kind, id)
}

func (r *MediaRepository) listSet(ctx context.Context, table, column, mediaID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+column+` FROM `+table+` WHERE media_id = ? ORDER BY `+column,
		mediaID,
	)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// CountMedia returns the number of stored media rows.
func (r *MediaRepository) CountMedia(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// ListSources returns the playback sources for one media item (episodeID
// empty) or one episode, in storage order.
func (r *MediaRepository) ListSources(ctx context.Context, mediaID, episodeID string) ([]models.SourceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, media_id, episode_id, provider, variant, url, headers
		 FROM sources WHERE media_id = ? AND episode_id = ? ORDER BY id`,
		mediaID, episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("select sources: %w", err)
	}
	defer rows.Close()

	var sources []models.SourceRecord
	for rows.Next() {
		var src models.SourceRecord
		var provider, variant, headers string
		if err := rows.Scan(&src.ID, &src.MediaID, &src.EpisodeID, &provider, &variant, &src.URL, &headers); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.Provider = models.Provider(provider)
		src.Variant = models.SourceVariant(variant)
		src.Headers = decodeHeaders(headers)
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// decodeHeaders parses the stored headers JSON, keeping only string-valued
// entries. Malformed or non-string data is dropped, not surfaced.
func decodeHeaders(raw string) map[string]string {
	var generic map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil
	}
	headers := make(map[string]string, len(generic))
	for k, v := range generic {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}

// ListSubtitles returns the subtitles for one source in storage order.
func (r *MediaRepository) ListSubtitles(ctx context.Context, sourceID int64) ([]models.SubtitleRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_id, language, content, is_default
		 FROM subtitles WHERE source_id = ? ORDER BY id`,
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("select subtitles: %w", err)
	}
	defer rows.Close()

	var subs []models.SubtitleRecord
	for rows.Next() {
		var sub models.SubtitleRecord
		if err := rows.Scan(&sub.ID, &sub.SourceID, &sub.Language, &sub.Content, &sub.Default); err != nil {
			return nil, fmt.Errorf("scan subtitle: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// InsertSource stores one scraped playback source. Used by the scraping
// process and by tests; the playback path only reads.
func (r *MediaRepository) InsertSource(ctx context.Context, src models.SourceRecord) (int64, error) {
	headers := "{}"
	if len(src.Headers) > 0 {
		data, err := json.Marshal(src.Headers)
		if err != nil {
			return 0, fmt.Errorf("encode headers: %w", err)
		}
		headers = string(data)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sources (media_id, episode_id, provider, variant, url, headers)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		src.MediaID, src.EpisodeID, string(src.Provider), string(src.Variant), src.URL, headers,
	)
	if err != nil {
		return 0, fmt.Errorf("insert source: %w", err)
	}
	return res.LastInsertId()
}

// InsertSubtitle stores one subtitle payload for a source.
func (r *MediaRepository) InsertSubtitle(ctx context.Context, sub models.SubtitleRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subtitles (source_id, language, content, is_default) VALUES (?, ?, ?, ?)`,
		sub.SourceID, sub.Language, sub.Content, sub.Default,
	)
	if err != nil {
		return 0, fmt.Errorf("insert subtitle: %w", err)
	}
	return res.LastInsertId()
}
