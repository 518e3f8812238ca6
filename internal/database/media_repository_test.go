package database_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"flixhaven/internal/database"
	"flixhaven/models"
)

func openTestDB(t *testing.T) (*sql.DB, *database.MediaRepository) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, database.NewMediaRepository(db)
}

func TestUpsertMediaIdempotent(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	records := []models.MediaRecord{
		{ExternalID: "tt100", Kind: models.MediaKindMovie, Title: "First", Description: "d1", ImageURL: "img1"},
		{ExternalID: "sh200", Kind: models.MediaKindShow, Title: "Second"},
	}
	if err := repo.UpsertMedia(ctx, records); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := repo.UpsertMedia(ctx, records); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	n, err := repo.CountMedia(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 media rows after double upsert, got %d", n)
	}
}

func TestUpsertMediaKeepsInternalID(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	rec := models.MediaRecord{ExternalID: "tt100", Kind: models.MediaKindMovie, Title: "Original"}
	if err := repo.UpsertMedia(ctx, []models.MediaRecord{rec}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	before, err := repo.GetMediaByExternalID(ctx, models.MediaKindMovie, "tt100")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	rec.Title = "Renamed"
	rec.Description = "updated"
	if err := repo.UpsertMedia(ctx, []models.MediaRecord{rec}); err != nil {
		t.Fatalf("conflicting upsert failed: %v", err)
	}
	after, err := repo.GetMediaByExternalID(ctx, models.MediaKindMovie, "tt100")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if after.ID != before.ID {
		t.Errorf("internal id changed on conflict: %s -> %s", before.ID, after.ID)
	}
	if after.Title != "Renamed" || after.Description != "updated" {
		t.Errorf("mutable fields not overwritten: %+v", after)
	}
}

func TestSameExternalIDDifferentKinds(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	records := []models.MediaRecord{
		{ExternalID: "x1", Kind: models.MediaKindMovie, Title: "Movie"},
		{ExternalID: "x1", Kind: models.MediaKindShow, Title: "Show"},
	}
	if err := repo.UpsertMedia(ctx, records); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	n, err := repo.CountMedia(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected distinct rows per kind, got %d", n)
	}
}

func TestSyncTaxonomyReplacesSets(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	rec := models.MediaRecord{
		ExternalID: "tt100", Kind: models.MediaKindMovie, Title: "Movie",
		Genres: []string{"drama", "crime"}, Countries: []string{"US"},
	}
	if err := repo.UpsertMedia(ctx, []models.MediaRecord{rec}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.SyncTaxonomy(ctx, []models.MediaRecord{rec}); err != nil {
		t.Fatalf("taxonomy sync failed: %v", err)
	}

	got, err := repo.GetMediaByExternalID(ctx, models.MediaKindMovie, "tt100")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !reflect.DeepEqual(got.Genres, []string{"crime", "drama"}) {
		t.Errorf("unexpected genres: %v", got.Genres)
	}

	rec.Genres = []string{"thriller"}
	rec.Countries = nil
	if err := repo.SyncTaxonomy(ctx, []models.MediaRecord{rec}); err != nil {
		t.Fatalf("taxonomy replace failed: %v", err)
	}
	got, err = repo.GetMediaByExternalID(ctx, models.MediaKindMovie, "tt100")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !reflect.DeepEqual(got.Genres, []string{"thriller"}) {
		t.Errorf("old genres not replaced: %v", got.Genres)
	}
	if got.Countries != nil {
		t.Errorf("countries not cleared: %v", got.Countries)
	}
}

func TestSyncTaxonomySkipsUnknownRecords(t *testing.T) {
	_, repo := openTestDB(t)

	rec := models.MediaRecord{ExternalID: "ghost", Kind: models.MediaKindMovie, Genres: []string{"drama"}}
	if err := repo.SyncTaxonomy(context.Background(), []models.MediaRecord{rec}); err != nil {
		t.Fatalf("expected unknown records to be skipped, got %v", err)
	}
}

func TestGetMediaNotFound(t *testing.T) {
	_, repo := openTestDB(t)

	_, err := repo.GetMedia(context.Background(), models.MediaKindMovie, "nope")
	if !errors.Is(err, database.ErrMediaNotFound) {
		t.Errorf("expected ErrMediaNotFound, got %v", err)
	}
}

func TestListSourcesStorageOrder(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	if err := repo.UpsertMedia(ctx, []models.MediaRecord{{ID: "m1", ExternalID: "tt100", Kind: models.MediaKindMovie, Title: "Movie"}}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	inserts := []models.SourceRecord{
		{MediaID: "m1", Provider: models.ProviderLuna, Variant: models.VariantMaster, URL: "https://l.test/v.m3u8"},
		{MediaID: "m1", Provider: models.ProviderEagle, Variant: models.VariantMedia, URL: "https://e.test/v.mp4", Headers: map[string]string{"Referer": "https://e.test"}},
	}
	for _, src := range inserts {
		if _, err := repo.InsertSource(ctx, src); err != nil {
			t.Fatalf("insert source failed: %v", err)
		}
	}

	sources, err := repo.ListSources(ctx, "m1", "")
	if err != nil {
		t.Fatalf("list sources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].Provider != models.ProviderLuna || sources[1].Provider != models.ProviderEagle {
		t.Errorf("sources not in storage order: %v %v", sources[0].Provider, sources[1].Provider)
	}
	if sources[0].Headers != nil {
		t.Errorf("expected nil headers for empty map, got %v", sources[0].Headers)
	}
	if sources[1].Headers["Referer"] != "https://e.test" {
		t.Errorf("headers not round-tripped: %v", sources[1].Headers)
	}
}

func TestListSourcesDropsNonStringHeaders(t *testing.T) {
	db, repo := openTestDB(t)
	ctx := context.Background()

	if err := repo.UpsertMedia(ctx, []models.MediaRecord{{ID: "m1", ExternalID: "tt100", Kind: models.MediaKindMovie, Title: "Movie"}}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Raw rows simulate data written by an older scraper build.
	rows := []string{
		`{"Referer": "https://o.test", "Retries": 3}`,
		`not-json`,
	}
	for _, headers := range rows {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO sources (media_id, episode_id, provider, variant, url, headers) VALUES ('m1', '', 'E', 'media', 'https://o.test/v.mp4', ?)`,
			headers,
		); err != nil {
			t.Fatalf("raw insert failed: %v", err)
		}
	}

	sources, err := repo.ListSources(ctx, "m1", "")
	if err != nil {
		t.Fatalf("list sources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if !reflect.DeepEqual(sources[0].Headers, map[string]string{"Referer": "https://o.test"}) {
		t.Errorf("non-string header value not dropped: %v", sources[0].Headers)
	}
	if sources[1].Headers != nil {
		t.Errorf("malformed headers should decode to nil, got %v", sources[1].Headers)
	}
}

func TestListSubtitlesStorageOrder(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	if err := repo.UpsertMedia(ctx, []models.MediaRecord{{ID: "m1", ExternalID: "tt100", Kind: models.MediaKindMovie, Title: "Movie"}}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	sourceID, err := repo.InsertSource(ctx, models.SourceRecord{MediaID: "m1", Provider: models.ProviderEagle, Variant: models.VariantMedia, URL: "https://e.test/v.mp4"})
	if err != nil {
		t.Fatalf("insert source failed: %v", err)
	}

	for _, sub := range []models.SubtitleRecord{
		{SourceID: sourceID, Language: "es", Content: "WEBVTT"},
		{SourceID: sourceID, Language: "en", Content: "WEBVTT", Default: true},
	} {
		if _, err := repo.InsertSubtitle(ctx, sub); err != nil {
			t.Fatalf("insert subtitle failed: %v", err)
		}
	}

	subs, err := repo.ListSubtitles(ctx, sourceID)
	if err != nil {
		t.Fatalf("list subtitles failed: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtitles, got %d", len(subs))
	}
	if subs[0].Language != "es" || subs[1].Language != "en" {
		t.Errorf("subtitles not in storage order: %v %v", subs[0].Language, subs[1].Language)
	}
	if subs[0].Default || !subs[1].Default {
		t.Errorf("default flag not round-tripped: %+v", subs)
	}
}
