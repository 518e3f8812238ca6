package playback

import (
	"context"
	"fmt"

	"flixhaven/models"
)

// Repository is the read side of the media store the resolver needs.
type Repository interface {
	GetMedia(ctx context.Context, kind models.MediaKind, id string) (*models.MediaRecord, error)
	ListSources(ctx context.Context, mediaID, episodeID string) ([]models.SourceRecord, error)
	ListSubtitles(ctx context.Context, sourceID int64) ([]models.SubtitleRecord, error)
}

// Service resolves a media item into a playable, same-origin stream
// description. Stateless; safe for concurrent use.
type Service struct {
	repo      Repository
	proxyBase string
}

// NewService creates the playback resolver. proxyBase is the same-origin
// proxy path playable URLs are rewritten onto.
func NewService(repo Repository, proxyBase string) *Service {
	return &Service{repo: repo, proxyBase: proxyBase}
}

// Resolve selects a source for the given media item (episodeID empty for
// movies), assembles its subtitle tracks and rewrites its URL through the
// proxy. When the requested provider has no source, the result carries a
// redirect to the canonical path of the fallback provider instead of a
// playable payload.
func (s *Service) Resolve(ctx context.Context, kind models.MediaKind, mediaID, episodeID string, requested models.Provider) (*models.PlaybackResolution, error) {
	media, err := s.repo.GetMedia(ctx, kind, mediaID)
	if err != nil {
		return nil, err
	}

	sources, err := s.repo.ListSources(ctx, media.ID, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	selection, err := SelectSource(sources, requested)
	if err != nil {
		return nil, err
	}

	if selection.RedirectProvider != "" {
		return &models.PlaybackResolution{
			RedirectTo: fmt.Sprintf("/%s/%s/%s", kind, mediaID, selection.RedirectProvider),
			Provider:   selection.RedirectProvider,
		}, nil
	}

	subs, err := s.repo.ListSubtitles(ctx, selection.Source.ID)
	if err != nil {
		return nil, fmt.Errorf("list subtitles: %w", err)
	}

	return &models.PlaybackResolution{
		Provider:    selection.Source.Provider,
		Variant:     selection.Source.Variant,
		PlayableURL: BuildProxyURL(s.proxyBase, selection.Source),
		Subtitles:   AggregateSubtitles(subs),
	}, nil
}
