package playback

import (
	"errors"

	"flixhaven/models"
)

// ErrNoSources is returned when a media item has no scraped sources at all.
var ErrNoSources = errors.New("no playback sources available")

// Selection is the two-valued result of source selection. RedirectProvider is
// set when the requested provider does not exist for this item: the fallback
// source was chosen and the externally visible URL should move to its
// provider code, so canonical paths always name a provider that exists.
type Selection struct {
	Source           models.SourceRecord
	RedirectProvider models.Provider
}

// SelectSource deterministically picks a playback source. Sources are ordered
// by provider priority (code ascending, ties by insertion order); an absent
// requested provider yields the first source plus a redirect signal instead
// of an error.
func SelectSource(sources []models.SourceRecord, requested models.Provider) (Selection, error) {
	if len(sources) == 0 {
		return Selection{}, ErrNoSources
	}

	sorted := models.SortSourcesByProvider(sources)

	if requested == "" {
		return Selection{Source: sorted[0]}, nil
	}

	for _, src := range sorted {
		if src.Provider == requested {
			return Selection{Source: src}, nil
		}
	}

	return Selection{Source: sorted[0], RedirectProvider: sorted[0].Provider}, nil
}
