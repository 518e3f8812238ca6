package models

import "sort"

// MediaKind classifies a catalog entry.
type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindShow  MediaKind = "show"
	MediaKindAnime MediaKind = "anime"
)

// Valid reports whether k is one of the known catalog kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindMovie, MediaKindShow, MediaKindAnime:
		return true
	}
	return false
}

// Provider identifies one scraping source of playback data. The set of codes
// is closed; code order doubles as selection priority (ascending).
type Provider string

const (
	ProviderEagle   Provider = "E" // embed-style scraper
	ProviderFalcon  Provider = "F" // flix mirror scraper
	ProviderLuna    Provider = "L" // luna scraper
	ProviderUpfield Provider = "U" // upcloud scraper
	ProviderVortex  Provider = "V" // vid mirror scraper
)

// providerRank bakes the ascending code order into an explicit priority list
// so selection never depends on incidental string comparison.
var providerRank = map[Provider]int{
	ProviderEagle:   0,
	ProviderFalcon:  1,
	ProviderLuna:    2,
	ProviderUpfield: 3,
	ProviderVortex:  4,
}

// Known reports whether p belongs to the provider alphabet.
func (p Provider) Known() bool {
	_, ok := providerRank[p]
	return ok
}

// Rank returns the selection priority of p. Unknown codes sort last.
func (p Provider) Rank() int {
	if r, ok := providerRank[p]; ok {
		return r
	}
	return len(providerRank)
}

// SortSourcesByProvider orders sources by provider priority, preserving
// insertion order between equal ranks. The input slice is not modified.
func SortSourcesByProvider(sources []SourceRecord) []SourceRecord {
	sorted := make([]SourceRecord, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Provider.Rank() < sorted[j].Provider.Rank()
	})
	return sorted
}

// SourceVariant distinguishes streaming manifests from directly playable files.
type SourceVariant string

const (
	VariantMaster SourceVariant = "master" // HLS/DASH manifest, needs a streaming player
	VariantMedia  SourceVariant = "media"  // plain file or embed
)

// MediaRecord is the canonical shape of one catalog entry.
// ID is minted on first insert and never changes; ExternalID is unique per Kind.
type MediaRecord struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"externalId"`
	Kind        MediaKind `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	Countries   []string  `json:"countries,omitempty"`
}

// SourceRecord is one scraped playback source for a media item or episode.
// Provider codes are unique within one item/episode. Headers carry whatever
// the origin site requires to authorize the fetch.
type SourceRecord struct {
	ID        int64             `json:"id"`
	MediaID   string            `json:"mediaId"`
	EpisodeID string            `json:"episodeId,omitempty"`
	Provider  Provider          `json:"provider"`
	Variant   SourceVariant     `json:"variant"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// SubtitleRecord is one stored subtitle payload belonging to a source.
type SubtitleRecord struct {
	ID       int64  `json:"id"`
	SourceID int64  `json:"sourceId"`
	Language string `json:"language"`
	Content  string `json:"content"`
	Default  bool   `json:"default"`
}
