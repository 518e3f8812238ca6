package models

// SubtitleTrack is the player-facing shape of one subtitle. Exactly one track
// in a resolved set carries IsDefault.
type SubtitleTrack struct {
	Content   string `json:"content"`
	Language  string `json:"language"`
	Label     string `json:"label"`
	IsDefault bool   `json:"isDefault"`
}

// PlaybackResolution is the outcome of resolving a media item for playback.
// Either RedirectTo is set (the requested provider does not exist and the
// canonical URL should move to a provider that does), or the playable fields
// are populated.
type PlaybackResolution struct {
	RedirectTo  string          `json:"redirectTo,omitempty"`
	Provider    Provider        `json:"provider,omitempty"`
	Variant     SourceVariant   `json:"variant,omitempty"`
	PlayableURL string          `json:"playableUrl,omitempty"`
	Subtitles   []SubtitleTrack `json:"subtitles,omitempty"`
}
