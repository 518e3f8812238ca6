package playback

import (
	"strings"

	"flixhaven/models"
)

// AggregateSubtitles maps a source's stored subtitles to player-facing
// tracks. Players treat zero or multiple default tracks as undefined, so
// exactly one track is always flagged: a unique stored default wins,
// otherwise the first subtitle in storage order is forced default.
func AggregateSubtitles(subs []models.SubtitleRecord) []models.SubtitleTrack {
	if len(subs) == 0 {
		return nil
	}

	defaults := 0
	for _, sub := range subs {
		if sub.Default {
			defaults++
		}
	}
	forceFirst := defaults != 1

	tracks := make([]models.SubtitleTrack, len(subs))
	for i, sub := range subs {
		isDefault := sub.Default
		if forceFirst {
			isDefault = i == 0
		}
		tracks[i] = models.SubtitleTrack{
			Content:   sub.Content,
			Language:  sub.Language,
			Label:     languageLabel(sub.Language),
			IsDefault: isDefault,
		}
	}
	return tracks
}

// languageLabel maps common language codes to display labels, falling back to
// the upper-cased code.
func languageLabel(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "eng":
		return "English"
	case "es", "spa":
		return "Spanish"
	case "fr", "fra":
		return "French"
	case "de", "deu":
		return "German"
	case "it", "ita":
		return "Italian"
	case "pt", "por":
		return "Portuguese"
	case "ja", "jpn":
		return "Japanese"
	case "ko", "kor":
		return "Korean"
	case "zh", "zho":
		return "Chinese"
	case "ru", "rus":
		return "Russian"
	case "ar", "ara":
		return "Arabic"
	case "hi", "hin":
		return "Hindi"
	case "nl", "nld":
		return "Dutch"
	case "tr", "tur":
		return "Turkish"
	case "pl", "pol":
		return "Polish"
	case "vi", "vie":
		return "Vietnamese"
	case "th", "tha":
		return "Thai"
	default:
		return strings.ToUpper(code)
	}
}
