package catalog

import "flixhaven/models"

// Normalize maps a validated catalog item to the canonical media record
// shape. Pure and total: FetchPage guarantees id, title and type are present,
// and every optional field maps to a defined default. The internal id is left
// empty and minted by the store on first insert.
func Normalize(item RawItem) models.MediaRecord {
	return models.MediaRecord{
		ExternalID:  item.ID,
		Kind:        models.MediaKind(item.Type),
		Title:       item.Title,
		Description: item.Description,
		ImageURL:    item.Image,
		Genres:      dedupe(item.Genres),
		Countries:   dedupe(item.Countries),
	}
}

// dedupe removes duplicates preserving first occurrence. Taxonomy values have
// set semantics, so order only needs to be stable, not meaningful.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
