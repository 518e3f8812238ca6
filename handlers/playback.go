package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"flixhaven/internal/database"
	"flixhaven/models"
	playbacksvc "flixhaven/services/playback"
)

type playbackResolver interface {
	Resolve(ctx context.Context, kind models.MediaKind, mediaID, episodeID string, requested models.Provider) (*models.PlaybackResolution, error)
}

var _ playbackResolver = (*playbacksvc.Service)(nil)

// PlaybackHandler resolves media items into playable stream descriptions for
// the UI layer.
type PlaybackHandler struct {
	Service playbackResolver
}

func NewPlaybackHandler(s playbackResolver) *PlaybackHandler {
	return &PlaybackHandler{Service: s}
}

// Watch handles GET /api/watch/{kind}/{id}. Optional query parameters:
// provider (requested provider code), episode (episode id for shows) and
// follow=1 to turn a fallback redirect into a real HTTP redirect.
func (h *PlaybackHandler) Watch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := models.MediaKind(vars["kind"])
	mediaID := vars["id"]
	if !kind.Valid() || mediaID == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	requested := models.Provider(query.Get("provider"))
	episodeID := query.Get("episode")

	resolution, err := h.Service.Resolve(r.Context(), kind, mediaID, episodeID, requested)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrMediaNotFound), errors.Is(err, playbacksvc.ErrNoSources):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			log.Printf("[playback-handler] Resolve failed for %s/%s: %v", kind, mediaID, err)
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	if resolution.RedirectTo != "" && query.Get("follow") == "1" {
		http.Redirect(w, r, resolution.RedirectTo, http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, resolution)
}
