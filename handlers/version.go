package handlers

import (
	"net/http"
)

// Version is stamped at build time via -ldflags "-X flixhaven/handlers.Version=...".
var Version = "dev"

type versionResponse struct {
	Version string `json:"version"`
}

// VersionHandler reports the running build to the UI layer.
type VersionHandler struct{}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{Version: Version})
}
