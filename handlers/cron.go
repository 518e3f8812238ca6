package handlers

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"flixhaven/internal/auth"
	syncsvc "flixhaven/services/sync"
)

// JobTypeCatalogSync names the catalog ingestion job for the run endpoint.
const JobTypeCatalogSync = "catalog-sync"

type syncJob interface {
	Start(ctx context.Context) error
	Cancel()
	Status() syncsvc.Status
}

var _ syncJob = (*syncsvc.Service)(nil)

// CronHandler implements the cron relay: a secret-guarded trigger endpoint on
// the edge tier that forwards to the worker tier's run/stop endpoints. Both
// the forward and the job start are fire-and-forget; the HTTP response path
// never waits on the job.
type CronHandler struct {
	Jobs          syncJob
	Secret        string
	WorkerBaseURL string
	Client        *http.Client
}

// NewCronHandler creates the relay handler. Secret is compared by exact
// string equality on every endpoint.
func NewCronHandler(jobs syncJob, secret, workerBaseURL string) *CronHandler {
	return &CronHandler{
		Jobs:          jobs,
		Secret:        secret,
		WorkerBaseURL: workerBaseURL,
		Client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *CronHandler) authorized(r *http.Request) bool {
	return h.Secret != "" && r.URL.Query().Get("cronSecret") == h.Secret
}

// Trigger validates the scheduler's secret and forwards the signal to the
// worker tier without waiting for the worker's response.
func (h *CronHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeUnauthorized(w)
		return
	}

	target := h.WorkerBaseURL + "/run-cron?cronSecret=" + url.QueryEscape(h.Secret) +
		"&jobType=" + JobTypeCatalogSync

	go func() {
		resp, err := h.Client.Get(target)
		if err != nil {
			log.Printf("[cron] Worker forward failed: %v", err)
			return
		}
		resp.Body.Close()
		log.Printf("[cron] Worker forward responded %s", resp.Status)
	}()

	writeStatus(w, true, "cron trigger forwarded to worker")
}

// Run validates the secret and starts the named job under the synthetic
// system identity. The response confirms the job was initiated, not that it
// completed; job failures are only visible in logs.
func (h *CronHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeUnauthorized(w)
		return
	}

	jobType := r.URL.Query().Get("jobType")
	if jobType == "" {
		jobType = JobTypeCatalogSync
	}
	if jobType != JobTypeCatalogSync {
		log.Printf("[cron] Unknown job type: %s", jobType)
		writeStatus(w, false, "unknown job type: "+jobType)
		return
	}

	go func() {
		ctx := auth.WithSystemIdentity(context.Background())
		if err := h.Jobs.Start(ctx); err != nil {
			log.Printf("[cron] Catalog sync run failed: %v", err)
		}
	}()

	writeStatus(w, true, "catalog sync initiated")
}

// Stop validates the secret and requests cancellation of the running job
// without waiting for it to actually stop.
func (h *CronHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeUnauthorized(w)
		return
	}

	h.Jobs.Cancel()
	writeStatus(w, true, "cancellation requested")
}

// SyncStatus reports the job's lifecycle state and last-run outcome.
func (h *CronHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, h.Jobs.Status())
}
