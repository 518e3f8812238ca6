package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gabriel-vasile/mimetype"
)

// ProxyHandler re-issues playback fetches server-side. The player asks for
// /api/proxy?url=<target>&<header>=<value>...; every query parameter other
// than url is forwarded as a request header, which lets origins that require
// referer or auth headers work from a browser player.
type ProxyHandler struct {
	Client *http.Client
}

func NewProxyHandler() *ProxyHandler {
	return &ProxyHandler{
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch streams the target URL through to the caller.
func (h *ProxyHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	target := query.Get("url")
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		http.Error(w, "invalid url parameter", http.StatusBadRequest)
		return
	}

	var resp *http.Response
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			for key, vals := range query {
				if key == "url" || len(vals) == 0 {
					continue
				}
				req.Header.Set(key, vals[0])
			}
			// Range pass-through keeps seeking working in the player.
			if rng := r.Header.Get("Range"); rng != "" {
				req.Header.Set("Range", rng)
			}

			resp, err = h.Client.Do(req)
			if err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				resp.Body.Close()
				return fmt.Errorf("upstream responded %s", resp.Status)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.Context(r.Context()),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[proxy] Upstream fetch failed for %s: %v", parsed.Host, err)
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for _, header := range []string{"Content-Type", "Content-Length", "Content-Range", "Accept-Ranges"} {
		if v := resp.Header.Get(header); v != "" {
			w.Header().Set(header, v)
		}
	}

	// Some origins omit Content-Type; sniff the first bytes so the player
	// still gets something usable.
	if resp.Header.Get("Content-Type") == "" {
		head := make([]byte, 3072)
		n, readErr := io.ReadFull(resp.Body, head)
		if readErr != nil && !errors.Is(readErr, io.ErrUnexpectedEOF) && !errors.Is(readErr, io.EOF) {
			http.Error(w, "upstream read failed", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", mimetype.Detect(head[:n]).String())
		w.WriteHeader(resp.StatusCode)
		if _, err := w.Write(head[:n]); err != nil {
			return
		}
		io.Copy(w, resp.Body)
		return
	}

	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
