package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleProxy streams a raw upstream feed through the server, so
// browser dashboards can read the municipal endpoints without fighting
// their missing CORS headers. The body passes through untouched.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	feed := chi.URLParam(r, "feed")
	upstream, ok := s.proxies[feed]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown feed: "+feed)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstream, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "build upstream request")
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("proxy fetch failed", "feed", feed, "error", err)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn("proxy copy interrupted", "feed", feed, "error", err)
	}
}
