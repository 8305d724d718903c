package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shasu1pm/VoxText-AI/internal/service"
	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ref := r.URL.Query().Get("video")
	if ref == "" {
		ref = r.URL.Query().Get("url")
	}
	meta, err := s.resolver.ResolveMetadata(r.Context(), ref)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleCaptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ref := r.URL.Query().Get("video")
	if ref == "" {
		ref = r.URL.Query().Get("url")
	}
	lang := r.URL.Query().Get("lang")

	result, err := s.resolver.ResolveCaptions(r.Context(), ref, lang)
	if err != nil {
		writeResolveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeResolveError maps structured resolution failures onto HTTP statuses,
// keeping the machine-readable reason in the body.
func writeResolveError(w http.ResponseWriter, err error) {
	var re *service.ResolveError
	if !errors.As(err, &re) {
		log.Error("Unclassified resolution failure: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch re.Reason {
	case service.ReasonMissingParameter:
		status = http.StatusBadRequest
	case service.ReasonPrivate:
		status = http.StatusForbidden
	case service.ReasonUnavailable, service.ReasonNoCaptions, service.ReasonNoCaptionsForLanguage:
		status = http.StatusNotFound
	case service.ReasonRateLimited:
		status = http.StatusTooManyRequests
	case service.ReasonFetchFailed:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, map[string]any{
		"error":  re.Message,
		"reason": string(re.Reason),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
