package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"metadarr/internal/controllers"
	"metadarr/internal/models"
)

// ResolveHandler serves the media lookup endpoints
type ResolveHandler struct {
	resolver *controllers.Resolver
	logger   *logrus.Logger
}

// NewResolveHandler creates a new resolve handler
func NewResolveHandler(resolver *controllers.Resolver, logger *logrus.Logger) *ResolveHandler {
	return &ResolveHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// ByHash handles GET /api/media/hash/{hash}?size=&year=&season=&episode=
func (h *ResolveHandler) ByHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hash := strings.TrimPrefix(r.URL.Path, "/api/media/hash/")
	if hash == "" || strings.Contains(hash, "/") {
		h.writeError(w, models.ErrValidation)
		return
	}

	sizeParam := r.URL.Query().Get("size")
	size, err := strconv.ParseInt(sizeParam, 10, 64)
	if err != nil {
		h.writeError(w, models.ErrValidation)
		return
	}

	var hints *controllers.Hints
	query := r.URL.Query()
	if query.Get("year") != "" || query.Get("season") != "" || query.Get("episode") != "" {
		hints = &controllers.Hints{
			Year:    query.Get("year"),
			Season:  query.Get("season"),
			Episode: query.Get("episode"),
		}
	}

	media, err := h.resolver.ResolveByHash(r.Context(), hash, size, hints)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, media)
}

// ByTitle handles GET /api/media/title?title=&year=&season=&episode=
func (h *ResolveHandler) ByTitle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	media, err := h.resolver.ResolveByTitle(r.Context(),
		query.Get("title"), query.Get("year"), query.Get("season"), query.Get("episode"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, media)
}

// ByID handles GET /api/media/id/{imdbId}
func (h *ResolveHandler) ByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	imdbID := strings.TrimPrefix(r.URL.Path, "/api/media/id/")
	if imdbID == "" || strings.Contains(imdbID, "/") {
		h.writeError(w, models.ErrValidation)
		return
	}

	result, err := h.resolver.ResolveByID(r.Context(), imdbID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, result)
}

func (h *ResolveHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP status codes so a caller can
// tell malformed input from a genuine miss from a transient provider outage.
func (h *ResolveHandler) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrMediaNotFound), errors.Is(err, models.ErrIdentifierNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	default:
		h.logger.WithError(err).Error("Lookup failed")
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
