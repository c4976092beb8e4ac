package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"metadarr/internal/models"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalMedias     int            `json:"total_medias"`
	MediasByType    map[string]int `json:"medias_by_type"`
	FailedLookups   int            `json:"failed_lookups"`
	PendingBackfill int            `json:"pending_backfill"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	medias, err := h.db.GetAllMedias()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get medias")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	failedCount, err := h.db.CountFailedLookups()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count failed lookups")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	backfillCount, err := h.db.CountBackfillJobs()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count backfill jobs")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		TotalMedias:     len(medias),
		MediasByType:    make(map[string]int),
		FailedLookups:   failedCount,
		PendingBackfill: backfillCount,
	}

	for _, media := range medias {
		response.MediasByType[string(media.MediaType)]++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
