package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
	"github.com/wordbase/wordbase/pkg/api"
)

// AppHandler serves client release metadata.
type AppHandler struct {
	logger          *slog.Logger
	versions        storage.AppVersionStore
	developerSecret string
}

// NewAppHandler builds the app version handler.
func NewAppHandler(logger *slog.Logger, versions storage.AppVersionStore, developerSecret string) *AppHandler {
	return &AppHandler{
		logger:          logger,
		versions:        versions,
		developerSecret: developerSecret,
	}
}

// LatestVersion handles GET /api/v1/app/{platform}/latest. The beta
// query flag includes beta releases.
func (h *AppHandler) LatestVersion(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")
	if platform == "" {
		sendError(w, "platform is required", http.StatusBadRequest)
		return
	}

	beta := r.URL.Query().Get("beta") == "true"

	version, err := h.versions.LatestVersion(r.Context(), platform, beta)
	if err != nil {
		if errors.Is(err, storage.ErrVersionNotFound) {
			sendError(w, "no published version", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load latest version", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, api.AppVersionResponse{
		Platform:    version.Platform,
		Version:     version.Version,
		Beta:        version.Beta,
		Publisher:   version.Publisher,
		Description: version.Description,
		DownloadURL: version.DownloadURL,
		Timestamp:   version.Timestamp,
	}, http.StatusOK)
}

// PublishVersion handles POST /api/v1/app/publish. Publishing requires
// the developer secret, not a user session.
func (h *AppHandler) PublishVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.PublishVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if h.developerSecret == "" ||
		subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.developerSecret)) != 1 {
		sendError(w, "forbidden", http.StatusForbidden)
		return
	}

	if req.Platform == "" || req.Version == "" || req.Publisher == "" {
		sendError(w, "platform, version and publisher are required", http.StatusBadRequest)
		return
	}

	version := &models.AppVersion{
		Platform:    req.Platform,
		Version:     req.Version,
		Beta:        req.Beta,
		Publisher:   req.Publisher,
		Description: req.Description,
		DownloadURL: req.DownloadURL,
		Timestamp:   time.Now().UnixMilli(),
	}

	if err := h.versions.PublishVersion(ctx, version); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish version", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "version published",
		slog.String("platform", version.Platform),
		slog.String("version", version.Version),
		slog.Bool("beta", version.Beta))

	w.WriteHeader(http.StatusCreated)
}
