package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/wordbase/wordbase/internal/metrics"
	syncengine "github.com/wordbase/wordbase/internal/sync"
	"github.com/wordbase/wordbase/pkg/api"
)

// SyncHandler is the HTTP surface of the reconciliation engine.
type SyncHandler struct {
	logger  *slog.Logger
	engine  *syncengine.Engine
	metrics *metrics.Metrics
}

// NewSyncHandler builds the sync handler.
func NewSyncHandler(logger *slog.Logger, engine *syncengine.Engine, m *metrics.Metrics) *SyncHandler {
	return &SyncHandler{
		logger:  logger,
		engine:  engine,
		metrics: m,
	}
}

// HandleSync handles POST /api/v1/sync.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// syncAt and time must be numbers and updates an object; absence
	// is a parameter error, not an engine concern.
	if req.SyncAt == nil || req.Time == nil || req.Updates == nil {
		sendError(w, "syncAt, time and updates are required", http.StatusBadRequest)
		return
	}

	upCount := 0
	updates := make(map[string]map[string]syncengine.UpUpdate, len(req.Updates))
	for category, byName := range req.Updates {
		ups := make(map[string]syncengine.UpUpdate, len(byName))
		for name, u := range byName {
			ups[name] = syncengine.UpUpdate{
				Type:     u.Type,
				UpdateAt: u.UpdateAt,
				Data:     u.Data,
				Removed:  u.Removed,
			}
			upCount++
		}
		updates[category] = ups
	}

	h.logger.InfoContext(ctx, "sync request",
		slog.String("user_id", userID),
		slog.Int64("client_sync_at", *req.SyncAt),
		slog.Int("up_updates", upCount))

	result, err := h.engine.Sync(ctx, syncengine.Options{
		Owner:        userID,
		Now:          time.Now().UnixMilli(),
		ClientSyncAt: *req.SyncAt,
		ClientTime:   *req.Time,
		Updates:      updates,
	})
	if err != nil {
		h.metrics.SyncErrors.Inc()
		h.logger.ErrorContext(ctx, "sync failed",
			slog.String("user_id", userID), slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	downCount := 0
	resp := api.SyncResponse{
		SyncAt:  result.SyncAt,
		Updates: make(map[string]map[string]api.DownUpdate, len(result.Updates)),
	}
	for category, byName := range result.Updates {
		downs := make(map[string]api.DownUpdate, len(byName))
		for name, d := range byName {
			downs[name] = api.DownUpdate{Value: d.Value, Removed: d.Removed}
			downCount++
		}
		resp.Updates[category] = downs
	}

	h.metrics.SyncCalls.Inc()
	h.metrics.UpUpdates.Add(float64(upCount))
	h.metrics.DownUpdates.Add(float64(downCount))

	h.logger.InfoContext(ctx, "sync completed",
		slog.String("user_id", userID),
		slog.Int("down_updates", downCount))

	sendJSON(w, resp, http.StatusOK)
}
