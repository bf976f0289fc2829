package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
	"github.com/wordbase/wordbase/internal/validation"
	"github.com/wordbase/wordbase/pkg/api"
)

// maxAvatarBytes bounds avatar uploads.
const maxAvatarBytes = 1 << 20

// Profile entry names within the "user" category.
const (
	entryDisplayName = "displayName"
	entryTagline     = "tagline"
	entryAvatar      = "avatar"
)

// ProfileHandler updates account profiles and serves uploaded files.
// Profile fields are mirrored into the "user" data category so edits
// reach the user's other devices through normal sync.
type ProfileHandler struct {
	logger  *slog.Logger
	users   storage.UserStore
	files   storage.FileStore
	entries storage.EntryStore
}

// NewProfileHandler builds the profile handler.
func NewProfileHandler(logger *slog.Logger, users storage.UserStore, files storage.FileStore, entries storage.EntryStore) *ProfileHandler {
	return &ProfileHandler{
		logger:  logger,
		users:   users,
		files:   files,
		entries: entries,
	}
}

// UpdateProfile handles PUT /api/v1/profile (multipart form with
// nickname, tagline and an optional avatar file).
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		sendError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	nickname := r.FormValue("nickname")
	tagline := r.FormValue("tagline")

	if err := validation.ValidateProfile(nickname, tagline); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	avatarID := user.AvatarID

	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
		if err != nil || len(data) > maxAvatarBytes {
			sendError(w, "avatar too large", http.StatusBadRequest)
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		avatarID = uuid.New().String()
		if err := h.files.PutFile(ctx, &models.StoredFile{
			ID:          avatarID,
			Owner:       userID,
			Name:        header.Filename,
			ContentType: contentType,
			Data:        data,
			CreatedAt:   time.Now(),
		}); err != nil {
			h.logger.ErrorContext(ctx, "failed to store avatar", slog.Any("error", err))
			sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	user.Nickname = nickname
	user.Tagline = tagline
	user.AvatarID = avatarID

	if err := h.users.UpdateProfile(ctx, user); err != nil {
		h.logger.ErrorContext(ctx, "failed to update profile", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now().UnixMilli()
	mirror := map[string]string{
		entryDisplayName: nickname,
		entryTagline:     tagline,
	}
	if avatarID != "" {
		mirror[entryAvatar] = avatarID
	}

	for name, value := range mirror {
		if err := h.mirrorEntry(ctx, userID, name, value, now); err != nil {
			h.logger.ErrorContext(ctx, "failed to mirror profile entry",
				slog.String("name", name), slog.Any("error", err))
			sendError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	sendJSON(w, api.ProfileResponse{
		UserID:   userID,
		Nickname: nickname,
		Tagline:  tagline,
		AvatarID: avatarID,
	}, http.StatusOK)
}

// mirrorEntry writes one profile field into the "user" category as a
// plain value entry.
func (h *ProfileHandler) mirrorEntry(ctx context.Context, userID, name, value string, now int64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	key := models.EntryKey{Owner: userID, Category: "user", Name: name}

	entry, err := h.entries.Load(ctx, key)
	if errors.Is(err, storage.ErrEntryNotFound) {
		return h.entries.Upsert(ctx, &models.DataEntry{
			Owner:    userID,
			Category: "user",
			Name:     name,
			Type:     models.TypeValue,
			Data:     data,
			SyncAt:   now,
			UpdateAt: now,
		})
	}
	if err != nil {
		return err
	}

	entry.Type = models.TypeValue
	entry.Data = data
	entry.Removed = false
	entry.SyncAt = now
	entry.UpdateAt = now

	return h.entries.Save(ctx, entry)
}

// GetFile handles GET /api/v1/files/{id}.
func (h *ProfileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		sendError(w, "file id is required", http.StatusBadRequest)
		return
	}

	file, err := h.files.GetFile(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			sendError(w, "file not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load file", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
