package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wordbase/wordbase/internal/models"
	"github.com/wordbase/wordbase/internal/server/storage"
	"github.com/wordbase/wordbase/internal/validation"
	"github.com/wordbase/wordbase/pkg/api"
)

const bcryptCost = 10

// AuthHandler serves registration, login and session continuation.
type AuthHandler struct {
	logger    *slog.Logger
	users     storage.UserStore
	tokens    storage.TokenStore
	jwtConfig JWTConfig
}

// NewAuthHandler builds the auth handler.
func NewAuthHandler(logger *slog.Logger, users storage.UserStore, tokens storage.TokenStore, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		users:     users,
		tokens:    tokens,
		jwtConfig: jwtConfig,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateEmail(req.Email); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			sendError(w, "email already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))

	h.issueTokens(ctx, w, user.ID, http.StatusCreated)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to load user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		sendError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	h.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	h.issueTokens(ctx, w, user.ID, http.StatusOK)
}

// Refresh handles POST /api/v1/auth/refresh: it rotates the refresh
// token and issues a fresh access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	stored, err := h.tokens.GetToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			sendError(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to load refresh token", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.tokens.DeleteToken(ctx, req.RefreshToken); err != nil {
		h.logger.ErrorContext(ctx, "failed to rotate refresh token", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.issueTokens(ctx, w, stored.UserID, http.StatusOK)
}

// Logout handles POST /api/v1/auth/logout: it drops every refresh
// token of the authenticated user.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.tokens.DeleteUserTokens(ctx, userID); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete tokens", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) issueTokens(ctx context.Context, w http.ResponseWriter, userID string, status int) {
	access, expiresIn, err := GenerateAccessToken(h.jwtConfig, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	refresh, expiresAt, err := GenerateRefreshToken(h.jwtConfig)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.tokens.SaveToken(ctx, &models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to save refresh token", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, api.AuthResponse{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	}, status)
}
