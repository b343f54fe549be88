package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"tradejournal/src/auth"
	"tradejournal/src/events"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

type userFinder interface {
	FindByUserName(ctx context.Context, userName string) (*model.User, error)
}

type sessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	FindByRefreshToken(ctx context.Context, refreshToken string) (*model.Session, error)
	Rotate(ctx context.Context, sessionID uint, token, refreshToken string, expiresAt time.Time) error
	DeleteByToken(ctx context.Context, token string) error
}

type loginResponse struct {
	Token        string             `json:"token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresAt    time.Time          `json:"expires_at"`
	User         model.UserResponse `json:"user"`
}

// LoginHandler exchanges credentials for a session token pair. Wrong user
// name and wrong password answer the same 401 on purpose.
func LoginHandler(
	users userFinder,
	sessions sessionStore,
	hub *events.Hub,
	tokenTTL time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload model.LoginPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if payload.UserName == "" || payload.Password == "" {
			http.Error(w, "user_name and password are required", http.StatusBadRequest)
			return
		}

		user, err := users.FindByUserName(r.Context(), payload.UserName)
		if err != nil {
			logger.WithError(err).Error("failed to look up user for login")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if user == nil ||
			bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)) != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		session := &model.Session{
			UserID:       user.ID,
			Token:        auth.NewToken(),
			RefreshToken: auth.NewToken(),
			ExpiresAt:    time.Now().Add(tokenTTL),
		}

		if err := sessions.Create(r.Context(), session); err != nil {
			logger.WithError(err).Error("failed to create session")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{Type: events.TypeLogin, UserID: user.ID})

		writeJSON(w, http.StatusOK, loginResponse{
			Token:        session.Token,
			RefreshToken: session.RefreshToken,
			ExpiresAt:    session.ExpiresAt,
			User:         user.ToResponse(),
		})
	}
}

// RefreshHandler rotates a session's token pair. The presented refresh token
// is consumed, so replaying it answers 401.
func RefreshHandler(sessions sessionStore, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
			http.Error(w, "refresh_token is required", http.StatusBadRequest)
			return
		}

		session, err := sessions.FindByRefreshToken(r.Context(), payload.RefreshToken)
		if err != nil {
			logger.WithError(err).Error("failed to look up refresh token")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if session == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		token := auth.NewToken()
		refreshToken := auth.NewToken()
		expiresAt := time.Now().Add(tokenTTL)

		if err := sessions.Rotate(r.Context(), session.ID, token, refreshToken, expiresAt); err != nil {
			logger.WithError(err).Error("failed to rotate session tokens")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"token":         token,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
		})
	}
}

// LogoutHandler deletes the presented session. Logging out twice is fine.
func LogoutHandler(sessions sessionStore, hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		token := auth.BearerToken(r)
		if err := sessions.DeleteByToken(r.Context(), token); err != nil {
			logger.WithError(err).Error("failed to delete session")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{Type: events.TypeLogout, UserID: user.ID})

		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	}
}

// MeHandler returns the authenticated user's profile.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		writeJSON(w, http.StatusOK, user.ToResponse())
	}
}

type userUpdater interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// ChangePasswordHandler verifies the current password before storing a new
// bcrypt hash.
func ChangePasswordHandler(users userUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload model.ChangePasswordPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if len(payload.NewPassword) < 8 {
			http.Error(w, "new password must be at least 8 characters", http.StatusBadRequest)
			return
		}

		current, err := users.FindByID(r.Context(), user.ID)
		if err != nil || current == nil {
			logger.WithError(err).Error("failed to load user for password change")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(current.Password), []byte(payload.CurrentPassword)) != nil {
			http.Error(w, "current password is incorrect", http.StatusUnauthorized)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.WithError(err).Error("failed to hash new password")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		current.Password = string(hash)
		if err := users.Update(r.Context(), current); err != nil {
			logger.WithError(err).Error("failed to update password")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
	}
}

// DefaultLoginHandler wires the handler to the production repository implementation.
func DefaultLoginHandler(hub *events.Hub, tokenTTL time.Duration) http.HandlerFunc {
	return LoginHandler(repository.NewUserRepository(), repository.NewSessionRepository(), hub, tokenTTL)
}

// DefaultRefreshHandler wires the handler to the production repository implementation.
func DefaultRefreshHandler(tokenTTL time.Duration) http.HandlerFunc {
	return RefreshHandler(repository.NewSessionRepository(), tokenTTL)
}

// DefaultLogoutHandler wires the handler to the production repository implementation.
func DefaultLogoutHandler(hub *events.Hub) http.HandlerFunc {
	return LogoutHandler(repository.NewSessionRepository(), hub)
}

// DefaultChangePasswordHandler wires the handler to the production repository implementation.
func DefaultChangePasswordHandler() http.HandlerFunc {
	return ChangePasswordHandler(repository.NewUserRepository())
}
