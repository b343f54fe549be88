package handler

import (
	"context"
	"encoding/json"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"tradejournal/src/auth"
	"tradejournal/src/events"
	"tradejournal/src/model"
	"tradejournal/src/repository"
)

type preferencesStore interface {
	GetOrCreate(ctx context.Context, userID uint) (*model.UserPreferences, error)
	Update(ctx context.Context, prefs *model.UserPreferences) error
}

// GetPreferencesHandler returns the user's settings, creating the defaults
// on first access.
func GetPreferencesHandler(repo preferencesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		prefs, err := repo.GetOrCreate(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to load preferences")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, prefs)
	}
}

// UpdatePreferencesHandler merges the non-nil payload fields into the stored
// record. The save happens first; the broadcast is best-effort and a failed
// delivery never rolls the settings back.
func UpdatePreferencesHandler(repo preferencesStore, hub *events.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetUserFromContext(r.Context())
		if !ok || user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload model.UpdatePreferencesPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if payload.ItemsPerPage != nil && *payload.ItemsPerPage <= 0 {
			http.Error(w, "items_per_page must be positive", http.StatusBadRequest)
			return
		}

		prefs, err := repo.GetOrCreate(r.Context(), user.ID)
		if err != nil {
			logger.WithError(err).Error("failed to load preferences for update")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		applyPreferences(prefs, &payload)

		if err := repo.Update(r.Context(), prefs); err != nil {
			logger.WithError(err).Error("failed to update preferences")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		hub.Publish(events.Event{
			Type:    events.TypePreferencesUpdated,
			UserID:  user.ID,
			Payload: prefs,
		})

		writeJSON(w, http.StatusOK, prefs)
	}
}

func applyPreferences(prefs *model.UserPreferences, payload *model.UpdatePreferencesPayload) {
	if payload.Language != nil {
		prefs.Language = *payload.Language
	}
	if payload.Timezone != nil {
		prefs.Timezone = *payload.Timezone
	}
	if payload.DateFormat != nil {
		prefs.DateFormat = *payload.DateFormat
	}
	if payload.NumberFormat != nil {
		prefs.NumberFormat = *payload.NumberFormat
	}
	if payload.Theme != nil {
		prefs.Theme = *payload.Theme
	}
	if payload.FontSize != nil {
		prefs.FontSize = *payload.FontSize
	}
	if payload.ItemsPerPage != nil {
		prefs.ItemsPerPage = *payload.ItemsPerPage
	}
	if payload.NotifyOnTrade != nil {
		prefs.NotifyOnTrade = *payload.NotifyOnTrade
	}
	if payload.NotifyOnImport != nil {
		prefs.NotifyOnImport = *payload.NotifyOnImport
	}
	if payload.NotifyByEmail != nil {
		prefs.NotifyByEmail = *payload.NotifyByEmail
	}
}

// DefaultGetPreferencesHandler wires the handler to the production repository implementation.
func DefaultGetPreferencesHandler() http.HandlerFunc {
	return GetPreferencesHandler(repository.NewPreferencesRepository())
}

// DefaultUpdatePreferencesHandler wires the handler to the production repository implementation.
func DefaultUpdatePreferencesHandler(hub *events.Hub) http.HandlerFunc {
	return UpdatePreferencesHandler(repository.NewPreferencesRepository(), hub)
}
