package http

import (
	"errors"
	"log/slog"
	"net/http"

	"dealdesk/internal/core"
	"dealdesk/internal/records"
)

// handleUpdateProfile saves the current user's profile from the settings
// form. Role changes go through here too.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	current, err := s.store.CurrentProfile(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Current profile error", "error", err)
		InternalServerError("Failed to load profile").Write(w)
		return
	}

	role := core.Role(sanitizeInput(r.Form.Get("role")))
	if role == "" {
		role = current.Role
	}

	profile := core.Profile{
		ID:        current.ID,
		FirstName: sanitizeInput(r.Form.Get("first_name")),
		LastName:  sanitizeInput(r.Form.Get("last_name")),
		Email:     sanitizeInput(r.Form.Get("email")),
		AvatarURL: sanitizeInput(r.Form.Get("avatar_url")),
		Role:      role,
	}

	if err := profile.Validate(); err != nil {
		UnprocessableEntityError("Invalid profile: " + err.Error()).Write(w)
		return
	}

	if err := s.store.UpdateProfile(r.Context(), profile); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			NotFoundError("Profile not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Profile update error", "error", err, "id", profile.ID)
		InternalServerError("Failed to update profile").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Profile updated", "id", profile.ID, "email", profile.Email)

	NewHTMXResponse().
		TriggerProfileChanged().
		TriggerSuccessNotification("Profile saved").
		Write(w)
}
