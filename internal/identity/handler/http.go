// Package handler exposes password login over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"silowatch/internal/identity/service"
	"silowatch/internal/server/respond"
)

// HTTP handles authentication requests.
type HTTP struct {
	auth *service.AuthService
}

// NewHTTP returns the auth handler.
func NewHTTP(auth *service.AuthService) *HTTP {
	return &HTTP{auth: auth}
}

// Register mounts the public auth routes.
func (h *HTTP) Register(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
}

// Login authenticates with email/password and returns a bearer token bound to
// the user's organization.
func (h *HTTP) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid body")
		return
	}
	res, err := h.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respond.Error(w, http.StatusInternalServerError, "login")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"accessToken": res.AccessToken,
		"expiresAt":   res.ExpiresAt.Format(time.RFC3339),
		"userId":      res.UserID,
		"orgId":       res.OrgID,
	})
}
