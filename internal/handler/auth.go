package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/maisonnoir/storefront/internal/authapi"
	"github.com/maisonnoir/storefront/internal/domain/session"
)

// userView is the API representation of an authenticated user.
type userView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

func toUserView(u *authapi.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var creds authapi.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}

	store := h.sessions.Get(h.sessionID(w, r))
	user, err := store.Login(r.Context(), creds)
	if err != nil {
		h.authError(w, r, err, "login")
		return
	}
	writeData(w, http.StatusOK, toUserView(user))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var reg authapi.Registration
	if !decodeBody(w, r, &reg) {
		return
	}

	store := h.sessions.Get(h.sessionID(w, r))
	user, err := store.Register(r.Context(), reg)
	if err != nil {
		h.authError(w, r, err, "register")
		return
	}
	writeData(w, http.StatusCreated, toUserView(user))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(h.sessionID(w, r))
	if err := store.Logout(r.Context()); err != nil {
		// Local state is already cleared; report success anyway.
		writeData(w, http.StatusOK, map[string]bool{"loggedOut": true})
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Get(h.sessionID(w, r))
	user, err := store.CheckAuth(r.Context())
	if err != nil {
		h.authError(w, r, err, "check auth")
		return
	}
	writeData(w, http.StatusOK, toUserView(user))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update authapi.ProfileUpdate
	if !decodeBody(w, r, &update) {
		return
	}

	store := h.sessions.Get(h.sessionID(w, r))
	user, err := store.UpdateProfile(r.Context(), update)
	if err != nil {
		h.authError(w, r, err, "update profile")
		return
	}
	writeData(w, http.StatusOK, toUserView(user))
}

// authError maps identity-service failures onto API responses.
func (h *Handler) authError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, authapi.ErrSessionExpired) || errors.Is(err, session.ErrNotAuthenticated) {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var apiErr *authapi.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
		return
	}

	h.serverError(w, r, err, op)
}
