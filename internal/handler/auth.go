package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spotmap/spot-api/internal/model"
	"github.com/spotmap/spot-api/internal/service"
)

type LoginFlow interface {
	LoginURL(provider string, session model.Session, origin, host string) (string, error)
	HandleCallback(ctx context.Context, session model.Session, params service.CallbackParams) (*service.CallbackResult, error)
}

type SessionTerminator interface {
	Logout(ctx context.Context, session model.Session) (bool, error)
}

type AuthHandler struct {
	oauth    LoginFlow
	sessions SessionTerminator
}

func NewAuthHandler(oauth LoginFlow, sessions SessionTerminator) *AuthHandler {
	return &AuthHandler{oauth: oauth, sessions: sessions}
}

type callbackResponse struct {
	Profile model.Profile `json:"profile"`
}

// Login sends the browser to the provider's sign-in page. The referring page
// is carried through as the place to return to.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	authURL, err := h.oauth.LoginURL(chi.URLParam(r, "service"), session, r.Referer(), r.Host)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", authURL)
	w.WriteHeader(http.StatusFound)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	result, err := h.oauth.HandleCallback(r.Context(), session, service.CallbackParams{
		Provider: chi.URLParam(r, "service"),
		State:    query.Get("state"),
		Code:     query.Get("code"),
		Host:     r.Host,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	body := callbackResponse{Profile: result.Profile}
	if result.Origin != "" {
		w.Header().Set("Location", result.Origin)
		writeJSON(w, http.StatusFound, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	cleared, err := h.sessions.Logout(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}

	if cleared {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Current session has been logged out"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Current session is already logged out"})
}
