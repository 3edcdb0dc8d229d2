package handler

import (
	"context"
	"net/http"

	"github.com/spotmap/spot-api/internal/model"
)

type ProfileLookup interface {
	Lookup(ctx context.Context, session model.Session) (*model.User, error)
}

type ProfileHandler struct {
	profiles ProfileLookup
}

func NewProfileHandler(profiles ProfileLookup) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileResponse struct {
	Profile profileBody `json:"profile"`
}

type profileBody struct {
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	MemberSince string `json:"member_since"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	user, err := h.profiles.Lookup(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Not logged in"})
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{Profile: profileBody{
		Name:        user.Name,
		Avatar:      user.Avatar,
		MemberSince: user.RegisteredAt.UTC().Format(http.TimeFormat),
	}})
}
