package handler

import (
	"net/http"

	apperrors "github.com/spotmap/spot-api/internal/errors"
	"github.com/spotmap/spot-api/internal/httputil"
	"github.com/spotmap/spot-api/internal/middleware"
	"github.com/spotmap/spot-api/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

type messageResponse struct {
	Message string `json:"message"`
}

// requireSession fetches the session attached by the session middleware. A
// missing session means the route was wired without it.
func requireSession(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	session, ok := middleware.GetSession(r.Context())
	if !ok {
		writeError(w, apperrors.Internal("Session unavailable", nil))
		return model.Session{}, false
	}
	return session, true
}
