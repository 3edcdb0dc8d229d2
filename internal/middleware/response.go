package middleware

import (
	"net/http"

	"github.com/spotmap/spot-api/internal/httputil"
)

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}
