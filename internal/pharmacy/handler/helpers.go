package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pharmadesk/pharmacy-backend/pkg/errors"
	"github.com/pharmadesk/pharmacy-backend/pkg/httputil"
)

// idParam parses a numeric URL parameter
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("invalid " + name)
	}
	return id, nil
}

// actorID returns the authenticated user ID from the request context,
// or nil for unauthenticated requests.
func actorID(r *http.Request) *int64 {
	id := httputil.GetUserID(r.Context())
	if id == 0 {
		return nil
	}
	return &id
}
