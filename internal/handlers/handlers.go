// Package handlers exposes the services as JSON over HTTP.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diewo77/go-assets/auth"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
)

// ActorLoader loads the account behind a session.
type ActorLoader interface {
	Current(ctx context.Context, userID uint) (*models.User, error)
}

// actor returns the signed-in user of r.
func actor(r *http.Request, users ActorLoader) (*models.User, error) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperr.ErrInvalidCredentials
	}
	u, err := users.Current(r.Context(), uid)
	if err != nil {
		if apperr.Kind(err) == apperr.ErrNotFound {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}
	return u, nil
}

func pathID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", apperr.ErrValidation, raw)
	}
	return uint(id), nil
}

// queryFilters turns the query string into search filters. Reserved
// parameters are skipped.
func queryFilters(r *http.Request, reserved ...string) map[string]string {
	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) == 0 || contains(reserved, key) {
			continue
		}
		filters[key] = values[0]
	}
	return filters
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
