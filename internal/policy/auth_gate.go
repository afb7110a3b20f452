package policy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/go-assets/auth"
	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/httpx"
	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/internal/models"
)

// AuthGate is the single authorization point: role profiles resolved
// through a TTL cache plus the self policy on user records.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate builds the gate over users with profiles cached for cacheTTL.
func NewAuthGate(users UserLookup, cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](NewRoleResolver(users), cacheTTL)
	ag := &AuthGate{Gate: gate.New[uint](cached), CacheResolver: cached}
	ag.Gate.Register(gate.ResourceUser, NewSelfPolicy(ag.IsAdmin))
	return ag
}

// Authorize checks actor against resource:action and, when target is
// non-nil, the resource policy. Refusals wrap apperr.ErrPermissionDenied.
func (ag *AuthGate) Authorize(ctx context.Context, actor *models.User, action gate.Action, resourceType string, target any) error {
	if actor == nil {
		return fmt.Errorf("%w: no acting user", apperr.ErrPermissionDenied)
	}
	if err := ag.Gate.Authorize(ctx, actor.ID, action, resourceType, target); err != nil {
		if errors.Is(err, gate.ErrUnauthorized) {
			return fmt.Errorf("%w: %s may not %s %s", apperr.ErrPermissionDenied, actor.Username, action, resourceType)
		}
		return err
	}
	return nil
}

// IsAdmin reports whether userID's profile holds the superadmin permission.
func (ag *AuthGate) IsAdmin(ctx context.Context, userID uint) bool {
	p, err := ag.CacheResolver.Resolve(ctx, userID)
	return err == nil && p != nil && p.HasPermission(gate.PermissionSuperAdmin)
}

// CanProfile checks only the profile permission of the request's user.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	uid, ok := auth.UserIDFromContext(ctx)
	return ok && ag.Gate.CanProfile(ctx, uid, action, resourceType)
}

// InvalidateUser drops the cached profile of userID. Call it when the
// user's role changes or the user is deleted.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll drops every cached profile, e.g. after a database restore.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission returns middleware answering 403 unless the request's
// user holds resource:action.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only lets administrators through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			if !ag.IsAdmin(r.Context(), uid) {
				httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
