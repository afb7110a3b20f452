package policy

import (
	"context"

	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/models"
)

// UserLookup loads a user by id, returning nil when absent.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// RoleResolver resolves a user id to the profile of the user's role.
type RoleResolver struct {
	users UserLookup
}

func NewRoleResolver(users UserLookup) *RoleResolver {
	return &RoleResolver{users: users}
}

// Resolve returns nil for unknown users.
func (r *RoleResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	u, err := r.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}
	return ProfileForRole(u.Role), nil
}
