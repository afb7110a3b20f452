package policy

import (
	"context"

	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/models"
)

// SelfPolicy allows acting on a user record only when it is the caller's
// own, unless the caller is an administrator.
type SelfPolicy struct {
	isAdmin func(ctx context.Context, userID uint) bool
}

func NewSelfPolicy(isAdmin func(ctx context.Context, userID uint) bool) *SelfPolicy {
	return &SelfPolicy{isAdmin: isAdmin}
}

func (p *SelfPolicy) Can(ctx context.Context, userID uint, _ gate.Action, resource any) bool {
	target, ok := resource.(*models.User)
	if !ok {
		return false
	}
	return target.ID == userID || p.isAdmin(ctx, userID)
}
