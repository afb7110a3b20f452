package gate

import "context"

// Gate combines profile permissions with per-resource policies.
//
// Authorize grants access when:
//  1. the subject is not the zero value,
//  2. its profile holds resource:action, and
//  3. when a target is given and a policy is registered for the resource
//     type, the policy allows it.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

// New creates a gate resolving profiles through resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register installs the policy for a resource type, replacing any previous one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns nil when subject may perform action, ErrUnauthorized otherwise.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, target any) error {
	if !g.CanProfile(ctx, subject, action, resourceType) {
		return ErrUnauthorized
	}
	if target != nil {
		if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, subject, action, target) {
			return ErrUnauthorized
		}
	}
	return nil
}

// Can is Authorize as a bool.
func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, resourceType string, target any) bool {
	return g.Authorize(ctx, subject, action, resourceType, target) == nil
}

// CanProfile checks the profile permission only, ignoring policies.
func (g *Gate[U]) CanProfile(ctx context.Context, subject U, action Action, resourceType string) bool {
	var zero U
	if subject == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, subject)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}
