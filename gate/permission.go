package gate

import "strings"

// Permission grants an action on a resource type, written "resource:action".
// Either half may be the wildcard "*".
type Permission string

const (
	Wildcard = "*"
	// PermissionSuperAdmin grants every action on every resource.
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission builds "resource:action".
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits p into its halves. Malformed permissions yield empty strings.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, ok := strings.Cut(string(p), ":")
	if !ok || res == "" || act == "" {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether p grants requested. "asset:*" grants every asset
// action and "*:view" grants view on every resource.
func (p Permission) Matches(requested Permission) bool {
	res, act := p.Parse()
	reqRes, reqAct := requested.Parse()
	if res == "" || reqRes == "" {
		return false
	}
	return (res == Wildcard || res == reqRes) && (act == Wildcard || act == reqAct)
}
