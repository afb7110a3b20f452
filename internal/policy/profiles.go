// Package policy maps user roles to gate profiles and wires the
// authorization gate used by services and HTTP middleware.
package policy

import (
	"github.com/diewo77/go-assets/gate"
	"github.com/diewo77/go-assets/internal/models"
)

func perm(resource string, actions ...gate.Action) []gate.Permission {
	out := make([]gate.Permission, len(actions))
	for i, a := range actions {
		out[i] = gate.NewPermission(resource, a)
	}
	return out
}

func join(groups ...[]gate.Permission) []gate.Permission {
	var out []gate.Permission
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Every role may view and update its own account; the self policy limits
// those two to the caller's own record.
var ownAccount = perm(gate.ResourceUser, gate.ActionView, gate.ActionUpdate)

var profiles = map[models.Role]*gate.StaticProfile{
	models.RoleAdministrator: gate.NewStaticProfile(string(models.RoleAdministrator), gate.PermissionSuperAdmin),

	models.RoleStandard: gate.NewStaticProfile(string(models.RoleStandard), join(
		perm(gate.ResourceAsset, gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate,
			gate.ActionMove, gate.ActionImport, gate.ActionExport),
		perm(gate.ResourceReport, gate.ActionCreate),
		perm(gate.ResourceUser, gate.ActionList),
		ownAccount,
	)...),

	models.RoleDocumentController: gate.NewStaticProfile(string(models.RoleDocumentController), join(
		perm(gate.ResourceAsset, gate.ActionList, gate.ActionView, gate.ActionCreate, gate.ActionUpdate,
			gate.ActionMove, gate.ActionImport, gate.ActionExport),
		perm(gate.ResourceReport, gate.ActionCreate),
		ownAccount,
	)...),

	models.RoleViewOnly: gate.NewStaticProfile(string(models.RoleViewOnly), join(
		perm(gate.ResourceAsset, gate.ActionList, gate.ActionView, gate.ActionExport),
		perm(gate.ResourceReport, gate.ActionCreate),
		ownAccount,
	)...),
}

// ProfileForRole returns the profile of role, or nil for an unknown role.
func ProfileForRole(role models.Role) gate.Profile {
	p, ok := profiles[role]
	if !ok {
		return nil
	}
	return p
}
