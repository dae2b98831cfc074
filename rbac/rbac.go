package rbac

import (
	"github.com/samber/lo"

	"parkwatch-be/models"
)

var citizen = []Permission{
	CreateReport,
	EditOwnReport,
	PostComment,
}

var moderator = append(append([]Permission{}, citizen...),
	ViewAllReports,
	ApproveReport,
	ResolveReport,
	ViewMap,
	ViewRawComments,
	CreateAnnouncement,
)

var roles = map[models.Role][]Permission{
	models.RoleUser:       citizen,
	models.RoleAdmin:      moderator,
	models.RoleSuperAdmin: append(append([]Permission{}, moderator...), ManageRoles),
}

// IsGranted reports whether role holds perm. Unknown roles hold nothing.
func IsGranted(role models.Role, perm Permission) bool {
	return lo.Contains(roles[role], perm)
}

// GetGrantedPermissions returns a copy of the permissions of role
func GetGrantedPermissions(role models.Role) []Permission {
	return append([]Permission{}, roles[role]...)
}
