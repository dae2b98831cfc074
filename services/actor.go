package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkwatch-be/models"
	"parkwatch-be/rbac"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
}

// Can reports whether the actor's role holds perm
func (a Actor) Can(perm rbac.Permission) bool {
	return rbac.IsGranted(a.Role, perm)
}

func requirePermission(a Actor, perm rbac.Permission) error {
	if a.ID.IsZero() {
		return &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	}
	if !a.Can(perm) {
		return PermissionError("role %q is not allowed to %s", a.Role, describe(perm))
	}
	return nil
}

func describe(perm rbac.Permission) string {
	switch perm {
	case rbac.CreateReport:
		return "submit reports"
	case rbac.EditOwnReport:
		return "edit reports"
	case rbac.PostComment:
		return "post comments"
	case rbac.ViewAllReports:
		return "view all reports"
	case rbac.ApproveReport:
		return "approve reports"
	case rbac.ResolveReport:
		return "resolve reports"
	case rbac.ViewMap:
		return "view the violation map"
	case rbac.ViewRawComments:
		return "view unfiltered comments"
	case rbac.CreateAnnouncement:
		return "create announcements"
	case rbac.ManageRoles:
		return "manage roles"
	default:
		return string(perm)
	}
}

// canView is the read visibility rule for a single report: owners and
// moderators see every status, everybody else only moderated reports.
func canView(a Actor, r *models.Report) bool {
	if r.IsOwnedBy(a.ID) || a.Can(rbac.ViewAllReports) {
		return true
	}
	return r.Status == models.Approved || r.Status == models.Resolved
}
