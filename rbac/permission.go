package rbac

// Permission a single capability checked by the services
type Permission string

const (
	CreateReport       Permission = "create_report"
	EditOwnReport      Permission = "edit_own_report"
	PostComment        Permission = "post_comment"
	ViewAllReports     Permission = "view_all_reports"
	ApproveReport      Permission = "approve_report"
	ResolveReport      Permission = "resolve_report"
	ViewMap            Permission = "view_map"
	ViewRawComments    Permission = "view_raw_comments"
	CreateAnnouncement Permission = "create_announcement"
	ManageRoles        Permission = "manage_roles"
)
