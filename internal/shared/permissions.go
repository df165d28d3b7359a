package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"

	PermFeatureTogglesEdit = "feature_toggles.edit"

	PermPaymentView = "payment_view"
	PermPaymentEdit = "payment_edit"

	PermAttendanceManage = "attendance.manage"
	PermAttendanceVerify = "attendance.verify"

	PermActivityView = "activity.view"
)

// Feature toggle names gating optional capabilities.
const (
	FeaturePaymentIntegration = "payment_integration"
	FeatureAttendanceCodes    = "attendance_codes"
)

// RoleAdmin is the distinguished administrative role. Holders bypass all
// role, permission and feature-toggle checks.
const RoleAdmin = "admin"

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermFeatureTogglesEdit,
		PermPaymentView,
		PermPaymentEdit,
		PermAttendanceManage,
		PermAttendanceVerify,
		PermActivityView,
	}
}
