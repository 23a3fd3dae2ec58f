package shared

// Platform permissions. Names are part of the persisted contract and must not
// be renamed without a data migration.
const (
	PermCreateProject   = "CREATE_PROJECT"
	PermViewAllProjects = "VIEW_ALL_PROJECTS"
	PermCreateTask      = "CREATE_TASK"
	PermUpdateTask      = "UPDATE_TASK_STATUS"
	PermReviewTask      = "REVIEW_TASK"
	PermViewDashboard   = "VIEW_DASHBOARD"
)

// Well-known role names. Roles are data, not a closed enumeration; these
// constants only name the roles the visibility lattice and registration
// defaults recognize.
const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
	RoleIntern   = "Intern"
)

// CoreScopes lists all permissions seeded for the platform.
func CoreScopes() []string {
	return []string{
		PermCreateProject,
		PermViewAllProjects,
		PermCreateTask,
		PermUpdateTask,
		PermReviewTask,
		PermViewDashboard,
	}
}
