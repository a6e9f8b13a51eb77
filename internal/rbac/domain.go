package rbac

// RoleID identifies a role in the static registry.
type RoleID string

// Known role identifiers. The registry is the single source of truth; any
// identifier outside this list carries zero permissions.
const (
	RoleSuperadmin      RoleID = "superadmin"
	RolePlatformAdmin   RoleID = "platform_admin"
	RoleAdmin           RoleID = "admin"
	RoleHRAdmin         RoleID = "hr_admin"
	RoleFinanceAdmin    RoleID = "finance_admin"
	RoleComplianceAdmin RoleID = "compliance_admin"
	RoleMarketingAdmin  RoleID = "marketing_admin"
	RoleAdmissionAdmin  RoleID = "admission_admin"
	RoleAdmissionStaff  RoleID = "admission_staff"
	RoleAdmissionAgent  RoleID = "admission_agent"
	RoleMasterAgent     RoleID = "master_agent"
	RoleStaff           RoleID = "staff"
	RoleSupport         RoleID = "support"
	RoleFaculty         RoleID = "faculty"
	RoleStudent         RoleID = "student"
	RoleAlumni          RoleID = "alumni"
	RoleAuditor         RoleID = "auditor"
)

// RoleCategory groups roles for display.
type RoleCategory string

// Role categories.
const (
	CategorySystem     RoleCategory = "system"
	CategoryOperations RoleCategory = "operations"
	CategoryAdmissions RoleCategory = "admissions"
	CategoryExternal   RoleCategory = "external"
	CategoryReadonly   RoleCategory = "readonly"
)

// Resource enumerates the resource categories permissions are granted over.
type Resource string

// Resource categories. Closed set; adding a category means touching the
// registry, not runtime data.
const (
	ResourceUsers      Resource = "users"
	ResourceRoles      Resource = "roles"
	ResourceAdmissions Resource = "admissions"
	ResourceFinance    Resource = "finance"
	ResourceCompliance Resource = "compliance"
	ResourceContent    Resource = "content"
	ResourceSystem     Resource = "system"
	ResourceAgents     Resource = "agents"
	ResourceStudents   Resource = "students"
)

// Action enumerates permission actions. Not every action is valid for every
// resource; ActionsFor lists the allowed set per resource.
type Action string

// Permission actions.
const (
	ActionCreate    Action = "create"
	ActionRead      Action = "read"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionOverride  Action = "override"
	ActionPayout    Action = "payout"
	ActionExport    Action = "export"
	ActionPublish   Action = "publish"
	ActionGenerate  Action = "generate"
	ActionAssign    Action = "assign"
	ActionConfigure Action = "configure"
	ActionApprove   Action = "approve"
)

// PermissionSet maps a resource category to its granted actions.
type PermissionSet map[Resource][]Action

// Role is an immutable registry entry.
type Role struct {
	ID          RoleID        `json:"id"`
	Name        string        `json:"name"`
	Category    RoleCategory  `json:"category"`
	Permissions PermissionSet `json:"permissions"`
}

// Allows reports whether the role grants action on resource. Missing
// resource or action simply means no.
func (r Role) Allows(resource Resource, action Action) bool {
	for _, a := range r.Permissions[resource] {
		if a == action {
			return true
		}
	}
	return false
}

// actionsByResource is the closed action vocabulary per resource category.
var actionsByResource = map[Resource][]Action{
	ResourceUsers:      {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
	ResourceRoles:      {ActionRead, ActionAssign},
	ResourceAdmissions: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionOverride},
	ResourceFinance:    {ActionRead, ActionUpdate, ActionPayout, ActionOverride},
	ResourceCompliance: {ActionRead, ActionUpdate, ActionExport},
	ResourceContent:    {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionPublish, ActionGenerate},
	ResourceSystem:     {ActionRead, ActionConfigure},
	ResourceAgents:     {ActionCreate, ActionRead, ActionUpdate, ActionApprove},
	ResourceStudents:   {ActionCreate, ActionRead, ActionUpdate},
}

// ActionsFor returns the closed action set for a resource category.
func ActionsFor(resource Resource) []Action {
	actions := actionsByResource[resource]
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}
