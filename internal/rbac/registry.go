package rbac

// registryOrder fixes the listing order of roles. Keep system roles first,
// then operations, admissions, external, readonly.
var registryOrder = []RoleID{
	RoleSuperadmin,
	RolePlatformAdmin,
	RoleAdmin,
	RoleHRAdmin,
	RoleFinanceAdmin,
	RoleComplianceAdmin,
	RoleMarketingAdmin,
	RoleStaff,
	RoleSupport,
	RoleFaculty,
	RoleAdmissionAdmin,
	RoleAdmissionStaff,
	RoleAdmissionAgent,
	RoleMasterAgent,
	RoleStudent,
	RoleAlumni,
	RoleAuditor,
}

var registry = map[RoleID]Role{
	RoleSuperadmin: {
		ID:       RoleSuperadmin,
		Name:     "Super Administrator",
		Category: CategorySystem,
		Permissions: PermissionSet{
			ResourceUsers:      {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
			ResourceRoles:      {ActionRead, ActionAssign},
			ResourceAdmissions: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionOverride},
			ResourceFinance:    {ActionRead, ActionUpdate, ActionPayout, ActionOverride},
			ResourceCompliance: {ActionRead, ActionUpdate, ActionExport},
			ResourceContent:    {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionPublish, ActionGenerate},
			ResourceSystem:     {ActionRead, ActionConfigure},
			ResourceAgents:     {ActionCreate, ActionRead, ActionUpdate, ActionApprove},
			ResourceStudents:   {ActionCreate, ActionRead, ActionUpdate},
		},
	},
	RolePlatformAdmin: {
		ID:       RolePlatformAdmin,
		Name:     "Platform Administrator",
		Category: CategorySystem,
		Permissions: PermissionSet{
			ResourceUsers:      {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
			ResourceRoles:      {ActionRead, ActionAssign},
			ResourceAdmissions: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionOverride},
			ResourceFinance:    {ActionRead, ActionUpdate, ActionOverride},
			ResourceCompliance: {ActionRead, ActionUpdate, ActionExport},
			ResourceContent:    {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionPublish, ActionGenerate},
			ResourceSystem:     {ActionRead, ActionConfigure},
			ResourceAgents:     {ActionCreate, ActionRead, ActionUpdate, ActionApprove},
			ResourceStudents:   {ActionCreate, ActionRead, ActionUpdate},
		},
	},
	RoleAdmin: {
		ID:       RoleAdmin,
		Name:     "Administrator",
		Category: CategorySystem,
		Permissions: PermissionSet{
			ResourceUsers:      {ActionCreate, ActionRead, ActionUpdate},
			ResourceRoles:      {ActionRead, ActionAssign},
			ResourceAdmissions: {ActionCreate, ActionRead, ActionUpdate, ActionDelete},
			ResourceFinance:    {ActionRead, ActionUpdate},
			ResourceCompliance: {ActionRead},
			ResourceContent:    {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionPublish, ActionGenerate},
			ResourceSystem:     {ActionRead},
			ResourceAgents:     {ActionRead, ActionUpdate},
			ResourceStudents:   {ActionCreate, ActionRead, ActionUpdate},
		},
	},
	RoleHRAdmin: {
		ID:       RoleHRAdmin,
		Name:     "HR Administrator",
		Category: CategoryOperations,
		Permissions: PermissionSet{
			ResourceUsers:    {ActionCreate, ActionRead, ActionUpdate},
			ResourceRoles:    {ActionRead, ActionAssign},
			ResourceStudents: {ActionRead},
		},
	},
	RoleFinanceAdmin: {
		ID:       RoleFinanceAdmin,
		Name:     "Finance Administrator",
		Category: CategoryOperations,
		Permissions: PermissionSet{
			ResourceUsers:    {ActionRead},
			ResourceFinance:  {ActionRead, ActionUpdate, ActionPayout, ActionOverride},
			ResourceStudents: {ActionRead},
		},
	},
	RoleComplianceAdmin: {
		ID:       RoleComplianceAdmin,
		Name:     "Compliance Administrator",
		Category: CategoryOperations,
		Permissions: PermissionSet{
			ResourceUsers:      {ActionRead},
			ResourceAdmissions: {ActionRead},
			ResourceCompliance: {ActionRead, ActionUpdate, ActionExport},
			ResourceStudents:   {ActionRead},
		},
	},
	RoleMarketingAdmin: {
		ID:       RoleMarketingAdmin,
		Name:     "Marketing Administrator",
		Category: CategoryOperations,
		Permissions: PermissionSet{
			ResourceUsers:   {ActionRead},
			ResourceContent: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionPublish},
		},
	},
	RoleStaff: {
		ID:       RoleStaff,
		Name:     "Staff",
		Category: CategoryOperations,
		Permissions: PermissionSet{
			ResourceUsers:    {ActionRead},
			ResourceContent:  {ActionRead},
			ResourceStudents: {ActionRead},
		},
	},
	RoleSupport: {
		ID:       RoleSupport,
		Name:     "Support",
		Category: CategoryOperations,
		Permissions: PermissionSet{
			ResourceUsers:   {ActionRead},
			ResourceContent: {ActionRead},
		},
	},
	RoleFaculty: {
		ID:       RoleFaculty,
		Name:     "Faculty",
		Category: CategoryOperations,
		Permissions: PermissionSet{
			ResourceContent:  {ActionCreate, ActionRead, ActionUpdate, ActionGenerate},
			ResourceStudents: {ActionRead},
		},
	},
	RoleAdmissionAdmin: {
		ID:       RoleAdmissionAdmin,
		Name:     "Admissions Administrator",
		Category: CategoryAdmissions,
		Permissions: PermissionSet{
			ResourceUsers:      {ActionRead},
			ResourceRoles:      {ActionRead, ActionAssign},
			ResourceAdmissions: {ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionOverride},
			ResourceAgents:     {ActionCreate, ActionRead, ActionUpdate, ActionApprove},
			ResourceStudents:   {ActionCreate, ActionRead, ActionUpdate},
		},
	},
	RoleAdmissionStaff: {
		ID:       RoleAdmissionStaff,
		Name:     "Admissions Staff",
		Category: CategoryAdmissions,
		Permissions: PermissionSet{
			ResourceUsers:      {ActionRead},
			ResourceAdmissions: {ActionCreate, ActionRead, ActionUpdate},
			ResourceStudents:   {ActionCreate, ActionRead},
		},
	},
	RoleAdmissionAgent: {
		ID:       RoleAdmissionAgent,
		Name:     "Admissions Agent",
		Category: CategoryExternal,
		Permissions: PermissionSet{
			ResourceAdmissions: {ActionCreate, ActionRead},
			ResourceStudents:   {ActionCreate, ActionRead},
		},
	},
	RoleMasterAgent: {
		ID:       RoleMasterAgent,
		Name:     "Master Agent",
		Category: CategoryExternal,
		Permissions: PermissionSet{
			ResourceRoles:      {ActionRead, ActionAssign},
			ResourceAdmissions: {ActionRead},
			ResourceAgents:     {ActionRead, ActionApprove},
			ResourceStudents:   {ActionRead},
		},
	},
	RoleStudent: {
		ID:       RoleStudent,
		Name:     "Student",
		Category: CategoryExternal,
		Permissions: PermissionSet{
			ResourceContent: {ActionRead},
		},
	},
	RoleAlumni: {
		ID:       RoleAlumni,
		Name:     "Alumni",
		Category: CategoryExternal,
		Permissions: PermissionSet{
			ResourceContent: {ActionRead},
		},
	},
	RoleAuditor: {
		ID:       RoleAuditor,
		Name:     "Auditor",
		Category: CategoryReadonly,
		Permissions: PermissionSet{
			ResourceUsers:      {ActionRead},
			ResourceRoles:      {ActionRead},
			ResourceAdmissions: {ActionRead},
			ResourceFinance:    {ActionRead},
			ResourceCompliance: {ActionRead, ActionExport},
			ResourceContent:    {ActionRead},
			ResourceSystem:     {ActionRead},
			ResourceAgents:     {ActionRead},
			ResourceStudents:   {ActionRead},
		},
	},
}

// Lookup returns the registry entry for id. Unknown ids report ok=false and
// never panic; callers treat that as a role with no permissions.
func Lookup(id RoleID) (Role, bool) {
	role, ok := registry[id]
	return role, ok
}

// All returns every registered role in display order.
func All() []Role {
	roles := make([]Role, 0, len(registryOrder))
	for _, id := range registryOrder {
		roles = append(roles, registry[id])
	}
	return roles
}

// HasPermission reports whether role id grants action on resource.
// Deny-by-default: an unknown role, a resource absent from the role's
// permission map, or an action outside the granted set all yield false.
func HasPermission(id RoleID, resource Resource, action Action) bool {
	role, ok := registry[id]
	if !ok {
		return false
	}
	return role.Allows(resource, action)
}
