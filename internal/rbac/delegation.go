package rbac

// delegation is the hard-coded role assignment hierarchy: which roles the
// holder of a given role may hand out to other users. This table is policy,
// not something derived from the permission maps.
//
// A nil entry means "may assign every registered role"; a missing entry means
// "may assign nothing".
var delegation = map[RoleID][]RoleID{
	RoleSuperadmin:     nil,
	RolePlatformAdmin:  allExcept(RoleSuperadmin),
	RoleAdmin:          allExcept(RoleSuperadmin),
	RoleHRAdmin:        {RoleStaff, RoleSupport, RoleAdmissionStaff},
	RoleAdmissionAdmin: {RoleAdmissionStaff, RoleAdmissionAgent},
	RoleMasterAgent:    {RoleAdmissionAgent},
}

func allExcept(excluded ...RoleID) []RoleID {
	skip := make(map[RoleID]struct{}, len(excluded))
	for _, id := range excluded {
		skip[id] = struct{}{}
	}
	ids := make([]RoleID, 0, len(registryOrder))
	for _, id := range registryOrder {
		if _, ok := skip[id]; ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// SelectableRoles returns the roles the given role may assign to other
// users, in registry display order. Unknown or non-delegating roles get an
// empty list.
func SelectableRoles(id RoleID) []Role {
	assignable, ok := delegation[id]
	if !ok {
		return nil
	}
	if assignable == nil {
		return All()
	}
	roles := make([]Role, 0, len(assignable))
	for _, rid := range assignable {
		if role, found := registry[rid]; found {
			roles = append(roles, role)
		}
	}
	return roles
}

// CanAssign reports whether holder may hand out target to another user.
func CanAssign(holder, target RoleID) bool {
	for _, role := range SelectableRoles(holder) {
		if role.ID == target {
			return true
		}
	}
	return false
}
