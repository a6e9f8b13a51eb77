package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func roleIDs(roles []Role) []RoleID {
	ids := make([]RoleID, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids
}

func TestSuperadminAssignsFullRegistry(t *testing.T) {
	got := roleIDs(SelectableRoles(RoleSuperadmin))
	require.Equal(t, registryOrder, got)
}

func TestPlatformAdminCannotAssignSuperadmin(t *testing.T) {
	for _, holder := range []RoleID{RolePlatformAdmin, RoleAdmin} {
		roles := SelectableRoles(holder)
		require.Len(t, roles, len(registryOrder)-1, "holder %s", holder)
		for _, r := range roles {
			require.NotEqual(t, RoleSuperadmin, r.ID, "holder %s may assign superadmin", holder)
		}
	}
}

func TestFixedDelegationSubsets(t *testing.T) {
	cases := []struct {
		holder RoleID
		want   []RoleID
	}{
		{RoleHRAdmin, []RoleID{RoleStaff, RoleSupport, RoleAdmissionStaff}},
		{RoleAdmissionAdmin, []RoleID{RoleAdmissionStaff, RoleAdmissionAgent}},
		{RoleMasterAgent, []RoleID{RoleAdmissionAgent}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, roleIDs(SelectableRoles(tc.holder)), "holder %s", tc.holder)
	}
}

func TestNonDelegatingRolesAssignNothing(t *testing.T) {
	for _, holder := range []RoleID{
		RoleStudent, RoleAlumni, RoleFaculty, RoleStaff, RoleSupport,
		RoleAdmissionStaff, RoleAdmissionAgent, RoleFinanceAdmin,
		RoleComplianceAdmin, RoleMarketingAdmin, RoleAuditor, "ghost_role",
	} {
		require.Empty(t, SelectableRoles(holder), "holder %s", holder)
	}
}

func TestCanAssign(t *testing.T) {
	require.True(t, CanAssign(RoleSuperadmin, RoleSuperadmin))
	require.True(t, CanAssign(RoleHRAdmin, RoleSupport))
	require.False(t, CanAssign(RoleHRAdmin, RoleFaculty))
	require.False(t, CanAssign(RoleAdmin, RoleSuperadmin))
	require.False(t, CanAssign(RoleStudent, RoleStudent))
}
