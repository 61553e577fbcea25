package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGrants(t *testing.T) {
	got := NormalizeGrants([]Permission{PermSettingsManage, " orders.view ", "", PermOrdersView, PermDashboardView})
	assert.Equal(t, []Permission{PermDashboardView, PermOrdersView, PermSettingsManage}, got)
}

func TestValidateGrants(t *testing.T) {
	require.NoError(t, ValidateGrants([]Permission{PermBlogEdit, PermOrdersView}))
	require.NoError(t, ValidateGrants(nil))

	err := ValidateGrants([]Permission{PermBlogEdit, "blog.publish", "orders.refund"})
	require.ErrorIs(t, err, ErrUnknownPermission)
	assert.Contains(t, err.Error(), "blog.publish, orders.refund")
}

func TestTogglePermission(t *testing.T) {
	granted := []Permission{PermOrdersView}

	granted = TogglePermission(granted, PermDashboardView, true)
	assert.Equal(t, []Permission{PermDashboardView, PermOrdersView}, granted)

	granted = TogglePermission(granted, PermDashboardView, true)
	assert.Equal(t, []Permission{PermDashboardView, PermOrdersView}, granted)

	granted = TogglePermission(granted, PermOrdersView, false)
	assert.Equal(t, []Permission{PermDashboardView}, granted)
}

func TestToggleGroup(t *testing.T) {
	granted, err := ToggleGroup([]Permission{PermSettingsView}, "admins", true)
	require.NoError(t, err)
	assert.Equal(t, []Permission{PermAdminsView, PermAdminsCreate, PermAdminsEdit, PermAdminsDelete, PermAdminsPermissions, PermSettingsView}, granted)

	granted, err = ToggleGroup(granted, "admins", false)
	require.NoError(t, err)
	assert.Equal(t, []Permission{PermSettingsView}, granted)

	_, err = ToggleGroup(granted, "payments", true)
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestRevokingAGrantNeverRemovesRoleDefaults(t *testing.T) {
	granted := TogglePermission(nil, PermProductsView, false)
	checker := NewChecker(RoleAdmin, granted)
	assert.True(t, checker.Has(PermProductsView))
}

func TestSummarize(t *testing.T) {
	summary := Summarize(Subject{Role: RoleAdmin, Permissions: []Permission{PermProductsDelete, "legacy.flag"}})

	assert.Equal(t, RoleAdmin, summary.Role)
	assert.Equal(t, "Admin", summary.RoleLabel)
	assert.Equal(t, len(DefaultPermissions(RoleAdmin))+1, summary.Count)
	assert.Equal(t, []Permission{"legacy.flag"}, summary.Unknown)
	require.Len(t, summary.Groups, len(Catalog()))

	products := summary.Groups[1]
	assert.Equal(t, "products", products.Key)
	assert.Equal(t, 4, products.Total)
	assert.Equal(t, 4, products.Granted)
	for _, state := range products.Permissions {
		if state.Permission == PermProductsDelete {
			assert.True(t, state.Granted)
			assert.False(t, state.FromRole)
		}
	}
}

func TestSummarizeCountLabel(t *testing.T) {
	assert.Equal(t, "No permissions granted", Summarize(Subject{Role: RoleCustomer}).CountLabel)
	assert.Equal(t, "1 permission granted", Summarize(Subject{Role: RoleCustomer, Permissions: []Permission{PermBlogView}}).CountLabel)

	all := Summarize(Subject{Role: RoleSuperAdmin})
	assert.Equal(t, len(AllPermissions()), all.Count)
	assert.Contains(t, all.CountLabel, "permissions granted")
}
