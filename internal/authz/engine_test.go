package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleetcare/internal/entities"
)

func TestCanPerform_NilActor(t *testing.T) {
	assert.False(t, CanPerform(nil, ResourceWorkOrders, ActionRead))
}

func TestCanPerform_SystemOperatorBypassesTable(t *testing.T) {
	sysop := &entities.User{ID: 1, Role: entities.RoleSystemOperator}

	// Пресета прав у супер-роли нет, но любое действие разрешено.
	for _, resource := range []string{ResourceWorkOrders, ResourceVehicles, ResourceUsers, ResourceCompanies, ResourceBranches} {
		for _, action := range []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport} {
			assert.True(t, CanPerform(sysop, resource, action), "%s/%s", resource, action)
		}
	}
}

func TestCanPerform_PermissionTable(t *testing.T) {
	viewer := &entities.User{
		ID:          2,
		Role:        entities.RoleViewer,
		Permissions: RolePreset(entities.RoleViewer),
	}

	assert.True(t, CanPerform(viewer, ResourceWorkOrders, ActionRead))
	assert.False(t, CanPerform(viewer, ResourceWorkOrders, ActionCreate))
	assert.False(t, CanPerform(viewer, ResourceWorkOrders, ActionDelete))

	mechanic := &entities.User{
		ID:          3,
		Role:        entities.RoleMechanic,
		Permissions: RolePreset(entities.RoleMechanic),
	}

	assert.True(t, CanPerform(mechanic, ResourceWorkOrders, ActionUpdate))
	assert.False(t, CanPerform(mechanic, ResourceWorkOrders, ActionDelete))
	assert.False(t, CanPerform(mechanic, ResourceUsers, ActionRead))
}

func TestCanPerform_UnknownResourceOrAction(t *testing.T) {
	admin := &entities.User{
		ID:          4,
		Role:        entities.RoleCompanyAdmin,
		Permissions: RolePreset(entities.RoleCompanyAdmin),
	}

	// Неизвестное имя - запрет, не паника.
	assert.False(t, CanPerform(admin, "reports", ActionRead))
	assert.False(t, CanPerform(admin, ResourceWorkOrders, "publish"))
}
