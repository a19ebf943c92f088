package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fleetcare/internal/entities"
	"fleetcare/pkg/utils"
)

func testActor(role entities.Role, companyID uint64) *entities.User {
	return &entities.User{
		ID:          10,
		Role:        role,
		CompanyID:   &companyID,
		Permissions: RolePreset(role),
		IsActive:    true,
	}
}

func TestGatekeeper_NilTargetChecksTableOnly(t *testing.T) {
	g := NewGatekeeper()
	admin := testActor(entities.RoleCompanyAdmin, 1)

	decision := g.Authorize(admin, ResourceWorkOrders, ActionRead, nil)
	assert.True(t, decision.Allowed)

	viewer := testActor(entities.RoleViewer, 1)
	decision = g.Authorize(viewer, ResourceWorkOrders, ActionDelete, nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyInsufficientPermission, decision.Reason)
}

func TestGatekeeper_CrossTenant(t *testing.T) {
	g := NewGatekeeper()
	admin := testActor(entities.RoleCompanyAdmin, 1)

	decision := g.Authorize(admin, ResourceWorkOrders, ActionRead, &Target{CompanyID: 2})
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyCrossTenant, decision.Reason)

	// SYSTEM_OPERATOR арендатором не ограничен.
	sysop := &entities.User{ID: 1, Role: entities.RoleSystemOperator, IsActive: true}
	decision = g.Authorize(sysop, ResourceWorkOrders, ActionRead, &Target{CompanyID: 2})
	assert.True(t, decision.Allowed)
}

func TestGatekeeper_BranchScope(t *testing.T) {
	g := NewGatekeeper()

	manager := testActor(entities.RoleBranchManager, 1)
	manager.BranchIDs = []uint64{5}

	// Свой филиал доступен.
	decision := g.Authorize(manager, ResourceWorkOrders, ActionUpdate, &Target{CompanyID: 1, BranchID: utils.Ptr(uint64(5))})
	assert.True(t, decision.Allowed)

	// Чужой филиал той же компании - отказ по области филиала.
	decision = g.Authorize(manager, ResourceWorkOrders, ActionUpdate, &Target{CompanyID: 1, BranchID: utils.Ptr(uint64(6))})
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyBranchScope, decision.Reason)

	// COMPANY_ADMIN видит все филиалы своей компании.
	admin := testActor(entities.RoleCompanyAdmin, 1)
	decision = g.Authorize(admin, ResourceWorkOrders, ActionUpdate, &Target{CompanyID: 1, BranchID: utils.Ptr(uint64(6))})
	assert.True(t, decision.Allowed)
}

// Механик с доступом только к грузовикам не видит экскаватор.
func TestGatekeeper_VehicleTypeScope(t *testing.T) {
	g := NewGatekeeper()

	mechanic := testActor(entities.RoleMechanic, 1)
	mechanic.BranchIDs = []uint64{5}
	mechanic.VehicleTypeAccess = []string{"TRUCK"}

	truck := &Target{CompanyID: 1, BranchID: utils.Ptr(uint64(5)), VehicleType: utils.Ptr("TRUCK")}
	decision := g.Authorize(mechanic, ResourceWorkOrders, ActionUpdate, truck)
	assert.True(t, decision.Allowed)

	excavator := &Target{CompanyID: 1, BranchID: utils.Ptr(uint64(5)), VehicleType: utils.Ptr("EXCAVATOR")}
	decision = g.Authorize(mechanic, ResourceWorkOrders, ActionUpdate, excavator)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyVehicleTypeScope, decision.Reason)
}

// Пустой набор типов техники - без ограничений.
func TestGatekeeper_EmptyVehicleTypeAccessIsUnrestricted(t *testing.T) {
	g := NewGatekeeper()

	mechanic := testActor(entities.RoleMechanic, 1)
	mechanic.BranchIDs = []uint64{5}

	excavator := &Target{CompanyID: 1, BranchID: utils.Ptr(uint64(5)), VehicleType: utils.Ptr("EXCAVATOR")}
	decision := g.Authorize(mechanic, ResourceWorkOrders, ActionUpdate, excavator)
	assert.True(t, decision.Allowed)
}

func TestGatekeeper_SelfModification(t *testing.T) {
	g := NewGatekeeper()
	admin := testActor(entities.RoleCompanyAdmin, 1)

	self := &Target{CompanyID: 1, UserID: &admin.ID}

	// Обычное чтение и правка своей учетки разрешены.
	decision := g.Authorize(admin, ResourceUsers, ActionRead, self)
	assert.True(t, decision.Allowed)
	decision = g.Authorize(admin, ResourceUsers, ActionUpdate, self)
	assert.True(t, decision.Allowed)

	// Удаление себя запрещено всегда.
	decision = g.Authorize(admin, ResourceUsers, ActionDelete, self)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenySelfModification, decision.Reason)

	// Чувствительная правка себя (роль, деактивация) тоже.
	sensitiveSelf := &Target{CompanyID: 1, UserID: &admin.ID, SelfSensitive: true}
	decision = g.Authorize(admin, ResourceUsers, ActionUpdate, sensitiveSelf)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenySelfModification, decision.Reason)

	// Над чужой учеткой те же операции разрешены.
	other := &Target{CompanyID: 1, UserID: utils.Ptr(uint64(99)), SelfSensitive: true}
	decision = g.Authorize(admin, ResourceUsers, ActionUpdate, other)
	assert.True(t, decision.Allowed)
	decision = g.Authorize(admin, ResourceUsers, ActionDelete, other)
	assert.True(t, decision.Allowed)
}

// Порядок проверок: таблица прав проверяется раньше арендатора.
func TestGatekeeper_DenyOrder(t *testing.T) {
	g := NewGatekeeper()
	viewer := testActor(entities.RoleViewer, 1)

	decision := g.Authorize(viewer, ResourceWorkOrders, ActionDelete, &Target{CompanyID: 2})
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyInsufficientPermission, decision.Reason)
}
