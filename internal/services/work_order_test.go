package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetcare/internal/authz"
	"fleetcare/internal/dto"
	"fleetcare/internal/entities"
	"fleetcare/internal/lifecycle"
	"fleetcare/pkg/constants"
	apperrors "fleetcare/pkg/errors"
	"fleetcare/pkg/eventbus"
	"fleetcare/pkg/types"
	"fleetcare/pkg/utils"
)

var testClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// --- ФЕЙКОВЫЕ РЕПОЗИТОРИИ ---

type fakeWorkOrderRepo struct {
	orders    map[uint64]*entities.WorkOrder
	nextID    uint64
	saveCalls int
	saveErr   error
	deleted   []uint64
	dayCount  uint64
}

func newFakeWorkOrderRepo() *fakeWorkOrderRepo {
	return &fakeWorkOrderRepo{orders: map[uint64]*entities.WorkOrder{}, nextID: 100}
}

func (f *fakeWorkOrderRepo) GetWorkOrders(_ context.Context, companyID uint64, branchIDs []uint64, _ types.Filter) ([]entities.WorkOrder, uint64, error) {
	var result []entities.WorkOrder
	for _, wo := range f.orders {
		if companyID != 0 && wo.CompanyID != companyID {
			continue
		}
		if len(branchIDs) > 0 {
			match := false
			for _, id := range branchIDs {
				if wo.BranchID == id {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *wo)
	}
	return result, uint64(len(result)), nil
}

func (f *fakeWorkOrderRepo) FindWorkOrder(_ context.Context, id uint64) (*entities.WorkOrder, error) {
	wo, ok := f.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *wo
	return &clone, nil
}

func (f *fakeWorkOrderRepo) CreateWorkOrder(_ context.Context, wo *entities.WorkOrder) (uint64, error) {
	f.nextID++
	wo.ID = f.nextID
	wo.Version = 1
	clone := *wo
	f.orders[wo.ID] = &clone
	return wo.ID, nil
}

func (f *fakeWorkOrderRepo) SaveWorkOrder(_ context.Context, wo *entities.WorkOrder) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	stored, ok := f.orders[wo.ID]
	if !ok || stored.Version != wo.Version {
		return apperrors.ErrVersionConflict
	}
	wo.Version++
	clone := *wo
	f.orders[wo.ID] = &clone
	return nil
}

func (f *fakeWorkOrderRepo) HardDeleteWorkOrder(_ context.Context, id uint64) error {
	if _, ok := f.orders[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.orders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeWorkOrderRepo) CountForDay(_ context.Context, _ time.Time) (uint64, error) {
	return f.dayCount, nil
}

type fakeVehicleRepo struct{ vehicles map[uint64]*entities.Vehicle }

func (f *fakeVehicleRepo) FindVehicle(_ context.Context, id uint64) (*entities.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return v, nil
}

type fakeBranchRepo struct{ branches map[uint64]*entities.Branch }

func (f *fakeBranchRepo) FindBranch(_ context.Context, id uint64) (*entities.Branch, error) {
	b, ok := f.branches[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return b, nil
}

type fakeCompanyRepo struct{ companies map[uint64]*entities.Company }

func (f *fakeCompanyRepo) FindCompany(_ context.Context, id uint64) (*entities.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

type fakeUserRepo struct{ users map[uint64]*entities.User }

func (f *fakeUserRepo) FindPrincipal(_ context.Context, id uint64) (*entities.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, user *entities.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) SoftDeleteUser(_ context.Context, id uint64) error {
	if _, ok := f.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeCache struct{ store map[string]string }

func newFakeCache() *fakeCache { return &fakeCache{store: map[string]string{}} }

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	v, ok := f.store[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.store[key] = string(v)
	case string:
		f.store[key] = v
	}
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.store, k)
	}
	return nil
}

// --- ОБВЯЗКА ---

type testEnv struct {
	svc       WorkOrderServiceInterface
	workOrder *fakeWorkOrderRepo
	vehicles  *fakeVehicleRepo
	users     *fakeUserRepo
	cache     *fakeCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	companyID := uint64(1)
	otherCompanyID := uint64(2)

	users := &fakeUserRepo{users: map[uint64]*entities.User{
		1: {ID: 1, Role: entities.RoleSystemOperator, IsActive: true},
		2: {ID: 2, Role: entities.RoleCompanyAdmin, CompanyID: &companyID,
			Permissions: authz.RolePreset(entities.RoleCompanyAdmin), IsActive: true},
		3: {ID: 3, Role: entities.RoleMechanic, CompanyID: &companyID, BranchIDs: []uint64{10},
			VehicleTypeAccess: []string{"TRUCK"},
			Permissions:       authz.RolePreset(entities.RoleMechanic), IsActive: true},
		4: {ID: 4, Role: entities.RoleViewer, CompanyID: &companyID,
			Permissions: authz.RolePreset(entities.RoleViewer), IsActive: true},
		5: {ID: 5, Role: entities.RoleCompanyAdmin, CompanyID: &otherCompanyID,
			Permissions: authz.RolePreset(entities.RoleCompanyAdmin), IsActive: true},
	}}

	branches := &fakeBranchRepo{branches: map[uint64]*entities.Branch{
		10: {ID: 10, CompanyID: 1, Name: "Центральная база", IsActive: true},
		11: {ID: 11, CompanyID: 1, Name: "Северный филиал", IsActive: true},
		20: {ID: 20, CompanyID: 2, Name: "Чужой филиал", IsActive: true},
	}}

	vehicles := &fakeVehicleRepo{vehicles: map[uint64]*entities.Vehicle{
		100: {ID: 100, CompanyID: 1, BranchID: 10, VehicleType: "TRUCK", Plate: "А123ВС", IsActive: true},
		101: {ID: 101, CompanyID: 1, BranchID: 10, VehicleType: "EXCAVATOR", Plate: "Е012ТУ", IsActive: true},
		200: {ID: 200, CompanyID: 2, BranchID: 20, VehicleType: "TRUCK", Plate: "Х999ХХ", IsActive: true},
	}}

	companies := &fakeCompanyRepo{companies: map[uint64]*entities.Company{
		1: {ID: 1, Name: "Транспорт Сервис", IsActive: true},
		2: {ID: 2, Name: "Чужая компания", IsActive: true},
	}}

	workOrders := newFakeWorkOrderRepo()
	cache := newFakeCache()

	engine := lifecycle.NewWithClock(logger, func() time.Time { return testClock })
	svc := NewWorkOrderService(
		NewBaseService(cache, logger),
		workOrders, vehicles, branches, companies, users,
		authz.NewGatekeeper(), engine, eventbus.New(logger), logger,
	)
	svc.(*WorkOrderService).now = func() time.Time { return testClock }

	return &testEnv{svc: svc, workOrder: workOrders, vehicles: vehicles, users: users, cache: cache}
}

func ctxAs(userID uint64) context.Context {
	return utils.WithUserID(context.Background(), userID)
}

func (env *testEnv) seedWorkOrder(status entities.WorkOrderStatus) *entities.WorkOrder {
	wo := &entities.WorkOrder{
		Number:        "260310001",
		CompanyID:     1,
		BranchID:      10,
		VehicleID:     100,
		Type:          entities.TypeCorrective,
		Priority:      entities.PriorityMedium,
		Status:        status,
		ScheduledDate: testClock,
		IsActive:      true,
		Version:       1,
	}
	env.workOrder.nextID++
	wo.ID = env.workOrder.nextID
	env.workOrder.orders[wo.ID] = wo
	return wo
}

// --- ТЕСТЫ ---

func TestWorkOrderService_Create(t *testing.T) {
	env := newTestEnv(t)

	data := dto.CreateWorkOrderDTO{
		BranchID:      10,
		VehicleID:     100,
		Type:          "CORRECTIVE",
		Priority:      "HIGH",
		ScheduledDate: testClock.Add(24 * time.Hour),
		Description:   "Стук в передней подвеске",
		Services: []dto.CreateServiceEntryDTO{
			{Category: "SUSPENSION", Description: "Диагностика подвески", LaborHours: 1.5, LaborCost: 120},
		},
		Parts: []dto.CreatePartEntryDTO{
			{Name: "Сайлентблок", Quantity: 2, UnitPrice: 30},
		},
	}

	wo, err := env.svc.CreateWorkOrder(ctxAs(2), data)
	require.NoError(t, err)
	assert.NotZero(t, wo.ID)
	assert.Equal(t, entities.StatusScheduled, wo.Status)
	assert.Equal(t, uint64(2), wo.CreatedBy)
	assert.Equal(t, 120.0, wo.Costs.Labor)
	assert.Equal(t, 60.0, wo.Costs.Parts)
	assert.Equal(t, 180.0, wo.Costs.Total)

	// Номер предложен сервисом: ГГММДД + суффикс.
	assert.Equal(t, "260310001", wo.Number)
}

func TestWorkOrderService_Create_VehicleFromOtherCompany(t *testing.T) {
	env := newTestEnv(t)

	data := dto.CreateWorkOrderDTO{
		BranchID:      10,
		VehicleID:     200, // техника компании 2
		Type:          "CORRECTIVE",
		Priority:      "LOW",
		ScheduledDate: testClock,
		Description:   "x",
	}

	_, err := env.svc.CreateWorkOrder(ctxAs(2), data)
	require.Error(t, err)

	var inputErr *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &inputErr)
	assert.Empty(t, env.workOrder.orders)
}

func TestWorkOrderService_Create_ViewerDenied(t *testing.T) {
	env := newTestEnv(t)

	data := dto.CreateWorkOrderDTO{
		BranchID: 10, VehicleID: 100, Type: "CORRECTIVE", Priority: "LOW",
		ScheduledDate: testClock, Description: "x",
	}

	_, err := env.svc.CreateWorkOrder(ctxAs(4), data)
	var deniedErr *apperrors.AccessDeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, authz.DenyInsufficientPermission, deniedErr.Reason)
	assert.Empty(t, env.workOrder.orders)
}

func TestWorkOrderService_Transition(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)

	updated, err := env.svc.TransitionStatus(ctxAs(3), wo.ID, dto.TransitionDTO{Status: "IN_PROGRESS"})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInProgress, updated.Status)
	assert.NotNil(t, updated.StartDate)

	// Запись действительно сохранена.
	stored := env.workOrder.orders[wo.ID]
	assert.Equal(t, entities.StatusInProgress, stored.Status)
	assert.Equal(t, uint64(2), stored.Version)
}

// Оптимистичная блокировка: конфликт версий отдается наверх,
// переход считается непримененным.
func TestWorkOrderService_TransitionVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)
	env.workOrder.saveErr = apperrors.ErrVersionConflict

	_, err := env.svc.TransitionStatus(ctxAs(3), wo.ID, dto.TransitionDTO{Status: "IN_PROGRESS"})
	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)

	// В хранилище статус не изменился.
	assert.Equal(t, entities.StatusScheduled, env.workOrder.orders[wo.ID].Status)
}

// Механик с доступом к грузовикам не трогает экскаватор,
// и до машины состояний дело не доходит.
func TestWorkOrderService_VehicleTypeScopeDenied(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)
	wo.VehicleID = 101 // EXCAVATOR

	_, err := env.svc.TransitionStatus(ctxAs(3), wo.ID, dto.TransitionDTO{Status: "IN_PROGRESS"})
	var deniedErr *apperrors.AccessDeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, authz.DenyVehicleTypeScope, deniedErr.Reason)
	assert.Zero(t, env.workOrder.saveCalls)
	assert.Equal(t, entities.StatusScheduled, env.workOrder.orders[wo.ID].Status)
}

func TestWorkOrderService_CrossTenantDenied(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)

	// Администратор компании 2 не видит заказ-наряд компании 1.
	_, err := env.svc.FindWorkOrder(ctxAs(5), wo.ID)
	var deniedErr *apperrors.AccessDeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, authz.DenyCrossTenant, deniedErr.Reason)
}

func TestWorkOrderService_DeleteUntouchedIsHard(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)

	outcome, err := env.svc.DeleteWorkOrder(ctxAs(2), wo.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeDeleted, outcome)
	assert.Contains(t, env.workOrder.deleted, wo.ID)
}

func TestWorkOrderService_DeleteTouchedIsSoft(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusInProgress)
	wo.TimeEntries = []entities.TimeEntry{{UserID: 3, DurationMinutes: 30}}

	outcome, err := env.svc.DeleteWorkOrder(ctxAs(2), wo.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeDeactivated, outcome)

	stored := env.workOrder.orders[wo.ID]
	assert.False(t, stored.IsActive)
	assert.NotNil(t, stored.DeletedAt)
	assert.Empty(t, env.workOrder.deleted)
}

func TestWorkOrderService_GetWorkOrders_BranchScoping(t *testing.T) {
	env := newTestEnv(t)
	env.seedWorkOrder(entities.StatusScheduled) // филиал 10

	other := env.seedWorkOrder(entities.StatusScheduled)
	other.BranchID = 11

	// Механик с филиалом 10 видит один.
	list, total, err := env.svc.GetWorkOrders(ctxAs(3), types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	assert.Len(t, list, 1)

	// Администратор компании видит оба.
	list, total, err = env.svc.GetWorkOrders(ctxAs(2), types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Len(t, list, 2)
}

func TestWorkOrderService_ApprovalRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)

	updated, err := env.svc.TransitionStatus(ctxAs(3), wo.ID, dto.TransitionDTO{Status: "IN_PROGRESS"})
	require.NoError(t, err)

	updated, err = env.svc.RequestApproval(ctxAs(3), wo.ID, dto.RequestApprovalDTO{Type: "BUDGET", Amount: 900})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPendingApproval, updated.Status)
	require.Len(t, updated.Approvals, 1)

	approvalID := updated.Approvals[0].ID
	updated, err = env.svc.ApproveRequest(ctxAs(2), wo.ID, dto.ResolveApprovalDTO{ApprovalID: approvalID})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusInProgress, updated.Status)
	assert.Equal(t, entities.ApprovalApproved, updated.Approvals[0].Status)
}

func TestWorkOrderService_UpdateRejectsCompositionChangeAfterStart(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusInProgress)

	_, err := env.svc.UpdateWorkOrder(ctxAs(2), wo.ID, dto.UpdateWorkOrderDTO{
		Services: []dto.CreateServiceEntryDTO{{Category: "ENGINE", Description: "x", LaborCost: 1}},
	})
	var inputErr *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestWorkOrderService_InactiveActor(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[3].IsActive = false
	wo := env.seedWorkOrder(entities.StatusScheduled)

	_, err := env.svc.FindWorkOrder(ctxAs(3), wo.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestWorkOrderService_NoUserInContext(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)

	_, err := env.svc.FindWorkOrder(context.Background(), wo.ID)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// warmCache читает заказ-наряд от имени администратора, чтобы последующие
// чтения шли через кэш.
func (env *testEnv) warmCache(t *testing.T, woID uint64) {
	t.Helper()
	_, err := env.svc.FindWorkOrder(ctxAs(2), woID)
	require.NoError(t, err)
	require.Contains(t, env.cache.store, constants.CacheKeyWorkOrder+strconv.FormatUint(woID, 10))
}

// Кэшированное чтение проходит те же проверки, что и обычное: механик
// с доступом только к грузовикам не читает экскаватор и из кэша.
func TestWorkOrderService_CachedReadKeepsVehicleTypeScope(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)
	wo.VehicleID = 101 // EXCAVATOR

	env.warmCache(t, wo.ID)

	_, err := env.svc.FindWorkOrder(ctxAs(3), wo.ID)
	var deniedErr *apperrors.AccessDeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, authz.DenyVehicleTypeScope, deniedErr.Reason)
}

// Недоступность техники закрывает кэшированное чтение, а не ослабляет
// проверку области по типу.
func TestWorkOrderService_CachedReadFailsWithoutVehicle(t *testing.T) {
	env := newTestEnv(t)
	wo := env.seedWorkOrder(entities.StatusScheduled)

	env.warmCache(t, wo.ID)

	delete(env.vehicles.vehicles, wo.VehicleID)
	_, err := env.svc.FindWorkOrder(ctxAs(3), wo.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// Учетная запись без компании на неоператорской роли испорчена:
// явный отказ вместо паники.
func TestWorkOrderService_GetWorkOrders_ActorWithoutCompany(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[6] = &entities.User{ID: 6, Role: entities.RoleCompanyAdmin,
		Permissions: authz.RolePreset(entities.RoleCompanyAdmin), IsActive: true}

	_, _, err := env.svc.GetWorkOrders(ctxAs(6), types.Filter{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
