package services

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetcare/internal/authz"
	"fleetcare/internal/dto"
	"fleetcare/internal/entities"
	apperrors "fleetcare/pkg/errors"
)

func newUserTestEnv() (UserServiceInterface, *fakeUserRepo) {
	logger := zap.NewNop()
	companyID := uint64(1)

	users := &fakeUserRepo{users: map[uint64]*entities.User{
		2: {ID: 2, Fio: "Админ", Role: entities.RoleCompanyAdmin, CompanyID: &companyID,
			Permissions: authz.RolePreset(entities.RoleCompanyAdmin), IsActive: true},
		3: {ID: 3, Fio: "Механик", Role: entities.RoleMechanic, CompanyID: &companyID,
			Permissions: authz.RolePreset(entities.RoleMechanic), IsActive: true},
	}}

	svc := NewUserService(NewBaseService(nil, logger), users, authz.NewGatekeeper(), logger)
	return svc, users
}

func TestUserService_UpdateOtherUser(t *testing.T) {
	svc, users := newUserTestEnv()

	updated, err := svc.UpdateUser(ctxAs(2), 3, dto.UpdateUserDTO{
		Fio:  null.StringFrom("Старший механик"),
		Role: null.StringFrom("BRANCH_MANAGER"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Старший механик", updated.Fio)
	assert.Equal(t, entities.RoleBranchManager, updated.Role)
	assert.Equal(t, entities.RoleBranchManager, users.users[3].Role)
}

// Смена собственной роли и самодеактивация запрещены.
func TestUserService_SelfSensitiveDenied(t *testing.T) {
	svc, users := newUserTestEnv()
	ctx := ctxAs(2)

	_, err := svc.UpdateUser(ctx, 2, dto.UpdateUserDTO{Role: null.StringFrom("VIEWER")})
	var deniedErr *apperrors.AccessDeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, authz.DenySelfModification, deniedErr.Reason)
	assert.Equal(t, entities.RoleCompanyAdmin, users.users[2].Role)

	inactive := false
	_, err = svc.UpdateUser(ctx, 2, dto.UpdateUserDTO{IsActive: &inactive})
	require.ErrorAs(t, err, &deniedErr)
	assert.True(t, users.users[2].IsActive)
}

// Нечувствительная правка собственной учетки разрешена.
func TestUserService_SelfPlainUpdateAllowed(t *testing.T) {
	svc, _ := newUserTestEnv()

	updated, err := svc.UpdateUser(ctxAs(2), 2, dto.UpdateUserDTO{
		PhoneNumber: null.StringFrom("992900000099"),
	})
	require.NoError(t, err)
	assert.Equal(t, "992900000099", updated.PhoneNumber)
}

func TestUserService_SelfDeleteDenied(t *testing.T) {
	svc, users := newUserTestEnv()

	err := svc.DeleteUser(ctxAs(2), 2)
	var deniedErr *apperrors.AccessDeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, authz.DenySelfModification, deniedErr.Reason)
	assert.Contains(t, users.users, uint64(2))

	// Чужую учетку администратор удалить может.
	require.NoError(t, svc.DeleteUser(ctxAs(2), 3))
	assert.NotContains(t, users.users, uint64(3))
}

func TestUserService_MechanicCannotManageUsers(t *testing.T) {
	svc, _ := newUserTestEnv()

	_, err := svc.UpdateUser(ctxAs(3), 2, dto.UpdateUserDTO{
		Fio: null.StringFrom("x"),
	})
	var deniedErr *apperrors.AccessDeniedError
	require.ErrorAs(t, err, &deniedErr)
	assert.Equal(t, authz.DenyInsufficientPermission, deniedErr.Reason)
}
