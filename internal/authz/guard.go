package authz

import "fleetcare/internal/entities"

// --- ПРИЧИНЫ ОТКАЗА ---

const (
	DenyInsufficientPermission = "insufficient-permission"
	DenyCrossTenant            = "cross-tenant"
	DenyBranchScope            = "branch-scope"
	DenyVehicleTypeScope       = "vehicle-type-scope"
	DenySelfModification       = "self-modification"
)

// Decision — результат проверки. Отказ терминален: ни повтора,
// ни частичной авторизации не бывает.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Target описывает проверяемую сущность: кому она принадлежит и,
// для операций над техникой, какого она типа. Для операций без цели
// (создание) часть полей заполняется из входных данных.
type Target struct {
	CompanyID uint64
	BranchID  *uint64

	// Тип техники; nil для операций, не касающихся конкретной машины.
	VehicleType *string

	// Для смежной поверхности управления пользователями:
	// ID целевого пользователя и флаг "чувствительного" изменения
	// (деактивация, удаление, смена роли).
	UserID        *uint64
	SelfSensitive bool
}

// Gatekeeper не хранит состояния между вызовами — его безопасно
// использовать конкурентно для независимых запросов.
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// Authorize — упорядоченная цепочка проверок, обрывается на первом отказе:
//  1. таблица прав (роль x ресурс x действие);
//  2. арендатор: чужая компания недоступна никому, кроме SYSTEM_OPERATOR;
//  3. филиал: SYSTEM_OPERATOR и COMPANY_ADMIN видят все филиалы компании,
//     остальные — только из своего набора;
//  4. тип техники: пустой набор доступа — без ограничений;
//  5. запрет на чувствительные операции над собственной учеткой.
func (g *Gatekeeper) Authorize(actor *entities.User, resource, action string, target *Target) Decision {
	if !CanPerform(actor, resource, action) {
		return deny(DenyInsufficientPermission)
	}

	if target == nil {
		return allow()
	}

	if actor.Role != entities.RoleSystemOperator {
		if actor.CompanyID == nil || *actor.CompanyID != target.CompanyID {
			return deny(DenyCrossTenant)
		}
	}

	if target.BranchID != nil &&
		actor.Role != entities.RoleSystemOperator &&
		actor.Role != entities.RoleCompanyAdmin {
		if !actor.HasBranch(*target.BranchID) {
			return deny(DenyBranchScope)
		}
	}

	if target.VehicleType != nil && actor.Role != entities.RoleSystemOperator {
		if !actor.HasVehicleTypeAccess(*target.VehicleType) {
			return deny(DenyVehicleTypeScope)
		}
	}

	// Свою учетку нельзя деактивировать, удалить или сменить себе роль.
	if resource == ResourceUsers && target.UserID != nil && *target.UserID == actor.ID {
		if action == ActionDelete || target.SelfSensitive {
			return deny(DenySelfModification)
		}
	}

	return allow()
}
