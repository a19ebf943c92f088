package entities

import (
	"fleetcare/pkg/types"
)

// Role — закрытый набор ролей. Порядок соответствует убыванию широты доступа.
type Role string

const (
	RoleSystemOperator Role = "SYSTEM_OPERATOR"
	RoleCompanyAdmin   Role = "COMPANY_ADMIN"
	RoleBranchManager  Role = "BRANCH_MANAGER"
	RoleMechanic       Role = "MECHANIC"
	RoleOperator       Role = "OPERATOR"
	RoleViewer         Role = "VIEWER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSystemOperator, RoleCompanyAdmin, RoleBranchManager,
		RoleMechanic, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// PermissionSet — права на один ресурс. Фиксированная форма вместо открытой
// map, чтобы опечатка в имени действия не превращалась в сюрприз в рантайме.
type PermissionSet struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Export bool `json:"export"`
}

// ResourcePermissions — переопределения прав по ресурсам. Тоже фиксированная
// форма: неизвестный ресурс не может быть даже записан.
type ResourcePermissions struct {
	WorkOrders PermissionSet `json:"work_orders"`
	Vehicles   PermissionSet `json:"vehicles"`
	Users      PermissionSet `json:"users"`
	Companies  PermissionSet `json:"companies"`
	Branches   PermissionSet `json:"branches"`
}

// ForResource возвращает набор прав для ресурса по его имени.
// Неизвестное имя — пустой набор (запрет), функция тотальна.
func (p ResourcePermissions) ForResource(resource string) PermissionSet {
	switch resource {
	case "work_orders":
		return p.WorkOrders
	case "vehicles":
		return p.Vehicles
	case "users":
		return p.Users
	case "companies":
		return p.Companies
	case "branches":
		return p.Branches
	}
	return PermissionSet{}
}

// User — действующее лицо (Principal). CompanyID == nil только у SYSTEM_OPERATOR.
type User struct {
	ID          uint64 `json:"id" db:"id"`
	Fio         string `json:"fio" db:"fio"`
	Email       string `json:"email" db:"email"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	Password string `json:"-" db:"password"`

	Role      Role    `json:"role" db:"role"`
	CompanyID *uint64 `json:"company_id" db:"company_id"`

	// Филиалы, в которых пользователь имеет право действовать.
	BranchIDs []uint64 `json:"branch_ids" db:"-"`

	// Типы техники, к которым есть доступ. Пустой набор — без ограничений.
	VehicleTypeAccess []string `json:"vehicle_type_access" db:"-"`

	// Явные переопределения прав по ресурсам.
	Permissions ResourcePermissions `json:"permissions" db:"-"`

	IsActive bool `json:"is_active" db:"is_active"`

	types.BaseEntity
	types.SoftDelete
}

func (u *User) HasBranch(branchID uint64) bool {
	for _, id := range u.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

func (u *User) HasVehicleTypeAccess(vehicleType string) bool {
	if len(u.VehicleTypeAccess) == 0 {
		return true
	}
	for _, vt := range u.VehicleTypeAccess {
		if vt == vehicleType {
			return true
		}
	}
	return false
}
