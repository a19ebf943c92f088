// internal/authz/permissions.go
package authz

import "fleetcare/internal/entities"

// --- РЕСУРСЫ И ДЕЙСТВИЯ ---

const (
	ResourceWorkOrders = "work_orders"
	ResourceVehicles   = "vehicles"
	ResourceUsers      = "users"
	ResourceCompanies  = "companies"
	ResourceBranches   = "branches"
)

const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

// --- ПРЕСЕТЫ ПРАВ ПО РОЛЯМ ---
// Используются сидером и как дефолт при создании пользователя.
// SYSTEM_OPERATOR пресета не имеет: супер-роль проверяется до таблицы.

var fullAccess = entities.PermissionSet{Create: true, Read: true, Update: true, Delete: true, Export: true}
var readOnly = entities.PermissionSet{Read: true}

func RolePreset(role entities.Role) entities.ResourcePermissions {
	switch role {
	case entities.RoleCompanyAdmin:
		return entities.ResourcePermissions{
			WorkOrders: fullAccess,
			Vehicles:   fullAccess,
			Users:      fullAccess,
			Companies:  entities.PermissionSet{Read: true, Update: true},
			Branches:   fullAccess,
		}
	case entities.RoleBranchManager:
		return entities.ResourcePermissions{
			WorkOrders: entities.PermissionSet{Create: true, Read: true, Update: true, Delete: true, Export: true},
			Vehicles:   entities.PermissionSet{Create: true, Read: true, Update: true},
			Users:      readOnly,
			Companies:  readOnly,
			Branches:   readOnly,
		}
	case entities.RoleMechanic:
		return entities.ResourcePermissions{
			WorkOrders: entities.PermissionSet{Create: true, Read: true, Update: true},
			Vehicles:   readOnly,
			Branches:   readOnly,
		}
	case entities.RoleOperator:
		return entities.ResourcePermissions{
			WorkOrders: entities.PermissionSet{Create: true, Read: true},
			Vehicles:   readOnly,
			Branches:   readOnly,
		}
	case entities.RoleViewer:
		return entities.ResourcePermissions{
			WorkOrders: readOnly,
			Vehicles:   readOnly,
			Branches:   readOnly,
		}
	}
	return entities.ResourcePermissions{}
}
