package authz

import "fleetcare/internal/entities"

// CanPerform — чистая табличная проверка (роль x ресурс x действие).
// Без побочных эффектов, детерминирована и тотальна: неизвестный ресурс
// или действие — это запрет, а не паника.
func CanPerform(actor *entities.User, resource, action string) bool {
	if actor == nil {
		return false
	}

	// Супер-роль всегда может всё.
	if actor.Role == entities.RoleSystemOperator {
		return true
	}

	perms := actor.Permissions.ForResource(resource)

	switch action {
	case ActionCreate:
		return perms.Create
	case ActionRead:
		return perms.Read
	case ActionUpdate:
		return perms.Update
	case ActionDelete:
		return perms.Delete
	case ActionExport:
		return perms.Export
	}
	return false
}
