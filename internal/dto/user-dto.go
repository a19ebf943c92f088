package dto

import "github.com/aarondl/null/v8"

// UpdateUserDTO — смежная поверхность управления пользователями.
// Смена роли и деактивация — "чувствительные" изменения: Access Guard
// не разрешает их применять к собственной учетке.
type UpdateUserDTO struct {
	Fio         null.String `json:"fio"`
	PhoneNumber null.String `json:"phone_number"`
	Role        null.String `json:"role" validate:"omitempty,oneof=SYSTEM_OPERATOR COMPANY_ADMIN BRANCH_MANAGER MECHANIC OPERATOR VIEWER"`
	IsActive    *bool       `json:"is_active"`
}

func (d *UpdateUserDTO) TouchesSensitiveFields() bool {
	return d.Role.Valid || d.IsActive != nil
}
