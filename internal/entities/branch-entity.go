package entities

import "fleetcare/pkg/types"

type Branch struct {
	ID        uint64 `json:"id" db:"id"`
	CompanyID uint64 `json:"company_id" db:"company_id"`
	Name      string `json:"name" db:"name"`
	Address   string `json:"address" db:"address"`
	IsActive  bool   `json:"is_active" db:"is_active"`

	types.BaseEntity
	types.SoftDelete
}
