package entities

import "fleetcare/pkg/types"

type Company struct {
	ID       uint64 `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	TaxID    string `json:"tax_id" db:"tax_id"`
	IsActive bool   `json:"is_active" db:"is_active"`

	types.BaseEntity
	types.SoftDelete
}
