package entities

import "fleetcare/pkg/types"

type Vehicle struct {
	ID          uint64 `json:"id" db:"id"`
	CompanyID   uint64 `json:"company_id" db:"company_id"`
	BranchID    uint64 `json:"branch_id" db:"branch_id"`
	VehicleType string `json:"vehicle_type" db:"vehicle_type"`
	Plate       string `json:"plate" db:"plate"`
	Brand       string `json:"brand" db:"brand"`
	Model       string `json:"model" db:"model"`
	Year        int    `json:"year" db:"year"`
	Odometer    int64  `json:"odometer" db:"odometer"`
	IsActive    bool   `json:"is_active" db:"is_active"`

	types.BaseEntity
	types.SoftDelete
}
