package dto

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/google/uuid"
)

// --- ВХОДНЫЕ DTO ---

type CreateServiceEntryDTO struct {
	Category    string  `json:"category" validate:"required,oneof=ENGINE TRANSMISSION BRAKES SUSPENSION ELECTRICAL TIRES BODYWORK OTHER"`
	Description string  `json:"description" validate:"required"`
	LaborHours  float64 `json:"labor_hours" validate:"gte=0"`
	LaborCost   float64 `json:"labor_cost" validate:"gte=0"`
}

type CreatePartEntryDTO struct {
	Name      string  `json:"name" validate:"required"`
	Quantity  int64   `json:"quantity" validate:"required,gte=1"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

type CreateWorkOrderDTO struct {
	Number        string                  `json:"number" validate:"omitempty,work_order_number"`
	BranchID      uint64                  `json:"branch_id" validate:"required"`
	VehicleID     uint64                  `json:"vehicle_id" validate:"required"`
	Type          string                  `json:"type" validate:"required,oneof=PREVENTIVE CORRECTIVE PREDICTIVE EMERGENCY INSPECTION WARRANTY"`
	Priority      string                  `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	ScheduledDate time.Time               `json:"scheduled_date" validate:"required,not_in_past"`
	Odometer      int64                   `json:"odometer" validate:"gte=0"`
	Description   string                  `json:"description" validate:"required"`
	Diagnosis     string                  `json:"diagnosis"`
	Services      []CreateServiceEntryDTO `json:"services" validate:"dive"`
	Parts         []CreatePartEntryDTO    `json:"parts" validate:"dive"`
	Materials     float64                 `json:"materials_cost" validate:"gte=0"`
	External      float64                 `json:"external_cost" validate:"gte=0"`
	Tax           float64                 `json:"tax" validate:"gte=0"`
	Discount      float64                 `json:"discount" validate:"gte=0"`
}

// UpdateWorkOrderDTO — частичное обновление. null-типы отличают
// "не прислали" от "прислали пустое".
type UpdateWorkOrderDTO struct {
	Priority      null.String  `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	ScheduledDate null.Time    `json:"scheduled_date"`
	Description   null.String  `json:"description"`
	Diagnosis     null.String  `json:"diagnosis"`
	WorkPerformed null.String  `json:"work_performed"`
	Odometer      null.Int     `json:"odometer" validate:"omitempty,gte=0"`
	Materials     null.Float64 `json:"materials_cost" validate:"omitempty,gte=0"`
	External      null.Float64 `json:"external_cost" validate:"omitempty,gte=0"`
	Tax           null.Float64 `json:"tax" validate:"omitempty,gte=0"`
	Discount      null.Float64 `json:"discount" validate:"omitempty,gte=0"`
	Services      []CreateServiceEntryDTO `json:"services" validate:"omitempty,dive"`
	Parts         []CreatePartEntryDTO    `json:"parts" validate:"omitempty,dive"`
}

type TransitionDTO struct {
	Status string `json:"status" validate:"required,oneof=SCHEDULED IN_PROGRESS PAUSED COMPLETED CANCELED PENDING_PARTS"`
	Notes  string `json:"notes"`
}

type AddTimeEntryDTO struct {
	StartedAt time.Time `json:"started_at" validate:"required"`
	EndedAt   time.Time `json:"ended_at" validate:"required"`
	Activity  string    `json:"activity" validate:"required"`
	Notes     string    `json:"notes"`
}

type CompleteServiceDTO struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	Notes     string    `json:"notes"`
}

type InstallPartDTO struct {
	PartID uuid.UUID `json:"part_id" validate:"required"`
	Notes  string    `json:"notes"`
}

type RequestApprovalDTO struct {
	Type   string  `json:"type" validate:"required,oneof=BUDGET EXTRA_WORK SPECIAL_PARTS WARRANTY"`
	Amount float64 `json:"amount" validate:"gte=0"`
	Notes  string  `json:"notes"`
}

type ResolveApprovalDTO struct {
	ApprovalID uuid.UUID `json:"approval_id" validate:"required"`
	Notes      string    `json:"notes"`
}

// --- РЕЗУЛЬТАТЫ ---

// DeleteOutcome — исход удаления: физическое (нетронутый SCHEDULED)
// или мягкая деактивация (во всех остальных случаях).
type DeleteOutcome string

const (
	OutcomeDeleted     DeleteOutcome = "DELETED"
	OutcomeDeactivated DeleteOutcome = "DEACTIVATED"
)
