package entities

import (
	"math"
	"time"

	"github.com/google/uuid"

	"fleetcare/pkg/types"
)

// WorkOrderStatus — закрытый набор статусов. Допустимые переходы описаны
// единственной таблицей в internal/lifecycle, здесь только значения.
type WorkOrderStatus string

const (
	StatusScheduled       WorkOrderStatus = "SCHEDULED"
	StatusInProgress      WorkOrderStatus = "IN_PROGRESS"
	StatusPaused          WorkOrderStatus = "PAUSED"
	StatusCompleted       WorkOrderStatus = "COMPLETED"
	StatusCanceled        WorkOrderStatus = "CANCELED"
	StatusPendingApproval WorkOrderStatus = "PENDING_APPROVAL"
	StatusPendingParts    WorkOrderStatus = "PENDING_PARTS"
)

func (s WorkOrderStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusPaused, StatusCompleted,
		StatusCanceled, StatusPendingApproval, StatusPendingParts:
		return true
	}
	return false
}

// Финальные статусы
func (s WorkOrderStatus) IsFinal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

type WorkOrderType string

const (
	TypePreventive WorkOrderType = "PREVENTIVE"
	TypeCorrective WorkOrderType = "CORRECTIVE"
	TypePredictive WorkOrderType = "PREDICTIVE"
	TypeEmergency  WorkOrderType = "EMERGENCY"
	TypeInspection WorkOrderType = "INSPECTION"
	TypeWarranty   WorkOrderType = "WARRANTY"
)

func (t WorkOrderType) IsValid() bool {
	switch t {
	case TypePreventive, TypeCorrective, TypePredictive,
		TypeEmergency, TypeInspection, TypeWarranty:
		return true
	}
	return false
}

type WorkOrderPriority string

const (
	PriorityLow      WorkOrderPriority = "LOW"
	PriorityMedium   WorkOrderPriority = "MEDIUM"
	PriorityHigh     WorkOrderPriority = "HIGH"
	PriorityCritical WorkOrderPriority = "CRITICAL"
)

func (p WorkOrderPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type ServiceCategory string

const (
	CategoryEngine       ServiceCategory = "ENGINE"
	CategoryTransmission ServiceCategory = "TRANSMISSION"
	CategoryBrakes       ServiceCategory = "BRAKES"
	CategorySuspension   ServiceCategory = "SUSPENSION"
	CategoryElectrical   ServiceCategory = "ELECTRICAL"
	CategoryTires        ServiceCategory = "TIRES"
	CategoryBodywork     ServiceCategory = "BODYWORK"
	CategoryOther        ServiceCategory = "OTHER"
)

func (c ServiceCategory) IsValid() bool {
	switch c {
	case CategoryEngine, CategoryTransmission, CategoryBrakes, CategorySuspension,
		CategoryElectrical, CategoryTires, CategoryBodywork, CategoryOther:
		return true
	}
	return false
}

type ApprovalType string

const (
	ApprovalBudget       ApprovalType = "BUDGET"
	ApprovalExtraWork    ApprovalType = "EXTRA_WORK"
	ApprovalSpecialParts ApprovalType = "SPECIAL_PARTS"
	ApprovalWarranty     ApprovalType = "WARRANTY"
)

func (t ApprovalType) IsValid() bool {
	switch t {
	case ApprovalBudget, ApprovalExtraWork, ApprovalSpecialParts, ApprovalWarranty:
		return true
	}
	return false
}

// HoldsWorkOrder — согласования этих типов переводят заказ-наряд
// в PENDING_APPROVAL до разрешения.
func (t ApprovalType) HoldsWorkOrder() bool {
	return t == ApprovalBudget || t == ApprovalExtraWork
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// SignOff — запись "кто и когда". Создается один раз и больше не редактируется:
// факт выполнения или установки нельзя переписать задним числом.
type SignOff struct {
	ByUserID uint64    `json:"by_user_id"`
	At       time.Time `json:"at"`
	Notes    string    `json:"notes,omitempty"`
}

// ServiceEntry — одна работа в составе заказ-наряда.
type ServiceEntry struct {
	ID          uuid.UUID       `json:"id"`
	Category    ServiceCategory `json:"category"`
	Description string          `json:"description"`
	LaborHours  float64         `json:"labor_hours"`
	LaborCost   float64         `json:"labor_cost"`
	Completion  *SignOff        `json:"completion,omitempty"`
}

func (s *ServiceEntry) IsCompleted() bool { return s.Completion != nil }

// PartEntry — одна запчасть. Quantity >= 1, UnitPrice >= 0 —
// проверяется на входе, сущность хранит уже валидные значения.
type PartEntry struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Quantity     int64     `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	Installation *SignOff  `json:"installation,omitempty"`
}

func (p *PartEntry) IsInstalled() bool { return p.Installation != nil }

// Approval — запрос на согласование внутри заказ-наряда.
type Approval struct {
	ID          uuid.UUID      `json:"id"`
	Type        ApprovalType   `json:"type"`
	Amount      float64        `json:"amount"`
	RequestedBy uint64         `json:"requested_by"`
	RequestedAt time.Time      `json:"requested_at"`
	Notes       string         `json:"notes,omitempty"`
	Status      ApprovalStatus `json:"status"`
	Resolution  *SignOff       `json:"resolution,omitempty"`
}

// TimeEntry — отметка времени механика. Duration — производное поле в минутах.
type TimeEntry struct {
	ID              uuid.UUID `json:"id"`
	UserID          uint64    `json:"user_id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int64     `json:"duration_minutes"`
	Activity        string    `json:"activity"`
	Notes           string    `json:"notes,omitempty"`
}

// CostSummary — производная запись стоимости. Total никогда не задается
// руками, только через RecomputeCosts.
type CostSummary struct {
	Labor     float64 `json:"labor"`
	Parts     float64 `json:"parts"`
	Materials float64 `json:"materials"`
	External  float64 `json:"external"`
	Tax       float64 `json:"tax"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
}

// WorkOrder — заказ-наряд на обслуживание одной единицы техники.
// Инвариант владения: branch.company == workOrder.company == vehicle.company.
type WorkOrder struct {
	ID     uint64 `json:"id" db:"id"`
	Number string `json:"number" db:"number"`

	CompanyID uint64 `json:"company_id" db:"company_id"`
	BranchID  uint64 `json:"branch_id" db:"branch_id"`
	VehicleID uint64 `json:"vehicle_id" db:"vehicle_id"`

	Type     WorkOrderType     `json:"type" db:"type"`
	Priority WorkOrderPriority `json:"priority" db:"priority"`
	Status   WorkOrderStatus   `json:"status" db:"status"`

	// Статус, в который вернемся после выхода из PENDING_APPROVAL / PENDING_PARTS.
	PriorStatus *WorkOrderStatus `json:"prior_status,omitempty" db:"prior_status"`

	// Согласование, которое удерживает заказ-наряд в PENDING_APPROVAL.
	HoldingApprovalID *uuid.UUID `json:"holding_approval_id,omitempty" db:"holding_approval_id"`

	ScheduledDate time.Time  `json:"scheduled_date" db:"scheduled_date"`
	StartDate     *time.Time `json:"start_date,omitempty" db:"start_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty" db:"completed_date"`
	CanceledDate  *time.Time `json:"canceled_date,omitempty" db:"canceled_date"`

	// Фактическая длительность в минутах, считается при завершении.
	ActualDurationMinutes *int64 `json:"actual_duration_minutes,omitempty" db:"actual_duration_minutes"`

	Odometer int64 `json:"odometer" db:"odometer"`

	Description   string `json:"description" db:"description"`
	Diagnosis     string `json:"diagnosis" db:"diagnosis"`
	WorkPerformed string `json:"work_performed" db:"work_performed"`

	Services    []ServiceEntry `json:"services" db:"-"`
	Parts       []PartEntry    `json:"parts" db:"-"`
	Approvals   []Approval     `json:"approvals" db:"-"`
	TimeEntries []TimeEntry    `json:"time_entries" db:"-"`

	Costs CostSummary `json:"costs" db:"-"`

	CreatedBy uint64  `json:"created_by" db:"created_by"`
	UpdatedBy *uint64 `json:"updated_by,omitempty" db:"updated_by"`

	IsActive bool `json:"is_active" db:"is_active"`

	// Версия для оптимистичной блокировки на границе персистентности.
	Version uint64 `json:"version" db:"version"`

	types.BaseEntity
	types.SoftDelete
}

// RecomputeCosts — детерминированная свертка работ и запчастей в Costs.
// Идемпотентна; обязана вызываться после любой структурной мутации.
// Инвариант: Total == Labor + Parts + Materials + External + Tax - Discount.
func (w *WorkOrder) RecomputeCosts() {
	var labor, parts float64
	for i := range w.Services {
		labor += w.Services[i].LaborCost
	}
	for i := range w.Parts {
		parts += float64(w.Parts[i].Quantity) * w.Parts[i].UnitPrice
	}
	w.Costs.Labor = round2(labor)
	w.Costs.Parts = round2(parts)
	w.Costs.Total = round2(w.Costs.Labor + w.Costs.Parts + w.Costs.Materials +
		w.Costs.External + w.Costs.Tax - w.Costs.Discount)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (w *WorkOrder) TotalPartsQuantity() int64 {
	var total int64
	for i := range w.Parts {
		total += w.Parts[i].Quantity
	}
	return total
}

// CompletionPercentage — доля завершенных работ, 0 при пустом списке.
func (w *WorkOrder) CompletionPercentage() float64 {
	if len(w.Services) == 0 {
		return 0
	}
	completed := 0
	for i := range w.Services {
		if w.Services[i].IsCompleted() {
			completed++
		}
	}
	return float64(completed) / float64(len(w.Services)) * 100
}

func (w *WorkOrder) AllServicesCompleted() bool {
	if len(w.Services) == 0 {
		return false
	}
	for i := range w.Services {
		if !w.Services[i].IsCompleted() {
			return false
		}
	}
	return true
}

func (w *WorkOrder) IsOverdue(now time.Time) bool {
	return w.Status == StatusScheduled && w.ScheduledDate.Before(now)
}

// HasPendingApprovals — есть ли хоть одно неразрешенное согласование.
// Пока оно есть, заказ-наряд не может стать COMPLETED.
func (w *WorkOrder) HasPendingApprovals() bool {
	for i := range w.Approvals {
		if w.Approvals[i].Status == ApprovalPending {
			return true
		}
	}
	return false
}

// LoggedMinutes — суммарное зафиксированное время по всем отметкам.
func (w *WorkOrder) LoggedMinutes() int64 {
	var total int64
	for i := range w.TimeEntries {
		total += w.TimeEntries[i].DurationMinutes
	}
	return total
}

// EstimatedCompletion — оценка времени завершения:
// завершен — фактическая дата; не начат — плановая; в работе — линейная
// экстраполяция по оставшимся незафиксированным часам работ. Если время
// уже перелогировано (остаток отрицательный), возвращаем "сейчас".
func (w *WorkOrder) EstimatedCompletion(now time.Time) time.Time {
	if w.CompletedDate != nil {
		return *w.CompletedDate
	}
	if w.StartDate == nil {
		return w.ScheduledDate
	}

	var plannedHours float64
	for i := range w.Services {
		plannedHours += w.Services[i].LaborHours
	}

	remainingHours := plannedHours - float64(w.LoggedMinutes())/60
	if remainingHours <= 0 {
		return now
	}
	return now.Add(time.Duration(remainingHours * float64(time.Hour)))
}

// IsUntouched — по заказ-наряду еще не было никакой работы: ни отметок
// времени, ни согласований, ни завершенных работ, ни установленных запчастей.
// Только такой (и только в статусе SCHEDULED) можно удалить физически.
func (w *WorkOrder) IsUntouched() bool {
	if len(w.TimeEntries) > 0 || len(w.Approvals) > 0 {
		return false
	}
	for i := range w.Services {
		if w.Services[i].IsCompleted() {
			return false
		}
	}
	for i := range w.Parts {
		if w.Parts[i].IsInstalled() {
			return false
		}
	}
	return true
}

func (w *WorkOrder) FindService(id uuid.UUID) *ServiceEntry {
	for i := range w.Services {
		if w.Services[i].ID == id {
			return &w.Services[i]
		}
	}
	return nil
}

func (w *WorkOrder) FindPart(id uuid.UUID) *PartEntry {
	for i := range w.Parts {
		if w.Parts[i].ID == id {
			return &w.Parts[i]
		}
	}
	return nil
}

func (w *WorkOrder) FindApproval(id uuid.UUID) *Approval {
	for i := range w.Approvals {
		if w.Approvals[i].ID == id {
			return &w.Approvals[i]
		}
	}
	return nil
}
