package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeCosts(t *testing.T) {
	wo := &WorkOrder{
		Services: []ServiceEntry{
			{ID: uuid.New(), LaborCost: 100.555},
			{ID: uuid.New(), LaborCost: 49.445},
		},
		Parts: []PartEntry{
			{ID: uuid.New(), Quantity: 3, UnitPrice: 10.10},
		},
		Costs: CostSummary{Materials: 20, External: 5, Tax: 12.5, Discount: 7.5},
	}

	wo.RecomputeCosts()

	assert.Equal(t, 150.0, wo.Costs.Labor)
	assert.Equal(t, 30.3, wo.Costs.Parts)
	assert.Equal(t, 210.3, wo.Costs.Total)

	// Идемпотентность: повторный вызов ничего не меняет.
	before := wo.Costs
	wo.RecomputeCosts()
	assert.Equal(t, before, wo.Costs)
}

func TestRecomputeCosts_Empty(t *testing.T) {
	wo := &WorkOrder{}
	wo.RecomputeCosts()
	assert.Equal(t, 0.0, wo.Costs.Total)
}

func TestCompletionPercentage(t *testing.T) {
	wo := &WorkOrder{}
	assert.Equal(t, 0.0, wo.CompletionPercentage())

	now := time.Now()
	wo.Services = []ServiceEntry{
		{ID: uuid.New(), Completion: &SignOff{ByUserID: 1, At: now}},
		{ID: uuid.New()},
		{ID: uuid.New()},
	}
	assert.InDelta(t, 33.333, wo.CompletionPercentage(), 0.01)
	assert.False(t, wo.AllServicesCompleted())
}

func TestAllServicesCompleted_EmptyIsFalse(t *testing.T) {
	wo := &WorkOrder{}
	assert.False(t, wo.AllServicesCompleted())
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	wo := &WorkOrder{Status: StatusScheduled, ScheduledDate: now.Add(-time.Hour)}
	assert.True(t, wo.IsOverdue(now))

	wo.Status = StatusInProgress
	assert.False(t, wo.IsOverdue(now))

	wo.Status = StatusScheduled
	wo.ScheduledDate = now.Add(time.Hour)
	assert.False(t, wo.IsOverdue(now))
}

func TestEstimatedCompletion(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	scheduled := now.Add(-3 * time.Hour)
	started := now.Add(-time.Hour)

	// Не начат - плановая дата.
	wo := &WorkOrder{Status: StatusScheduled, ScheduledDate: scheduled}
	assert.Equal(t, scheduled, wo.EstimatedCompletion(now))

	// В работе: 4 плановых часа, 60 минут уже зафиксировано - осталось 3 часа.
	wo.StartDate = &started
	wo.Services = []ServiceEntry{{ID: uuid.New(), LaborHours: 4}}
	wo.TimeEntries = []TimeEntry{{ID: uuid.New(), DurationMinutes: 60}}
	assert.Equal(t, now.Add(3*time.Hour), wo.EstimatedCompletion(now))

	// Время перелогировано - возвращаем "сейчас", а не прошлое.
	wo.TimeEntries = append(wo.TimeEntries, TimeEntry{ID: uuid.New(), DurationMinutes: 600})
	assert.Equal(t, now, wo.EstimatedCompletion(now))

	// Завершен - фактическая дата.
	completed := now.Add(-10 * time.Minute)
	wo.CompletedDate = &completed
	assert.Equal(t, completed, wo.EstimatedCompletion(now))
}

func TestIsUntouched(t *testing.T) {
	wo := &WorkOrder{
		Services: []ServiceEntry{{ID: uuid.New()}},
		Parts:    []PartEntry{{ID: uuid.New()}},
	}
	require.True(t, wo.IsUntouched())

	now := time.Now()

	withTime := *wo
	withTime.TimeEntries = []TimeEntry{{ID: uuid.New()}}
	assert.False(t, withTime.IsUntouched())

	withApproval := *wo
	withApproval.Approvals = []Approval{{ID: uuid.New(), Status: ApprovalPending}}
	assert.False(t, withApproval.IsUntouched())

	withCompletion := &WorkOrder{Services: []ServiceEntry{{ID: uuid.New(), Completion: &SignOff{ByUserID: 1, At: now}}}}
	assert.False(t, withCompletion.IsUntouched())

	withInstall := &WorkOrder{Parts: []PartEntry{{ID: uuid.New(), Installation: &SignOff{ByUserID: 1, At: now}}}}
	assert.False(t, withInstall.IsUntouched())
}

func TestHasPendingApprovals(t *testing.T) {
	wo := &WorkOrder{}
	assert.False(t, wo.HasPendingApprovals())

	wo.Approvals = []Approval{
		{ID: uuid.New(), Status: ApprovalApproved},
		{ID: uuid.New(), Status: ApprovalRejected},
	}
	assert.False(t, wo.HasPendingApprovals())

	wo.Approvals = append(wo.Approvals, Approval{ID: uuid.New(), Status: ApprovalPending})
	assert.True(t, wo.HasPendingApprovals())
}

func TestApprovalTypeHoldsWorkOrder(t *testing.T) {
	assert.True(t, ApprovalBudget.HoldsWorkOrder())
	assert.True(t, ApprovalExtraWork.HoldsWorkOrder())
	assert.False(t, ApprovalSpecialParts.HoldsWorkOrder())
	assert.False(t, ApprovalWarranty.HoldsWorkOrder())
}
