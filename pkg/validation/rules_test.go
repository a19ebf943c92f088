package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetcare/internal/dto"
)

type numberForm struct {
	Number string `validate:"omitempty,work_order_number"`
}

func TestWorkOrderNumberRule(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(numberForm{Number: "260831042"}))
	assert.NoError(t, v.Validate(numberForm{Number: ""}))

	// Не дата, не тот формат, лишние символы.
	assert.Error(t, v.Validate(numberForm{Number: "261341042"}))
	assert.Error(t, v.Validate(numberForm{Number: "26083104"}))
	assert.Error(t, v.Validate(numberForm{Number: "26083104x"}))
}

type scheduleForm struct {
	ScheduledDate time.Time `validate:"required,not_in_past"`
}

func TestNotInPastRule(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(scheduleForm{ScheduledDate: time.Now().Add(time.Hour)}))
	// Допуск сутки: вчерашняя дата еще проходит.
	assert.NoError(t, v.Validate(scheduleForm{ScheduledDate: time.Now().Add(-23 * time.Hour)}))
	assert.Error(t, v.Validate(scheduleForm{ScheduledDate: time.Now().Add(-48 * time.Hour)}))
}

// Плановая дата в глубоком прошлом отклоняется уже на валидации DTO.
func TestCreateWorkOrderRejectsPastSchedule(t *testing.T) {
	v := New()

	form := dto.CreateWorkOrderDTO{
		BranchID:      1,
		VehicleID:     1,
		Type:          "CORRECTIVE",
		Priority:      "LOW",
		ScheduledDate: time.Now().Add(-72 * time.Hour),
		Description:   "замена масла",
	}
	err := v.Validate(form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_in_past")
}
