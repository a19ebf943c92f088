package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetcare/internal/entities"
	apperrors "fleetcare/pkg/errors"
)

// transitionTable — единственное место, где описаны допустимые ребра.
// Выход из PENDING_APPROVAL / PENDING_PARTS проверяется отдельно:
// туда можно вернуться только в запомненный предыдущий статус.
var transitionTable = map[entities.WorkOrderStatus][]entities.WorkOrderStatus{
	entities.StatusScheduled: {
		entities.StatusInProgress,
		entities.StatusCanceled,
		entities.StatusPendingParts,
	},
	entities.StatusInProgress: {
		entities.StatusPaused,
		entities.StatusCompleted,
		entities.StatusCanceled,
		entities.StatusPendingParts,
	},
	entities.StatusPaused: {
		entities.StatusInProgress,
		entities.StatusCanceled,
	},
	entities.StatusPendingApproval: {
		entities.StatusCanceled,
	},
	entities.StatusPendingParts: {
		entities.StatusCanceled,
	},
	// COMPLETED и CANCELED — финальные, из них ребер нет.
}

func edgeAllowed(from, to entities.WorkOrderStatus) bool {
	for _, s := range transitionTable[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Engine — машина состояний заказ-наряда. Сама по себе чистая и синхронная:
// мутирует сущность в памяти, ничего не сохраняет и не берет блокировок.
// Сериализацию конкурентных переходов одного заказ-наряда обеспечивает
// вызывающая сторона на границе персистентности.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger, now: time.Now}
}

// NewWithClock — для тестов, с управляемыми часами.
func NewWithClock(logger *zap.Logger, now func() time.Time) *Engine {
	return &Engine{logger: logger, now: now}
}

// Transition переводит заказ-наряд в target. Нарушение бизнес-правила —
// типизированный отказ (*apperrors.TransitionError), не паника.
func (e *Engine) Transition(wo *entities.WorkOrder, target entities.WorkOrderStatus, actorID uint64, notes string) error {
	from := wo.Status

	if !target.IsValid() {
		return apperrors.NewTransitionError(string(from), string(target), apperrors.ReasonInvalidTransition)
	}

	// Повторный перевод в IN_PROGRESS идемпотентен: StartDate не трогаем.
	if from == entities.StatusInProgress && target == entities.StatusInProgress {
		return nil
	}

	if !e.edgeAllowedFrom(wo, target) {
		return apperrors.NewTransitionError(string(from), string(target), apperrors.ReasonInvalidTransition)
	}

	if target == entities.StatusCompleted && wo.HasPendingApprovals() {
		return apperrors.NewTransitionError(string(from), string(target), apperrors.ReasonPendingApprovalsOutstanding)
	}

	now := e.now()

	switch target {
	case entities.StatusInProgress:
		// StartDate ставится ровно один раз — при первом входе в IN_PROGRESS.
		if wo.StartDate == nil {
			wo.StartDate = &now
		}

	case entities.StatusCompleted:
		if wo.CompletedDate == nil {
			wo.CompletedDate = &now
			startedAt := wo.ScheduledDate
			if wo.StartDate != nil {
				startedAt = *wo.StartDate
			}
			minutes := int64(now.Sub(startedAt).Minutes())
			wo.ActualDurationMinutes = &minutes
		}

	case entities.StatusCanceled:
		if wo.CanceledDate == nil {
			wo.CanceledDate = &now
		}

	case entities.StatusPendingParts:
		prior := from
		wo.PriorStatus = &prior
	}

	// Выход из состояния ожидания сбрасывает запомненный статус.
	if from == entities.StatusPendingApproval || from == entities.StatusPendingParts {
		wo.PriorStatus = nil
		wo.HoldingApprovalID = nil
	}

	wo.Status = target
	wo.UpdatedBy = &actorID

	// Завершение пересчитывает стоимость финальным шагом; отмена — нет.
	if target == entities.StatusCompleted {
		wo.RecomputeCosts()
	}

	fields := []zap.Field{
		zap.Uint64("workOrderID", wo.ID),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.Uint64("actorID", actorID),
	}
	if notes != "" {
		fields = append(fields, zap.String("notes", notes))
	}
	e.logger.Info("Статус заказ-наряда изменен", fields...)

	return nil
}

// edgeAllowedFrom учитывает правило возврата из состояний ожидания:
// из PENDING_* можно выйти в запомненный статус или в CANCELED.
func (e *Engine) edgeAllowedFrom(wo *entities.WorkOrder, target entities.WorkOrderStatus) bool {
	from := wo.Status

	if from == entities.StatusPendingApproval || from == entities.StatusPendingParts {
		if wo.PriorStatus != nil && *wo.PriorStatus == target {
			return true
		}
		return edgeAllowed(from, target)
	}

	return edgeAllowed(from, target)
}

// AddTimeEntry добавляет отметку времени. Статус не меняет.
func (e *Engine) AddTimeEntry(wo *entities.WorkOrder, userID uint64, start, end time.Time, activity, notes string) (*entities.TimeEntry, error) {
	if !end.After(start) {
		return nil, apperrors.NewFieldError("ended_at", "окончание должно быть позже начала")
	}

	entry := entities.TimeEntry{
		ID:              uuid.New(),
		UserID:          userID,
		StartedAt:       start,
		EndedAt:         end,
		DurationMinutes: int64(end.Sub(start).Minutes()),
		Activity:        activity,
		Notes:           notes,
	}
	wo.TimeEntries = append(wo.TimeEntries, entry)
	wo.UpdatedBy = &userID

	return &wo.TimeEntries[len(wo.TimeEntries)-1], nil
}

// CompleteService отмечает работу выполненной. Поля выполнения write-once.
// Если это была последняя работа и заказ-наряд в работе — автопереход
// в COMPLETED через Transition, со всеми его правилами отказа.
func (e *Engine) CompleteService(wo *entities.WorkOrder, serviceID uuid.UUID, userID uint64, notes string) error {
	svc := wo.FindService(serviceID)
	if svc == nil {
		return apperrors.ErrNotFound
	}
	if svc.IsCompleted() {
		return apperrors.NewInvalidInputError("работа уже отмечена выполненной")
	}

	now := e.now()
	svc.Completion = &entities.SignOff{ByUserID: userID, At: now, Notes: notes}
	wo.UpdatedBy = &userID

	if wo.AllServicesCompleted() && wo.Status == entities.StatusInProgress {
		return e.Transition(wo, entities.StatusCompleted, userID, notes)
	}

	return nil
}

// InstallPart отмечает запчасть установленной и пересчитывает стоимость.
func (e *Engine) InstallPart(wo *entities.WorkOrder, partID uuid.UUID, userID uint64, notes string) error {
	part := wo.FindPart(partID)
	if part == nil {
		return apperrors.ErrNotFound
	}
	if part.IsInstalled() {
		return apperrors.NewInvalidInputError("запчасть уже отмечена установленной")
	}

	now := e.now()
	part.Installation = &entities.SignOff{ByUserID: userID, At: now, Notes: notes}
	wo.UpdatedBy = &userID
	wo.RecomputeCosts()

	return nil
}

// RequestApproval добавляет запрос на согласование. Типы BUDGET и EXTRA_WORK
// из SCHEDULED/IN_PROGRESS переводят заказ-наряд в PENDING_APPROVAL,
// запоминая предыдущий статус.
func (e *Engine) RequestApproval(wo *entities.WorkOrder, approvalType entities.ApprovalType, amount float64, notes string, requesterID uint64) (*entities.Approval, error) {
	if !approvalType.IsValid() {
		return nil, apperrors.NewFieldError("type", "неизвестный тип согласования: %s", approvalType)
	}
	if amount < 0 {
		return nil, apperrors.NewFieldError("amount", "сумма согласования не может быть отрицательной")
	}

	approval := entities.Approval{
		ID:          uuid.New(),
		Type:        approvalType,
		Amount:      amount,
		RequestedBy: requesterID,
		RequestedAt: e.now(),
		Notes:       notes,
		Status:      entities.ApprovalPending,
	}
	wo.Approvals = append(wo.Approvals, approval)
	wo.UpdatedBy = &requesterID

	if approvalType.HoldsWorkOrder() &&
		(wo.Status == entities.StatusScheduled || wo.Status == entities.StatusInProgress) {
		prior := wo.Status
		wo.PriorStatus = &prior
		wo.HoldingApprovalID = &wo.Approvals[len(wo.Approvals)-1].ID
		wo.Status = entities.StatusPendingApproval

		e.logger.Info("Заказ-наряд переведен в ожидание согласования",
			zap.Uint64("workOrderID", wo.ID),
			zap.String("approvalType", string(approvalType)),
			zap.String("priorStatus", string(prior)),
		)
	}

	return &wo.Approvals[len(wo.Approvals)-1], nil
}

// ApproveRequest одобряет согласование. Если это то самое согласование,
// которое удерживало заказ-наряд в PENDING_APPROVAL, статус возвращается
// к запомненному предыдущему.
func (e *Engine) ApproveRequest(wo *entities.WorkOrder, approvalID uuid.UUID, approverID uint64, notes string) error {
	approval := wo.FindApproval(approvalID)
	if approval == nil {
		return apperrors.ErrNotFound
	}
	if approval.Status != entities.ApprovalPending {
		return apperrors.NewInvalidInputError("согласование уже разрешено")
	}

	approval.Status = entities.ApprovalApproved
	approval.Resolution = &entities.SignOff{ByUserID: approverID, At: e.now(), Notes: notes}
	wo.UpdatedBy = &approverID

	if wo.Status == entities.StatusPendingApproval &&
		wo.HoldingApprovalID != nil && *wo.HoldingApprovalID == approvalID &&
		wo.PriorStatus != nil {
		restored := *wo.PriorStatus
		wo.Status = restored
		wo.PriorStatus = nil
		wo.HoldingApprovalID = nil

		e.logger.Info("Согласование одобрено, статус восстановлен",
			zap.Uint64("workOrderID", wo.ID),
			zap.String("restored", string(restored)),
		)
	}

	return nil
}

// RejectRequest отклоняет согласование. Статус заказ-наряда при этом
// НЕ меняется: оператор обязан явно отменить наряд или запросить повторно.
func (e *Engine) RejectRequest(wo *entities.WorkOrder, approvalID uuid.UUID, approverID uint64, notes string) error {
	approval := wo.FindApproval(approvalID)
	if approval == nil {
		return apperrors.ErrNotFound
	}
	if approval.Status != entities.ApprovalPending {
		return apperrors.NewInvalidInputError("согласование уже разрешено")
	}

	approval.Status = entities.ApprovalRejected
	approval.Resolution = &entities.SignOff{ByUserID: approverID, At: e.now(), Notes: notes}
	wo.UpdatedBy = &approverID

	return nil
}
