package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetcare/internal/authz"
	"fleetcare/internal/dto"
	"fleetcare/internal/entities"
	"fleetcare/internal/events"
	"fleetcare/internal/lifecycle"
	"fleetcare/internal/repositories"
	"fleetcare/pkg/constants"
	apperrors "fleetcare/pkg/errors"
	"fleetcare/pkg/eventbus"
	"fleetcare/pkg/metrics"
	"fleetcare/pkg/types"
	"fleetcare/pkg/utils"
)

type WorkOrderServiceInterface interface {
	GetWorkOrders(ctx context.Context, filter types.Filter) ([]entities.WorkOrder, uint64, error)
	FindWorkOrder(ctx context.Context, id uint64) (*entities.WorkOrder, error)
	CreateWorkOrder(ctx context.Context, data dto.CreateWorkOrderDTO) (*entities.WorkOrder, error)
	UpdateWorkOrder(ctx context.Context, id uint64, data dto.UpdateWorkOrderDTO) (*entities.WorkOrder, error)
	TransitionStatus(ctx context.Context, id uint64, data dto.TransitionDTO) (*entities.WorkOrder, error)
	AddTimeEntry(ctx context.Context, id uint64, data dto.AddTimeEntryDTO) (*entities.WorkOrder, error)
	CompleteService(ctx context.Context, id uint64, data dto.CompleteServiceDTO) (*entities.WorkOrder, error)
	InstallPart(ctx context.Context, id uint64, data dto.InstallPartDTO) (*entities.WorkOrder, error)
	RequestApproval(ctx context.Context, id uint64, data dto.RequestApprovalDTO) (*entities.WorkOrder, error)
	ApproveRequest(ctx context.Context, id uint64, data dto.ResolveApprovalDTO) (*entities.WorkOrder, error)
	RejectRequest(ctx context.Context, id uint64, data dto.ResolveApprovalDTO) (*entities.WorkOrder, error)
	DeleteWorkOrder(ctx context.Context, id uint64) (dto.DeleteOutcome, error)
}

// WorkOrderService — оркестрация: загрузить сущность и ее владельцев,
// спросить Access Guard, отдать мутацию машине состояний, сохранить один раз.
// Никакая мутация не начинается до успешной авторизации.
type WorkOrderService struct {
	*BaseService
	workOrderRepo repositories.WorkOrderRepositoryInterface
	vehicleRepo   repositories.VehicleRepositoryInterface
	branchRepo    repositories.BranchRepositoryInterface
	companyRepo   repositories.CompanyRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	guard         *authz.Gatekeeper
	engine        *lifecycle.Engine
	bus           *eventbus.Bus
	logger        *zap.Logger
	now           func() time.Time
}

func NewWorkOrderService(
	base *BaseService,
	workOrderRepo repositories.WorkOrderRepositoryInterface,
	vehicleRepo repositories.VehicleRepositoryInterface,
	branchRepo repositories.BranchRepositoryInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	guard *authz.Gatekeeper,
	engine *lifecycle.Engine,
	bus *eventbus.Bus,
	logger *zap.Logger,
) WorkOrderServiceInterface {
	return &WorkOrderService{
		BaseService:   base,
		workOrderRepo: workOrderRepo,
		vehicleRepo:   vehicleRepo,
		branchRepo:    branchRepo,
		companyRepo:   companyRepo,
		userRepo:      userRepo,
		guard:         guard,
		engine:        engine,
		bus:           bus,
		logger:        logger,
		now:           time.Now,
	}
}

// principal загружает действующее лицо по UserID из контекста запроса.
func (s *WorkOrderService) principal(ctx context.Context) (*entities.User, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	cacheKey := constants.CacheKeyPrincipal + strconv.FormatUint(userID, 10)
	var cached entities.User
	if s.CacheGet(ctx, cacheKey, &cached) {
		if !cached.IsActive {
			return nil, apperrors.ErrForbidden
		}
		return &cached, nil
	}

	actor, err := s.userRepo.FindPrincipal(ctx, userID)
	if err != nil {
		s.logger.Error("не удалось загрузить действующее лицо", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrUnauthorized
	}
	if !actor.IsActive {
		return nil, apperrors.ErrForbidden
	}

	s.CacheSet(ctx, cacheKey, actor, constants.PrincipalTTL)
	return actor, nil
}

// authorize — единственная точка, через которую проходят все проверки доступа.
func (s *WorkOrderService) authorize(actor *entities.User, action string, target *authz.Target) error {
	decision := s.guard.Authorize(actor, authz.ResourceWorkOrders, action, target)
	if decision.Allowed {
		return nil
	}

	metrics.AccessDeniedTotal.WithLabelValues(decision.Reason).Inc()
	s.logger.Warn("Отказано в доступе к заказ-наряду",
		zap.Uint64("actorID", actor.ID),
		zap.String("action", action),
		zap.String("reason", decision.Reason),
	)
	return apperrors.NewAccessDeniedError(decision.Reason, "доступ к заказ-наряду запрещён")
}

// loadForMutation загружает заказ-наряд вместе с техникой и проверяет доступ.
func (s *WorkOrderService) loadForMutation(ctx context.Context, actor *entities.User, id uint64, action string) (*entities.WorkOrder, error) {
	wo, err := s.workOrderRepo.FindWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.FindVehicle(ctx, wo.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("техника заказ-наряда недоступна: %w", err)
	}

	target := &authz.Target{
		CompanyID:   wo.CompanyID,
		BranchID:    &wo.BranchID,
		VehicleType: &vehicle.VehicleType,
	}
	if err := s.authorize(actor, action, target); err != nil {
		return nil, err
	}

	return wo, nil
}

// persist сохраняет заказ-наряд и сбрасывает кэш. Конфликт версий отдается
// наверх как есть: переход считается непримененным.
func (s *WorkOrderService) persist(ctx context.Context, wo *entities.WorkOrder) error {
	if err := s.workOrderRepo.SaveWorkOrder(ctx, wo); err != nil {
		return err
	}
	s.CacheInvalidate(ctx, constants.CacheKeyWorkOrder+strconv.FormatUint(wo.ID, 10))
	return nil
}

func (s *WorkOrderService) GetWorkOrders(ctx context.Context, filter types.Filter) ([]entities.WorkOrder, uint64, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, 0, err
	}

	if err := s.authorize(actor, authz.ActionRead, nil); err != nil {
		return nil, 0, err
	}

	// Видимость списка сужается областью действия роли. Учетная запись
	// без компании на любой роли, кроме системного оператора, испорчена:
	// отказываем явно, а не разыменовываем nil.
	if actor.Role != entities.RoleSystemOperator && actor.CompanyID == nil {
		s.logger.Error("у действующего лица не указана компания", zap.Uint64("actorID", actor.ID))
		return nil, 0, apperrors.ErrForbidden
	}

	var companyID uint64
	var branchIDs []uint64
	switch actor.Role {
	case entities.RoleSystemOperator:
		if raw, ok := filter.Filter["company_id"]; ok {
			if s, ok := raw.(string); ok {
				companyID, _ = strconv.ParseUint(s, 10, 64)
			}
		}
	case entities.RoleCompanyAdmin:
		companyID = *actor.CompanyID
	default:
		companyID = *actor.CompanyID
		branchIDs = actor.BranchIDs
	}

	return s.workOrderRepo.GetWorkOrders(ctx, companyID, branchIDs, filter)
}

func (s *WorkOrderService) FindWorkOrder(ctx context.Context, id uint64) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	cacheKey := constants.CacheKeyWorkOrder + strconv.FormatUint(id, 10)
	var cached entities.WorkOrder
	if s.CacheGet(ctx, cacheKey, &cached) {
		// Авторизация обязана пройти и на кэшированном чтении. Без техники
		// проверка области по типу невозможна, поэтому ее недоступность
		// закрывает доступ, как и на некэшированном пути.
		vehicle, err := s.vehicleRepo.FindVehicle(ctx, cached.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("техника заказ-наряда недоступна: %w", err)
		}
		target := &authz.Target{
			CompanyID:   cached.CompanyID,
			BranchID:    &cached.BranchID,
			VehicleType: &vehicle.VehicleType,
		}
		if err := s.authorize(actor, authz.ActionRead, target); err != nil {
			return nil, err
		}
		return &cached, nil
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionRead)
	if err != nil {
		return nil, err
	}

	s.CacheSet(ctx, cacheKey, wo, constants.DefaultCacheTTL)
	return wo, nil
}

func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, data dto.CreateWorkOrderDTO) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	branch, err := s.branchRepo.FindBranch(ctx, data.BranchID)
	if err != nil {
		return nil, fmt.Errorf("филиал не найден: %w", err)
	}
	vehicle, err := s.vehicleRepo.FindVehicle(ctx, data.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("техника не найдена: %w", err)
	}

	// Инвариант владения: филиал и техника принадлежат одной компании.
	if vehicle.CompanyID != branch.CompanyID {
		return nil, apperrors.NewFieldError("vehicle_id", "техника принадлежит другой компании")
	}

	company, err := s.companyRepo.FindCompany(ctx, branch.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("компания не найдена: %w", err)
	}
	if !company.IsActive {
		return nil, apperrors.NewInvalidInputError("компания деактивирована, создание заказ-нарядов невозможно")
	}

	target := &authz.Target{
		CompanyID:   branch.CompanyID,
		BranchID:    &branch.ID,
		VehicleType: &vehicle.VehicleType,
	}
	if err := s.authorize(actor, authz.ActionCreate, target); err != nil {
		return nil, err
	}

	number := data.Number
	if number == "" {
		number, err = s.proposeNumber(ctx)
		if err != nil {
			return nil, err
		}
	}

	wo := &entities.WorkOrder{
		Number:        number,
		CompanyID:     branch.CompanyID,
		BranchID:      branch.ID,
		VehicleID:     vehicle.ID,
		Type:          entities.WorkOrderType(data.Type),
		Priority:      entities.WorkOrderPriority(data.Priority),
		Status:        entities.StatusScheduled,
		ScheduledDate: data.ScheduledDate,
		Odometer:      data.Odometer,
		Description:   data.Description,
		Diagnosis:     data.Diagnosis,
		CreatedBy:     actor.ID,
		IsActive:      true,
	}
	wo.Costs.Materials = data.Materials
	wo.Costs.External = data.External
	wo.Costs.Tax = data.Tax
	wo.Costs.Discount = data.Discount

	for _, svc := range data.Services {
		wo.Services = append(wo.Services, entities.ServiceEntry{
			ID:          uuid.New(),
			Category:    entities.ServiceCategory(svc.Category),
			Description: svc.Description,
			LaborHours:  svc.LaborHours,
			LaborCost:   svc.LaborCost,
		})
	}
	for _, part := range data.Parts {
		wo.Parts = append(wo.Parts, entities.PartEntry{
			ID:        uuid.New(),
			Name:      part.Name,
			Quantity:  part.Quantity,
			UnitPrice: part.UnitPrice,
		})
	}

	wo.RecomputeCosts()

	if _, err := s.workOrderRepo.CreateWorkOrder(ctx, wo); err != nil {
		return nil, err
	}

	s.logger.Info("Заказ-наряд создан",
		zap.Uint64("id", wo.ID),
		zap.String("number", wo.Number),
		zap.Uint64("actorID", actor.ID),
	)
	s.bus.Publish(ctx, events.WorkOrderCreatedEvent{WorkOrder: wo, ActorID: actor.ID})

	return wo, nil
}

// proposeNumber предлагает человекочитаемый номер: ГГММДД + порядковый суффикс.
// Уникальность обеспечивает ограничение в БД, сервис только предлагает.
func (s *WorkOrderService) proposeNumber(ctx context.Context) (string, error) {
	day := s.now()
	count, err := s.workOrderRepo.CountForDay(ctx, day)
	if err != nil {
		return "", err
	}
	suffix := (count + 1) % constants.WorkOrderNumberSuffixMod
	return fmt.Sprintf("%s%03d", day.Format(constants.WorkOrderNumberDateLayout), suffix), nil
}

func (s *WorkOrderService) UpdateWorkOrder(ctx context.Context, id uint64, data dto.UpdateWorkOrderDTO) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if data.Priority.Valid {
		wo.Priority = entities.WorkOrderPriority(data.Priority.String)
	}
	if data.ScheduledDate.Valid {
		wo.ScheduledDate = data.ScheduledDate.Time
	}
	if data.Description.Valid {
		wo.Description = data.Description.String
	}
	if data.Diagnosis.Valid {
		wo.Diagnosis = data.Diagnosis.String
	}
	if data.WorkPerformed.Valid {
		wo.WorkPerformed = data.WorkPerformed.String
	}
	if data.Odometer.Valid {
		wo.Odometer = int64(data.Odometer.Int)
	}
	if data.Materials.Valid {
		wo.Costs.Materials = data.Materials.Float64
	}
	if data.External.Valid {
		wo.Costs.External = data.External.Float64
	}
	if data.Tax.Valid {
		wo.Costs.Tax = data.Tax.Float64
	}
	if data.Discount.Valid {
		wo.Costs.Discount = data.Discount.Float64
	}

	// Состав работ и запчастей можно заменить целиком, только пока наряд
	// запланирован и нетронут: после первых отметок история неприкосновенна.
	if data.Services != nil || data.Parts != nil {
		if wo.Status != entities.StatusScheduled || !wo.IsUntouched() {
			return nil, apperrors.NewInvalidInputError("состав работ нельзя менять после начала выполнения")
		}
		if data.Services != nil {
			wo.Services = wo.Services[:0]
			for _, svc := range data.Services {
				wo.Services = append(wo.Services, entities.ServiceEntry{
					ID:          uuid.New(),
					Category:    entities.ServiceCategory(svc.Category),
					Description: svc.Description,
					LaborHours:  svc.LaborHours,
					LaborCost:   svc.LaborCost,
				})
			}
		}
		if data.Parts != nil {
			wo.Parts = wo.Parts[:0]
			for _, part := range data.Parts {
				wo.Parts = append(wo.Parts, entities.PartEntry{
					ID:        uuid.New(),
					Name:      part.Name,
					Quantity:  part.Quantity,
					UnitPrice: part.UnitPrice,
				})
			}
		}
	}

	wo.UpdatedBy = &actor.ID
	wo.RecomputeCosts()

	if err := s.persist(ctx, wo); err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) TransitionStatus(ctx context.Context, id uint64, data dto.TransitionDTO) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	from := wo.Status
	target := entities.WorkOrderStatus(data.Status)

	if err := s.engine.Transition(wo, target, actor.ID, data.Notes); err != nil {
		var transitionErr *apperrors.TransitionError
		if errors.As(err, &transitionErr) {
			metrics.WorkOrderTransitionRejectedTotal.WithLabelValues(transitionErr.Reason).Inc()
		}
		return nil, err
	}

	if err := s.persist(ctx, wo); err != nil {
		return nil, err
	}

	if from != wo.Status {
		metrics.WorkOrderTransitionsTotal.WithLabelValues(string(from), string(wo.Status)).Inc()
		s.bus.Publish(ctx, events.WorkOrderStatusChangedEvent{
			WorkOrder: wo, From: from, To: wo.Status, ActorID: actor.ID,
		})
	}

	return wo, nil
}

func (s *WorkOrderService) AddTimeEntry(ctx context.Context, id uint64, data dto.AddTimeEntryDTO) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if _, err := s.engine.AddTimeEntry(wo, actor.ID, data.StartedAt, data.EndedAt, data.Activity, data.Notes); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, wo); err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) CompleteService(ctx context.Context, id uint64, data dto.CompleteServiceDTO) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	from := wo.Status
	if err := s.engine.CompleteService(wo, data.ServiceID, actor.ID, data.Notes); err != nil {
		var transitionErr *apperrors.TransitionError
		if errors.As(err, &transitionErr) {
			metrics.WorkOrderTransitionRejectedTotal.WithLabelValues(transitionErr.Reason).Inc()
		}
		return nil, err
	}

	if err := s.persist(ctx, wo); err != nil {
		return nil, err
	}

	if from != wo.Status {
		metrics.WorkOrderTransitionsTotal.WithLabelValues(string(from), string(wo.Status)).Inc()
		s.bus.Publish(ctx, events.WorkOrderStatusChangedEvent{
			WorkOrder: wo, From: from, To: wo.Status, ActorID: actor.ID,
		})
	}
	return wo, nil
}

func (s *WorkOrderService) InstallPart(ctx context.Context, id uint64, data dto.InstallPartDTO) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if err := s.engine.InstallPart(wo, data.PartID, actor.ID, data.Notes); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, wo); err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) RequestApproval(ctx context.Context, id uint64, data dto.RequestApprovalDTO) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	from := wo.Status
	approval, err := s.engine.RequestApproval(wo, entities.ApprovalType(data.Type), data.Amount, data.Notes, actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, wo); err != nil {
		return nil, err
	}

	metrics.ApprovalsRequestedTotal.WithLabelValues(data.Type).Inc()
	s.bus.Publish(ctx, events.ApprovalRequestedEvent{WorkOrder: wo, Approval: approval, ActorID: actor.ID})

	if from != wo.Status {
		metrics.WorkOrderTransitionsTotal.WithLabelValues(string(from), string(wo.Status)).Inc()
		s.bus.Publish(ctx, events.WorkOrderStatusChangedEvent{
			WorkOrder: wo, From: from, To: wo.Status, ActorID: actor.ID,
		})
	}
	return wo, nil
}

func (s *WorkOrderService) ApproveRequest(ctx context.Context, id uint64, data dto.ResolveApprovalDTO) (*entities.WorkOrder, error) {
	return s.resolveApproval(ctx, id, data, true)
}

func (s *WorkOrderService) RejectRequest(ctx context.Context, id uint64, data dto.ResolveApprovalDTO) (*entities.WorkOrder, error) {
	return s.resolveApproval(ctx, id, data, false)
}

func (s *WorkOrderService) resolveApproval(ctx context.Context, id uint64, data dto.ResolveApprovalDTO, approve bool) (*entities.WorkOrder, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}

	from := wo.Status
	if approve {
		err = s.engine.ApproveRequest(wo, data.ApprovalID, actor.ID, data.Notes)
	} else {
		err = s.engine.RejectRequest(wo, data.ApprovalID, actor.ID, data.Notes)
	}
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, wo); err != nil {
		return nil, err
	}

	approval := wo.FindApproval(data.ApprovalID)
	s.bus.Publish(ctx, events.ApprovalResolvedEvent{WorkOrder: wo, Approval: approval, ActorID: actor.ID})

	if from != wo.Status {
		metrics.WorkOrderTransitionsTotal.WithLabelValues(string(from), string(wo.Status)).Inc()
		s.bus.Publish(ctx, events.WorkOrderStatusChangedEvent{
			WorkOrder: wo, From: from, To: wo.Status, ActorID: actor.ID,
		})
	}
	return wo, nil
}

// DeleteWorkOrder: физическое удаление — только для нетронутого наряда
// в статусе SCHEDULED; во всех остальных случаях мягкая деактивация.
func (s *WorkOrderService) DeleteWorkOrder(ctx context.Context, id uint64) (dto.DeleteOutcome, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return "", err
	}

	wo, err := s.loadForMutation(ctx, actor, id, authz.ActionDelete)
	if err != nil {
		return "", err
	}

	if wo.Status == entities.StatusScheduled && wo.IsUntouched() {
		if err := s.workOrderRepo.HardDeleteWorkOrder(ctx, wo.ID); err != nil {
			return "", err
		}
		s.CacheInvalidate(ctx, constants.CacheKeyWorkOrder+strconv.FormatUint(wo.ID, 10))
		s.logger.Info("Заказ-наряд удален физически", zap.Uint64("id", wo.ID), zap.Uint64("actorID", actor.ID))
		return dto.OutcomeDeleted, nil
	}

	now := s.now()
	wo.IsActive = false
	wo.DeletedAt = &now
	wo.UpdatedBy = &actor.ID
	if err := s.persist(ctx, wo); err != nil {
		return "", err
	}

	s.logger.Info("Заказ-наряд деактивирован", zap.Uint64("id", wo.ID), zap.Uint64("actorID", actor.ID))
	return dto.OutcomeDeactivated, nil
}
