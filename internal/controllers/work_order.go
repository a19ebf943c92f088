package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fleetcare/internal/dto"
	"fleetcare/internal/services"
	"fleetcare/pkg/utils"
)

type WorkOrderController struct {
	workOrderService services.WorkOrderServiceInterface
	logger           *zap.Logger
}

func NewWorkOrderController(workOrderService services.WorkOrderServiceInterface, logger *zap.Logger) *WorkOrderController {
	return &WorkOrderController{
		workOrderService: workOrderService,
		logger:           logger,
	}
}

func (c *WorkOrderController) parseID(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "некорректный идентификатор заказ-наряда")
	}
	return id, nil
}

func (c *WorkOrderController) GetWorkOrders(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, totalCount, err := c.workOrderService.GetWorkOrders(ctx.Request().Context(), filter)
	if err != nil {
		c.logger.Error("Ошибка при получении списка заказ-нарядов", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Заказ-наряды успешно получены", http.StatusOK, totalCount)
}

func (c *WorkOrderController) FindWorkOrder(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.FindWorkOrder(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заказ-наряд успешно получен", http.StatusOK)
}

func (c *WorkOrderController) CreateWorkOrder(ctx echo.Context) error {
	var data dto.CreateWorkOrderDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.CreateWorkOrder(ctx.Request().Context(), data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заказ-наряд успешно создан", http.StatusCreated)
}

func (c *WorkOrderController) UpdateWorkOrder(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.UpdateWorkOrderDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.UpdateWorkOrder(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заказ-наряд успешно обновлен", http.StatusOK)
}

// TransitionStatus — явный перевод статуса заказ-наряда.
func (c *WorkOrderController) TransitionStatus(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.TransitionDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.TransitionStatus(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Статус заказ-наряда изменен", http.StatusOK)
}

func (c *WorkOrderController) AddTimeEntry(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.AddTimeEntryDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.AddTimeEntry(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Отметка времени добавлена", http.StatusCreated)
}

func (c *WorkOrderController) CompleteService(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.CompleteServiceDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.CompleteService(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Работа отмечена выполненной", http.StatusOK)
}

func (c *WorkOrderController) InstallPart(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.InstallPartDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.InstallPart(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Запчасть отмечена установленной", http.StatusOK)
}

func (c *WorkOrderController) RequestApproval(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.RequestApprovalDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.RequestApproval(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Согласование запрошено", http.StatusCreated)
}

func (c *WorkOrderController) ApproveRequest(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.ResolveApprovalDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.ApproveRequest(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Согласование одобрено", http.StatusOK)
}

func (c *WorkOrderController) RejectRequest(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var data dto.ResolveApprovalDTO
	if err := ctx.Bind(&data); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "некорректное тело запроса"), c.logger)
	}
	if err := ctx.Validate(&data); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.workOrderService.RejectRequest(ctx.Request().Context(), id, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Согласование отклонено", http.StatusOK)
}

func (c *WorkOrderController) DeleteWorkOrder(ctx echo.Context) error {
	id, err := c.parseID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	outcome, err := c.workOrderService.DeleteWorkOrder(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	message := "Заказ-наряд деактивирован"
	if outcome == dto.OutcomeDeleted {
		message = "Заказ-наряд удален"
	}
	return utils.SuccessResponse(ctx, map[string]string{"outcome": string(outcome)}, message, http.StatusOK)
}
