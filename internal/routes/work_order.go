package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fleetcare/internal/controllers"
	"fleetcare/internal/services"
)

func runWorkOrderRouter(secureGroup *echo.Group, workOrderService services.WorkOrderServiceInterface, logger *zap.Logger) {
	workOrderCtrl := controllers.NewWorkOrderController(workOrderService, logger)

	secureGroup.GET("/work-orders", workOrderCtrl.GetWorkOrders)
	secureGroup.GET("/work-order/:id", workOrderCtrl.FindWorkOrder)
	secureGroup.POST("/work-order", workOrderCtrl.CreateWorkOrder)
	secureGroup.PUT("/work-order/:id", workOrderCtrl.UpdateWorkOrder)
	secureGroup.DELETE("/work-order/:id", workOrderCtrl.DeleteWorkOrder)

	// Операции жизненного цикла
	secureGroup.POST("/work-order/:id/transition", workOrderCtrl.TransitionStatus)
	secureGroup.POST("/work-order/:id/time-entries", workOrderCtrl.AddTimeEntry)
	secureGroup.POST("/work-order/:id/services/complete", workOrderCtrl.CompleteService)
	secureGroup.POST("/work-order/:id/parts/install", workOrderCtrl.InstallPart)
	secureGroup.POST("/work-order/:id/approvals", workOrderCtrl.RequestApproval)
	secureGroup.POST("/work-order/:id/approvals/approve", workOrderCtrl.ApproveRequest)
	secureGroup.POST("/work-order/:id/approvals/reject", workOrderCtrl.RejectRequest)
}
