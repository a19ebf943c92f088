package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fleetcare/internal/controllers"
	"fleetcare/internal/services"
)

func runUserRouter(secureGroup *echo.Group, userService services.UserServiceInterface, logger *zap.Logger) {
	userCtrl := controllers.NewUserController(userService, logger)

	secureGroup.GET("/user/:id", userCtrl.FindUser)
	secureGroup.PUT("/user/:id", userCtrl.UpdateUser)
	secureGroup.DELETE("/user/:id", userCtrl.DeleteUser)
}
