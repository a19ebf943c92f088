package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fleetcare/internal/authz"
	"fleetcare/internal/lifecycle"
	"fleetcare/internal/listeners"
	"fleetcare/internal/repositories"
	"fleetcare/internal/services"
	"fleetcare/pkg/eventbus"
	"fleetcare/pkg/middleware"
	"fleetcare/pkg/service"
)

// InitRouter собирает весь граф зависимостей и вешает маршруты.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger) {
	logger.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	// --- РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn)
	workOrderRepo := repositories.NewWorkOrderRepository(dbConn)
	vehicleRepo := repositories.NewVehicleRepository(dbConn)
	branchRepo := repositories.NewBranchRepository(dbConn)
	companyRepo := repositories.NewCompanyRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- ДОМЕННЫЕ КОМПОНЕНТЫ ---
	guard := authz.NewGatekeeper()
	engine := lifecycle.New(logger)
	bus := eventbus.New(logger)
	listeners.NewNotificationListener(nil, logger).Register(bus)

	// --- СЕРВИСЫ ---
	base := services.NewBaseService(cacheRepo, logger)
	authService := services.NewAuthService(userRepo, jwtSvc, logger)
	userService := services.NewUserService(base, userRepo, guard, logger)
	workOrderService := services.NewWorkOrderService(
		base, workOrderRepo, vehicleRepo, branchRepo, companyRepo, userRepo,
		guard, engine, bus, logger,
	)

	// --- РОУТЕРЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authService, logger)
	runUserRouter(secureGroup, userService, logger)
	runWorkOrderRouter(secureGroup, workOrderService, logger)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("InitRouter: Создание маршрутов завершено")
}
