package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"fleetcare/internal/authz"
	"fleetcare/internal/dto"
	"fleetcare/internal/entities"
	"fleetcare/internal/repositories"
	"fleetcare/pkg/constants"
	apperrors "fleetcare/pkg/errors"
	"fleetcare/pkg/metrics"
	"fleetcare/pkg/utils"
)

type UserServiceInterface interface {
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	UpdateUser(ctx context.Context, id uint64, data dto.UpdateUserDTO) (*entities.User, error)
	DeleteUser(ctx context.Context, id uint64) error
}

// UserService — смежная поверхность управления пользователями.
// Главное правило: чувствительные операции над собственной учеткой
// (деактивация, удаление, смена роли) запрещены даже администратору.
type UserService struct {
	*BaseService
	userRepo repositories.UserRepositoryInterface
	guard    *authz.Gatekeeper
	logger   *zap.Logger
}

func NewUserService(base *BaseService, userRepo repositories.UserRepositoryInterface, guard *authz.Gatekeeper, logger *zap.Logger) UserServiceInterface {
	return &UserService{BaseService: base, userRepo: userRepo, guard: guard, logger: logger}
}

func (s *UserService) principal(ctx context.Context) (*entities.User, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	actor, err := s.userRepo.FindPrincipal(ctx, userID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !actor.IsActive {
		return nil, apperrors.ErrForbidden
	}
	return actor, nil
}

func (s *UserService) authorize(actor *entities.User, action string, target *authz.Target) error {
	decision := s.guard.Authorize(actor, authz.ResourceUsers, action, target)
	if decision.Allowed {
		return nil
	}
	metrics.AccessDeniedTotal.WithLabelValues(decision.Reason).Inc()
	s.logger.Warn("Отказано в доступе к пользователю",
		zap.Uint64("actorID", actor.ID),
		zap.String("action", action),
		zap.String("reason", decision.Reason),
	)
	return apperrors.NewAccessDeniedError(decision.Reason, "доступ к пользователю запрещён")
}

func (s *UserService) targetFor(subject *entities.User, sensitive bool) *authz.Target {
	target := &authz.Target{UserID: &subject.ID, SelfSensitive: sensitive}
	if subject.CompanyID != nil {
		target.CompanyID = *subject.CompanyID
	}
	return target
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	subject, err := s.userRepo.FindPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, authz.ActionRead, s.targetFor(subject, false)); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, data dto.UpdateUserDTO) (*entities.User, error) {
	actor, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}

	subject, err := s.userRepo.FindPrincipal(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, authz.ActionUpdate, s.targetFor(subject, data.TouchesSensitiveFields())); err != nil {
		return nil, err
	}

	if data.Fio.Valid {
		subject.Fio = data.Fio.String
	}
	if data.PhoneNumber.Valid {
		subject.PhoneNumber = data.PhoneNumber.String
	}
	if data.Role.Valid {
		role := entities.Role(data.Role.String)
		if !role.IsValid() {
			return nil, apperrors.NewFieldError("role", "неизвестная роль: %s", data.Role.String)
		}
		subject.Role = role
	}
	if data.IsActive != nil {
		subject.IsActive = *data.IsActive
	}

	if err := s.userRepo.UpdateUser(ctx, subject); err != nil {
		return nil, err
	}

	s.CacheInvalidate(ctx, constants.CacheKeyPrincipal+strconv.FormatUint(subject.ID, 10))
	s.logger.Info("Пользователь обновлен", zap.Uint64("id", subject.ID), zap.Uint64("actorID", actor.ID))
	return subject, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	actor, err := s.principal(ctx)
	if err != nil {
		return err
	}

	subject, err := s.userRepo.FindPrincipal(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorize(actor, authz.ActionDelete, s.targetFor(subject, true)); err != nil {
		return err
	}

	if err := s.userRepo.SoftDeleteUser(ctx, subject.ID); err != nil {
		return err
	}

	s.CacheInvalidate(ctx, constants.CacheKeyPrincipal+strconv.FormatUint(subject.ID, 10))
	s.logger.Info("Пользователь удален", zap.Uint64("id", subject.ID), zap.Uint64("actorID", actor.ID))
	return nil
}
