package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fleetcare/internal/dto"
	"fleetcare/internal/repositories"
	apperrors "fleetcare/pkg/errors"
	"fleetcare/pkg/service"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, data dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, data dto.RefreshDTO) (*dto.TokenPairDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(userRepo repositories.UserRepositoryInterface, jwtService service.JWTService, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{userRepo: userRepo, jwtService: jwtService, logger: logger}
}

// Login проверяет учетные данные и выдает пару токенов.
// Любая причина отказа снаружи выглядит одинаково: неверные учетные данные.
func (s *AuthService) Login(ctx context.Context, data dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, data.Email)
	if err != nil {
		s.logger.Warn("Попытка входа с неизвестным email", zap.String("email", data.Email))
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.logger.Warn("Попытка входа деактивированного пользователя", zap.Uint64("userID", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(data.Password)); err != nil {
		s.logger.Warn("Неверный пароль", zap.Uint64("userID", user.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		s.logger.Error("Не удалось сгенерировать токены", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Пользователь вошел в систему", zap.Uint64("userID", user.ID))
	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
	}, nil
}

// Refresh обменивает refresh-токен на новую пару. Access-токен здесь не принимается.
func (s *AuthService) Refresh(ctx context.Context, data dto.RefreshDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(data.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	// Деактивированный пользователь не может продлить сессию.
	user, err := s.userRepo.FindPrincipal(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID)
	if err != nil {
		s.logger.Error("Не удалось сгенерировать токены при обновлении", zap.Error(err))
		return nil, err
	}

	return &dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
	}, nil
}
