package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"fleetcare/internal/repositories"
)

// BaseService — общий кэш-слой для сервисов. Кэш строго best-effort:
// промах или недоступный Redis никогда не валят запрос.
type BaseService struct {
	cache  repositories.CacheRepositoryInterface
	logger *zap.Logger
}

func NewBaseService(cache repositories.CacheRepositoryInterface, logger *zap.Logger) *BaseService {
	return &BaseService{cache: cache, logger: logger}
}

// CacheGet получает данные из кэша
func (s *BaseService) CacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		return false
	}
	return true
}

// CacheSet сохраняет данные в кэш
func (s *BaseService) CacheSet(ctx context.Context, key string, data interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	serialized, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, serialized, ttl); err != nil {
		s.logger.Debug("не удалось записать в кэш", zap.String("key", key), zap.Error(err))
	}
}

// CacheInvalidate удаляет ключи из кэша.
func (s *BaseService) CacheInvalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.Debug("не удалось инвалидировать кэш", zap.Strings("keys", keys), zap.Error(err))
	}
}
