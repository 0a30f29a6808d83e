package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loanmanagement/cache"
	"loanmanagement/models"
	"loanmanagement/utils"
)

const dashboardCacheKey = "dashboard:stats"

// DashboardService отдает сводную статистику через кэш
type DashboardService struct {
	repo  StatsRepository
	cache cache.Cache
	ttl   time.Duration
}

func NewDashboardService(repo StatsRepository, c cache.Cache, ttl time.Duration) *DashboardService {
	return &DashboardService{repo: repo, cache: c, ttl: ttl}
}

// Stats возвращает статистику из кэша или собирает ее заново.
// Недоступный кэш не мешает ответу.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if cached, ok, err := s.cache.Get(ctx, dashboardCacheKey); err != nil {
		utils.LogWarn("Ошибка чтения кэша статистики: %v", err)
	} else if ok {
		var stats models.DashboardStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			utils.GetMetrics().RecordCacheLookup(true)
			return &stats, nil
		}
		utils.LogWarn("Поврежденная запись кэша статистики, пересчитываем")
	}
	utils.GetMetrics().RecordCacheLookup(false)

	stats, err := s.repo.DashboardStats()
	if err != nil {
		return nil, fmt.Errorf("ошибка при расчете статистики: %w", err)
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, string(data), s.ttl); err != nil {
			utils.LogWarn("Ошибка записи кэша статистики: %v", err)
		}
	}
	return stats, nil
}

// Invalidate сбрасывает закэшированную статистику
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		utils.LogWarn("Ошибка сброса кэша статистики: %v", err)
	}
}
