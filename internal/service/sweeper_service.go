package service

import (
	"context"
	"time"

	"github.com/adukenov/uslugi-backend/internal/logger"
	"github.com/adukenov/uslugi-backend/internal/pkg/clock"
)

type StaleOrderRepository interface {
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// SweeperService переводит просроченные заказы без откликов в статус expired.
// Прогон идемпотентен: повторный вызов с тем же временем ничего не меняет.
type SweeperService struct {
	repo  StaleOrderRepository
	clock clock.Clock
}

func NewSweeperService(repo StaleOrderRepository, clk clock.Clock) *SweeperService {
	return &SweeperService{repo: repo, clock: clk}
}

// ExpireStaleOrders выполняет один прогон и возвращает число закрытых
// заказов.
func (s *SweeperService) ExpireStaleOrders(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	expired, err := s.repo.ExpireStale(ctx, now)
	if err != nil {
		return 0, err
	}
	if expired > 0 && logger.Log != nil {
		logger.Log.WithField("expired", expired).Info("Просроченные заказы закрыты")
	}
	return expired, nil
}
