package repository

import (
	"context"

	"github.com/route-freshness/internal/domain"
)

// StatsRepository интерфейс для работы со статистикой
type StatsRepository interface {
	// GetStatistics возвращает агрегированную статистику по маршрутам и активностям
	GetStatistics(ctx context.Context) (*domain.Statistics, error)
}
