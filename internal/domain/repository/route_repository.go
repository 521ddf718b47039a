package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/route-freshness/internal/domain"
)

// RouteRepository - хранилище сохранённых маршрутов пользователя
type RouteRepository interface {
	// ListByUser возвращает все маршруты пользователя. Маршрут, который не удалось
	// декодировать, возвращается с заполненным Err, а не обрывает выборку.
	ListByUser(ctx context.Context, userID string) ([]domain.LoadedRoute, error)

	// GetByID возвращает маршрут пользователя, domain.ErrRouteNotFound если его нет
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Route, error)

	// Create сохраняет маршрут
	Create(ctx context.Context, route *domain.Route) error
}
