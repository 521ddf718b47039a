package repository

import (
	"context"
	"time"

	"github.com/route-freshness/internal/domain"
)

// StreamRepository - очередь событий синхронизации поверх Redis Streams
type StreamRepository interface {
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeBatch читает до maxCount новых сообщений без долгой блокировки
	ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error)

	// ClaimStale перехватывает неподтверждённые сообщения старше minIdle
	ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration, maxCount int) ([]domain.StreamMessage, error)

	AckMessages(ctx context.Context, stream, group string, messageIDs []string) error

	// ReadAfter читает сообщения после afterID без consumer group: каждый
	// читатель получает все сообщения. Ждёт до block (отрицательный - не ждёт),
	// пустой результат не ошибка.
	ReadAfter(ctx context.Context, stream, afterID string, maxCount int, block time.Duration) ([]domain.StreamMessage, error)

	PublishToStream(ctx context.Context, stream string, event any) error
}
