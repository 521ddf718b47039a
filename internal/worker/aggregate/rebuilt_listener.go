package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
	"github.com/route-freshness/internal/worker"
)

const (
	maxBatchSize = 50
	pollBlock    = time.Second // XREAD BLOCK, заодно предел реакции на Stop
	errorSleep   = time.Second
)

// SnapshotCache - локальный кеш агрегатов процесса API
type SnapshotCache interface {
	Forget(userID string)
	Invalidate(ctx context.Context, userID string) error
}

// RebuiltListener читает stream:aggregate:rebuilt и сбрасывает снимки
// пересобранных пользователей в памяти своего процесса. Следующий запрос
// возьмёт новый снимок из Redis. Если пересборка упала, снимок удаляется
// и из Redis, чтобы следующий запрос собрал агрегат из БД.
//
// Группа не используется: событие должен увидеть каждый экземпляр API.
type RebuiltListener struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	cache      SnapshotCache
	lastID     string
}

// NewRebuiltListener создает слушателя, начиная с событий после момента запуска
func NewRebuiltListener(streamRepo repository.StreamRepository, cache SnapshotCache, logger *zap.Logger) *RebuiltListener {
	return &RebuiltListener{
		BaseWorker: worker.NewBaseWorker("aggregate-rebuilt-listener", "", logger),
		streamRepo: streamRepo,
		cache:      cache,
		lastID:     fmt.Sprintf("%d-0", time.Now().UnixMilli()),
	}
}

// Start запускает цикл чтения до Stop или отмены контекста
func (l *RebuiltListener) Start(ctx context.Context) error {
	logger := l.Logger()
	logger.Info("Starting RebuiltListener", zap.String("after_id", l.lastID))

	for {
		select {
		case <-l.StopChan():
			logger.Info("Listener stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			if _, err := l.Poll(ctx); err != nil {
				logger.Error("Failed to read rebuilt events", zap.Error(err))
				l.Pause(ctx, errorSleep)
			}
		}
	}
}

// Poll читает одну порцию событий и применяет их к кешу.
// Возвращает число прочитанных сообщений.
func (l *RebuiltListener) Poll(ctx context.Context) (int, error) {
	messages, err := l.streamRepo.ReadAfter(ctx, domain.StreamAggregateRebuilt, l.lastID, maxBatchSize, pollBlock)
	if err != nil {
		return 0, err
	}

	for _, msg := range messages {
		l.lastID = msg.ID
		l.apply(ctx, msg)
	}
	return len(messages), nil
}

func (l *RebuiltListener) apply(ctx context.Context, msg domain.StreamMessage) {
	var event domain.AggregateRebuiltEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil || event.UserID == "" {
		l.Logger().Warn("Skipping malformed rebuilt event", zap.String("message_id", msg.ID))
		return
	}

	if event.Error == "" {
		l.cache.Forget(event.UserID)
		l.Logger().Debug("Aggregate snapshot dropped",
			zap.String("user_id", event.UserID),
			zap.Uint64("version", event.Version))
		return
	}

	if err := l.cache.Invalidate(ctx, event.UserID); err != nil {
		// Forget внутри Invalidate уже сработал, в Redis остался старый снимок до TTL
		l.Logger().Warn("Failed to invalidate aggregate",
			zap.String("user_id", event.UserID),
			zap.Error(err))
	}
}
