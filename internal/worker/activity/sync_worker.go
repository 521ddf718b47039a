package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
	"github.com/route-freshness/internal/usecase/dto"
	"github.com/route-freshness/internal/worker"
)

const (
	maxBatchSize    = 20                     // максимум сообщений за раз
	emptyQueueSleep = 100 * time.Millisecond // пауза если очередь пуста
	errorSleep      = time.Second            // пауза при ошибке чтения
	retryBackoff    = 200 * time.Millisecond
	staleAfter      = time.Minute // сообщение без ACK дольше - забираем у другого потребителя
)

var errMissingData = errors.New("missing 'data' field")

// AggregateRefresher пересобирает агрегат пользователя
type AggregateRefresher interface {
	RefreshAggregate(ctx context.Context, userID string) (*dto.RefreshResponse, error)
}

// SyncWorker слушает события синхронизации активностей и пересобирает
// агрегаты затронутых пользователей. Пользователь пересобирается один раз
// на batch, сколько бы событий по нему ни пришло.
type SyncWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	refresher    AggregateRefresher
	consumerName string
	maxRetries   int
}

// NewSyncWorker создает новый SyncWorker
func NewSyncWorker(
	streamRepo repository.StreamRepository,
	refresher AggregateRefresher,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *SyncWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	if maxRetries < 1 {
		maxRetries = 1
	}

	return &SyncWorker{
		BaseWorker:   worker.NewBaseWorker("activity-sync", consumerGroup, logger),
		streamRepo:   streamRepo,
		refresher:    refresher,
		consumerName: consumerName,
		maxRetries:   maxRetries,
	}
}

// Start запускает воркер
func (w *SyncWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting SyncWorker (batch mode)",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamActivitySynced, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.ProcessBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.Pause(ctx, errorSleep)
				continue
			}

			if processed == 0 {
				w.Pause(ctx, emptyQueueSleep)
			}
		}
	}
}

// ProcessBatch читает и обрабатывает один batch сообщений.
// Возвращает количество прочитанных сообщений.
func (w *SyncWorker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	// 1. Читаем до maxBatchSize сообщений (неблокирующий режим)
	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamActivitySynced,
		w.ConsumerGroup(),
		w.consumerName,
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	// Новых нет - подбираем зависшие после падения других потребителей
	if len(messages) == 0 {
		messages, err = w.streamRepo.ClaimStale(
			ctx,
			domain.StreamActivitySynced,
			w.ConsumerGroup(),
			w.consumerName,
			staleAfter,
			maxBatchSize,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to claim stale messages: %w", err)
		}
	}

	if len(messages) == 0 {
		return 0, nil
	}

	logger.Debug("Processing batch", zap.Int("message_count", len(messages)))

	// 2. Группируем события по пользователю, сохраняя порядок
	var users []string
	messageIDs := make(map[string][]string)
	var invalid []string

	for _, msg := range messages {
		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			invalid = append(invalid, msg.ID)
			continue
		}

		if _, seen := messageIDs[event.UserID]; !seen {
			users = append(users, event.UserID)
		}
		messageIDs[event.UserID] = append(messageIDs[event.UserID], msg.ID)
	}

	// ACK битых сообщений, чтобы не застревали
	if len(invalid) > 0 {
		if err := w.streamRepo.AckMessages(ctx, domain.StreamActivitySynced, w.ConsumerGroup(), invalid); err != nil {
			logger.Error("Failed to ack invalid messages", zap.Error(err))
		}
	}

	// 3. Пересобираем агрегат каждого пользователя один раз
	var failed int
	for _, userID := range users {
		event := w.refresh(ctx, userID)
		if event.Error != "" {
			failed++
		}

		// 4. Публикуем результат
		if err := w.streamRepo.PublishToStream(ctx, domain.StreamAggregateRebuilt, event); err != nil {
			logger.Error("Failed to publish rebuilt event",
				zap.String("user_id", userID),
				zap.Error(err))
		}

		// 5. ACK сообщений пользователя
		if err := w.streamRepo.AckMessages(ctx, domain.StreamActivitySynced, w.ConsumerGroup(), messageIDs[userID]); err != nil {
			logger.Error("Failed to ack messages",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	logger.Info("Batch processed",
		zap.Int("messages", len(messages)),
		zap.Int("users", len(users)),
		zap.Int("invalid", len(invalid)),
		zap.Int("failed", failed))

	return len(messages), nil
}

// refresh пересобирает агрегат с повторами. Исчерпанные повторы
// превращаются в событие с Error, а не в ошибку batch.
func (w *SyncWorker) refresh(ctx context.Context, userID string) *domain.AggregateRebuiltEvent {
	var lastErr error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		resp, err := w.refresher.RefreshAggregate(ctx, userID)
		if err == nil {
			return &domain.AggregateRebuiltEvent{
				UserID:        userID,
				Version:       resp.Version,
				RouteCount:    resp.RouteCount,
				CellCount:     resp.CellCount,
				TotalDistance: resp.TotalDistance,
				BuiltAt:       resp.BuiltAt,
			}
		}

		lastErr = err
		w.Logger().Warn("Aggregate refresh failed",
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < w.maxRetries && !w.Pause(ctx, retryBackoff*time.Duration(attempt)) {
			break
		}
	}

	return &domain.AggregateRebuiltEvent{
		UserID:  userID,
		BuiltAt: time.Now().UTC(),
		Error:   lastErr.Error(),
	}
}

// parseMessage парсит сообщение из стрима в ActivitySyncedEvent
func parseMessage(msg domain.StreamMessage) (*domain.ActivitySyncedEvent, error) {
	if msg.Data == "" {
		return nil, errMissingData
	}

	var event domain.ActivitySyncedEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if !event.IsValid() {
		return nil, fmt.Errorf("invalid event for user %q", event.UserID)
	}

	return &event, nil
}
