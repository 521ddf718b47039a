package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
)

// dataField - поле стрима, в котором лежит JSON события
const dataField = "data"

type streamRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewStreamRepository создает новый экземпляр StreamRepository
func NewStreamRepository(client *redis.Client, logger *zap.Logger) repository.StreamRepository {
	return &streamRepository{
		client: client,
		logger: logger,
	}
}

// CreateConsumerGroup создаёт группу с позиции "$" и сам стрим, если его нет.
// Существующая группа (BUSYGROUP) не ошибка.
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	switch {
	case err == nil:
		r.logger.Info("Consumer group created",
			zap.String("stream", stream),
			zap.String("group", group))
		return nil
	case redis.HasErrorPrefix(err, "BUSYGROUP"):
		r.logger.Debug("Consumer group already exists",
			zap.String("stream", stream),
			zap.String("group", group))
		return nil
	default:
		return fmt.Errorf("create consumer group %s/%s: %w", stream, group, err)
	}
}

// ConsumeBatch читает до maxCount новых сообщений без блокировки.
// Пустой стрим - не ошибка, возвращается пустой срез.
func (r *streamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	result, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    int64(maxCount),
		Block:    -1, // без BLOCK
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read batch from %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range result {
		messages = append(messages, toMessages(s.Messages)...)
	}

	r.logger.Debug("Batch read from stream",
		zap.String("stream", stream),
		zap.Int("count", len(messages)))
	return messages, nil
}

// ClaimStale забирает себе сообщения, которые висят без ACK дольше minIdle
// у других потребителей группы (например, упавшего процесса).
func (r *streamRepository) ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration, maxCount int) ([]domain.StreamMessage, error) {
	claimed, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    int64(maxCount),
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim stale messages from %s: %w", stream, err)
	}

	if len(claimed) > 0 {
		r.logger.Info("Claimed stale messages",
			zap.String("stream", stream),
			zap.String("consumer", consumer),
			zap.Int("count", len(claimed)))
	}
	return toMessages(claimed), nil
}

// ReadAfter - XREAD без группы, для рассылки событий всем экземплярам
func (r *streamRepository) ReadAfter(ctx context.Context, stream, afterID string, maxCount int, block time.Duration) ([]domain.StreamMessage, error) {
	result, err := r.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, afterID},
		Count:   int64(maxCount),
		Block:   block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s after %s: %w", stream, afterID, err)
	}

	var messages []domain.StreamMessage
	for _, s := range result {
		messages = append(messages, toMessages(s.Messages)...)
	}
	return messages, nil
}

// AckMessages подтверждает сообщения одним XACK
func (r *streamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	if err := r.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("ack %d messages in %s: %w", len(messageIDs), stream, err)
	}

	r.logger.Debug("Messages acknowledged",
		zap.String("stream", stream),
		zap.Int("count", len(messageIDs)))
	return nil
}

// PublishToStream кладёт событие в стрим как JSON в поле data
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", stream, err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{dataField: string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", stream, err)
	}

	r.logger.Debug("Event published",
		zap.String("stream", stream),
		zap.String("message_id", id))
	return nil
}

// toMessages отдаёт сообщения без поля data с пустыми данными:
// воркер подтвердит и пропустит их
func toMessages(raw []redis.XMessage) []domain.StreamMessage {
	messages := make([]domain.StreamMessage, 0, len(raw))
	for _, msg := range raw {
		data, _ := msg.Values[dataField].(string)
		messages = append(messages, domain.StreamMessage{ID: msg.ID, Data: data})
	}
	return messages
}
