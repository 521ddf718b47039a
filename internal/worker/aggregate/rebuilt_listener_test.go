package aggregate_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/worker/aggregate"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	return m.Called(ctx, stream, group).Error(0)
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, minIdle, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	return m.Called(ctx, stream, group, messageIDs).Error(0)
}

func (m *MockStreamRepository) ReadAfter(ctx context.Context, stream, afterID string, maxCount int, block time.Duration) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, afterID, maxCount, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, event any) error {
	return m.Called(ctx, stream, event).Error(0)
}

// MockSnapshotCache is a mock of SnapshotCache
type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) Forget(userID string) {
	m.Called(userID)
}

func (m *MockSnapshotCache) Invalidate(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func rebuiltMessage(t *testing.T, id string, event domain.AggregateRebuiltEvent) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

func TestRebuiltListener_Poll(t *testing.T) {
	ctx := context.Background()
	stream := &MockStreamRepository{}
	cache := &MockSnapshotCache{}
	l := aggregate.NewRebuiltListener(stream, cache, zap.NewNop())

	messages := []domain.StreamMessage{
		rebuiltMessage(t, "1-0", domain.AggregateRebuiltEvent{UserID: "user-1", Version: 2}),
		rebuiltMessage(t, "2-0", domain.AggregateRebuiltEvent{UserID: "user-2", Error: "db down"}),
		{ID: "3-0", Data: "{not json"},
		rebuiltMessage(t, "4-0", domain.AggregateRebuiltEvent{Version: 1}),
	}
	stream.On("ReadAfter", ctx, domain.StreamAggregateRebuilt, mock.AnythingOfType("string"), 50, time.Second).
		Return(messages, nil).Once()
	cache.On("Forget", "user-1").Once()
	cache.On("Invalidate", ctx, "user-2").Return(nil).Once()

	n, err := l.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	cache.AssertExpectations(t)

	// next read continues after the last seen message
	stream.On("ReadAfter", ctx, domain.StreamAggregateRebuilt, "4-0", 50, time.Second).
		Return([]domain.StreamMessage{}, nil).Once()

	n, err = l.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	stream.AssertExpectations(t)
}

func TestRebuiltListener_Poll_ReadError(t *testing.T) {
	ctx := context.Background()
	stream := &MockStreamRepository{}
	cache := &MockSnapshotCache{}
	l := aggregate.NewRebuiltListener(stream, cache, zap.NewNop())

	stream.On("ReadAfter", ctx, domain.StreamAggregateRebuilt, mock.Anything, 50, time.Second).
		Return(nil, errors.New("connection reset"))

	_, err := l.Poll(ctx)
	assert.Error(t, err)
	cache.AssertNotCalled(t, "Forget", mock.Anything)
}

func TestRebuiltListener_StopsOnStop(t *testing.T) {
	ctx := context.Background()
	stream := &MockStreamRepository{}
	l := aggregate.NewRebuiltListener(stream, &MockSnapshotCache{}, zap.NewNop())

	stream.On("ReadAfter", ctx, domain.StreamAggregateRebuilt, mock.Anything, 50, time.Second).
		After(10*time.Millisecond).
		Return([]domain.StreamMessage{}, nil)

	done := make(chan error, 1)
	go func() { done <- l.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, l.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
