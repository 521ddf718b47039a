package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stream names (должны совпадать с сервисом синхронизации активностей)
const (
	StreamActivitySynced   = "stream:activity:synced"
	StreamAggregateRebuilt = "stream:aggregate:rebuilt"
)

// ActivitySyncedEvent - входящее событие: у пользователя появились новые активности
type ActivitySyncedEvent struct {
	UserID      string      `json:"user_id"`
	ActivityIDs []uuid.UUID `json:"activity_ids,omitempty"`
	SyncedAt    time.Time   `json:"synced_at"`
	FullResync  bool        `json:"full_resync,omitempty"`
}

// IsValid проверяет, что событие адресовано конкретному пользователю
// и несёт либо список активностей, либо признак полной пересинхронизации
func (e *ActivitySyncedEvent) IsValid() bool {
	if strings.TrimSpace(e.UserID) == "" {
		return false
	}
	return e.FullResync || len(e.ActivityIDs) > 0
}

// AggregateRebuiltEvent - результат пересборки агрегата пользователя
type AggregateRebuiltEvent struct {
	UserID        string    `json:"user_id"`
	Version       uint64    `json:"version"`
	RouteCount    int       `json:"route_count"`
	CellCount     int       `json:"cell_count"`
	TotalDistance float64   `json:"total_distance_m"`
	BuiltAt       time.Time `json:"built_at"`
	Error         string    `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
