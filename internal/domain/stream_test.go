package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActivitySyncedEvent_IsValid(t *testing.T) {
	tests := []struct {
		name        string
		event       ActivitySyncedEvent
		expected    bool
		description string
	}{
		{
			name: "user with new activities",
			event: ActivitySyncedEvent{
				UserID:      "user-1",
				ActivityIDs: []uuid.UUID{uuid.New()},
				SyncedAt:    time.Now(),
			},
			expected:    true,
			description: "Should return true when user and activities are present",
		},
		{
			name: "full resync without activity list",
			event: ActivitySyncedEvent{
				UserID:     "user-1",
				FullResync: true,
			},
			expected:    true,
			description: "Full resync does not need explicit activity IDs",
		},
		{
			name: "missing user",
			event: ActivitySyncedEvent{
				ActivityIDs: []uuid.UUID{uuid.New()},
			},
			expected:    false,
			description: "Should return false when user ID is empty",
		},
		{
			name: "blank user",
			event: ActivitySyncedEvent{
				UserID:     "   ",
				FullResync: true,
			},
			expected:    false,
			description: "Whitespace-only user ID is treated as missing",
		},
		{
			name: "nothing to sync",
			event: ActivitySyncedEvent{
				UserID: "user-1",
			},
			expected:    false,
			description: "Should return false when there are no activities and no resync flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.IsValid(), tt.description)
		})
	}
}
