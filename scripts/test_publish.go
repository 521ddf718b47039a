//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/route-freshness/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	userID := flag.String("user", "user-1", "User whose aggregate should be rebuilt")
	full := flag.Bool("full", false, "Send full_resync instead of activity ids")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := domain.ActivitySyncedEvent{
		UserID:     *userID,
		SyncedAt:   time.Now().UTC(),
		FullResync: *full,
	}
	if !*full {
		event.ActivityIDs = []uuid.UUID{uuid.New()}
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Запоминаем хвост стрима ответов, чтобы не читать старые события
	lastID := "$"
	if last, err := client.XRevRangeN(ctx, domain.StreamAggregateRebuilt, "+", "-", 1).Result(); err == nil && len(last) > 0 {
		lastID = last[0].ID
	}

	// Публикация в стрим
	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamActivitySynced,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamActivitySynced)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   User ID: %s\n", event.UserID)

	fmt.Printf("\nWaiting for response in %s...\n", domain.StreamAggregateRebuilt)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamAggregateRebuilt, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			log.Fatalf("Failed to read responses: %v", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				raw, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var rebuilt domain.AggregateRebuiltEvent
				if err := json.Unmarshal([]byte(raw), &rebuilt); err != nil || rebuilt.UserID != event.UserID {
					continue
				}

				pretty, _ := json.MarshalIndent(rebuilt, "", "  ")
				fmt.Printf("\nResponse received:\n%s\n", pretty)
				return
			}
		}
	}

	fmt.Println("Timeout waiting for response")
}
