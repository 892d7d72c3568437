package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/careflow/hospital-chatbot/config"
	"github.com/careflow/hospital-chatbot/internal/session"
	"github.com/careflow/hospital-chatbot/internal/session/redisstore"
)

func TestRedisHistoryRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}

	client, err := redisstore.Conn(ctx, config.RedisConfig{
		Host:    host,
		Port:    port.Port(),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("redis connect: %v", err)
	}
	defer client.Close()

	store := redisstore.NewStore(client, 4)

	// unseen session starts empty
	hist, err := store.GetOrCreate(ctx, "s1", false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("fresh session should be empty, got %d", len(hist))
	}

	for i := 0; i < 3; i++ {
		err := store.Append(ctx, "s1",
			session.Message{Role: session.RoleUser, Content: "q"},
			session.Message{Role: session.RoleAssistant, Content: "a"},
		)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	hist, err = store.GetOrCreate(ctx, "s1", false)
	if err != nil {
		t.Fatalf("get after append: %v", err)
	}
	if len(hist) != 4 {
		t.Fatalf("history should be trimmed to 4, got %d", len(hist))
	}
	if hist[len(hist)-1].Role != session.RoleAssistant {
		t.Fatalf("last message should be the assistant turn: %+v", hist[len(hist)-1])
	}

	// sessions are isolated
	other, err := store.GetOrCreate(ctx, "s2", false)
	if err != nil {
		t.Fatalf("get other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("other session should be empty, got %d", len(other))
	}

	// reset wipes the list
	hist, err = store.GetOrCreate(ctx, "s1", true)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("reset should clear history, got %d", len(hist))
	}
	hist, err = store.GetOrCreate(ctx, "s1", false)
	if err != nil {
		t.Fatalf("get after reset: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("history should stay empty after reset, got %d", len(hist))
	}
}
