// Package testutil provides in-memory collaborators for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"qc-tracker/backend/internal/database"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/repositories"

	"gorm.io/gorm/logger"
)

// NewSQLiteStore returns a migrated store backed by a private in-memory sqlite
// database that is closed when the test ends.
func NewSQLiteStore(t testing.TB) *repositories.GormStore {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:qc_%s?mode=memory&cache=shared", models.NewID()),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     logger.Silent,
	})
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}

	store := repositories.NewGormStore(pool)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// FakeSender records messages instead of delivering them. Err makes every send
// fail; Delay makes sends block until it elapses or the context ends.
type FakeSender struct {
	mu    sync.Mutex
	Err   error
	Delay time.Duration
	sent  []SentMessage
}

func (f *FakeSender) Send(ctx context.Context, to, subject, body string) error {
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.sent = append(f.sent, SentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (f *FakeSender) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}
