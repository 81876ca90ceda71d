package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recurring-planner/internal/model"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(db)
}

func createUser(t *testing.T, s *Store, telegramID int64) *model.User {
	t.Helper()
	user, err := s.Users.Touch(testCtx(t), Profile{TelegramID: telegramID, FirstName: "Test"}, time.Now())
	require.NoError(t, err)
	return user
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}
