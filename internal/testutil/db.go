// Package testutil provides a PostgreSQL database for repository tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"boxoffice/internal/database"

	"github.com/stretchr/testify/require"
)

// NewTestDB connects to TEST_DATABASE_URL, runs migrations and truncates all
// tables. The test is skipped when the variable is unset or the server is
// unreachable.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := database.Open(dsn)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	db.SetMaxOpenConns(20)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	Truncate(t, db)
	return db
}

func Truncate(t *testing.T, db *database.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.ExecContext(ctx, `TRUNCATE payments, order_items, orders, seats, events RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

// InsertEvent creates an event directly, bypassing the service layer.
func InsertEvent(t *testing.T, db *database.DB, capacity int, salesOpen bool) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO events (name, starts_at, capacity, sales_open, created_at)
		 VALUES ('test event', NOW() + INTERVAL '7 days', $1, $2, NOW()) RETURNING id`,
		capacity, salesOpen).Scan(&id)
	require.NoError(t, err)
	return id
}

// InsertSeat creates a free seat with label row+col.
func InsertSeat(t *testing.T, db *database.DB, eventID int64, row string, col int) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO seats (event_id, label, row_label, col, is_reserved)
		 VALUES ($1, $2, $3, $4, FALSE) RETURNING id`,
		eventID, fmt.Sprintf("%s%d", row, col), row, col).Scan(&id)
	require.NoError(t, err)
	return id
}
