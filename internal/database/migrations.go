package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createEventsTable,
		createSeatsTable,
		createOrdersTable,
		createOrderItemsTable,
		createPaymentsTable,
		createOrdersExpiryIndex,
		createOrderItemsEventIndex,
	}

	for i, migration := range migrations {
		slog.Debug("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(500) NOT NULL,
    starts_at TIMESTAMPTZ NOT NULL,
    capacity INTEGER NOT NULL,
    sales_open BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (capacity > 0)
);`

const createSeatsTable = `
CREATE TABLE IF NOT EXISTS seats (
    id BIGSERIAL PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    label VARCHAR(20) NOT NULL,
    row_label VARCHAR(5) NOT NULL,
    col INTEGER NOT NULL,
    is_reserved BOOLEAN NOT NULL DEFAULT FALSE,

    UNIQUE(event_id, label)
);`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'DRAFT',
    total_price NUMERIC(10,2) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ,

    CHECK (status IN ('DRAFT', 'HELD', 'CONFIRMED', 'CANCELLED'))
);`

const createOrderItemsTable = `
CREATE TABLE IF NOT EXISTS order_items (
    id BIGSERIAL PRIMARY KEY,
    order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    event_id BIGINT NOT NULL REFERENCES events(id),
    seat_id BIGINT REFERENCES seats(id),
    ticket_type VARCHAR(20) NOT NULL DEFAULT 'GENERAL',
    price NUMERIC(10,2) NOT NULL,

    CHECK (ticket_type IN ('GENERAL', 'VIP'))
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id BIGSERIAL PRIMARY KEY,
    order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL,
    gateway_ref VARCHAR(255) NOT NULL DEFAULT '',
    amount NUMERIC(10,2) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('SUCCESS', 'FAILED'))
);`

const createOrdersExpiryIndex = `
CREATE INDEX IF NOT EXISTS orders_status_expires_at_idx
ON orders (status, expires_at);`

const createOrderItemsEventIndex = `
CREATE INDEX IF NOT EXISTS order_items_event_id_idx
ON order_items (event_id);`
