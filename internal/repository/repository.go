package repository

import (
	"context"

	"boxoffice/internal/database"
	"boxoffice/internal/service"
)

// Repositories bundles the PostgreSQL repositories behind one transaction
// boundary. It satisfies service.Store.
type Repositories struct {
	db     *database.DB
	ledger *LedgerRepository
	orders *OrderRepository
	events *EventRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		db:     db,
		ledger: NewLedgerRepository(db),
		orders: NewOrderRepository(db),
		events: NewEventRepository(db),
	}
}

// WithTx runs fn in a database transaction shared by all repositories.
func (r *Repositories) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTx(ctx, fn)
}

func (r *Repositories) Ledger() service.InventoryLedger { return r.ledger }
func (r *Repositories) Orders() service.OrderStore      { return r.orders }
func (r *Repositories) Events() service.EventStore      { return r.events }
