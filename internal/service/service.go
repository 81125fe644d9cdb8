package service

// Services groups the application services used by the HTTP layer.
type Services struct {
	Reservations *ReservationEngine
	Sweeper      *Sweeper
	Events       *EventService
}

// Store is everything the services need from persistence. Both the
// PostgreSQL repositories and the in-memory store satisfy it.
type Store interface {
	Transactor
	Ledger() InventoryLedger
	Orders() OrderStore
	Events() EventStore
}

func NewServices(store Store, payments PaymentAuthorizer, opts ...ReservationOption) *Services {
	engine := NewReservationEngine(store, store.Ledger(), store.Orders(), payments, opts...)

	return &Services{
		Reservations: engine,
		Sweeper:      NewSweeper(engine, store.Orders()),
		Events:       NewEventService(store, store.Events(), store.Ledger(), engine.clock),
	}
}
