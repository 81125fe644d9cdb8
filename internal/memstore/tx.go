package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type txKey struct{}

// tx tracks the row locks and undo steps of one transaction.
type tx struct {
	held map[string]chan struct{}
	undo []func()
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

var errNoTx = errors.New("no transaction in context")

// lockTable hands out one semaphore per row key.
type lockTable struct {
	mu   sync.Mutex
	rows map[string]chan struct{}
}

func (l *lockTable) get(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rows == nil {
		l.rows = make(map[string]chan struct{})
	}
	ch, ok := l.rows[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.rows[key] = ch
	}
	return ch
}

// acquire blocks until t owns key or ctx is done. Re-acquiring is a no-op.
func (l *lockTable) acquire(ctx context.Context, t *tx, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	ch := l.get(key)
	select {
	case ch <- struct{}{}:
		t.held[key] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for lock %s: %w", key, ctx.Err())
	}
}

func (t *tx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

// WithTx runs fn in a transaction. Row locks taken inside are held until fn
// returns; if fn fails every write it made is undone.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	t := &tx{held: make(map[string]chan struct{})}
	defer t.release()

	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// lockRow takes the row lock when ctx carries a transaction. Outside a
// transaction single statements are atomic on their own.
func (s *Store) lockRow(ctx context.Context, key string) error {
	t := txFrom(ctx)
	if t == nil {
		return nil
	}
	return s.locks.acquire(ctx, t, key)
}

// onRollback records an undo step. Callers hold s.mu.
func onRollback(ctx context.Context, fn func()) {
	if t := txFrom(ctx); t != nil {
		t.undo = append(t.undo, fn)
	}
}

func eventKey(id int64) string { return fmt.Sprintf("event:%d", id) }
func seatKey(id int64) string  { return fmt.Sprintf("seat:%d", id) }
func orderKey(id int64) string { return fmt.Sprintf("order:%d", id) }
