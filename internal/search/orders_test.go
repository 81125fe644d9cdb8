package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders map[int64]*models.Order

func (f fakeOrders) Get(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := f[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return o, nil
}

type fakeES struct {
	mu       sync.Mutex
	exists   bool
	created  map[string]any
	docs     map[string]OrderDocument
	healthOK bool
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/orders":
		if f.exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/orders":
		json.NewDecoder(r.Body).Decode(&f.created)
		f.exists = true
		w.Write([]byte(`{"acknowledged":true}`))
	case r.URL.Path == "/_cluster/health":
		if !f.healthOK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		w.Write([]byte(`{"status":"yellow"}`))
	case len(r.URL.Path) > len("/orders/_doc/"):
		var doc OrderDocument
		json.NewDecoder(r.Body).Decode(&doc)
		f.docs[r.URL.Path[len("/orders/_doc/"):]] = doc
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newIndexer(t *testing.T, orders fakeOrders) (*OrderIndexer, *fakeES) {
	t.Helper()
	es := &fakeES{docs: map[string]OrderDocument{}, healthOK: true}
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL, MaxRetries: 0})
	require.NoError(t, err)

	ix := NewOrderIndexer(client, "orders", orders)
	ix.now = func() time.Time { return time.Date(2026, 3, 1, 18, 5, 0, 0, time.UTC) }
	return ix, es
}

func TestEnsureIndexCreatesOnce(t *testing.T) {
	ix, es := newIndexer(t, fakeOrders{})

	require.NoError(t, ix.EnsureIndex(context.Background()))
	require.NotNil(t, es.created)
	assert.Contains(t, es.created, "mappings")

	es.created = nil
	require.NoError(t, ix.EnsureIndex(context.Background()))
	assert.Nil(t, es.created)
}

func TestIndexOrder(t *testing.T) {
	order := &models.Order{
		ID:         42,
		UserID:     7,
		Status:     models.OrderStatusConfirmed,
		TotalPrice: decimal.RequireFromString("275"),
		CreatedAt:  time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		Items: []models.OrderItem{
			{EventID: 3, TicketType: models.TicketTypeVIP},
			{EventID: 1, TicketType: models.TicketTypeGeneral},
			{EventID: 3, TicketType: models.TicketTypeGeneral},
		},
	}
	ix, es := newIndexer(t, fakeOrders{42: order})

	require.NoError(t, ix.NotifyConfirmation(context.Background(), 42))

	doc, ok := es.docs["42"]
	require.True(t, ok)
	assert.Equal(t, int64(7), doc.UserID)
	assert.Equal(t, "CONFIRMED", doc.Status)
	assert.Equal(t, "275.00", doc.TotalPrice)
	assert.Equal(t, []int64{1, 3}, doc.EventIDs)
	assert.Equal(t, 3, doc.ItemCount)
	assert.Equal(t, 1, doc.VIPCount)
}

func TestIndexMissingOrder(t *testing.T) {
	ix, es := newIndexer(t, fakeOrders{})

	err := ix.NotifyCancellation(context.Background(), 5, "user")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, es.docs)
}

func TestHealthCheck(t *testing.T) {
	ix, es := newIndexer(t, fakeOrders{})
	require.NoError(t, ix.HealthCheck(context.Background()))

	es.healthOK = false
	assert.Error(t, ix.HealthCheck(context.Background()))
}
