package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"boxoffice/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Config содержит конфигурацию для подключения к Elasticsearch
type Config struct {
	Enabled    bool
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
}

// OrderReader loads the order being indexed.
type OrderReader interface {
	Get(ctx context.Context, orderID int64) (*models.Order, error)
}

// OrderDocument is the indexed form of an order.
type OrderDocument struct {
	OrderID    int64     `json:"order_id"`
	UserID     int64     `json:"user_id"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price"`
	EventIDs   []int64   `json:"event_ids"`
	ItemCount  int       `json:"item_count"`
	VIPCount   int       `json:"vip_count"`
	CreatedAt  time.Time `json:"created_at"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// OrderIndexer keeps an Elasticsearch index of orders in sync with the
// database. It can be used directly as a notifier.
type OrderIndexer struct {
	client *elasticsearch.Client
	index  string
	orders OrderReader
	now    func() time.Time
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return es, nil
}

func NewOrderIndexer(client *elasticsearch.Client, index string, orders OrderReader) *OrderIndexer {
	return &OrderIndexer{client: client, index: index, orders: orders, now: time.Now}
}

var orderMapping = map[string]any{
	"settings": map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"order_id":    map[string]any{"type": "long"},
			"user_id":     map[string]any{"type": "long"},
			"status":      map[string]any{"type": "keyword"},
			"total_price": map[string]any{"type": "scaled_float", "scaling_factor": 100},
			"event_ids":   map[string]any{"type": "long"},
			"item_count":  map[string]any{"type": "integer"},
			"vip_count":   map[string]any{"type": "integer"},
			"created_at":  map[string]any{"type": "date"},
			"indexed_at":  map[string]any{"type": "date"},
		},
	},
}

// EnsureIndex создает индекс если он не существует
func (ix *OrderIndexer) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{ix.index}}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", ix.index)
		return nil
	}

	body, err := json.Marshal(orderMapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: ix.index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", ix.index)
	return nil
}

// IndexOrder reads the order's current state and upserts its document.
func (ix *OrderIndexer) IndexOrder(ctx context.Context, orderID int64) error {
	order, err := ix.orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}

	doc, err := json.Marshal(ix.document(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: strconv.FormatInt(order.ID, 10),
		Body:       bytes.NewReader(doc),
	}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("failed to index order: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

func (ix *OrderIndexer) document(o *models.Order) OrderDocument {
	doc := OrderDocument{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice.StringFixed(2),
		EventIDs:   []int64{},
		ItemCount:  len(o.Items),
		CreatedAt:  o.CreatedAt,
		IndexedAt:  ix.now().UTC(),
	}
	for _, item := range o.Items {
		doc.EventIDs = append(doc.EventIDs, item.EventID)
		if item.TicketType == models.TicketTypeVIP {
			doc.VIPCount++
		}
	}
	slices.Sort(doc.EventIDs)
	doc.EventIDs = slices.Compact(doc.EventIDs)
	return doc
}

func (ix *OrderIndexer) NotifyConfirmation(ctx context.Context, orderID int64) error {
	return ix.IndexOrder(ctx, orderID)
}

func (ix *OrderIndexer) NotifyCancellation(ctx context.Context, orderID int64, _ string) error {
	return ix.IndexOrder(ctx, orderID)
}

// HealthCheck проверяет состояние Elasticsearch
func (ix *OrderIndexer) HealthCheck(ctx context.Context) error {
	res, err := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}.Do(ctx, ix.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}
	return nil
}
