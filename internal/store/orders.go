package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"mediadesk.io/courier/internal/domain"
)

// OrderStore reads orders for the retention scan.
type OrderStore struct {
	db DBTX
}

// NewOrderStore creates an OrderStore.
func NewOrderStore(db DBTX) *OrderStore {
	return &OrderStore{db: db}
}

// QueryOrdersExpiringBetween returns non-archived orders whose
// retention_expires_at lies in [start, end], inclusive on both ends, with
// their line items attached.
func (s *OrderStore) QueryOrdersExpiringBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	query, args := pg().
		Select("id", "order_number", "client_id", "retention_expires_at", "archived").
		From(entsql.Table(tableOrders)).
		Where(entsql.And(
			entsql.GTE("retention_expires_at", start),
			entsql.LTE("retention_expires_at", end),
			entsql.EQ("archived", false),
		)).
		OrderBy("retention_expires_at", "order_number").
		Query()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expiring orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []any
	)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.ClientID, &o.RetentionExpiresAt, &o.Archived); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	items, err := s.lineItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (s *OrderStore) lineItems(ctx context.Context, orderIDs []any) (map[string][]domain.LineItem, error) {
	query, args := pg().
		Select("id", "order_id", "media_item_id").
		From(entsql.Table(tableOrderItems)).
		Where(entsql.In("order_id", orderIDs...)).
		OrderBy("order_id", "id").
		Query()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.LineItem, len(orderIDs))
	for rows.Next() {
		var li domain.LineItem
		if err := rows.Scan(&li.ID, &li.OrderID, &li.MediaItemID); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out[li.OrderID] = append(out[li.OrderID], li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return out, nil
}

// CreateOrder inserts an order and its line items.
func (s *OrderStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	query, args := pg().
		Insert(tableOrders).
		Columns("id", "order_number", "client_id", "retention_expires_at", "archived").
		Values(o.ID, o.OrderNumber, o.ClientID, o.RetentionExpiresAt, o.Archived).
		Query()
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order %s: %w", o.OrderNumber, err)
	}

	if len(o.Items) == 0 {
		return nil
	}
	ins := pg().Insert(tableOrderItems).Columns("id", "order_id", "media_item_id")
	for _, li := range o.Items {
		ins.Values(li.ID, o.ID, li.MediaItemID)
	}
	query, args = ins.Query()
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert items for order %s: %w", o.OrderNumber, err)
	}
	return nil
}

// DeleteOrdersByNumber removes orders (and, by cascade, their line items
// and ledger rows). Unknown numbers are ignored.
func (s *OrderStore) DeleteOrdersByNumber(ctx context.Context, numbers ...string) (int64, error) {
	if len(numbers) == 0 {
		return 0, nil
	}
	values := make([]any, len(numbers))
	for i, n := range numbers {
		values[i] = n
	}
	query, args := pg().
		Delete(tableOrders).
		Where(entsql.In("order_number", values...)).
		Query()
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}
	return tag.RowsAffected(), nil
}
