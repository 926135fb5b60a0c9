package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `
	id, owner_id, payment_method, payment_status, order_status,
	subtotal, tax, delivery_charge, total,
	ship_name, ship_phone, ship_line1, ship_line2, ship_city, ship_state, ship_postal_code,
	gateway_order_id, gateway_amount, gateway_currency, gateway_payment_id, gateway_signature,
	created_at, updated_at, paid_at, delivered_at, cancelled_at
`

func (r *Repository) Create(ctx context.Context, order domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	var gwOrderID, gwCurrency, gwPaymentID, gwSignature *string
	var gwAmount *int64
	if order.Gateway != nil {
		gwOrderID = &order.Gateway.OrderID
		gwAmount = &order.Gateway.Amount
		gwCurrency = &order.Gateway.Currency
		if order.Gateway.PaymentID != "" {
			gwPaymentID = &order.Gateway.PaymentID
		}
		if order.Gateway.Signature != "" {
			gwSignature = &order.Gateway.Signature
		}
	}

	_, err = tx.Exec(ctx, query,
		order.ID,
		order.OwnerID,
		order.PaymentMethod,
		order.PaymentStatus,
		order.Status,
		order.Amounts.Subtotal,
		order.Amounts.Tax,
		order.Amounts.DeliveryCharge,
		order.Amounts.Total,
		order.ShippingAddress.Name,
		order.ShippingAddress.Phone,
		order.ShippingAddress.Line1,
		order.ShippingAddress.Line2,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.PostalCode,
		gwOrderID,
		gwAmount,
		gwCurrency,
		gwPaymentID,
		gwSignature,
		order.CreatedAt,
		order.UpdatedAt,
		order.PaidAt,
		order.DeliveredAt,
		order.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, kind, product_ref, name, unit_price, quantity, image_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, item := range order.Items {
		var productRef *string
		if item.ProductRef != "" {
			productRef = &item.ProductRef
		}
		if _, err := tx.Exec(ctx, itemQuery,
			order.ID,
			i,
			item.Kind,
			productRef,
			item.Name,
			item.UnitPrice,
			item.Quantity,
			item.ImageRef,
		); err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]

	return order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR owner_id = $1)
		  AND ($2::text IS NULL OR order_status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	var ownerFilter *string
	if filter.OwnerID != "" {
		ownerFilter = &filter.OwnerID
	}
	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	offset := (page - 1) * pageSize

	rows, err := r.pool.Query(ctx, query, ownerFilter, statusFilter, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	if len(ids) > 0 {
		items, err := r.loadItems(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			orders[i].Items = items[orders[i].ID]
		}
	}

	return orders, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	query := `
		UPDATE orders
		SET order_status = $2,
			updated_at = $3,
			delivered_at = CASE WHEN $2 = 'delivered' THEN $3 ELSE delivered_at END,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancelled_at END
		WHERE id = $1 AND order_status = $4
	`

	result, err := r.pool.Exec(ctx, query, id, to, at, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.staleOrMissing(ctx, id)
	}

	return nil
}

func (r *Repository) MarkPaid(ctx context.Context, id, paymentID, signature string, at time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'paid',
			order_status = 'confirmed',
			gateway_payment_id = $2,
			gateway_signature = $3,
			paid_at = $4,
			updated_at = $4
		WHERE id = $1 AND payment_status = 'pending' AND order_status = 'created'
	`

	result, err := r.pool.Exec(ctx, query, id, paymentID, signature, at)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	if result.RowsAffected() == 0 {
		if err := r.exists(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}

func (r *Repository) Stats(ctx context.Context, since time.Time) (ports.OrderStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total) FILTER (WHERE payment_status = 'paid'), 0),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE order_status IN ('created', 'confirmed', 'preparing'))
		FROM orders
	`

	var stats ports.OrderStats
	err := r.pool.QueryRow(ctx, query, since).Scan(
		&stats.TotalOrders,
		&stats.TotalRevenue,
		&stats.TodayOrders,
		&stats.PendingOrders,
	)
	if err != nil {
		return ports.OrderStats{}, fmt.Errorf("query order stats: %w", err)
	}

	return stats, nil
}

func (r *Repository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.LineItem, error) {
	query := `
		SELECT order_id, kind, product_ref, name, unit_price, quantity, image_ref
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]domain.LineItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var item domain.LineItem
		var productRef *string
		if err := rows.Scan(
			&orderID,
			&item.Kind,
			&productRef,
			&item.Name,
			&item.UnitPrice,
			&item.Quantity,
			&item.ImageRef,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if productRef != nil {
			item.ProductRef = *productRef
		}
		items[orderID] = append(items[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func (r *Repository) staleOrMissing(ctx context.Context, id string) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	return ports.ErrStaleStatus
}

func (r *Repository) exists(ctx context.Context, id string) error {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM orders WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var gwOrderID, gwCurrency, gwPaymentID, gwSignature *string
	var gwAmount *int64

	err := row.Scan(
		&order.ID,
		&order.OwnerID,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Status,
		&order.Amounts.Subtotal,
		&order.Amounts.Tax,
		&order.Amounts.DeliveryCharge,
		&order.Amounts.Total,
		&order.ShippingAddress.Name,
		&order.ShippingAddress.Phone,
		&order.ShippingAddress.Line1,
		&order.ShippingAddress.Line2,
		&order.ShippingAddress.City,
		&order.ShippingAddress.State,
		&order.ShippingAddress.PostalCode,
		&gwOrderID,
		&gwAmount,
		&gwCurrency,
		&gwPaymentID,
		&gwSignature,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.PaidAt,
		&order.DeliveredAt,
		&order.CancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if gwOrderID != nil {
		gw := domain.GatewayRef{OrderID: *gwOrderID}
		if gwAmount != nil {
			gw.Amount = *gwAmount
		}
		if gwCurrency != nil {
			gw.Currency = *gwCurrency
		}
		if gwPaymentID != nil {
			gw.PaymentID = *gwPaymentID
		}
		if gwSignature != nil {
			gw.Signature = *gwSignature
		}
		order.Gateway = &gw
	}

	return &order, nil
}
