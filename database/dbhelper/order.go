package dbhelper

import (
	"context"
	"database/sql"
	"time"

	"github.com/ray-remotestate/restro/models"
)

const orderColumns = `id, order_id, user_id, restaurant_id, order_status, payment_method,
	paid_amount, order_amount, delivery_charges, tipping, taxation_amount,
	delivery_address, delivery_lat, delivery_lng, reason,
	created_at, delivery_time, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var (
		status               string
		tipping, lat, lng    sql.NullFloat64
		reason               sql.NullString
		deliveryTime, doneAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderID, &o.UserID, &o.RestaurantID, &status, &o.PaymentMethod,
		&o.PaidAmount, &o.OrderAmount, &o.DeliveryCharges, &tipping, &o.TaxationAmount,
		&o.DeliveryAddress.Address, &lat, &lng, &reason,
		&o.CreatedAt, &deliveryTime, &doneAt)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	o.Tipping = floatPtr(tipping)
	o.DeliveryAddress.Latitude = floatPtr(lat)
	o.DeliveryAddress.Longitude = floatPtr(lng)
	o.Reason = stringPtr(reason)
	if deliveryTime.Valid {
		t := deliveryTime.Time
		o.DeliveryTime = &t
	}
	if doneAt.Valid {
		t := doneAt.Time
		o.CompletedAt = &t
	}
	return &o, nil
}

// CreateOrder inserts the order row and its items. Run it inside a
// transaction so a failing item does not leave a half written order.
func CreateOrder(ctx context.Context, q Querier, o *models.Order) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO orders (order_id, user_id, restaurant_id, order_status, payment_method,
			paid_amount, order_amount, delivery_charges, tipping, taxation_amount,
			delivery_address, delivery_lat, delivery_lng, created_at, delivery_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		o.OrderID, o.UserID, o.RestaurantID, string(o.Status), o.PaymentMethod,
		o.PaidAmount, o.OrderAmount, o.DeliveryCharges, nullFloat(o.Tipping), o.TaxationAmount,
		o.DeliveryAddress.Address, nullFloat(o.DeliveryAddress.Latitude), nullFloat(o.DeliveryAddress.Longitude),
		o.CreatedAt, nullTimeArg(o.DeliveryTime)).Scan(&id)
	if err != nil {
		return 0, err
	}

	for _, item := range o.Items {
		_, err := q.ExecContext(ctx, `
			INSERT INTO order_items (order_id, title, quantity, variation, addons, price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, item.Title, item.Quantity, nullString(item.Variation), nullString(item.Addons), item.Price)
		if err != nil {
			return 0, err
		}
	}
	return id, nil
}

// GetOrderByID returns sql.ErrNoRows when the order does not exist.
func GetOrderByID(ctx context.Context, q Querier, id int64) (*models.Order, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// ListOrders returns one page ordered newest first. Page and limit are used
// as given.
func ListOrders(ctx context.Context, q Querier, filter models.OrderFilter) ([]models.Order, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if filter.HasStatus() {
		rows, err = q.QueryContext(ctx, `
			SELECT `+orderColumns+` FROM orders
			WHERE order_status = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`, filter.Status, filter.Limit, filter.Offset())
	} else {
		rows, err = q.QueryContext(ctx, `
			SELECT `+orderColumns+` FROM orders
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`, filter.Limit, filter.Offset())
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// CountOrders counts orders matching status ("" or ALL for every order).
func CountOrders(ctx context.Context, q Querier, status string) (int, error) {
	var count int
	var err error
	if status != "" && status != models.StatusAll {
		err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE order_status = $1`, status).Scan(&count)
	} else {
		err = q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count)
	}
	return count, err
}

// UpdateOrderStatus sets the status and completed_at. It reports false when
// no order has the given id.
func UpdateOrderStatus(ctx context.Context, q Querier, id int64, status models.OrderStatus, completedAt *time.Time) (bool, error) {
	result, err := q.ExecContext(ctx, `
		UPDATE orders SET order_status = $1, completed_at = $2
		WHERE id = $3`, string(status), nullTimeArg(completedAt), id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

// CancelOrder marks the order CANCELLED with a reason, whatever its status.
func CancelOrder(ctx context.Context, q Querier, id int64, reason string, completedAt time.Time) (bool, error) {
	result, err := q.ExecContext(ctx, `
		UPDATE orders SET order_status = $1, reason = $2, completed_at = $3
		WHERE id = $4`, string(models.StatusCancelled), reason, completedAt, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func nullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func GetOrderItems(ctx context.Context, q Querier, orderID int64) ([]models.OrderItem, error) {
	items, err := GetOrderItemsByOrderIDs(ctx, q, []int64{orderID})
	if err != nil {
		return nil, err
	}
	return items[orderID], nil
}

// GetOrderItemsByOrderIDs groups line items by their order in insertion order.
func GetOrderItemsByOrderIDs(ctx context.Context, q Querier, ids []int64) (map[int64][]models.OrderItem, error) {
	items := make(map[int64][]models.OrderItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, title, quantity, variation, addons, price
		FROM order_items
		WHERE order_id IN (`+inClause(1, len(ids))+`)
		ORDER BY id`, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		var variation, addons sql.NullString
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Title, &item.Quantity, &variation, &addons, &item.Price); err != nil {
			return nil, err
		}
		item.Variation = stringPtr(variation)
		item.Addons = stringPtr(addons)
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}
