package dbhelper

import (
	"context"
	"database/sql"
	"time"

	"github.com/ray-remotestate/restro/models"
)

func CreateRestaurant(ctx context.Context, q Querier, name, address, phone string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO restaurants (name, address, phone, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, name, address, phone, time.Now().UTC()).Scan(&id)
	return id, err
}

func GetRestaurantByID(ctx context.Context, q Querier, id int64) (*models.Restaurant, error) {
	var r models.Restaurant
	err := q.QueryRowContext(ctx, `
		SELECT id, name, address, phone, created_at FROM restaurants
		WHERE id = $1`, id).
		Scan(&r.ID, &r.Name, &r.Address, &r.Phone, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func ListRestaurants(ctx context.Context, q Querier) ([]models.Restaurant, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, address, phone, created_at
		FROM restaurants
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return scanRestaurants(rows)
}

func GetRestaurantsByIDs(ctx context.Context, q Querier, ids []int64) (map[int64]models.Restaurant, error) {
	restaurants := make(map[int64]models.Restaurant, len(ids))
	if len(ids) == 0 {
		return restaurants, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, address, phone, created_at FROM restaurants
		WHERE id IN (`+inClause(1, len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	list, err := scanRestaurants(rows)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		restaurants[r.ID] = r
	}
	return restaurants, nil
}

func scanRestaurants(rows *sql.Rows) ([]models.Restaurant, error) {
	defer rows.Close()

	var restaurants []models.Restaurant
	for rows.Next() {
		var r models.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.Phone, &r.CreatedAt); err != nil {
			return nil, err
		}
		restaurants = append(restaurants, r)
	}
	return restaurants, rows.Err()
}

// DeleteRestaurant cascades to its menu items and orders.
func DeleteRestaurant(ctx context.Context, q Querier, id int64) (bool, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return affected(result)
}

func CreateMenuItem(ctx context.Context, q Querier, item models.MenuItem) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO menu_items (restaurant_id, title, description, price, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		item.RestaurantID, item.Title, item.Description, item.Price, item.IsAvailable, time.Now().UTC()).Scan(&id)
	return id, err
}

// GetMenuItemsByRestaurantIDs groups menu items by restaurant, newest first.
func GetMenuItemsByRestaurantIDs(ctx context.Context, q Querier, ids []int64) (map[int64][]models.MenuItem, error) {
	items := make(map[int64][]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, restaurant_id, title, description, price, is_available, created_at
		FROM menu_items
		WHERE restaurant_id IN (`+inClause(1, len(ids))+`)
		ORDER BY created_at DESC, id DESC`, int64Args(ids)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Title, &m.Description, &m.Price, &m.IsAvailable, &m.CreatedAt); err != nil {
			return nil, err
		}
		items[m.RestaurantID] = append(items[m.RestaurantID], m)
	}
	return items, rows.Err()
}
