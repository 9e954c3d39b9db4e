// Package dbtest opens throwaway migrated SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/models"
)

func New(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.ConnectAndMigrate(database.Config{
		Driver:       database.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "restro.db"),
		BusyTimeout:  time.Second,
		OpenAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// Fixture is a user and a restaurant orders can reference.
type Fixture struct {
	UserID       int64
	RestaurantID int64
}

func Seed(t testing.TB, db *database.DB, userName, restaurantName string) Fixture {
	t.Helper()
	ctx := context.Background()
	userID, err := dbhelper.CreateUser(ctx, db, userName, userName+"@example.com", nil)
	require.NoError(t, err)
	restaurantID, err := dbhelper.CreateRestaurant(ctx, db, restaurantName, "1 Main St", "555-0100")
	require.NoError(t, err)
	return Fixture{UserID: userID, RestaurantID: restaurantID}
}

// InsertOrder stores o directly, bypassing the order service defaults.
func InsertOrder(t testing.TB, db *database.DB, o models.Order) int64 {
	t.Helper()
	if o.Status == "" {
		o.Status = models.StatusPending
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = models.DefaultPaymentMethod
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	id, err := dbhelper.CreateOrder(context.Background(), db, &o)
	require.NoError(t, err)
	return id
}

// CountRows counts the rows of table whose column equals id.
func CountRows(t testing.TB, db *database.DB, table, column string, id int64) int {
	t.Helper()
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, table, column)
	require.NoError(t, db.QueryRowContext(context.Background(), query, id).Scan(&n))
	return n
}
