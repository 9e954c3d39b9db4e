package database_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/database/dbtest"
	"github.com/ray-remotestate/restro/models"
)

func TestConnectAndMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restro.db")
	cfg := database.Config{Driver: database.DriverSQLite, Path: path, OpenAttempts: 1}

	db, err := database.ConnectAndMigrate(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.HealthCheck(context.Background()))
	require.NoError(t, db.Shutdown())

	db, err = database.ConnectAndMigrate(cfg)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, database.DriverSQLite, db.Driver())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(database.Config{Driver: "mysql"})
	assert.Error(t, err)
}

func TestForeignKeysCascade(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	fx := dbtest.Seed(t, db, "Ada", "Pasta Place")

	orderID := dbtest.InsertOrder(t, db, models.Order{
		OrderID:      "ORD-CASCADE1",
		UserID:       fx.UserID,
		RestaurantID: fx.RestaurantID,
		Items:        []models.OrderItem{{Title: "Carbonara", Quantity: 2, Price: 11.5}},
	})
	require.Equal(t, 1, dbtest.CountRows(t, db, "order_items", "order_id", orderID))

	deleted, err := dbhelper.DeleteUser(ctx, db, fx.UserID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = dbhelper.GetOrderByID(ctx, db, orderID)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.Zero(t, dbtest.CountRows(t, db, "order_items", "order_id", orderID))
}

func TestDeleteRestaurantCascades(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	fx := dbtest.Seed(t, db, "Ada", "Pasta Place")

	_, err := dbhelper.CreateMenuItem(ctx, db, models.MenuItem{RestaurantID: fx.RestaurantID, Title: "Lasagne", Price: 12, IsAvailable: true})
	require.NoError(t, err)
	orderID := dbtest.InsertOrder(t, db, models.Order{
		OrderID:      "ORD-CASCADE2",
		UserID:       fx.UserID,
		RestaurantID: fx.RestaurantID,
		Items:        []models.OrderItem{{Title: "Lasagne", Quantity: 1, Price: 12}},
	})

	deleted, err := dbhelper.DeleteRestaurant(ctx, db, fx.RestaurantID)
	require.NoError(t, err)
	require.True(t, deleted)

	assert.Zero(t, dbtest.CountRows(t, db, "menu_items", "restaurant_id", fx.RestaurantID))
	assert.Zero(t, dbtest.CountRows(t, db, "orders", "restaurant_id", fx.RestaurantID))
	assert.Zero(t, dbtest.CountRows(t, db, "order_items", "order_id", orderID))
	// the customer survives
	assert.Equal(t, 1, dbtest.CountRows(t, db, "users", "id", fx.UserID))
}

func TestTxRollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := dbhelper.CreateUser(ctx, tx, "Bob", "bob@example.com", nil); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	exists, err := dbhelper.IsUserExists(ctx, db, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIsErrRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("no such table: orders"), false},
		{sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{fmt.Errorf("open: %w", sqlite3.ErrBusy), true},
		{errors.New("database is locked"), true},
		{errors.New("driver: bad connection"), true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, database.IsErrRetryable(c.err), "%v", c.err)
	}
}
