package dbhelper_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/database/dbtest"
	"github.com/ray-remotestate/restro/models"
)

func ptr[T any](v T) *T { return &v }

func TestCreateAndGetOrder(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	fx := dbtest.Seed(t, db, "Ada", "Pasta Place")
	created := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)

	id := dbtest.InsertOrder(t, db, models.Order{
		OrderID:         "ORD-0000AAAA",
		UserID:          fx.UserID,
		RestaurantID:    fx.RestaurantID,
		PaidAmount:      25,
		OrderAmount:     25,
		DeliveryCharges: 2.5,
		Tipping:         ptr(3.0),
		TaxationAmount:  1.25,
		DeliveryAddress: models.Address{Address: "42 Side St", Latitude: ptr(52.5), Longitude: ptr(13.4)},
		CreatedAt:       created,
		Items: []models.OrderItem{
			{Title: "Lasagne", Quantity: 1, Price: 12},
			{Title: "Tiramisu", Quantity: 2, Price: 5.5, Variation: ptr("large"), Addons: ptr("cream")},
		},
	})

	o, err := dbhelper.GetOrderByID(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, "ORD-0000AAAA", o.OrderID)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, "CARD", o.PaymentMethod)
	assert.True(t, o.CreatedAt.Equal(created))
	assert.Nil(t, o.CompletedAt)
	assert.Nil(t, o.Reason)
	require.NotNil(t, o.Tipping)
	assert.Equal(t, 3.0, *o.Tipping)
	assert.Equal(t, "42 Side St", o.DeliveryAddress.Address)
	require.NotNil(t, o.DeliveryAddress.Latitude)
	assert.Equal(t, 52.5, *o.DeliveryAddress.Latitude)

	items, err := dbhelper.GetOrderItems(ctx, db, id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Lasagne", items[0].Title)
	assert.Nil(t, items[0].Variation)
	assert.Equal(t, "large", *items[1].Variation)
	assert.Equal(t, 2, items[1].Quantity)

	_, err = dbhelper.GetOrderByID(ctx, db, id+100)
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestListOrdersPagination(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	fx := dbtest.Seed(t, db, "Ada", "Pasta Place")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	// 25 orders, one minute apart; every fifth one delivered
	for i := 0; i < 25; i++ {
		status := models.StatusPending
		if i%5 == 0 {
			status = models.StatusDelivered
		}
		dbtest.InsertOrder(t, db, models.Order{
			OrderID:      fmt.Sprintf("ORD-%08d", i),
			UserID:       fx.UserID,
			RestaurantID: fx.RestaurantID,
			Status:       status,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}

	first, err := dbhelper.ListOrders(ctx, db, models.OrderFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "ORD-00000024", first[0].OrderID)
	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].CreatedAt.After(first[i-1].CreatedAt))
	}

	last, err := dbhelper.ListOrders(ctx, db, models.OrderFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, last, 5)
	assert.Equal(t, "ORD-00000000", last[4].OrderID)

	delivered, err := dbhelper.ListOrders(ctx, db, models.OrderFilter{Status: "DELIVERED", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, delivered, 5)

	all, err := dbhelper.ListOrders(ctx, db, models.OrderFilter{Status: models.StatusAll, Page: 1, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, all, 25)

	total, err := dbhelper.CountOrders(ctx, db, "")
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	total, err = dbhelper.CountOrders(ctx, db, "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	total, err = dbhelper.CountOrders(ctx, db, "delivered")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestUpdateAndCancelOrder(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	fx := dbtest.Seed(t, db, "Ada", "Pasta Place")
	id := dbtest.InsertOrder(t, db, models.Order{OrderID: "ORD-UPD00001", UserID: fx.UserID, RestaurantID: fx.RestaurantID})
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	ok, err := dbhelper.UpdateOrderStatus(ctx, db, id, models.StatusDelivered, &now)
	require.NoError(t, err)
	require.True(t, ok)
	o, err := dbhelper.GetOrderByID(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, o.Status)
	require.NotNil(t, o.CompletedAt)
	assert.True(t, o.CompletedAt.Equal(now))

	ok, err = dbhelper.UpdateOrderStatus(ctx, db, id, models.StatusPreparing, nil)
	require.NoError(t, err)
	require.True(t, ok)
	o, err = dbhelper.GetOrderByID(ctx, db, id)
	require.NoError(t, err)
	assert.Nil(t, o.CompletedAt)

	ok, err = dbhelper.CancelOrder(ctx, db, id, "customer called", now)
	require.NoError(t, err)
	require.True(t, ok)
	o, err = dbhelper.GetOrderByID(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, o.Status)
	assert.Equal(t, "customer called", *o.Reason)

	ok, err = dbhelper.UpdateOrderStatus(ctx, db, id+1, models.StatusAccepted, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchLookups(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	a := dbtest.Seed(t, db, "Ada", "Pasta Place")
	b := dbtest.Seed(t, db, "Grace", "Noodle Bar")

	users, err := dbhelper.GetUsersByIDs(ctx, db, []int64{a.UserID, b.UserID, 999})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "Grace", users[b.UserID].Name)

	restaurants, err := dbhelper.GetRestaurantsByIDs(ctx, db, []int64{a.RestaurantID})
	require.NoError(t, err)
	assert.Equal(t, "Pasta Place", restaurants[a.RestaurantID].Name)

	_, err = dbhelper.CreateMenuItem(ctx, db, models.MenuItem{RestaurantID: b.RestaurantID, Title: "Ramen", Price: 9, IsAvailable: true})
	require.NoError(t, err)
	menus, err := dbhelper.GetMenuItemsByRestaurantIDs(ctx, db, []int64{a.RestaurantID, b.RestaurantID})
	require.NoError(t, err)
	assert.Empty(t, menus[a.RestaurantID])
	require.Len(t, menus[b.RestaurantID], 1)
	assert.Equal(t, "Ramen", menus[b.RestaurantID][0].Title)

	empty, err := dbhelper.GetOrderItemsByOrderIDs(ctx, db, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
