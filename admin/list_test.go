package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/restro/client"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func order(id, orderID, customer, restaurant string, created time.Time) client.Order {
	return client.Order{
		ID:            id,
		OrderID:       orderID,
		User:          client.User{Name: customer},
		Restaurant:    client.Restaurant{Name: restaurant},
		OrderStatus:   "PENDING",
		PaymentMethod: "CARD",
		OrderAmount:   12.5,
		CreatedAt:     created.Format(time.RFC3339Nano),
	}
}

func samplePage() *client.OrdersPage {
	return &client.OrdersPage{
		Total: 42,
		Orders: []client.Order{
			order("1", "ORD-AAAA0001", "Doe, Jane", `Joe's "Best" Pizza`, now.Add(-time.Hour)),
			order("2", "ORD-AAAA0002", "Ada Lovelace", "Noodle Bar", now.AddDate(0, 0, -3)),
			order("3", "ORD-AAAA0003", "Grace Hopper", "Pasta Place", now.AddDate(0, 0, -20)),
			order("4", "ORD-AAAA0004", "Alan Turing", "Noodle Bar", now.AddDate(0, -3, 0)),
		},
	}
}

func TestLoadPassesStatusFilter(t *testing.T) {
	api := &mockAPI{}
	api.On("Orders", "", 1, 20).Return(samplePage(), nil).Once()
	api.On("Orders", "DELIVERED", 1, 20).Return(&client.OrdersPage{}, nil).Once()

	l := NewOrderList(api, testclock.NewClock(now))
	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, 42, l.Total())
	assert.Len(t, l.Orders(), 4)

	l.Page = 3
	require.NoError(t, l.SetStatusFilter(context.Background(), "DELIVERED"))
	assert.Equal(t, 1, l.Page)
	assert.Empty(t, l.Orders())
	api.AssertExpectations(t)
}

func TestRowsFilterTheLoadedPageOnly(t *testing.T) {
	api := &mockAPI{}
	api.On("Orders", "", 1, 20).Return(samplePage(), nil)
	l := NewOrderList(api, testclock.NewClock(now))
	require.NoError(t, l.Load(context.Background()))

	l.SearchQuery = "noodle"
	assert.Len(t, l.Rows(), 2)
	l.SearchQuery = "aaaa0003"
	require.Len(t, l.Rows(), 1)
	assert.Equal(t, "Grace Hopper", l.Rows()[0].User.Name)

	l.SearchQuery = ""
	l.DateFilter = DateToday
	assert.Len(t, l.Rows(), 1)
	l.DateFilter = DateWeek
	assert.Len(t, l.Rows(), 2)
	l.DateFilter = DateMonth
	assert.Len(t, l.Rows(), 3)
	l.DateFilter = DateAll
	assert.Len(t, l.Rows(), 4)

	// filtering never triggers another fetch
	api.AssertNumberOfCalls(t, "Orders", 1)
}

func TestParseDateFilter(t *testing.T) {
	f, err := ParseDateFilter("Week")
	require.NoError(t, err)
	assert.Equal(t, DateWeek, f)
	f, err = ParseDateFilter("")
	require.NoError(t, err)
	assert.Equal(t, DateAll, f)
	_, err = ParseDateFilter("year")
	assert.Error(t, err)
}

func TestExportCSVQuotesAndRoundTrips(t *testing.T) {
	api := &mockAPI{}
	api.On("Orders", "", 1, 20).Return(samplePage(), nil)
	l := NewOrderList(api, testclock.NewClock(now))
	require.NoError(t, l.Load(context.Background()))
	l.DateFilter = DateToday

	var buf bytes.Buffer
	require.NoError(t, l.ExportCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Order ID", "Customer", "Restaurant", "Status", "Amount", "Payment", "Date"}, records[0])
	assert.Equal(t, []string{"ORD-AAAA0001", "Doe, Jane", `Joe's "Best" Pizza`, "PENDING", "12.50", "CARD", "2024-06-15"}, records[1])
	for _, r := range records {
		assert.Len(t, r, 7)
	}
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	api := &mockAPI{}
	api.On("Orders", "", 1, 20).Return(samplePage(), nil)
	api.On("UpdateOrderStatus", "1", "ACCEPTED").Return(&client.Order{ID: "1", OrderStatus: "ACCEPTED"}, nil).Once()
	api.On("UpdateOrderStatus", "2", "ACCEPTED").Return(nil, errors.New("connection reset")).Once()
	api.On("UpdateOrderStatus", "3", "ACCEPTED").Return(&client.Order{ID: "3", OrderStatus: "ACCEPTED"}, nil).Once()

	l := NewOrderList(api, testclock.NewClock(now))
	err := l.BulkUpdate(context.Background(), []string{"1", "2", "3"}, "ACCEPTED")
	require.Error(t, err)

	var bulkErr *BulkError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, 1, bulkErr.Failed)
	assert.Equal(t, 3, bulkErr.Total)
	assert.Equal(t, "bulk update failed: 1 of 3 orders not updated", err.Error())
	assert.Contains(t, bulkErr.Err.Error(), "order 2")

	// every mutation was issued and the page was reloaded afterwards
	api.AssertNumberOfCalls(t, "UpdateOrderStatus", 3)
	api.AssertNumberOfCalls(t, "Orders", 1)
	api.AssertExpectations(t)
}

func TestBulkUpdateCountsUnknownOrderAsFailure(t *testing.T) {
	api := &mockAPI{}
	api.On("Orders", "", 1, 20).Return(samplePage(), nil)
	api.On("UpdateOrderStatus", "1", "ACCEPTED").Return(&client.Order{ID: "1", OrderStatus: "ACCEPTED"}, nil).Once()
	api.On("UpdateOrderStatus", "999999", "ACCEPTED").Return(nil, nil).Once()

	l := NewOrderList(api, testclock.NewClock(now))
	err := l.BulkUpdate(context.Background(), []string{"1", "999999"}, "ACCEPTED")

	var bulkErr *BulkError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, 1, bulkErr.Failed)
	assert.Equal(t, 2, bulkErr.Total)
	assert.True(t, errors.Is(bulkErr.Err, errors.NotFound))
	api.AssertExpectations(t)
}

func TestBulkUpdateAllSucceed(t *testing.T) {
	api := &mockAPI{}
	api.On("Orders", "", 1, 20).Return(samplePage(), nil)
	api.On("UpdateOrderStatus", mock.Anything, "PREPARING").Return(&client.Order{}, nil)

	l := NewOrderList(api, testclock.NewClock(now))
	require.NoError(t, l.BulkUpdate(context.Background(), []string{"1", "2"}, "PREPARING"))
	api.AssertNumberOfCalls(t, "UpdateOrderStatus", 2)
}
