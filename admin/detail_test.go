package admin

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/restro/client"
	"github.com/ray-remotestate/restro/models"
)

func TestDetailNotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("Order", "99").Return(nil, nil)

	d := NewOrderDetail(api, "99")
	require.NoError(t, d.Load(context.Background()))
	assert.True(t, d.NotFound())
	assert.Empty(t, d.Actions())
}

func TestDetailActions(t *testing.T) {
	api := &mockAPI{}
	api.On("Order", "1").Return(&client.Order{ID: "1", OrderStatus: "PREPARING"}, nil).Once()
	api.On("Order", "2").Return(&client.Order{ID: "2", OrderStatus: "DELIVERED"}, nil).Once()

	d := NewOrderDetail(api, "1")
	require.NoError(t, d.Load(context.Background()))
	var statuses []models.OrderStatus
	for _, a := range d.Actions() {
		if a.Kind == ActionSetStatus {
			statuses = append(statuses, a.Status)
		}
	}
	assert.Equal(t, []models.OrderStatus{models.StatusPending, models.StatusAccepted, models.StatusOnTheWay, models.StatusDelivered}, statuses)
	actions := d.Actions()
	assert.Equal(t, ActionCancel, actions[len(actions)-1].Kind)

	done := NewOrderDetail(api, "2")
	require.NoError(t, done.Load(context.Background()))
	assert.Empty(t, done.Actions())
}

func TestDetailActionsUnderStrictTransitions(t *testing.T) {
	api := &mockAPI{}
	api.On("Order", "1").Return(&client.Order{ID: "1", OrderStatus: "PREPARING"}, nil)

	d := NewOrderDetail(api, "1", WithTransitions(models.Strict{}))
	require.NoError(t, d.Load(context.Background()))
	assert.Equal(t, []Action{
		{Kind: ActionSetStatus, Status: models.StatusOnTheWay},
		{Kind: ActionCancel, Status: models.StatusCancelled},
	}, d.Actions())
}

func TestDetailRefetchesAfterEveryAction(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateOrderStatus", "1", "ON_THE_WAY").Return(&client.Order{ID: "1", OrderStatus: "ON_THE_WAY"}, nil).Once()
	// the server is the source of truth, even when it disagrees with the mutation result
	api.On("Order", "1").Return(&client.Order{ID: "1", OrderStatus: "PREPARING"}, nil).Once()
	api.On("CancelOrder", "1", "kitchen closed").Return(&client.Order{ID: "1", OrderStatus: "CANCELLED"}, nil).Once()
	api.On("Order", "1").Return(&client.Order{ID: "1", OrderStatus: "CANCELLED"}, nil).Once()

	d := NewOrderDetail(api, "1")
	require.NoError(t, d.SetStatus(context.Background(), "ON_THE_WAY"))
	assert.Equal(t, "PREPARING", d.Order().OrderStatus)

	require.NoError(t, d.Cancel(context.Background(), "  kitchen closed "))
	assert.Equal(t, "CANCELLED", d.Order().OrderStatus)
	api.AssertExpectations(t)
}

func TestCancelRejectsBlankReason(t *testing.T) {
	api := &mockAPI{}
	d := NewOrderDetail(api, "1")

	for _, reason := range []string{"", "   ", "\t\n"} {
		err := d.Cancel(context.Background(), reason)
		assert.Equal(t, ErrReasonRequired, err)
		assert.True(t, errors.Is(err, errors.NotValid))
	}
	api.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "Order", mock.Anything)
}

func TestLineTotals(t *testing.T) {
	api := &mockAPI{}
	api.On("Order", "1").Return(&client.Order{
		ID:          "1",
		OrderStatus: "PENDING",
		Items: []client.OrderItem{
			{Title: "Soup", Quantity: 3, Price: 0.1},
			{Title: "Bread", Quantity: 2, Price: 2.35},
		},
	}, nil)

	d := NewOrderDetail(api, "1")
	require.NoError(t, d.Load(context.Background()))
	assert.True(t, LineTotal(d.Order().Items[0]).Equal(decimal.RequireFromString("0.3")))
	assert.Equal(t, "5.00", d.ItemsTotal().StringFixed(2))
}
