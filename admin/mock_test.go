package admin

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ray-remotestate/restro/client"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Orders(ctx context.Context, status string, page, limit int) (*client.OrdersPage, error) {
	args := m.Called(status, page, limit)
	p, _ := args.Get(0).(*client.OrdersPage)
	return p, args.Error(1)
}

func (m *mockAPI) Order(ctx context.Context, id string) (*client.Order, error) {
	args := m.Called(id)
	o, _ := args.Get(0).(*client.Order)
	return o, args.Error(1)
}

func (m *mockAPI) UpdateOrderStatus(ctx context.Context, id, status string) (*client.Order, error) {
	args := m.Called(id, status)
	o, _ := args.Get(0).(*client.Order)
	return o, args.Error(1)
}

func (m *mockAPI) CancelOrder(ctx context.Context, id, reason string) (*client.Order, error) {
	args := m.Called(id, reason)
	o, _ := args.Get(0).(*client.Order)
	return o, args.Error(1)
}
