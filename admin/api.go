package admin

import (
	"context"

	"github.com/ray-remotestate/restro/client"
)

// API is the part of the GraphQL client the admin views drive.
// *client.Client implements it.
type API interface {
	Orders(ctx context.Context, status string, page, limit int) (*client.OrdersPage, error)
	Order(ctx context.Context, id string) (*client.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*client.Order, error)
	CancelOrder(ctx context.Context, id, reason string) (*client.Order, error)
}

var _ API = (*client.Client)(nil)
