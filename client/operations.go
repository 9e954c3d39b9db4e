package client

import (
	"context"

	"github.com/juju/errors"
)

type Address struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type User struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

type Restaurant struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type OrderItem struct {
	ID        string  `json:"_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Variation *string `json:"variation"`
	Addons    *string `json:"addons"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID              string      `json:"_id"`
	OrderID         string      `json:"orderId"`
	User            User        `json:"user"`
	Restaurant      Restaurant  `json:"restaurant"`
	Items           []OrderItem `json:"items"`
	DeliveryAddress Address     `json:"deliveryAddress"`
	OrderStatus     string      `json:"orderStatus"`
	PaymentMethod   string      `json:"paymentMethod"`
	PaidAmount      float64     `json:"paidAmount"`
	OrderAmount     float64     `json:"orderAmount"`
	DeliveryCharges float64     `json:"deliveryCharges"`
	Tipping         *float64    `json:"tipping"`
	TaxationAmount  float64     `json:"taxationAmount"`
	CreatedAt       string      `json:"createdAt"`
	DeliveryTime    *string     `json:"deliveryTime"`
	CompletedAt     *string     `json:"completedAt"`
	Reason          *string     `json:"reason"`
}

type OrdersPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}

type AuthPayload struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

const orderFields = `
	_id orderId orderStatus paymentMethod
	paidAmount orderAmount deliveryCharges tipping taxationAmount
	createdAt deliveryTime completedAt reason
	user { _id name email phone }
	restaurant { _id name address phone }
	items { _id title quantity variation addons price }
	deliveryAddress { address latitude longitude }`

const (
	ordersQuery = `query Orders($status: String, $page: Int, $limit: Int) {
	orders(status: $status, page: $page, limit: $limit) { total orders {` + orderFields + ` } }
}`
	orderQuery = `query Order($id: ID!) {
	order(id: $id) {` + orderFields + ` }
}`
	ordersCountQuery = `query OrdersCount($status: String) {
	ordersCount(status: $status)
}`
	updateOrderStatusMutation = `mutation UpdateOrderStatus($id: ID!, $status: String!) {
	updateOrderStatus(id: $id, status: $status) {` + orderFields + ` }
}`
	cancelOrderMutation = `mutation CancelOrder($id: ID!, $reason: String!) {
	cancelOrder(id: $id, reason: $reason) {` + orderFields + ` }
}`
	loginMutation = `mutation Login($email: String!, $password: String!) {
	login(email: $email, password: $password) { token email }
}`
	pingQuery = `{ __typename }`
)

// Orders fetches one page. An empty status means every status; zero page
// or limit lets the server apply its defaults.
func (c *Client) Orders(ctx context.Context, status string, page, limit int) (*OrdersPage, error) {
	vars := map[string]interface{}{}
	if status != "" {
		vars["status"] = status
	}
	if page != 0 {
		vars["page"] = page
	}
	if limit != 0 {
		vars["limit"] = limit
	}
	var out struct {
		Orders OrdersPage `json:"orders"`
	}
	if err := c.Do(ctx, ordersQuery, vars, &out); err != nil {
		return nil, errors.Annotate(err, "fetching orders")
	}
	return &out.Orders, nil
}

// Order returns nil without error when the order does not exist.
func (c *Client) Order(ctx context.Context, id string) (*Order, error) {
	var out struct {
		Order *Order `json:"order"`
	}
	if err := c.Do(ctx, orderQuery, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, errors.Annotatef(err, "fetching order %s", id)
	}
	return out.Order, nil
}

func (c *Client) OrdersCount(ctx context.Context, status string) (int, error) {
	vars := map[string]interface{}{}
	if status != "" {
		vars["status"] = status
	}
	var out struct {
		OrdersCount int `json:"ordersCount"`
	}
	if err := c.Do(ctx, ordersCountQuery, vars, &out); err != nil {
		return 0, errors.Annotate(err, "counting orders")
	}
	return out.OrdersCount, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*Order, error) {
	var out struct {
		UpdateOrderStatus *Order `json:"updateOrderStatus"`
	}
	vars := map[string]interface{}{"id": id, "status": status}
	if err := c.Do(ctx, updateOrderStatusMutation, vars, &out); err != nil {
		return nil, err
	}
	return out.UpdateOrderStatus, nil
}

func (c *Client) CancelOrder(ctx context.Context, id, reason string) (*Order, error) {
	var out struct {
		CancelOrder *Order `json:"cancelOrder"`
	}
	vars := map[string]interface{}{"id": id, "reason": reason}
	if err := c.Do(ctx, cancelOrderMutation, vars, &out); err != nil {
		return nil, err
	}
	return out.CancelOrder, nil
}

// Login exchanges credentials for a token and uses it for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthPayload, error) {
	var out struct {
		Login AuthPayload `json:"login"`
	}
	vars := map[string]interface{}{"email": email, "password": password}
	if err := c.Do(ctx, loginMutation, vars, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Login.Token)
	return &out.Login, nil
}

// Ping runs a trivial query against the current endpoint.
func (c *Client) Ping(ctx context.Context) (Endpoint, error) {
	var out struct {
		Typename string `json:"__typename"`
	}
	err := c.Do(ctx, pingQuery, nil, &out)
	return c.Endpoint(ctx), err
}
