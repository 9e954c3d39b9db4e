package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/juju/errors"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusOnTheWay  OrderStatus = "ON_THE_WAY"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// StatusAll is the list filter value meaning "no status filter".
const StatusAll = "ALL"

const (
	DefaultPaymentMethod = "CARD"
	DefaultPage          = 1
	DefaultLimit         = 20
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusAccepted,
	StatusPreparing,
	StatusOnTheWay,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s closes the order (DELIVERED or CANCELLED).
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// ValidStatusList renders the closed status set for error messages.
func ValidStatusList() string {
	names := make([]string, len(OrderStatuses))
	for i, s := range OrderStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// ParseOrderStatus does an exact, case sensitive membership test.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.IsValid() {
		return "", errors.NewNotValid(nil, fmt.Sprintf("invalid status %q; valid statuses are %s", s, ValidStatusList()))
	}
	return status, nil
}

type Address struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type Order struct {
	ID              int64       `db:"id" json:"id"`
	OrderID         string      `db:"order_id" json:"order_id"`
	UserID          int64       `db:"user_id" json:"user_id"`
	RestaurantID    int64       `db:"restaurant_id" json:"restaurant_id"`
	Status          OrderStatus `db:"order_status" json:"order_status"`
	PaymentMethod   string      `db:"payment_method" json:"payment_method"`
	PaidAmount      float64     `db:"paid_amount" json:"paid_amount"`
	OrderAmount     float64     `db:"order_amount" json:"order_amount"`
	DeliveryCharges float64     `db:"delivery_charges" json:"delivery_charges"`
	Tipping         *float64    `db:"tipping" json:"tipping,omitempty"`
	TaxationAmount  float64     `db:"taxation_amount" json:"taxation_amount"`
	DeliveryAddress Address     `db:"-" json:"delivery_address"`
	Reason          *string     `db:"reason" json:"reason,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	DeliveryTime    *time.Time  `db:"delivery_time" json:"delivery_time,omitempty"`
	CompletedAt     *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	Items           []OrderItem `db:"-" json:"items,omitempty"`
}

// CompletedAtFor returns the completed_at value a status change to status
// must store: now for terminal statuses, nil otherwise.
func CompletedAtFor(status OrderStatus, now time.Time) *time.Time {
	if !status.IsTerminal() {
		return nil
	}
	return &now
}

type OrderItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   int64   `db:"order_id" json:"order_id"`
	Title     string  `db:"title" json:"title"`
	Quantity  int     `db:"quantity" json:"quantity"`
	Variation *string `db:"variation" json:"variation,omitempty"`
	Addons    *string `db:"addons" json:"addons,omitempty"`
	Price     float64 `db:"price" json:"price"`
}

// OrderFilter selects a page of orders. An empty Status or StatusAll
// disables the status filter; any other value is compared literally.
type OrderFilter struct {
	Status string
	Page   int
	Limit  int
}

// HasStatus reports whether the filter restricts by status.
func (f OrderFilter) HasStatus() bool {
	return f.Status != "" && f.Status != StatusAll
}

// Offset is not clamped; page and limit are passed through unvalidated.
func (f OrderFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
}
