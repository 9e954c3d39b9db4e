package admin

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"

	"github.com/ray-remotestate/restro/client"
	"github.com/ray-remotestate/restro/models"
)

var ErrReasonRequired = errors.NewNotValid(nil, "cancellation reason is required")

type ActionKind string

const (
	ActionSetStatus ActionKind = "set-status"
	ActionCancel    ActionKind = "cancel"
)

type Action struct {
	Kind   ActionKind
	Status models.OrderStatus
}

// OrderDetail shows one order. Every action re-reads the order afterwards,
// so Order always reflects the last state confirmed by the server.
type OrderDetail struct {
	api    API
	id     string
	policy models.TransitionPolicy
	order  *client.Order
}

type DetailOption func(*OrderDetail)

// WithTransitions narrows the offered actions to the moves policy allows.
func WithTransitions(policy models.TransitionPolicy) DetailOption {
	return func(d *OrderDetail) { d.policy = policy }
}

func NewOrderDetail(api API, id string, opts ...DetailOption) *OrderDetail {
	d := &OrderDetail{api: api, id: id, policy: models.Permissive{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *OrderDetail) Load(ctx context.Context) error {
	o, err := d.api.Order(ctx, d.id)
	if err != nil {
		return errors.Trace(err)
	}
	d.order = o
	return nil
}

func (d *OrderDetail) Order() *client.Order { return d.order }

// NotFound reports whether the last load found no order.
func (d *OrderDetail) NotFound() bool { return d.order == nil }

// nextStatuser is implemented by policies with an explicit allow-list.
type nextStatuser interface {
	NextStatuses(models.OrderStatus) []models.OrderStatus
}

// Actions offers the status moves and cancel for open orders, and nothing
// for delivered or cancelled ones. Without an allow-list every other
// non-cancelled status is offered.
func (d *OrderDetail) Actions() []Action {
	if d.order == nil {
		return nil
	}
	current := models.OrderStatus(d.order.OrderStatus)
	if current.IsTerminal() {
		return nil
	}
	candidates := models.OrderStatuses
	if p, ok := d.policy.(nextStatuser); ok {
		candidates = p.NextStatuses(current)
	}

	var (
		actions   []Action
		canCancel bool
	)
	for _, s := range candidates {
		switch {
		case s == models.StatusCancelled:
			canCancel = true
		case s != current:
			actions = append(actions, Action{Kind: ActionSetStatus, Status: s})
		}
	}
	if canCancel {
		actions = append(actions, Action{Kind: ActionCancel, Status: models.StatusCancelled})
	}
	return actions
}

func (d *OrderDetail) SetStatus(ctx context.Context, status string) error {
	if _, err := d.api.UpdateOrderStatus(ctx, d.id, status); err != nil {
		return errors.Trace(err)
	}
	return d.Load(ctx)
}

// Cancel rejects a blank reason without contacting the server.
func (d *OrderDetail) Cancel(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if _, err := d.api.CancelOrder(ctx, d.id, reason); err != nil {
		return errors.Trace(err)
	}
	return d.Load(ctx)
}

func LineTotal(item client.OrderItem) decimal.Decimal {
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// ItemsTotal sums the line totals of the loaded order.
func (d *OrderDetail) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	if d.order == nil {
		return total
	}
	for _, item := range d.order.Items {
		total = total.Add(LineTotal(item))
	}
	return total
}
