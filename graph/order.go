package graph

import (
	"context"
	"strings"
	"time"

	"github.com/graph-gophers/graphql-go"
	"github.com/juju/errors"

	"github.com/ray-remotestate/restro/models"
)

type ordersArgs struct {
	Status *string
	Page   *int32
	Limit  *int32
}

func (r *Resolver) Orders(ctx context.Context, args ordersArgs) (*ordersResponseResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	filter := models.OrderFilter{Page: models.DefaultPage, Limit: models.DefaultLimit}
	if args.Status != nil {
		filter.Status = *args.Status
	}
	if args.Page != nil {
		filter.Page = int(*args.Page)
	}
	if args.Limit != nil {
		filter.Limit = int(*args.Limit)
	}

	page, err := r.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	l := r.loader(ctx)
	if err := l.PrimeOrders(ctx, page.Orders); err != nil {
		return nil, err
	}

	res := &ordersResponseResolver{total: page.Total, orders: make([]*orderResolver, len(page.Orders))}
	for i := range page.Orders {
		res.orders[i] = &orderResolver{o: page.Orders[i], l: l}
	}
	return res, nil
}

// Order resolves to null for unknown or malformed ids.
func (r *Resolver) Order(ctx context.Context, args struct{ ID graphql.ID }) (*orderResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	id, ok := parseID(args.ID)
	if !ok {
		return nil, nil
	}
	o, err := r.orders.GetOrder(ctx, id)
	return r.orderOrNull(ctx, o, err)
}

func (r *Resolver) OrdersCount(ctx context.Context, args struct{ Status *string }) (int32, error) {
	if err := r.authorize(ctx); err != nil {
		return 0, err
	}
	var status string
	if args.Status != nil {
		status = *args.Status
	}
	total, err := r.orders.CountOrders(ctx, status)
	return int32(total), err
}

func (r *Resolver) UpdateOrderStatus(ctx context.Context, args struct {
	ID     graphql.ID
	Status string
}) (*orderResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	// A malformed id matches no row.
	id, _ := parseID(args.ID)
	o, err := r.orders.UpdateStatus(ctx, id, args.Status)
	return r.orderOrNull(ctx, o, err)
}

func (r *Resolver) CancelOrder(ctx context.Context, args struct {
	ID     graphql.ID
	Reason string
}) (*orderResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	id, _ := parseID(args.ID)
	o, err := r.orders.Cancel(ctx, id, args.Reason)
	return r.orderOrNull(ctx, o, err)
}

func (r *Resolver) orderOrNull(ctx context.Context, o *models.Order, err error) (*orderResolver, error) {
	if isNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &orderResolver{o: *o, l: r.loader(ctx)}, nil
}

type addressInput struct {
	Address   string
	Latitude  *float64
	Longitude *float64
}

type orderItemInput struct {
	Title     string
	Quantity  *int32
	Variation *string
	Addons    *string
	Price     float64
}

type orderInput struct {
	OrderID         *string
	UserID          graphql.ID
	RestaurantID    graphql.ID
	Items           []orderItemInput
	DeliveryAddress *addressInput
	PaymentMethod   *string
	PaidAmount      *float64
	OrderAmount     *float64
	DeliveryCharges *float64
	Tipping         *float64
	TaxationAmount  *float64
	DeliveryTime    *string
}

func (in orderInput) toModel() (models.Order, error) {
	var o models.Order
	var ok bool
	if o.UserID, ok = parseID(in.UserID); !ok {
		return o, errors.NotValidf("user id %q", in.UserID)
	}
	if o.RestaurantID, ok = parseID(in.RestaurantID); !ok {
		return o, errors.NotValidf("restaurant id %q", in.RestaurantID)
	}
	if in.OrderID != nil {
		o.OrderID = strings.TrimSpace(*in.OrderID)
	}
	if in.PaymentMethod != nil {
		o.PaymentMethod = *in.PaymentMethod
	}
	o.PaidAmount = valueOr(in.PaidAmount)
	o.OrderAmount = valueOr(in.OrderAmount)
	o.DeliveryCharges = valueOr(in.DeliveryCharges)
	o.TaxationAmount = valueOr(in.TaxationAmount)
	o.Tipping = in.Tipping
	if in.DeliveryAddress != nil {
		o.DeliveryAddress = models.Address{
			Address:   in.DeliveryAddress.Address,
			Latitude:  in.DeliveryAddress.Latitude,
			Longitude: in.DeliveryAddress.Longitude,
		}
	}
	if in.DeliveryTime != nil && *in.DeliveryTime != "" {
		t, err := time.Parse(time.RFC3339, *in.DeliveryTime)
		if err != nil {
			return o, errors.NotValidf("delivery time %q", *in.DeliveryTime)
		}
		o.DeliveryTime = &t
	}
	for _, it := range in.Items {
		item := models.OrderItem{
			Title:     it.Title,
			Variation: it.Variation,
			Addons:    it.Addons,
			Price:     it.Price,
		}
		if it.Quantity != nil {
			item.Quantity = int(*it.Quantity)
		}
		o.Items = append(o.Items, item)
	}
	return o, nil
}

func valueOr(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func (r *Resolver) CreateOrder(ctx context.Context, args struct{ Input orderInput }) (*orderResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	o, err := args.Input.toModel()
	if err != nil {
		return nil, err
	}
	created, err := r.orders.CreateOrder(ctx, o)
	if err != nil {
		return nil, err
	}
	return &orderResolver{o: *created, l: r.loader(ctx)}, nil
}

type ordersResponseResolver struct {
	orders []*orderResolver
	total  int
}

func (r *ordersResponseResolver) Orders() []*orderResolver { return r.orders }
func (r *ordersResponseResolver) Total() int32             { return int32(r.total) }

type orderResolver struct {
	o models.Order
	l *Loader
}

func (r *orderResolver) ID() graphql.ID        { return toID(r.o.ID) }
func (r *orderResolver) OrderID() string       { return r.o.OrderID }
func (r *orderResolver) OrderStatus() string   { return string(r.o.Status) }
func (r *orderResolver) PaymentMethod() string { return r.o.PaymentMethod }
func (r *orderResolver) PaidAmount() float64   { return r.o.PaidAmount }
func (r *orderResolver) OrderAmount() float64  { return r.o.OrderAmount }
func (r *orderResolver) DeliveryCharges() float64 {
	return r.o.DeliveryCharges
}
func (r *orderResolver) Tipping() *float64       { return r.o.Tipping }
func (r *orderResolver) TaxationAmount() float64 { return r.o.TaxationAmount }
func (r *orderResolver) CreatedAt() string       { return formatTime(r.o.CreatedAt) }
func (r *orderResolver) DeliveryTime() *string   { return formatTimePtr(r.o.DeliveryTime) }
func (r *orderResolver) CompletedAt() *string    { return formatTimePtr(r.o.CompletedAt) }
func (r *orderResolver) Reason() *string         { return r.o.Reason }

func (r *orderResolver) DeliveryAddress() *addressResolver {
	return &addressResolver{a: r.o.DeliveryAddress}
}

func (r *orderResolver) User(ctx context.Context) (*userResolver, error) {
	u, err := r.l.User(ctx, r.o.UserID)
	if err != nil {
		return nil, err
	}
	return &userResolver{u: *u}, nil
}

func (r *orderResolver) Restaurant(ctx context.Context) (*restaurantResolver, error) {
	rest, err := r.l.Restaurant(ctx, r.o.RestaurantID)
	if err != nil {
		return nil, err
	}
	return &restaurantResolver{r: *rest, l: r.l}, nil
}

func (r *orderResolver) Items(ctx context.Context) ([]*orderItemResolver, error) {
	items := r.o.Items
	if items == nil {
		var err error
		if items, err = r.l.Items(ctx, r.o.ID); err != nil {
			return nil, err
		}
	}
	res := make([]*orderItemResolver, len(items))
	for i := range items {
		res[i] = &orderItemResolver{it: items[i]}
	}
	return res, nil
}

type orderItemResolver struct {
	it models.OrderItem
}

func (r *orderItemResolver) ID() graphql.ID     { return toID(r.it.ID) }
func (r *orderItemResolver) Title() string      { return r.it.Title }
func (r *orderItemResolver) Quantity() int32    { return int32(r.it.Quantity) }
func (r *orderItemResolver) Variation() *string { return r.it.Variation }
func (r *orderItemResolver) Addons() *string    { return r.it.Addons }
func (r *orderItemResolver) Price() float64     { return r.it.Price }

type addressResolver struct {
	a models.Address
}

func (r *addressResolver) Address() string     { return r.a.Address }
func (r *addressResolver) Latitude() *float64  { return r.a.Latitude }
func (r *addressResolver) Longitude() *float64 { return r.a.Longitude }
