package graph

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/models"
)

type loaderKey struct{}

// Loader caches the relations of the orders resolved in one request. Prime
// fetches each relation for a whole page with a single IN query; later
// lookups for ids outside the primed set fall back to a one-id batch.
type Loader struct {
	q dbhelper.Querier

	mu          sync.Mutex
	users       map[int64]models.User
	restaurants map[int64]models.Restaurant
	items       map[int64][]models.OrderItem
	menus       map[int64][]models.MenuItem
}

func NewLoader(q dbhelper.Querier) *Loader {
	return &Loader{
		q:           q,
		users:       make(map[int64]models.User),
		restaurants: make(map[int64]models.Restaurant),
		items:       make(map[int64][]models.OrderItem),
		menus:       make(map[int64][]models.MenuItem),
	}
}

func WithLoader(ctx context.Context, l *Loader) context.Context {
	return context.WithValue(ctx, loaderKey{}, l)
}

func loaderFrom(ctx context.Context) (*Loader, bool) {
	l, ok := ctx.Value(loaderKey{}).(*Loader)
	return l, ok
}

// PrimeOrders loads users, restaurants and items for every order in list.
func (l *Loader) PrimeOrders(ctx context.Context, list []models.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var userIDs, restaurantIDs, orderIDs []int64
	seenUser := make(map[int64]bool)
	seenRestaurant := make(map[int64]bool)
	for _, o := range list {
		if _, ok := l.users[o.UserID]; !ok && !seenUser[o.UserID] {
			seenUser[o.UserID] = true
			userIDs = append(userIDs, o.UserID)
		}
		if _, ok := l.restaurants[o.RestaurantID]; !ok && !seenRestaurant[o.RestaurantID] {
			seenRestaurant[o.RestaurantID] = true
			restaurantIDs = append(restaurantIDs, o.RestaurantID)
		}
		if _, ok := l.items[o.ID]; !ok {
			orderIDs = append(orderIDs, o.ID)
		}
	}
	if err := l.loadUsers(ctx, userIDs); err != nil {
		return err
	}
	if err := l.loadRestaurants(ctx, restaurantIDs); err != nil {
		return err
	}
	return l.loadItems(ctx, orderIDs)
}

// PrimeRestaurants loads the menus of every restaurant in list.
func (l *Loader) PrimeRestaurants(ctx context.Context, list []models.Restaurant) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ids []int64
	for _, r := range list {
		l.restaurants[r.ID] = r
		if _, ok := l.menus[r.ID]; !ok {
			ids = append(ids, r.ID)
		}
	}
	return l.loadMenus(ctx, ids)
}

func (l *Loader) User(ctx context.Context, id int64) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.users[id]; !ok {
		if err := l.loadUsers(ctx, []int64{id}); err != nil {
			return nil, err
		}
	}
	u, ok := l.users[id]
	if !ok {
		return nil, errors.NotFoundf("user %d", id)
	}
	return &u, nil
}

func (l *Loader) Restaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.restaurants[id]; !ok {
		if err := l.loadRestaurants(ctx, []int64{id}); err != nil {
			return nil, err
		}
	}
	r, ok := l.restaurants[id]
	if !ok {
		return nil, errors.NotFoundf("restaurant %d", id)
	}
	return &r, nil
}

func (l *Loader) Items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.items[orderID]; !ok {
		if err := l.loadItems(ctx, []int64{orderID}); err != nil {
			return nil, err
		}
	}
	return l.items[orderID], nil
}

func (l *Loader) MenuItems(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.menus[restaurantID]; !ok {
		if err := l.loadMenus(ctx, []int64{restaurantID}); err != nil {
			return nil, err
		}
	}
	return l.menus[restaurantID], nil
}

// The load* helpers expect l.mu to be held.

func (l *Loader) loadUsers(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := dbhelper.GetUsersByIDs(ctx, l.q, ids)
	if err != nil {
		return errors.Annotate(err, "loading users")
	}
	for id, u := range found {
		l.users[id] = u
	}
	return nil
}

func (l *Loader) loadRestaurants(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := dbhelper.GetRestaurantsByIDs(ctx, l.q, ids)
	if err != nil {
		return errors.Annotate(err, "loading restaurants")
	}
	for id, r := range found {
		l.restaurants[id] = r
	}
	return nil
}

func (l *Loader) loadItems(ctx context.Context, orderIDs []int64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	found, err := dbhelper.GetOrderItemsByOrderIDs(ctx, l.q, orderIDs)
	if err != nil {
		return errors.Annotate(err, "loading order items")
	}
	for _, id := range orderIDs {
		l.items[id] = found[id]
	}
	return nil
}

func (l *Loader) loadMenus(ctx context.Context, restaurantIDs []int64) error {
	if len(restaurantIDs) == 0 {
		return nil
	}
	found, err := dbhelper.GetMenuItemsByRestaurantIDs(ctx, l.q, restaurantIDs)
	if err != nil {
		return errors.Annotate(err, "loading menu items")
	}
	for _, id := range restaurantIDs {
		l.menus[id] = found[id]
	}
	return nil
}
