package graph

import (
	"context"
	"database/sql"
	"strings"

	"github.com/graph-gophers/graphql-go"
	"github.com/juju/errors"

	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/models"
)

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	users, err := dbhelper.ListUsers(ctx, r.db)
	if err != nil {
		return nil, errors.Annotate(err, "listing users")
	}
	res := make([]*userResolver, len(users))
	for i := range users {
		res[i] = &userResolver{u: users[i]}
	}
	return res, nil
}

func (r *Resolver) Restaurants(ctx context.Context) ([]*restaurantResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	list, err := dbhelper.ListRestaurants(ctx, r.db)
	if err != nil {
		return nil, errors.Annotate(err, "listing restaurants")
	}
	l := r.loader(ctx)
	if err := l.PrimeRestaurants(ctx, list); err != nil {
		return nil, err
	}
	res := make([]*restaurantResolver, len(list))
	for i := range list {
		res[i] = &restaurantResolver{r: list[i], l: l}
	}
	return res, nil
}

func (r *Resolver) Restaurant(ctx context.Context, args struct{ ID graphql.ID }) (*restaurantResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	id, ok := parseID(args.ID)
	if !ok {
		return nil, nil
	}
	rest, err := dbhelper.GetRestaurantByID(ctx, r.db, id)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Annotatef(err, "fetching restaurant %d", id)
	}
	return &restaurantResolver{r: *rest, l: r.loader(ctx)}, nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Name  string
	Email string
	Phone *string
}) (*userResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(args.Name)
	email := strings.TrimSpace(args.Email)
	if name == "" || email == "" {
		return nil, errors.NewNotValid(nil, "name and email are required")
	}

	exists, err := dbhelper.IsUserExists(ctx, r.db, email)
	if err != nil {
		return nil, errors.Annotate(err, "checking user")
	}
	if exists {
		return nil, errors.AlreadyExistsf("user %s", email)
	}

	id, err := dbhelper.CreateUser(ctx, r.db, name, email, args.Phone)
	if err != nil {
		return nil, errors.Annotate(err, "creating user")
	}
	u, err := dbhelper.GetUserByID(ctx, r.db, id)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching user %d", id)
	}
	r.log.WithField("user_id", id).Info("user created")
	return &userResolver{u: *u}, nil
}

func (r *Resolver) CreateRestaurant(ctx context.Context, args struct {
	Name    string
	Address string
	Phone   string
}) (*restaurantResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return nil, errors.NotValidf("empty restaurant name")
	}
	id, err := dbhelper.CreateRestaurant(ctx, r.db, name, args.Address, args.Phone)
	if err != nil {
		return nil, errors.Annotate(err, "creating restaurant")
	}
	rest, err := dbhelper.GetRestaurantByID(ctx, r.db, id)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching restaurant %d", id)
	}
	r.log.WithField("restaurant_id", id).Info("restaurant created")
	return &restaurantResolver{r: *rest, l: r.loader(ctx)}, nil
}

func (r *Resolver) CreateMenuItem(ctx context.Context, args struct {
	RestaurantID graphql.ID
	Title        string
	Price        float64
	Description  *string
}) (*menuItemResolver, error) {
	if err := r.authorize(ctx); err != nil {
		return nil, err
	}
	restaurantID, ok := parseID(args.RestaurantID)
	if !ok {
		return nil, errors.NotValidf("restaurant id %q", args.RestaurantID)
	}
	title := strings.TrimSpace(args.Title)
	if title == "" {
		return nil, errors.NotValidf("empty menu item title")
	}
	if args.Price < 0 {
		return nil, errors.NotValidf("price %v", args.Price)
	}
	if _, err := dbhelper.GetRestaurantByID(ctx, r.db, restaurantID); err == sql.ErrNoRows {
		return nil, errors.NotFoundf("restaurant %d", restaurantID)
	} else if err != nil {
		return nil, errors.Annotatef(err, "fetching restaurant %d", restaurantID)
	}

	item := models.MenuItem{
		RestaurantID: restaurantID,
		Title:        title,
		Price:        args.Price,
		IsAvailable:  true,
	}
	if args.Description != nil {
		item.Description = *args.Description
	}
	id, err := dbhelper.CreateMenuItem(ctx, r.db, item)
	if err != nil {
		return nil, errors.Annotate(err, "creating menu item")
	}
	item.ID = id
	return &menuItemResolver{m: item}, nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.authorize(ctx); err != nil {
		return false, err
	}
	id, ok := parseID(args.ID)
	if !ok {
		return false, nil
	}
	deleted, err := dbhelper.DeleteUser(ctx, r.db, id)
	if err != nil {
		return false, errors.Annotatef(err, "deleting user %d", id)
	}
	return deleted, nil
}

func (r *Resolver) DeleteRestaurant(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	if err := r.authorize(ctx); err != nil {
		return false, err
	}
	id, ok := parseID(args.ID)
	if !ok {
		return false, nil
	}
	deleted, err := dbhelper.DeleteRestaurant(ctx, r.db, id)
	if err != nil {
		return false, errors.Annotatef(err, "deleting restaurant %d", id)
	}
	return deleted, nil
}

type userResolver struct {
	u models.User
}

func (r *userResolver) ID() graphql.ID    { return toID(r.u.ID) }
func (r *userResolver) Name() string      { return r.u.Name }
func (r *userResolver) Email() string     { return r.u.Email }
func (r *userResolver) Phone() *string    { return r.u.Phone }
func (r *userResolver) CreatedAt() string { return formatTime(r.u.CreatedAt) }

type restaurantResolver struct {
	r models.Restaurant
	l *Loader
}

func (r *restaurantResolver) ID() graphql.ID    { return toID(r.r.ID) }
func (r *restaurantResolver) Name() string      { return r.r.Name }
func (r *restaurantResolver) Address() string   { return r.r.Address }
func (r *restaurantResolver) Phone() string     { return r.r.Phone }
func (r *restaurantResolver) CreatedAt() string { return formatTime(r.r.CreatedAt) }

func (r *restaurantResolver) MenuItems(ctx context.Context) ([]*menuItemResolver, error) {
	items, err := r.l.MenuItems(ctx, r.r.ID)
	if err != nil {
		return nil, err
	}
	res := make([]*menuItemResolver, len(items))
	for i := range items {
		res[i] = &menuItemResolver{m: items[i]}
	}
	return res, nil
}

type menuItemResolver struct {
	m models.MenuItem
}

func (r *menuItemResolver) ID() graphql.ID           { return toID(r.m.ID) }
func (r *menuItemResolver) RestaurantID() graphql.ID { return toID(r.m.RestaurantID) }
func (r *menuItemResolver) Title() string            { return r.m.Title }
func (r *menuItemResolver) Description() string      { return r.m.Description }
func (r *menuItemResolver) Price() float64           { return r.m.Price }
func (r *menuItemResolver) IsAvailable() bool        { return r.m.IsAvailable }
