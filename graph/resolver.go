package graph

import (
	"context"
	_ "embed"
	"strconv"
	"time"

	"github.com/graph-gophers/graphql-go"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/middlewares"
	"github.com/ray-remotestate/restro/models"
	"github.com/ray-remotestate/restro/orders"
)

//go:embed schema.graphql
var schemaSDL string

// Resolver is the root of both Query and Mutation.
type Resolver struct {
	orders      *orders.Service
	db          *database.DB
	secret      []byte
	requireAuth bool
	log         *logrus.Entry
}

type Option func(*Resolver)

// WithRequireAuth makes order and directory operations reject callers
// without admin claims. Login stays open.
func WithRequireAuth(require bool) Option {
	return func(r *Resolver) { r.requireAuth = require }
}

func NewResolver(svc *orders.Service, db *database.DB, secret []byte, opts ...Option) *Resolver {
	r := &Resolver{
		orders: svc,
		db:     db,
		secret: secret,
		log:    logrus.WithField("component", "graph"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(schemaSDL, r)
}

func (r *Resolver) authorize(ctx context.Context) error {
	if !r.requireAuth {
		return nil
	}
	return middlewares.RequireRole(ctx, models.RoleAdmin)
}

// loader returns the request-scoped loader, or a fresh one when the caller
// did not install any.
func (r *Resolver) loader(ctx context.Context) *Loader {
	if l, ok := loaderFrom(ctx); ok {
		return l
	}
	return NewLoader(r.db)
}

func parseID(id graphql.ID) (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func toID(id int64) graphql.ID {
	return graphql.ID(strconv.FormatInt(id, 10))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func isNotFound(err error) bool {
	return errors.Is(err, errors.NotFound)
}
