package orders

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/events"
	"github.com/ray-remotestate/restro/metrics"
	"github.com/ray-remotestate/restro/models"
)

// Service owns every order write. Validation and timestamp stamping happen
// here and nowhere else.
type Service struct {
	db        *database.DB
	policy    models.TransitionPolicy
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     clock.Clock
	log       *logrus.Entry
}

type Option func(*Service)

func WithPolicy(policy models.TransitionPolicy) Option {
	return func(s *Service) { s.policy = policy }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func NewService(db *database.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		policy:    models.Permissive{},
		publisher: events.LogPublisher{},
		clock:     clock.WallClock,
		log:       logrus.WithField("component", "orders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Policy() models.TransitionPolicy {
	return s.policy
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

// ListOrders fetches one page and, separately, the matching total. The two
// reads are not isolated from each other.
func (s *Service) ListOrders(ctx context.Context, filter models.OrderFilter) (*models.OrderPage, error) {
	list, err := dbhelper.ListOrders(ctx, s.db, filter)
	if err != nil {
		return nil, errors.Annotate(err, "listing orders")
	}
	total, err := dbhelper.CountOrders(ctx, s.db, filter.Status)
	if err != nil {
		return nil, errors.Annotate(err, "counting orders")
	}
	return &models.OrderPage{Orders: list, Total: total}, nil
}

func (s *Service) CountOrders(ctx context.Context, status string) (int, error) {
	total, err := dbhelper.CountOrders(ctx, s.db, status)
	if err != nil {
		return 0, errors.Annotate(err, "counting orders")
	}
	return total, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := dbhelper.GetOrderByID(ctx, s.db, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("order %d", id)
	} else if err != nil {
		return nil, errors.Annotatef(err, "fetching order %d", id)
	}
	return o, nil
}

// UpdateStatus validates status against the closed set, applies the
// transition policy and stamps completed_at for terminal statuses (clearing
// it otherwise). The updated order is read back after the write.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, errors.Trace(err)
	}

	err = s.db.Tx(ctx, func(tx *sql.Tx) error {
		current, err := dbhelper.GetOrderByID(ctx, tx, id)
		if err == sql.ErrNoRows {
			return errors.NotFoundf("order %d", id)
		} else if err != nil {
			return errors.Trace(err)
		}
		if err := s.policy.Allow(current.Status, next); err != nil {
			return errors.NewNotValid(err, "")
		}
		_, err = dbhelper.UpdateOrderStatus(ctx, tx, id, next, models.CompletedAtFor(next, s.now()))
		return errors.Trace(err)
	})
	if err != nil {
		return nil, err
	}

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, o)
	return o, nil
}

// Cancel moves the order to CANCELLED and records the reason. Under the
// permissive policy this succeeds for any current status, delivered
// included, and a repeat call overwrites the reason.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*models.Order, error) {
	err := s.db.Tx(ctx, func(tx *sql.Tx) error {
		current, err := dbhelper.GetOrderByID(ctx, tx, id)
		if err == sql.ErrNoRows {
			return errors.NotFoundf("order %d", id)
		} else if err != nil {
			return errors.Trace(err)
		}
		if err := s.policy.Allow(current.Status, models.StatusCancelled); err != nil {
			return errors.NewNotValid(err, "")
		}
		_, err = dbhelper.CancelOrder(ctx, tx, id, reason, s.now())
		return errors.Trace(err)
	})
	if err != nil {
		return nil, err
	}

	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, o)
	return o, nil
}

func (s *Service) statusChanged(ctx context.Context, o *models.Order) {
	if s.metrics != nil {
		s.metrics.StatusChanges.WithLabelValues(string(o.Status)).Inc()
	}
	ev := events.StatusChanged{
		ID:          o.ID,
		OrderID:     o.OrderID,
		Status:      o.Status,
		Reason:      o.Reason,
		CompletedAt: o.CompletedAt,
		ChangedAt:   s.now(),
	}
	if err := s.publisher.PublishStatusChange(ctx, ev); err != nil {
		if s.metrics != nil {
			s.metrics.PublishFailure.Inc()
		}
		s.log.WithError(err).WithField("order_id", o.OrderID).Warn("failed to publish status change")
	}
}

// NewOrderID returns an external order reference such as ORD-1A2B3C4D.
func NewOrderID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:8])
}

// CreateOrder stores a new PENDING order with its items. Missing defaults
// (payment method, item quantity, order id) are filled in.
func (s *Service) CreateOrder(ctx context.Context, o models.Order) (*models.Order, error) {
	if o.UserID <= 0 {
		return nil, errors.NotValidf("user id %d", o.UserID)
	}
	if o.RestaurantID <= 0 {
		return nil, errors.NotValidf("restaurant id %d", o.RestaurantID)
	}
	if strings.TrimSpace(o.OrderID) == "" {
		o.OrderID = NewOrderID()
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = models.DefaultPaymentMethod
	}
	o.Status = models.StatusPending
	o.CreatedAt = s.now()
	o.CompletedAt = nil
	o.Reason = nil
	for i := range o.Items {
		if strings.TrimSpace(o.Items[i].Title) == "" {
			return nil, errors.NotValidf("item %d: empty title", i+1)
		}
		if o.Items[i].Quantity == 0 {
			o.Items[i].Quantity = 1
		}
		if o.Items[i].Quantity < 0 {
			return nil, errors.NotValidf("item %d: quantity %d", i+1, o.Items[i].Quantity)
		}
	}

	var id int64
	err := s.db.Tx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = dbhelper.CreateOrder(ctx, tx, &o)
		return err
	})
	if err != nil {
		return nil, errors.Annotatef(err, "creating order %s", o.OrderID)
	}
	s.log.WithField("order_id", o.OrderID).Info("order created")
	return s.GetOrder(ctx, id)
}

func (s *Service) Items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items, err := dbhelper.GetOrderItems(ctx, s.db, orderID)
	return items, errors.Trace(err)
}
