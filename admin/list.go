package admin

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ray-remotestate/restro/client"
	"github.com/ray-remotestate/restro/models"
)

type DateFilter string

const (
	DateAll   DateFilter = "all"
	DateToday DateFilter = "today"
	DateWeek  DateFilter = "week"
	DateMonth DateFilter = "month"
)

func ParseDateFilter(s string) (DateFilter, error) {
	switch f := DateFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", DateAll:
		return DateAll, nil
	case DateToday, DateWeek, DateMonth:
		return f, nil
	}
	return "", errors.NotValidf("date filter %q", s)
}

// CSVHeader is the first record of every export.
var CSVHeader = []string{"Order ID", "Customer", "Restaurant", "Status", "Amount", "Payment", "Date"}

// OrderList holds one fetched page of orders. StatusFilter is applied by
// the server; SearchQuery and DateFilter only narrow the rows of the page
// already loaded.
type OrderList struct {
	api   API
	clock clock.Clock
	log   *logrus.Entry

	StatusFilter string
	SearchQuery  string
	DateFilter   DateFilter
	Page         int
	Limit        int

	orders []client.Order
	total  int
}

func NewOrderList(api API, clk clock.Clock) *OrderList {
	if clk == nil {
		clk = clock.WallClock
	}
	return &OrderList{
		api:          api,
		clock:        clk,
		log:          logrus.WithField("component", "order-list"),
		StatusFilter: models.StatusAll,
		DateFilter:   DateAll,
		Page:         models.DefaultPage,
		Limit:        models.DefaultLimit,
	}
}

func (l *OrderList) Load(ctx context.Context) error {
	status := l.StatusFilter
	if status == models.StatusAll {
		status = ""
	}
	page, err := l.api.Orders(ctx, status, l.Page, l.Limit)
	if err != nil {
		return errors.Trace(err)
	}
	l.orders = page.Orders
	l.total = page.Total
	return nil
}

// SetStatusFilter goes back to the first page and reloads.
func (l *OrderList) SetStatusFilter(ctx context.Context, status string) error {
	l.StatusFilter = status
	l.Page = models.DefaultPage
	return l.Load(ctx)
}

func (l *OrderList) SetPage(ctx context.Context, page int) error {
	l.Page = page
	return l.Load(ctx)
}

func (l *OrderList) Orders() []client.Order { return l.orders }
func (l *OrderList) Total() int             { return l.total }

// Rows returns the loaded orders that match the search query and the date
// filter.
func (l *OrderList) Rows() []client.Order {
	query := strings.ToLower(strings.TrimSpace(l.SearchQuery))
	now := l.clock.Now()

	var rows []client.Order
	for _, o := range l.orders {
		if query != "" && !matches(o, query) {
			continue
		}
		if !l.inDateRange(o, now) {
			continue
		}
		rows = append(rows, o)
	}
	return rows
}

func matches(o client.Order, query string) bool {
	for _, field := range []string{o.OrderID, o.User.Name, o.User.Email, o.Restaurant.Name} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func (l *OrderList) inDateRange(o client.Order, now time.Time) bool {
	if l.DateFilter == DateAll || l.DateFilter == "" {
		return true
	}
	created, err := time.Parse(time.RFC3339Nano, o.CreatedAt)
	if err != nil {
		return false
	}
	created = created.In(now.Location())
	switch l.DateFilter {
	case DateToday:
		y1, m1, d1 := created.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case DateWeek:
		return !created.Before(now.AddDate(0, 0, -7))
	case DateMonth:
		return !created.Before(now.AddDate(0, -1, 0))
	}
	return true
}

// BulkError reports a bulk update in which at least one order failed.
// Orders updated before or alongside the failure keep their new status.
type BulkError struct {
	Failed int
	Total  int
	Err    error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk update failed: %d of %d orders not updated", e.Failed, e.Total)
}

func (e *BulkError) Unwrap() error { return e.Err }

// BulkUpdate sends one status mutation per id, all at once, then reloads
// the current page whatever the outcome. An id the server does not know
// counts as a failure.
func (l *OrderList) BulkUpdate(ctx context.Context, ids []string, status string) error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			o, err := l.api.UpdateOrderStatus(ctx, id, status)
			if err == nil && o == nil {
				err = errors.NotFoundf("order %s", id)
			}
			if err != nil {
				err = errors.Annotatef(err, "order %s", id)
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := l.Load(ctx); err != nil {
		l.log.WithError(err).Warn("failed to reload orders after bulk update")
	}

	if err := result.ErrorOrNil(); err != nil {
		l.log.WithError(err).WithField("status", status).Error("bulk update failed")
		return &BulkError{Failed: len(result.Errors), Total: len(ids), Err: err}
	}
	return nil
}

// ExportCSV writes the filtered rows with proper quoting.
func (l *OrderList) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errors.Trace(err)
	}
	for _, o := range l.Rows() {
		record := []string{
			o.OrderID,
			o.User.Name,
			o.Restaurant.Name,
			o.OrderStatus,
			decimal.NewFromFloat(o.OrderAmount).StringFixed(2),
			o.PaymentMethod,
			formatDate(o.CreatedAt),
		}
		if err := cw.Write(record); err != nil {
			return errors.Trace(err)
		}
	}
	cw.Flush()
	return errors.Trace(cw.Error())
}

func formatDate(s string) string {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}
