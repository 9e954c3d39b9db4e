package client

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const DefaultCheckInterval = 60 * time.Second

// Monitor periodically pings the backend and records whether it answered.
// A failed check forgets the endpoint so the next request rediscovers it.
type Monitor struct {
	client    *Client
	clock     clock.Clock
	interval  time.Duration
	notify    func(connected bool, ep Endpoint, err error)
	connected *atomic.Bool
	checked   *atomic.Bool
	log       *logrus.Entry
}

type MonitorOption func(*Monitor)

func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithNotify registers fn to be called after the first check and on every
// change between connected and disconnected.
func WithNotify(fn func(connected bool, ep Endpoint, err error)) MonitorOption {
	return func(m *Monitor) { m.notify = fn }
}

func NewMonitor(c *Client, clk clock.Clock, opts ...MonitorOption) *Monitor {
	if clk == nil {
		clk = clock.WallClock
	}
	m := &Monitor{
		client:    c,
		clock:     clk,
		interval:  DefaultCheckInterval,
		connected: atomic.NewBool(false),
		checked:   atomic.NewBool(false),
		log:       logrus.WithField("component", "graphql-monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Connected() bool {
	return m.connected.Load()
}

// Check pings the current endpoint once.
func (m *Monitor) Check(ctx context.Context) bool {
	ep, err := m.client.Ping(ctx)
	first := !m.checked.Swap(true)
	if err != nil {
		if m.connected.Swap(false) {
			m.log.WithError(err).WithField("url", ep.URL).Warn("graphql backend disconnected")
			m.changed(false, ep, err)
		} else if first {
			m.changed(false, ep, err)
		}
		m.client.Reset()
		return false
	}
	if !m.connected.Swap(true) {
		m.log.WithField("url", ep.URL).Info("graphql backend connected")
		m.changed(true, ep, nil)
	}
	return true
}

func (m *Monitor) changed(connected bool, ep Endpoint, err error) {
	if m.notify != nil {
		m.notify(connected, ep, err)
	}
}

// Retry forces rediscovery and checks again.
func (m *Monitor) Retry(ctx context.Context) bool {
	m.client.Reset()
	return m.Check(ctx)
}

// Run checks immediately and then once per interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(m.interval):
			m.Check(ctx)
		}
	}
}
