package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorTracksConnectivity(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"__typename":"Query"}}`))
	}))
	defer srv.Close()

	clk := testclock.NewClock(time.Now())
	m := NewMonitor(New(WithURL(srv.URL)), clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	// the first check runs before Run starts waiting on the clock
	require.NoError(t, clk.WaitAdvance(0, time.Second, 1))
	assert.True(t, m.Connected())

	healthy.Store(false)
	require.NoError(t, clk.WaitAdvance(DefaultCheckInterval, time.Second, 1))
	assert.Eventually(t, func() bool { return !m.Connected() }, time.Second, 10*time.Millisecond)

	healthy.Store(true)
	assert.True(t, m.Retry(context.Background()))
	assert.True(t, m.Connected())

	cancel()
	<-done
}

func TestMonitorNotifiesOnChange(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"__typename":"Query"}}`))
	}))
	defer srv.Close()

	var changes []bool
	m := NewMonitor(New(WithURL(srv.URL)), testclock.NewClock(time.Now()),
		WithInterval(time.Minute),
		WithNotify(func(connected bool, ep Endpoint, err error) {
			assert.Equal(t, srv.URL, ep.URL)
			assert.Equal(t, connected, err == nil)
			changes = append(changes, connected)
		}),
	)
	assert.Equal(t, time.Minute, m.interval)

	ctx := context.Background()
	assert.False(t, m.Check(ctx))
	assert.False(t, m.Check(ctx))
	healthy.Store(true)
	assert.True(t, m.Check(ctx))
	assert.True(t, m.Check(ctx))
	healthy.Store(false)
	assert.False(t, m.Check(ctx))

	assert.Equal(t, []bool{false, true, false}, changes)
}
