package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultHost  = "localhost"
	DefaultPort  = 4000
	ProbeTimeout = 2 * time.Second

	probeBody = `{"query":"{ __typename }"}`
)

// DefaultFallbackPorts are probed in order after the primary port.
var DefaultFallbackPorts = []int{4000, 4001, 4002, 5000, 8000}

type Source string

const (
	SourceOverride Source = "override"
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceDefault  Source = "default"
)

// Endpoint is the outcome of discovery. Reachable is false when nothing
// answered and the primary URL was returned as a last resort.
type Endpoint struct {
	URL       string
	Port      int
	Reachable bool
	Source    Source
}

// Resolver locates a live GraphQL backend: an explicit URL wins, then the
// primary port, then each fallback port in turn.
type Resolver struct {
	Override      string
	Scheme        string
	Host          string
	PrimaryPort   int
	FallbackPorts []int
	Timeout       time.Duration
	HTTPClient    *http.Client
}

func NewResolver() *Resolver {
	return &Resolver{
		Scheme:        "http",
		Host:          DefaultHost,
		PrimaryPort:   DefaultPort,
		FallbackPorts: DefaultFallbackPorts,
		Timeout:       ProbeTimeout,
		HTTPClient:    &http.Client{},
	}
}

func (r *Resolver) urlFor(port int) string {
	return fmt.Sprintf("%s://%s:%d/graphql", r.Scheme, r.Host, port)
}

// Candidates lists the ports to probe, primary first, without duplicates.
func (r *Resolver) Candidates() []int {
	seen := make(map[int]bool)
	ports := []int{r.PrimaryPort}
	seen[r.PrimaryPort] = true
	for _, p := range r.FallbackPorts {
		if !seen[p] {
			seen[p] = true
			ports = append(ports, p)
		}
	}
	return ports
}

func (r *Resolver) Resolve(ctx context.Context) Endpoint {
	if r.Override != "" {
		return Endpoint{URL: r.Override, Reachable: r.Probe(ctx, r.Override), Source: SourceOverride}
	}
	for i, port := range r.Candidates() {
		url := r.urlFor(port)
		if !r.Probe(ctx, url) {
			logrus.WithField("url", url).Debug("graphql endpoint not reachable")
			continue
		}
		source := SourceFallback
		if i == 0 {
			source = SourcePrimary
		}
		return Endpoint{URL: url, Port: port, Reachable: true, Source: source}
	}
	logrus.WithField("port", r.PrimaryPort).Warn("no graphql endpoint answered, using primary")
	return Endpoint{URL: r.urlFor(r.PrimaryPort), Port: r.PrimaryPort, Source: SourceDefault}
}

// Probe posts a trivial query and reports whether url answered with 2xx
// within the probe timeout.
func (r *Resolver) Probe(ctx context.Context, url string) bool {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = ProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(probeBody))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := r.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
