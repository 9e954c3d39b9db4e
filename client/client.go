package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/juju/errors"
)

// Client talks to the GraphQL backend. The endpoint is discovered on first
// use and memoised until Reset.
type Client struct {
	resolver   *Resolver
	httpClient *http.Client

	mu       sync.Mutex
	endpoint *Endpoint
	token    string
}

type Option func(*Client)

func WithResolver(r *Resolver) Option {
	return func(c *Client) { c.resolver = r }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithURL pins the endpoint; discovery only probes url.
func WithURL(url string) Option {
	return func(c *Client) {
		r := NewResolver()
		r.Override = url
		c.resolver = r
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		resolver:   NewResolver(),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the memoised endpoint, discovering it if needed.
func (c *Client) Endpoint(ctx context.Context) Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endpoint == nil {
		ep := c.resolver.Resolve(ctx)
		c.endpoint = &ep
	}
	return *c.endpoint
}

// Reset forgets the endpoint so the next request rediscovers it.
func (c *Client) Reset() {
	c.mu.Lock()
	c.endpoint = nil
	c.mu.Unlock()
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

type GraphQLError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

// Errors is returned when the server answered with a non-empty errors list.
type Errors []GraphQLError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return strings.Join(msgs, "; ")
}

// Do runs query and decodes the data object into out (which may be nil).
func (c *Client) Do(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return errors.Trace(err)
	}
	ep := c.Endpoint(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Trace(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Annotatef(err, "request to %s", ep.URL)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("request to %s: unexpected status %s", ep.URL, resp.Status)
	}

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return errors.Annotate(err, "decoding graphql response")
	}
	if len(res.Errors) > 0 {
		return res.Errors
	}
	if out == nil || len(res.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return errors.Annotatef(err, "decoding %T", out)
	}
	return nil
}
