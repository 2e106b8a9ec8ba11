package wispr

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rustycl0ck/go-wispr/store"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

const (
	// DefaultProbeURL is requested to provoke captive portal interception.
	// Any host the portal intercepts works.
	DefaultProbeURL = "http://www.google.com"
	// DefaultProbeDomain is looked for in the final host to recognise that
	// the probe was not intercepted.
	DefaultProbeDomain = "google"
)

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client runs the WISPr protocol against the gateway of the current network.
type Client struct {
	transport   Transport
	store       store.Store
	logger      log.Logger
	sleep       SleepFunc
	probeURL    string
	probeDomain string
	// abortTimeout bounds the abort request sent after cancellation.
	abortTimeout time.Duration
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithTransport sets the transport used for every request.
func WithTransport(t Transport) Cfg {
	return func(c *Client) error {
		c.transport = t
		return nil
	}
}

// WithStore sets where the session logoff URL is kept.
func WithStore(s store.Store) Cfg {
	return func(c *Client) error {
		c.store = s
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Cfg {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithSleep replaces the function used to honour protocol delays.
func WithSleep(fn SleepFunc) Cfg {
	return func(c *Client) error {
		c.sleep = fn
		return nil
	}
}

// WithProbe sets the URL requested to detect a gateway and the domain that
// identifies an uncaptured answer to it.
func WithProbe(rawURL, domain string) Cfg {
	return func(c *Client) error {
		if _, err := url.Parse(rawURL); err != nil {
			return errors.Wrap(err, "parse probe url failed")
		}
		c.probeURL = rawURL
		c.probeDomain = domain
		return nil
	}
}

// WithAbortTimeout bounds the abort request issued when a pending login is
// interrupted.
func WithAbortTimeout(d time.Duration) Cfg {
	return func(c *Client) error {
		c.abortTimeout = d
		return nil
	}
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfgs ...Cfg) (*Client, error) {
	c := &Client{
		logger:       log.NewNopLogger(),
		sleep:        Sleep,
		probeURL:     DefaultProbeURL,
		probeDomain:  DefaultProbeDomain,
		abortTimeout: 5 * time.Second,
	}
	for _, cfg := range cfgs {
		if err := cfg(c); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	if c.transport == nil {
		t, err := NewHTTPTransport()
		if err != nil {
			return nil, errors.Wrap(err, "create transport failed")
		}
		c.transport = t
	}
	if c.store == nil {
		s, err := store.NewHomeStore()
		if err != nil {
			return nil, errors.Wrap(err, "create store failed")
		}
		c.store = s
	}
	return c, nil
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// probe requests the probe URL and follows redirects until a response
// carries the WISPr marker or is not a redirect.
func (c *Client) probe(ctx context.Context, logger log.Logger) (*Response, error) {
	resp, err := c.transport.Get(ctx, c.probeURL)
	if err != nil {
		return nil, errors.Wrap(err, "probe failed")
	}
	for resp.IsRedirect() && !HasMarker(resp.Body) {
		loc, err := resp.Location()
		if err != nil {
			return nil, errors.Wrapf(err, "follow redirect from %s failed", resp.URL.Redacted())
		}
		level.Debug(logger).Log("msg", "following redirect", "status", resp.StatusCode, "location", loc.Redacted())
		resp, err = c.transport.Get(ctx, loc.String())
		if err != nil {
			return nil, errors.Wrap(err, "follow redirect failed")
		}
	}
	return resp, nil
}

// online reports whether the final probe answer came from the probe domain
// itself, i.e. nothing intercepted it.
func (c *Client) online(resp *Response) bool {
	return resp.URL != nil && strings.Contains(resp.URL.Hostname(), c.probeDomain)
}

func (c *Client) fields(logger log.Logger, resp *Response) Fields {
	element, fields := ParseElement(resp.Body)
	level.Debug(logger).Log("msg", "parsed gateway response", "url", resp.URL.Redacted(), "status", resp.StatusCode, "element", element, "fields", fieldsString(fields))
	return fields
}

func fieldsString(f Fields) string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v := f[k]
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}
