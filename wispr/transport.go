package wispr

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultTimeout bounds a single request/response exchange.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "wispr/1.0"

	maxBodySize = 1 << 20
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	// URL is the URL that was requested. Redirects are never followed.
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// IsRedirect reports whether the status is one the probe follows by hand.
func (r *Response) IsRedirect() bool {
	return r.StatusCode == http.StatusFound || r.StatusCode == http.StatusNotModified
}

// Location returns the redirect target, resolved against the request URL.
func (r *Response) Location() (*url.URL, error) {
	loc := r.Header.Get("Location")
	if loc == "" {
		return nil, ErrMissingLocation
	}
	u, err := url.Parse(loc)
	if err != nil {
		return nil, errors.Wrapf(err, "parse location %q failed", loc)
	}
	if r.URL != nil {
		u = r.URL.ResolveReference(u)
	}
	return u, nil
}

// Resolve makes a URL taken from the response body absolute. Gateways send
// relative URLs now and then.
func (r *Response) Resolve(ref string) string {
	if ref == "" || r.URL == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return r.URL.ResolveReference(u).String()
}

// Transport issues the requests of the protocol. Implementations must not
// follow redirects.
type Transport interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
	PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error)
}

// HTTPTransport is a Transport backed by net/http.
type HTTPTransport struct {
	client    *http.Client
	userAgent string

	insecure bool
	timeout  time.Duration
}

// TransportCfg configures an HTTPTransport.
type TransportCfg func(*HTTPTransport) error

// WithInsecureSkipVerify turns TLS certificate verification off or on.
// Captive portals commonly present self-signed certificates, so verification
// is off unless this is called with false.
func WithInsecureSkipVerify(skip bool) TransportCfg {
	return func(t *HTTPTransport) error {
		t.insecure = skip
		return nil
	}
}

// WithTimeout bounds each exchange.
func WithTimeout(d time.Duration) TransportCfg {
	return func(t *HTTPTransport) error {
		if d <= 0 {
			return errors.Errorf("timeout must be positive, got %s", d)
		}
		t.timeout = d
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) TransportCfg {
	return func(t *HTTPTransport) error {
		t.userAgent = ua
		return nil
	}
}

// NewHTTPTransport creates a new HTTPTransport with the given configuration.
func NewHTTPTransport(cfgs ...TransportCfg) (*HTTPTransport, error) {
	t := &HTTPTransport{
		userAgent: DefaultUserAgent,
		insecure:  true,
		timeout:   DefaultTimeout,
	}
	for _, cfg := range cfgs {
		if err := cfg(t); err != nil {
			return nil, errors.Wrap(err, "apply HTTPTransport cfg failed")
		}
	}
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: t.insecure} // nolint: gosec // captive portals use self-signed certificates
	t.client = &http.Client{
		Transport: base,
		Timeout:   t.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return t, nil
}

// Get issues a GET request.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request failed")
	}
	return t.do(req)
}

// PostForm issues a POST request with a urlencoded form body.
func (t *HTTPTransport) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request failed")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.do(req)
}

func (t *HTTPTransport) do(req *http.Request) (*Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s failed", req.Method, req.URL.Redacted())
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "read response from %s failed", req.URL.Redacted())
	}
	return &Response{
		StatusCode: resp.StatusCode,
		URL:        req.URL,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
