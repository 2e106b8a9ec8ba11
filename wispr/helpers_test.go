package wispr

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rustycl0ck/go-wispr/store"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	args := m.Called(ctx, rawURL)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

func (m *mockTransport) PostForm(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	args := m.Called(ctx, rawURL, form)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

// onGet scripts the next answer to a GET of rawURL.
func (m *mockTransport) onGet(rawURL string, resp *Response) {
	m.On("Get", mock.Anything, rawURL).Return(resp, nil).Once()
}

// wisprBody wraps key/value pairs the way gateways embed them in a portal page.
func wisprBody(element string, kv ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Portal</title></head><body>\n<!--\n")
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<WISPAccessGatewayParam xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:noNamespaceSchemaLocation="http://www.acmewisp.com/WISPAccessGatewayParam.xsd">` + "\n")
	fmt.Fprintf(&b, "<%s>\n", element)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "  <%s>%s</%s>\n", kv[i], kv[i+1], kv[i])
	}
	fmt.Fprintf(&b, "</%s>\n</WISPAccessGatewayParam>\n-->\n</body></html>", element)
	return b.String()
}

func newResponse(t *testing.T, status int, rawURL, body string) *Response {
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &Response{StatusCode: status, URL: u, Header: http.Header{}, Body: []byte(body)}
}

func redirectResponse(t *testing.T, rawURL, location, body string) *Response {
	resp := newResponse(t, http.StatusFound, rawURL, body)
	resp.Header.Set("Location", location)
	return resp
}

type sleepRecorder struct {
	slept []time.Duration
	// fail makes the n-th sleep (1-based) return err.
	fail int
	err  error
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	if s.fail == len(s.slept) {
		return s.err
	}
	return nil
}

type fixture struct {
	transport *mockTransport
	store     *store.MemoryStore
	sleeps    *sleepRecorder
	logs      *bytes.Buffer
	client    *Client
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		transport: &mockTransport{},
		store:     store.NewMemoryStore(),
		sleeps:    &sleepRecorder{},
		logs:      &bytes.Buffer{},
	}
	c, err := NewClient(
		WithTransport(f.transport),
		WithStore(f.store),
		WithSleep(f.sleeps.sleep),
		WithLogger(log.NewLogfmtLogger(f.logs)),
	)
	require.NoError(t, err)
	f.client = c
	t.Cleanup(func() { f.transport.AssertExpectations(t) })
	return f
}

const (
	probeURL = DefaultProbeURL
	portal   = "http://gw.example/portal"
	loginURL = "https://gw.example/login"
)

// intercept scripts the probe being redirected to a portal page carrying a
// WISPr fragment.
func (f *fixture) intercept(t *testing.T, element string, kv ...string) {
	f.transport.onGet(probeURL, redirectResponse(t, probeURL, portal, ""))
	f.transport.onGet(portal, newResponse(t, http.StatusOK, portal, wisprBody(element, kv...)))
}

func redirectFields(extra ...string) []string {
	return append([]string{
		"AccessProcedure", "1.0",
		"LocationName", "Example Hotspot",
		"LoginURL", loginURL,
		"MessageType", "100",
		"ResponseCode", "0",
	}, extra...)
}
