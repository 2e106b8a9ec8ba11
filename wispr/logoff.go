package wispr

import (
	"context"
	"net/http"
	"time"

	"github.com/rustycl0ck/go-wispr/store"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Logoff ends the session whose logoff URL the last successful login stored.
func (c *Client) Logoff(ctx context.Context) error {
	logger := log.With(c.logger, "stage", "logoff")
	logoffURL, ok, err := store.LoadLogoffURL(c.store)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoLogoffURL
	}
	level.Debug(logger).Log("msg", "logging off", "url", logoffURL)
	resp, err := c.transport.Get(ctx, logoffURL)
	if err != nil {
		return errors.Wrap(err, "logoff request failed")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		return &IllegalStatusError{StatusCode: resp.StatusCode}
	}
	fields := c.fields(logger, resp)
	if len(fields) == 0 {
		return errors.Wrap(ErrNoWISPrResponse, "logoff")
	}
	reply, err := fields.LogoffReply()
	if err != nil {
		return err
	}
	if reply.Type != MsgLogoff {
		return &UnexpectedMessageError{Stage: "logoff", Type: reply.Type, Code: reply.Code}
	}
	if reply.Code != ResLogoffSuccess {
		return &LogoffFailedError{Code: reply.Code}
	}
	level.Info(logger).Log("msg", "logoff succeeded")
	return nil
}

// abort tells the gateway to drop a pending login. The caller's context is
// usually done by now, so the request gets its own deadline.
func (c *Client) abort(abortURL string) {
	if abortURL == "" {
		return
	}
	logger := log.With(c.logger, "stage", "abort")
	ctx, cancel := context.WithTimeout(context.Background(), c.abortTimeout)
	defer cancel()
	start := time.Now()
	resp, err := c.transport.Get(ctx, abortURL)
	if err != nil {
		level.Warn(logger).Log("msg", "abort login request failed", "err", err, "elapsed", time.Since(start))
		return
	}
	reply, err := c.fields(logger, resp).AbortReply()
	if err != nil {
		level.Warn(logger).Log("msg", "abort login reply unreadable", "err", err)
		return
	}
	if reply.Type != MsgAbortLoginResponse || reply.Code != ResLoginAbort {
		level.Warn(logger).Log("msg", "gateway did not confirm login abort", "type", string(reply.Type), "code", string(reply.Code))
		return
	}
	level.Info(logger).Log("msg", "pending login aborted")
}
