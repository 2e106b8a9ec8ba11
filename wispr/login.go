package wispr

import (
	"context"
	"net/url"

	"github.com/rustycl0ck/go-wispr/store"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// LoginStatus is the outcome of a login that did not fail with an error.
type LoginStatus int

// Login outcomes.
const (
	// LoginUnknown means the gateway ended authentication with a code that
	// is neither success nor failure.
	LoginUnknown LoginStatus = iota
	LoginSucceeded
	LoginRejected
	// AlreadyOnline means the probe was not intercepted.
	AlreadyOnline
	// NoGateway means the probe was intercepted by something that does not
	// speak WISPr.
	NoGateway
)

func (s LoginStatus) String() string {
	switch s {
	case LoginSucceeded:
		return "succeeded"
	case LoginRejected:
		return "rejected"
	case AlreadyOnline:
		return "already online"
	case NoGateway:
		return "no gateway"
	}
	return "unknown"
}

// LoginResult is what Login learned from the gateway.
type LoginResult struct {
	Status       LoginStatus
	Code         ResponseCode
	ReplyMessage string
	LogoffURL    string
	// Fields of the final gateway answer, kept for diagnosis.
	Fields Fields
}

// OK reports whether the network is usable after the login.
func (r LoginResult) OK() bool {
	return r.Status == LoginSucceeded || r.Status == AlreadyOnline
}

// Login authenticates with the WISPr gateway intercepting the probe. The
// logoff URL of a successful session replaces the stored one.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	logger := log.With(c.logger, "stage", "probe")
	resp, err := c.probe(ctx, logger)
	if err != nil {
		return LoginResult{}, err
	}
	if !HasMarker(resp.Body) {
		if c.online(resp) {
			level.Info(logger).Log("msg", "already online, aborting")
			return LoginResult{Status: AlreadyOnline}, nil
		}
		level.Info(logger).Log("msg", "no WISPr gateway detected, aborting")
		return LoginResult{Status: NoGateway}, nil
	}

	resp, fields, err := c.followProxies(ctx, resp, c.fields(logger, resp))
	if err != nil {
		return LoginResult{}, err
	}
	h, err := fields.Header()
	if err != nil {
		return LoginResult{}, err
	}
	if h.Type != MsgRedirect || h.Code != ResSuccess {
		return LoginResult{}, &UnexpectedMessageError{Stage: "redirect", Type: h.Type, Code: h.Code}
	}
	redirect, err := fields.Redirect()
	if err != nil {
		return LoginResult{}, err
	}
	redirect.LoginURL = resp.Resolve(redirect.LoginURL)
	redirect.AbortLoginURL = resp.Resolve(redirect.AbortLoginURL)

	auth, err := c.submit(ctx, redirect, username, password)
	if err != nil {
		return LoginResult{}, err
	}
	auth, err = c.poll(ctx, redirect, auth)
	if err != nil {
		return LoginResult{}, err
	}
	return c.finish(auth)
}

// followProxies walks the chain of Proxy messages a gateway may put in front
// of the Redirect message.
func (c *Client) followProxies(ctx context.Context, resp *Response, fields Fields) (*Response, Fields, error) {
	logger := log.With(c.logger, "stage", "proxy")
	for {
		h, err := fields.Header()
		if err != nil {
			return nil, nil, err
		}
		if h.Type != MsgProxy || h.Code != ResSuccess {
			return resp, fields, nil
		}
		proxy, err := fields.Proxy()
		if err != nil {
			return nil, nil, err
		}
		next := resp.Resolve(proxy.NextURL)
		if next == "" {
			next = resp.URL.String()
		}
		level.Info(logger).Log("msg", "following proxy redirect", "delay", proxy.Delay)
		if err := c.sleep(ctx, proxy.Delay); err != nil {
			return nil, nil, errors.Wrap(err, "proxy delay interrupted")
		}
		resp, err = c.transport.Get(ctx, next)
		if err != nil {
			return nil, nil, errors.Wrap(err, "follow proxy redirect failed")
		}
		fields = c.fields(logger, resp)
	}
}

// credentials builds the login form for the highest version the gateway
// supports.
func (c *Client) credentials(redirect Redirect, username, password string) url.Values {
	form := url.Values{}
	form.Set("UserName", username)
	form.Set("Password", password)
	if redirect.VersionHigh == "2.0" {
		form.Set("WISPrVersion", "2.0")
		return form
	}
	form.Set("button", "Login")
	form.Set("FNAME", "0")
	form.Set("OriginatingServer", c.probeURL)
	return form
}

func (c *Client) submit(ctx context.Context, redirect Redirect, username, password string) (AuthReply, error) {
	logger := log.With(c.logger, "stage", "credentials")
	form := c.credentials(redirect, username, password)
	if form.Get("WISPrVersion") != "" {
		level.Info(logger).Log("msg", "attempting WISPr2 login")
	} else {
		level.Info(logger).Log("msg", "attempting WISPr1 login")
	}
	level.Info(logger).Log("msg", "submitting credentials", "url", redirect.LoginURL)
	resp, err := c.transport.PostForm(ctx, redirect.LoginURL, form)
	if err != nil {
		return AuthReply{}, errors.Wrap(err, "submit credentials failed")
	}
	fields := c.fields(logger, resp)
	h, err := fields.Header()
	if err != nil {
		return AuthReply{}, err
	}
	if h.Type != MsgAuthentication {
		return AuthReply{}, &UnexpectedMessageError{Stage: "credentials", Type: h.Type, Code: h.Code}
	}
	auth, err := authReply(resp, fields)
	if err != nil {
		return AuthReply{}, err
	}
	c.serverSays(logger, auth)
	return auth, nil
}

// poll asks the gateway for the login result until it is no longer pending.
// The results URL of an earlier round is reused when a round omits it.
func (c *Client) poll(ctx context.Context, redirect Redirect, auth AuthReply) (AuthReply, error) {
	logger := log.With(c.logger, "stage", "poll")
	var resultsURL string
	abortURL := redirect.AbortLoginURL
	for auth.Code == ResAuthPending {
		if auth.LoginResultsURL != "" {
			resultsURL = auth.LoginResultsURL
		}
		if auth.AbortLoginURL != "" {
			abortURL = auth.AbortLoginURL
		}
		if resultsURL == "" {
			return AuthReply{}, &MissingFieldError{Message: "Authentication", Field: "LoginResultsURL"}
		}
		level.Info(logger).Log("msg", "polling for login status", "url", resultsURL, "delay", auth.Delay)
		if err := c.sleep(ctx, auth.Delay); err != nil {
			c.abort(abortURL)
			return AuthReply{}, errors.Wrap(err, "poll delay interrupted")
		}
		resp, err := c.transport.Get(ctx, resultsURL)
		if err != nil {
			if ctx.Err() != nil {
				c.abort(abortURL)
			}
			return AuthReply{}, errors.Wrap(err, "poll login results failed")
		}
		auth, err = authReply(resp, c.fields(logger, resp))
		if err != nil {
			return AuthReply{}, err
		}
		c.serverSays(logger, auth)
	}
	return auth, nil
}

// authReply reads an authentication reply and makes its URLs absolute.
func authReply(resp *Response, fields Fields) (AuthReply, error) {
	auth, err := fields.AuthReply()
	if err != nil {
		return AuthReply{}, err
	}
	auth.LoginResultsURL = resp.Resolve(auth.LoginResultsURL)
	auth.AbortLoginURL = resp.Resolve(auth.AbortLoginURL)
	auth.LogoffURL = resp.Resolve(auth.LogoffURL)
	return auth, nil
}

func (c *Client) finish(auth AuthReply) (LoginResult, error) {
	logger := log.With(c.logger, "stage", "result")
	result := LoginResult{
		Code:         auth.Code,
		ReplyMessage: auth.ReplyMessage,
		LogoffURL:    auth.LogoffURL,
		Fields:       auth.Fields,
	}
	switch auth.Code {
	case ResLoginSuccess:
		if err := store.SaveLogoffURL(c.store, auth.LogoffURL); err != nil {
			return LoginResult{}, errors.Wrap(err, "save logoff url failed")
		}
		result.Status = LoginSucceeded
		level.Info(logger).Log("msg", "login succeeded")
	case ResLoginFailed:
		result.Status = LoginRejected
		level.Info(logger).Log("msg", "login failed")
	default:
		result.Status = LoginUnknown
		level.Warn(logger).Log("msg", "unresolved login outcome", "code", string(auth.Code), "type", string(auth.Type), "fields", fieldsString(auth.Fields))
	}
	return result, nil
}

func (c *Client) serverSays(logger log.Logger, auth AuthReply) {
	if auth.ReplyMessage != "" {
		level.Info(logger).Log("msg", "server says", "reply", auth.ReplyMessage)
	}
}
