package wispr

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRequiresTypeAndCode(t *testing.T) {
	_, err := Fields{"ResponseCode": "0"}.Header()
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "MessageType", missing.Field)

	_, err = Fields{"MessageType": "100"}.Header()
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "ResponseCode", missing.Field)

	h, err := Fields{"MessageType": "100", "ResponseCode": "0"}.Header()
	require.NoError(t, err)
	assert.Equal(t, Header{Type: MsgRedirect, Code: ResSuccess}, h)
}

func TestCodesCompareAsStrings(t *testing.T) {
	h, err := Fields{"MessageType": "0100", "ResponseCode": "00"}.Header()
	require.NoError(t, err)
	assert.NotEqual(t, MsgRedirect, h.Type)
	assert.NotEqual(t, ResSuccess, h.Code)
}

func TestDelay(t *testing.T) {
	base := func(delay string) Fields {
		f := Fields{"MessageType": "110", "ResponseCode": "0"}
		if delay != "" {
			f["Delay"] = delay
		}
		return f
	}
	p, err := base("").Proxy()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), p.Delay)

	p, err = base("7").Proxy()
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, p.Delay)

	for _, bad := range []string{"soon", "-1", "1.5"} {
		_, err = base(bad).Proxy()
		var invalid *InvalidDelayError
		require.True(t, errors.As(err, &invalid), bad)
		assert.Equal(t, bad, invalid.Value)

		_, err = base(bad).AuthReply()
		require.True(t, errors.As(err, &invalid), bad)
	}
}

func TestRedirectRequiresLoginURL(t *testing.T) {
	_, err := Fields{"MessageType": "100", "ResponseCode": "0"}.Redirect()
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "LoginURL", missing.Field)
	assert.Equal(t, "Redirect message is missing LoginURL", err.Error())
}

func TestAuthReply(t *testing.T) {
	f := Fields{
		"MessageType":     "120",
		"ResponseCode":    "201",
		"ReplyMessage":    "hold on",
		"LoginResultsURL": "https://gw.example/results",
		"AbortLoginURL":   "https://gw.example/abort",
		"Delay":           "3",
	}
	a, err := f.AuthReply()
	require.NoError(t, err)
	assert.Equal(t, AuthReply{
		Header:          Header{Type: MsgAuthentication, Code: ResAuthPending},
		ReplyMessage:    "hold on",
		LoginResultsURL: "https://gw.example/results",
		AbortLoginURL:   "https://gw.example/abort",
		Delay:           3 * time.Second,
		Fields:          f,
	}, a)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "unexpected Logoff message (type 130, code 150) during redirect",
		(&UnexpectedMessageError{Stage: "redirect", Type: MsgLogoff, Code: ResLogoffSuccess}).Error())
	assert.Equal(t, "logoff failed, error 102", (&LogoffFailedError{Code: ResAuthError}).Error())
	assert.True(t, errors.Is(&LogoffFailedError{Code: ResInternalError}, ErrInternal))
	assert.False(t, errors.Is(&LogoffFailedError{Code: ResAuthError}, ErrInternal))
	assert.Equal(t, "unknown", MessageType("999").String())
}
