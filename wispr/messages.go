package wispr

import (
	"strconv"
	"time"
)

// MessageType identifies the kind of WISPr message.
type MessageType string

// Message types.
const (
	MsgRedirect           MessageType = "100"
	MsgProxy              MessageType = "110"
	MsgAuthentication     MessageType = "120"
	MsgLogoff             MessageType = "130"
	MsgAuthPollResponse   MessageType = "140"
	MsgAbortLoginResponse MessageType = "150"
)

func (t MessageType) String() string {
	switch t {
	case MsgRedirect:
		return "Redirect"
	case MsgProxy:
		return "Proxy"
	case MsgAuthentication:
		return "Authentication"
	case MsgLogoff:
		return "Logoff"
	case MsgAuthPollResponse:
		return "AuthPollResponse"
	case MsgAbortLoginResponse:
		return "AbortLoginResponse"
	}
	return "unknown"
}

// ResponseCode is the outcome reported within a message type.
// Codes are compared as strings, never as numbers.
type ResponseCode string

// Response codes.
const (
	ResSuccess           ResponseCode = "0"
	ResLoginSuccess      ResponseCode = "50"
	ResLoginFailed       ResponseCode = "100"
	ResAuthError         ResponseCode = "102"
	ResNetworkAdminError ResponseCode = "105"
	ResLogoffSuccess     ResponseCode = "150"
	ResLoginAbort        ResponseCode = "151"
	ResProxyDetection    ResponseCode = "200"
	ResAuthPending       ResponseCode = "201"
	ResInternalError     ResponseCode = "255"
)

// Header holds the two fields every WISPr message carries.
type Header struct {
	Type MessageType
	Code ResponseCode
}

// Proxy is sent by a gateway that needs the client to take another hop
// before it reveals the login page:
//
//	<WISPAccessGatewayParam>
//	  <Proxy>
//	    <MessageType>110</MessageType>
//	    <ResponseCode>0</ResponseCode>
//	    <NextURL>http://gw.example/wispr/next</NextURL>
//	    <Delay>2</Delay>
//	  </Proxy>
//	</WISPAccessGatewayParam>
type Proxy struct {
	Header
	NextURL string
	Delay   time.Duration
}

// Redirect announces the login endpoint of the gateway:
//
//	<WISPAccessGatewayParam>
//	  <Redirect>
//	    <AccessProcedure>1.0</AccessProcedure>
//	    <AccessLocation>cafe-42</AccessLocation>
//	    <LocationName>Example Hotspot</LocationName>
//	    <LoginURL>https://gw.example/login</LoginURL>
//	    <AbortLoginURL>https://gw.example/abort</AbortLoginURL>
//	    <MessageType>100</MessageType>
//	    <ResponseCode>0</ResponseCode>
//	    <VersionLow>1.0</VersionLow>
//	    <VersionHigh>2.0</VersionHigh>
//	  </Redirect>
//	</WISPAccessGatewayParam>
type Redirect struct {
	Header
	LoginURL        string
	AbortLoginURL   string
	LocationName    string
	AccessProcedure string
	VersionLow      string
	VersionHigh     string
}

// AuthReply answers the credential POST and every poll of the
// LoginResultsURL:
//
//	<WISPAccessGatewayParam>
//	  <AuthenticationReply>
//	    <MessageType>120</MessageType>
//	    <ResponseCode>201</ResponseCode>
//	    <ReplyMessage>CDATA[[Checking your account]]</ReplyMessage>
//	    <LoginResultsURL>https://gw.example/results?id=7</LoginResultsURL>
//	    <AbortLoginURL>https://gw.example/abort?id=7</AbortLoginURL>
//	    <Delay>5</Delay>
//	  </AuthenticationReply>
//	</WISPAccessGatewayParam>
type AuthReply struct {
	Header
	ReplyMessage    string
	LoginResultsURL string
	AbortLoginURL   string
	LogoffURL       string
	Delay           time.Duration
	// Fields the reply was read from.
	Fields Fields
}

// LogoffReply answers a GET of the LogoffURL:
//
//	<WISPAccessGatewayParam>
//	  <LogoffReply>
//	    <MessageType>130</MessageType>
//	    <ResponseCode>150</ResponseCode>
//	  </LogoffReply>
//	</WISPAccessGatewayParam>
type LogoffReply struct {
	Header
}

// AbortReply is the answer to a GET of an AbortLoginURL.
type AbortReply struct {
	Header
}

func (f Fields) header(message string) (Header, error) {
	t, ok := f.Get("MessageType")
	if !ok {
		return Header{}, &MissingFieldError{Message: message, Field: "MessageType"}
	}
	c, ok := f.Get("ResponseCode")
	if !ok {
		return Header{}, &MissingFieldError{Message: message, Field: "ResponseCode"}
	}
	return Header{Type: MessageType(t), Code: ResponseCode(c)}, nil
}

// delay reads the optional Delay field. Absent means no delay, anything that
// is not a non-negative integer is rejected.
func (f Fields) delay() (time.Duration, error) {
	v, ok := f.Get("Delay")
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, &InvalidDelayError{Value: v}
	}
	return time.Duration(n) * time.Second, nil
}

// Header returns the message type and response code.
func (f Fields) Header() (Header, error) {
	return f.header("WISPr")
}

// Proxy converts f into a Proxy message.
func (f Fields) Proxy() (Proxy, error) {
	h, err := f.header("Proxy")
	if err != nil {
		return Proxy{}, err
	}
	d, err := f.delay()
	if err != nil {
		return Proxy{}, err
	}
	return Proxy{Header: h, NextURL: f["NextURL"], Delay: d}, nil
}

// Redirect converts f into a Redirect message. LoginURL is required.
func (f Fields) Redirect() (Redirect, error) {
	h, err := f.header("Redirect")
	if err != nil {
		return Redirect{}, err
	}
	login, ok := f.Get("LoginURL")
	if !ok {
		return Redirect{}, &MissingFieldError{Message: "Redirect", Field: "LoginURL"}
	}
	return Redirect{
		Header:          h,
		LoginURL:        login,
		AbortLoginURL:   f["AbortLoginURL"],
		LocationName:    f["LocationName"],
		AccessProcedure: f["AccessProcedure"],
		VersionLow:      f["VersionLow"],
		VersionHigh:     f["VersionHigh"],
	}, nil
}

// AuthReply converts f into an authentication or poll reply.
func (f Fields) AuthReply() (AuthReply, error) {
	h, err := f.header("Authentication")
	if err != nil {
		return AuthReply{}, err
	}
	d, err := f.delay()
	if err != nil {
		return AuthReply{}, err
	}
	return AuthReply{
		Header:          h,
		ReplyMessage:    f["ReplyMessage"],
		LoginResultsURL: f["LoginResultsURL"],
		AbortLoginURL:   f["AbortLoginURL"],
		LogoffURL:       f["LogoffURL"],
		Delay:           d,
		Fields:          f,
	}, nil
}

// LogoffReply converts f into a Logoff reply.
func (f Fields) LogoffReply() (LogoffReply, error) {
	h, err := f.header("Logoff")
	return LogoffReply{Header: h}, err
}

// AbortReply converts f into an abort login reply.
func (f Fields) AbortReply() (AbortReply, error) {
	h, err := f.header("AbortLogin")
	return AbortReply{Header: h}, err
}
