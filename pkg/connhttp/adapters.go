package connhttp

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Adapter pre-processes requests and post-processes responses of a Conn.
// Requests are processed by adapters in order, responses in reverse order.
type Adapter interface {
	ProcessRequest(req *Request) error
	ProcessResponse(resp *Response) error
	// Descr is included into the connection description (may be empty).
	Descr() string
}

// NopAdapter may be embedded by adapters which do not need all methods.
type NopAdapter struct{}

func (NopAdapter) ProcessRequest(*Request) error   { return nil }
func (NopAdapter) ProcessResponse(*Response) error { return nil }
func (NopAdapter) Descr() string                   { return "" }

func setAuth(req *Request, value string) error {
	if req.Header.Get("Authorization") != "" {
		return ErrAuthConflict
	}
	req.Header.Set("Authorization", value)
	return nil
}

func basicHeader(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// BasicAuth adds basic Authorization header.
type BasicAuth struct {
	NopAdapter
	Login    string
	Password string
}

func (a BasicAuth) ProcessRequest(req *Request) error {
	return setAuth(req, basicHeader(a.Login, a.Password))
}

func (a BasicAuth) Descr() string    { return fmt.Sprintf("with bauth by '%s'", a.Login) }
func (a BasicAuth) AuthType() string { return "basic" }

// ClientAuth adds basic Authorization header with client credentials.
type ClientAuth struct {
	NopAdapter
	ClientName   string
	ClientID     string
	ClientSecret string
}

func (a ClientAuth) ProcessRequest(req *Request) error {
	return setAuth(req, basicHeader(a.ClientID, a.ClientSecret))
}

func (a ClientAuth) Descr() string    { return fmt.Sprintf("with bauth by client '%s'", a.ClientName) }
func (a ClientAuth) AuthType() string { return "client" }

// TokenAuth adds bearer token Authorization header.
type TokenAuth struct {
	NopAdapter
	Token string
	// TokenDescr is an optional human readable description of the token.
	TokenDescr string
}

func (a TokenAuth) ProcessRequest(req *Request) error {
	return setAuth(req, "Bearer "+a.Token)
}

func (a TokenAuth) Descr() string {
	if a.TokenDescr == "" {
		return "with auth by token"
	}
	return fmt.Sprintf("with auth by token '%s'", a.TokenDescr)
}

func (a TokenAuth) AuthType() string { return "token" }

// PathPrefix inserts the prefix between the connection address and the
// request path.
type PathPrefix struct {
	NopAdapter
	Prefix string
}

func (a PathPrefix) ProcessRequest(req *Request) error {
	prefix := strings.TrimSuffix(a.Prefix, "/")
	if prefix == "" {
		return nil
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	req.Path = prefix + "/" + strings.TrimPrefix(req.Path, "/")
	return nil
}

// BasicAuthConn creates a connection with basic authorization.
func BasicAuthConn(address, login, password string, opts ...ConnOption) *Conn {
	opts = append(opts, WithAdapters(BasicAuth{Login: login, Password: password}))
	return New(address, opts...)
}
