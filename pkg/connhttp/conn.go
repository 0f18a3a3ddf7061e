// Package connhttp sends http(s) requests to a single address.
//
// A Conn may have adapters which pre-process requests (add auth headers,
// path prefixes) and post-process responses.
package connhttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/akorshkov/aktools/internal/logger"
)

var log = logger.ForComponent("connhttp")

var ErrAuthConflict = errors.New("request already has Authorization header")

const requestIDHeader = "X-Request-ID"

// maxErrorBody is the number of body bytes shown in HTTPError messages.
const maxErrorBody = 200

// HTTPError is returned by non-raw calls when response status is >= 400.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	body := string(e.Body)
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.Status, http.StatusText(e.Status), body)
}

// Request is the request being prepared. Adapters may modify it before
// it is sent.
type Request struct {
	Method string
	Path   string
	Params url.Values
	Header http.Header
	Body   []byte
}

// Response of the call. Value is decoded json body of a non-raw call
// (nil for empty body).
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Value  any
	// IsError is set for raw calls which got status >= 400.
	IsError bool
}

// Decode decodes the json body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Options of a single call.
type Options struct {
	// Method is GET or POST (if Data is provided) by default.
	Method string
	Params url.Values
	// Data may be []byte, string or any value which can be encoded
	// to json.
	Data    any
	Headers map[string]string
	// Raw calls do not decode the body and do not fail on error statuses.
	Raw bool
}

// Conn makes http(s) requests to the address.
type Conn struct {
	address  string
	adapters []Adapter
	client   *http.Client

	sendReqIDs bool
	reqIDPart  string
	mu         sync.Mutex
	nextReqID  int
}

type ConnOption func(*Conn)

func WithAdapters(adapters ...Adapter) ConnOption {
	return func(c *Conn) { c.adapters = append(c.adapters, adapters...) }
}

// WithoutRequestIDs disables automatic X-Request-ID header.
func WithoutRequestIDs() ConnOption {
	return func(c *Conn) { c.sendReqIDs = false }
}

func WithClient(client *http.Client) ConnOption {
	return func(c *Conn) { c.client = client }
}

// New creates a connection. Certificates of https servers are not verified.
func New(address string, opts ...ConnOption) *Conn {
	c := &Conn{
		address:    address,
		sendReqIDs: true,
		reqIDPart:  uuid.NewString()[:4],
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{}
		if strings.HasPrefix(strings.ToLower(address), "https://") {
			c.client.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}
	return c
}

// Clone creates a connection to the same address with additional adapters.
func (c *Conn) Clone(adapters ...Adapter) *Conn {
	all := make([]Adapter, 0, len(c.adapters)+len(adapters))
	all = append(all, c.adapters...)
	all = append(all, adapters...)
	opts := []ConnOption{WithClient(c.client), WithAdapters(all...)}
	if !c.sendReqIDs {
		opts = append(opts, WithoutRequestIDs())
	}
	return New(c.address, opts...)
}

func (c *Conn) Address() string { return c.address }

func (c *Conn) Adapters() []Adapter { return c.adapters }

// AuthType returns "basic", "client", "token" or "" depending on the
// auth adapter of the connection.
func (c *Conn) AuthType() string {
	for i := len(c.adapters) - 1; i >= 0; i-- {
		if a, ok := c.adapters[i].(interface{ AuthType() string }); ok {
			return a.AuthType()
		}
	}
	return ""
}

func (c *Conn) String() string {
	parts := []string{fmt.Sprintf("Connection to '%s'", c.address)}
	for _, a := range c.adapters {
		if d := a.Descr(); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, " ")
}

func (c *Conn) requestID() string {
	c.mu.Lock()
	n := c.nextReqID
	c.nextReqID++
	c.mu.Unlock()
	return fmt.Sprintf("%s%04d-0000-0000-0000-%012d", c.reqIDPart, n%10000, n)
}

// Get is a shortcut for a GET call returning decoded json.
func (c *Conn) Get(ctx context.Context, path string, params url.Values) (any, error) {
	resp, err := c.Call(ctx, path, Options{Method: http.MethodGet, Params: params})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Post is a shortcut for a POST call returning decoded json.
func (c *Conn) Post(ctx context.Context, path string, data any) (any, error) {
	resp, err := c.Call(ctx, path, Options{Method: http.MethodPost, Data: data})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Call makes the http request.
func (c *Conn) Call(ctx context.Context, path string, opts Options) (*Response, error) {
	req, err := c.prepare(path, opts)
	if err != nil {
		return nil, err
	}
	for _, a := range c.adapters {
		if err := a.ProcessRequest(req); err != nil {
			return nil, fmt.Errorf("adapter %T: %w", a, err)
		}
	}

	fullURL := c.url(req)
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header = req.Header

	logRequest(req, fullURL)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", req.Method, fullURL, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	log.Debug("http response", "method", req.Method, "url", fullURL,
		"status", httpResp.StatusCode, "headers", httpResp.Header, "data", string(respBody))

	resp := &Response{
		Status:  httpResp.StatusCode,
		Header:  httpResp.Header,
		Body:    respBody,
		IsError: httpResp.StatusCode >= 400,
	}
	if !opts.Raw {
		if resp.IsError {
			return nil, &HTTPError{Method: req.Method, URL: fullURL, Status: resp.Status, Body: respBody}
		}
		if len(bytes.TrimSpace(respBody)) > 0 {
			if err := json.Unmarshal(respBody, &resp.Value); err != nil {
				return nil, fmt.Errorf("failed to parse response of %s %s: %w", req.Method, fullURL, err)
			}
		}
	}

	for i := len(c.adapters) - 1; i >= 0; i-- {
		if err := c.adapters[i].ProcessResponse(resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *Conn) prepare(path string, opts Options) (*Request, error) {
	req := &Request{
		Method: strings.ToUpper(opts.Method),
		Path:   path,
		Params: opts.Params,
		Header: http.Header{},
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if c.sendReqIDs && req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, c.requestID())
	}

	switch data := opts.Data.(type) {
	case nil:
	case []byte:
		req.Body = data
	case string:
		req.Body = []byte(data)
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request data: %w", err)
		}
		req.Body = b
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	if req.Method == "" {
		req.Method = http.MethodGet
		if len(req.Body) > 0 {
			req.Method = http.MethodPost
		}
	}
	return req, nil
}

func (c *Conn) url(req *Request) string {
	path := req.Path
	if !strings.HasSuffix(c.address, "/") && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(req.Params) > 0 {
		path += "?" + req.Params.Encode()
	}
	return c.address + path
}

func logRequest(req *Request, fullURL string) {
	headers := req.Header.Clone()
	if headers.Get("Authorization") != "" {
		headers.Set("Authorization", "***")
	}
	args := []any{"method", req.Method, "url", fullURL, "headers", headers}
	if req.Body != nil {
		args = append(args, "data", string(req.Body))
	}
	log.Debug("http request", args...)
}
