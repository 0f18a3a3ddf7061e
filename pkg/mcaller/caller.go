// Package mcaller builds "method callers": registries of named wrappers
// around external methods (http requests, sql requests, json-rpc calls).
//
// A Caller owns the connections; a method gets the connection it needs
// from the Call handle:
//
//	c, _ := mcaller.New(mcaller.WithHTTP(conn, mcaller.PrefixMap{"accounts": "/api/v1"}))
//	c.Register(mcaller.Method{
//		Name:       "get_account",
//		Kind:       mcaller.KindHTTP,
//		AuthTypes:  []string{"basic"},
//		Components: []string{"accounts"},
//		Func: func(ctx context.Context, call *mcaller.Call, input any) (any, error) {
//			conn, err := call.HTTP()
//			if err != nil {
//				return nil, err
//			}
//			return conn.Get(ctx, fmt.Sprintf("accounts/%v", input), nil)
//		},
//	})
//	account, err := c.Call(ctx, "get_account", 42)
package mcaller

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/akorshkov/aktools/internal/logger"
	"github.com/akorshkov/aktools/pkg/connhttp"
)

var log = logger.ForComponent("mcaller")

type Kind string

const (
	KindGeneral Kind = "general"
	KindHTTP    Kind = "http"
	KindSQL     Kind = "sql"
	KindRPC     Kind = "rpc"
)

type Func func(ctx context.Context, call *Call, input any) (any, error)

// Method describes a registered method.
//
// For http methods Components lists components the method may be sent
// to; exactly one of them must be present in caller's PrefixMap. For
// general methods Components are all required to be available.
// AuthTypes of http methods are the expected auth types of the
// connection ("" means no auth; nil is the same as {""}).
type Method struct {
	Name        string
	Description string
	Kind        Kind
	Components  []string
	AuthTypes   []string
	Func        Func
}

func (m *Method) authTypes() []string {
	if m.AuthTypes == nil {
		return []string{""}
	}
	return m.AuthTypes
}

// PrefixMap maps component names to http path prefixes.
type PrefixMap map[string]string

// SQLConnector creates a new db connection.
type SQLConnector func(ctx context.Context) (*sql.DB, error)

type Caller struct {
	mu      sync.RWMutex
	methods map[string]*Method

	components []string

	httpConn      *connhttp.Conn
	prefixMap     PrefixMap
	connsMu       sync.Mutex
	connsByPrefix map[string]*connhttp.Conn

	dbMu        sync.Mutex
	db          *sql.DB
	dbConnector SQLConnector

	rpc *jsonrpc2.Conn
}

type Option func(*Caller)

// WithComponents sets components available for general methods.
func WithComponents(components ...string) Option {
	return func(c *Caller) { c.components = append(c.components, components...) }
}

func WithHTTP(conn *connhttp.Conn, prefixes PrefixMap) Option {
	return func(c *Caller) {
		c.httpConn = conn
		c.prefixMap = prefixes
	}
}

// WithSQL sets the db. connector (optional) is used by Reconnect and to
// connect lazily if db is nil.
func WithSQL(db *sql.DB, connector SQLConnector) Option {
	return func(c *Caller) {
		c.db = db
		c.dbConnector = connector
	}
}

func WithRPC(conn *jsonrpc2.Conn) Option {
	return func(c *Caller) { c.rpc = conn }
}

func New(opts ...Option) *Caller {
	c := &Caller{
		methods:       make(map[string]*Method),
		connsByPrefix: make(map[string]*connhttp.Conn),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone creates a caller with the same methods and connections; the http
// connection gets additional adapters (f.e. another authorization).
func (c *Caller) Clone(adapters ...connhttp.Adapter) *Caller {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := New(WithComponents(c.components...), WithRPC(c.rpc))
	clone.prefixMap = c.prefixMap
	if c.httpConn != nil {
		clone.httpConn = c.httpConn.Clone(adapters...)
	}
	c.dbMu.Lock()
	clone.db, clone.dbConnector = c.db, c.dbConnector
	c.dbMu.Unlock()
	for name, m := range c.methods {
		clone.methods[name] = m
	}
	return clone
}

func (c *Caller) Register(m Method) error {
	if m.Name == "" {
		return fmt.Errorf("method name is empty")
	}
	if m.Func == nil {
		return fmt.Errorf("method %s has no implementation", m.Name)
	}
	if m.Kind == "" {
		m.Kind = KindGeneral
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.methods[m.Name]; exists {
		return fmt.Errorf("method already registered: %s", m.Name)
	}
	c.methods[m.Name] = &m
	return nil
}

func (c *Caller) MustRegister(methods ...Method) {
	for _, m := range methods {
		if err := c.Register(m); err != nil {
			panic(err)
		}
	}
}

func (c *Caller) Get(name string) (*Method, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.methods[name]
	return m, ok
}

// List returns methods sorted by name.
func (c *Caller) List() []*Method {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Method, 0, len(c.methods))
	for _, m := range c.methods {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (c *Caller) Names() []string {
	methods := c.List()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	return names
}

// Call executes the method. Errors are *MethodError.
func (c *Caller) Call(ctx context.Context, name string, input any) (any, error) {
	m, ok := c.Get(name)
	if !ok {
		return nil, newMethodNotFoundError(name)
	}

	log.Info(fmt.Sprintf("++ %s()", name))
	result, err := m.Func(ctx, &Call{caller: c, method: m}, input)
	log.Info(fmt.Sprintf("-- %s()", name))
	if err != nil {
		return nil, newExecutionError(name, err)
	}
	return result, nil
}

// Call is a handle passed to the method being executed.
type Call struct {
	caller *Caller
	method *Method
}

func (call *Call) Method() *Method { return call.method }

func (call *Call) Caller() *Caller { return call.caller }
