package mcaller

import (
	"fmt"
	"slices"

	"github.com/akorshkov/aktools/pkg/connhttp"
)

// HTTPConn returns the base http connection of the caller.
func (c *Caller) HTTPConn() *connhttp.Conn { return c.httpConn }

// HTTP returns the connection for the current http method. The path
// prefix of the method's component is added to all requests.
func (call *Call) HTTP() (*connhttp.Conn, error) {
	if call.method.Kind != KindHTTP {
		return nil, fmt.Errorf("%w: %s method %s", ErrWrongKind, call.method.Kind, call.method.Name)
	}
	return call.caller.connFor(call.method)
}

func (c *Caller) matchingComponents(m *Method) []string {
	var res []string
	for _, comp := range m.Components {
		if _, ok := c.prefixMap[comp]; ok {
			res = append(res, comp)
		}
	}
	return res
}

func (c *Caller) connFor(m *Method) (*connhttp.Conn, error) {
	if c.httpConn == nil {
		return nil, fmt.Errorf("%w: no http connection", ErrNoConnection)
	}
	if m.Components == nil {
		return c.httpConn, nil
	}

	matching := c.matchingComponents(m)
	if len(matching) != 1 {
		return nil, fmt.Errorf(
			"%w: http method expects connection to one of the components %v, "+
				"caller has prefixes for %v; matching components: %v",
			ErrComponent, m.Components, c.prefixMap, matching)
	}
	prefix := c.prefixMap[matching[0]]
	if prefix == "" {
		return c.httpConn, nil
	}

	c.connsMu.Lock()
	defer c.connsMu.Unlock()
	conn, ok := c.connsByPrefix[prefix]
	if !ok {
		conn = c.httpConn.Clone(connhttp.PathPrefix{Prefix: prefix})
		c.connsByPrefix[prefix] = conn
	}
	return conn, nil
}

func (c *Caller) httpNotes(m *Method) Notes {
	if c.httpConn == nil {
		return unavailable("caller has no http connection")
	}

	var problems []string
	authType := c.httpConn.AuthType()
	if !slices.Contains(m.authTypes(), authType) {
		problems = append(problems, fmt.Sprintf(
			"wrong connection auth type ('%s' not in %q)", authType, m.authTypes()))
	}
	if m.Components != nil {
		matching := c.matchingComponents(m)
		switch {
		case len(matching) == 0:
			problems = append(problems, fmt.Sprintf(
				"caller has no http connection to any of components %v", m.Components))
		case len(matching) > 1:
			problems = append(problems, fmt.Sprintf("ambiguous components %v", matching))
		}
	}
	if len(problems) > 0 {
		return unavailable(problems...)
	}
	return Notes{Available: true}
}
