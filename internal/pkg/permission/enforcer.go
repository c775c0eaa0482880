// Package permission decides which operator roles may call which routes.
package permission

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/rs/zerolog/log"
)

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy is one allow rule: role may perform method on the path pattern.
type Policy struct {
	Role   string
	Path   string
	Method string
}

// DefaultPolicies grants admins everything and limits scanners to the
// canteen counter.
var DefaultPolicies = []Policy{
	{Role: "admin", Path: "/api/*", Method: "*"},
	{Role: "scanner", Path: "/api/tickets", Method: "GET"},
	{Role: "scanner", Path: "/api/tickets/scan", Method: "POST"},
	{Role: "scanner", Path: "/api/tickets/override", Method: "POST"},
	{Role: "scanner", Path: "/api/activity/ws", Method: "GET"},
}

// Enforcer wraps casbin with an in-memory policy set.
type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
}

// NewEnforcer loads policies. Admins inherit every scanner permission.
func NewEnforcer(policies []Policy) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	for _, p := range policies {
		if _, err := enforcer.AddPolicy(p.Role, p.Path, p.Method); err != nil {
			return nil, fmt.Errorf("failed to add policy: %w", err)
		}
	}
	if _, err := enforcer.AddGroupingPolicy("admin", "scanner"); err != nil {
		return nil, fmt.Errorf("failed to add role inheritance: %w", err)
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Allowed reports whether role may call method on path. Errors deny.
func (e *Enforcer) Allowed(role, path, method string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ok, err := e.enforcer.Enforce(role, path, method)
	if err != nil {
		log.Error().Err(err).Str("role", role).Str("path", path).Str("method", method).Msg("Permission check failed")
		return false
	}
	return ok
}

// Grant adds a policy at runtime.
func (e *Enforcer) Grant(p Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(p.Role, p.Path, p.Method); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return nil
}
