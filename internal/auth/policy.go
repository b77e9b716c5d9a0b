package auth

import (
	"net/http"
	"strings"

	"employee-directory/internal/models"
)

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Rule grants a route to callers holding any of Roles. An empty Method
// matches every method. Patterns use gin syntax; a trailing "/**" matches
// the prefix and everything under it.
type Rule struct {
	Method  string
	Pattern string
	Roles   []string
}

type Policy struct {
	ClientID string
	Public   []string
	Rules    []Rule
}

var PublicRoutes = []string{
	"/health",
	"/migrate-passwords",
	"/api/auth/**",
	"/swagger/**",
	"/metrics",
}

var (
	readRoles   = []string{models.PermReadEmployees, models.PermFullAccess, models.PermClientRead}
	createRoles = []string{models.PermCreateEmployees, models.PermFullAccess, models.PermClientWrite}
	bulkRoles   = []string{models.PermFullAccess, models.PermClientWrite}
	updateRoles = []string{models.PermUpdateEmployees, models.PermFullAccess, models.PermClientWrite}
	deleteRoles = []string{models.PermDeleteEmployees, models.PermFullAccess, models.PermClientWrite}
)

// DefaultRules is the employee API access table. The first matching rule wins.
var DefaultRules = []Rule{
	{Method: http.MethodGet, Pattern: "/api/employees/search", Roles: readRoles},
	{Method: http.MethodGet, Pattern: "/api/employees/:id", Roles: readRoles},
	{Method: http.MethodPost, Pattern: "/api/employees/add", Roles: createRoles},
	{Method: http.MethodPost, Pattern: "/api/employees/add-Multiple", Roles: bulkRoles},
	{Method: http.MethodPost, Pattern: "/api/employees/bulk-upload", Roles: bulkRoles},
	{Method: http.MethodPut, Pattern: "/api/employees/update/**", Roles: updateRoles},
	{Method: http.MethodDelete, Pattern: "/api/employees/delete/**", Roles: deleteRoles},
}

func DefaultPolicy(clientID string) *Policy {
	return &Policy{ClientID: clientID, Public: PublicRoutes, Rules: DefaultRules}
}

// Decide returns the access decision for a request. claims is nil when the
// request carried no valid token.
func (p *Policy) Decide(method, route string, claims *Claims) Decision {
	for _, pattern := range p.Public {
		if matchRoute(pattern, route) {
			return Allow
		}
	}
	if claims == nil {
		return DenyUnauthenticated
	}

	for _, rule := range p.Rules {
		if rule.Method != "" && !strings.EqualFold(rule.Method, method) {
			continue
		}
		if !matchRoute(rule.Pattern, route) {
			continue
		}
		if hasAny(claims.Roles(p.ClientID), rule.Roles) {
			return Allow
		}
		return DenyUnauthorized
	}
	return Allow
}

func hasAny(held, required []string) bool {
	for _, r := range required {
		for _, h := range held {
			if h == r {
				return true
			}
		}
	}
	return false
}

// matchRoute matches a route template or concrete path against pattern.
// ":name" and "*" segments match any single segment.
func matchRoute(pattern, route string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return route == prefix || strings.HasPrefix(route, prefix+"/")
	}

	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	rs := strings.Split(strings.Trim(route, "/"), "/")
	if len(ps) != len(rs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") || ps[i] == "*" {
			continue
		}
		if ps[i] != rs[i] {
			return false
		}
	}
	return true
}
