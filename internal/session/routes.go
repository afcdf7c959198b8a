package session

import (
	"net/url"
	"slices"
	"strings"

	"github.com/hongminglow/approval-desk/internal/models"
)

const (
	PathRoot         = "/"
	PathLogin        = "/login"
	PathDashboard    = "/dashboard"
	PathTransactions = "/transactions"
	PathCreate       = "/transactions/create"
	PathApprovals    = "/approvals"
)

// TransactionPath is the detail route for id.
func TransactionPath(id string) string {
	return PathTransactions + "/" + url.PathEscape(id)
}

// Route declares who may render a view. A nil Roles slice admits any
// authenticated identity.
type Route struct {
	Pattern string
	Public  bool
	Roles   []models.Role
}

var routes = []Route{
	{Pattern: PathLogin, Public: true},
	{Pattern: PathDashboard},
	{Pattern: PathCreate, Roles: []models.Role{models.Operator}},
	{Pattern: PathApprovals, Roles: []models.Role{models.Approver}},
	{Pattern: PathTransactions},
	{Pattern: PathTransactions + "/{id}"},
}

// Match resolves a path to its route and, for the detail route, the id.
func Match(path string) (Route, string, bool) {
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = PathRoot
	}
	for _, r := range routes {
		prefix, isParam := strings.CutSuffix(r.Pattern, "{id}")
		if !isParam {
			if path == r.Pattern {
				return r, "", true
			}
			continue
		}
		rest, ok := strings.CutPrefix(path, prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			id, err := url.PathUnescape(rest)
			if err != nil {
				return Route{}, "", false
			}
			return r, id, true
		}
	}
	return Route{}, "", false
}

// Outcome is the gating verdict for a navigation.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "not-found"
	}
}

// Decision says what to render for a requested path.
type Decision struct {
	Outcome Outcome
	// Location is where to go: the requested path on Allow, the redirect
	// target otherwise.
	Location string
	// From is the originally requested path, kept on a login redirect so the
	// user can be returned there afterwards.
	From string
	// ID is the transaction id for the detail route.
	ID string
}

// Gate applies the routing contract for an optional identity.
func Gate(identity *models.Identity, path string) Decision {
	if strings.TrimRight(path, "/") == "" {
		path = PathDashboard
	}
	route, id, ok := Match(path)
	if !ok {
		return Decision{Outcome: NotFound, Location: path}
	}
	if route.Public {
		return Decision{Outcome: Allow, Location: path}
	}
	if identity == nil {
		return Decision{Outcome: RedirectLogin, Location: PathLogin, From: path}
	}
	if route.Roles != nil && !slices.Contains(route.Roles, identity.Role) {
		return Decision{Outcome: RedirectHome, Location: PathDashboard}
	}
	return Decision{Outcome: Allow, Location: path, ID: id}
}

// Authorize gates path against the guard's current identity.
func (g *Guard) Authorize(path string) Decision {
	identity, ok := g.Current()
	if !ok {
		return Gate(nil, path)
	}
	return Gate(&identity, path)
}

// NavItem is a navigation entry shown to a role.
type NavItem struct {
	Label string
	Path  string
	Roles []models.Role
}

var navItems = []NavItem{
	{Label: "Create Transaction", Path: PathCreate, Roles: []models.Role{models.Operator}},
	{Label: "My Transactions", Path: PathTransactions, Roles: []models.Role{models.Operator}},
	{Label: "Pending Approvals", Path: PathApprovals, Roles: []models.Role{models.Approver}},
	{Label: "All Transactions", Path: PathTransactions, Roles: []models.Role{models.Approver}},
}

// Navigation returns the entries visible to role. Unknown roles see nothing.
func Navigation(role models.Role) []NavItem {
	var out []NavItem
	for _, item := range navItems {
		if slices.Contains(item.Roles, role) {
			out = append(out, item)
		}
	}
	return out
}
