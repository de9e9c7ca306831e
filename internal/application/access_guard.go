package application

import (
	"strings"

	"github.com/bnema/aeye-cli/internal/domain"
)

// Decide is the authorization rule for a single navigation target. A nil
// required set means any authenticated session is admitted.
func Decide(session domain.Session, required domain.RoleSet) domain.Decision {
	switch session.Status {
	case domain.SessionAuthenticated:
	case domain.SessionUnauthenticated:
		return domain.Decision{Kind: domain.DecisionRedirectLogin, Target: domain.PathLogin}
	default:
		return domain.Decision{Kind: domain.DecisionWait}
	}

	if required == nil {
		return domain.Decision{Kind: domain.DecisionAllow}
	}

	role, ok := session.Role()
	if ok && required.Contains(role) {
		return domain.Decision{Kind: domain.DecisionAllow}
	}

	return domain.Decision{Kind: domain.DecisionRedirectDefault, Target: domain.PathDefault}
}

// AccessGuard applies Decide over a fixed route table.
type AccessGuard struct {
	views  []domain.View
	byPath map[string]domain.View
}

func NewAccessGuard(views []domain.View) *AccessGuard {
	if views == nil {
		views = domain.DefaultViews()
	}

	byPath := make(map[string]domain.View, len(views))
	for _, view := range views {
		byPath[normalizePath(view.Path)] = view
	}

	return &AccessGuard{views: views, byPath: byPath}
}

func (g *AccessGuard) View(path string) (domain.View, bool) {
	view, ok := g.byPath[normalizePath(path)]
	return view, ok
}

// Evaluate resolves path to a decision. Unknown paths fall through to the
// login view, as do public views for any session.
func (g *AccessGuard) Evaluate(session domain.Session, path string) domain.Decision {
	return g.evaluate(session, path, maxRedirectHops)
}

const maxRedirectHops = 4

func (g *AccessGuard) evaluate(session domain.Session, path string, hops int) domain.Decision {
	view, ok := g.View(path)
	if !ok {
		if session.Status == domain.SessionInitializing {
			return domain.Decision{Kind: domain.DecisionWait}
		}
		return domain.Decision{Kind: domain.DecisionRedirectLogin, Target: domain.PathLogin}
	}

	if view.Public {
		return domain.Decision{Kind: domain.DecisionAllow, Target: view.Path}
	}

	decision := Decide(session, view.RequiredRoles)
	if decision.Kind != domain.DecisionAllow {
		return decision
	}

	if view.RedirectTo != "" && hops > 0 {
		return g.evaluate(session, view.RedirectTo, hops-1)
	}

	decision.Target = view.Path
	return decision
}

// NavigableViews lists the listed views the session would be allowed to open.
func (g *AccessGuard) NavigableViews(session domain.Session) []domain.View {
	var out []domain.View
	for _, view := range g.views {
		if !view.Listed {
			continue
		}
		if Decide(session, view.RequiredRoles).Kind == domain.DecisionAllow {
			out = append(out, view)
		}
	}
	return out
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.PathRoot
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return domain.PathRoot
	}
	return path
}
