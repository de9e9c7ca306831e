package domain

const (
	PathLogin     = "/login"
	PathRoot      = "/"
	PathFeed      = "/feed"
	PathAnalytics = "/analytics"
	PathAdmin     = "/admin"

	PathDefault = PathFeed
)

type DecisionKind string

const (
	DecisionWait            DecisionKind = "wait"
	DecisionAllow           DecisionKind = "allow"
	DecisionRedirectLogin   DecisionKind = "redirect_login"
	DecisionRedirectDefault DecisionKind = "redirect_default"
)

// Decision is the outcome of a guard check. Target is the path to render or
// to redirect to; it is empty for DecisionWait.
type Decision struct {
	Kind   DecisionKind
	Target string
}

type View struct {
	Name          string
	Path          string
	RequiredRoles RoleSet
	// RedirectTo forwards an admitted session elsewhere, e.g. the root path.
	RedirectTo string
	Public     bool
	Listed     bool
}

func DefaultViews() []View {
	return []View{
		{Name: "Login", Path: PathLogin, Public: true},
		{Name: "Home", Path: PathRoot, RedirectTo: PathDefault},
		{Name: "Live Feed", Path: PathFeed, RequiredRoles: Roles(RoleUser, RoleManager, RoleAdmin), Listed: true},
		{Name: "Analytics", Path: PathAnalytics, RequiredRoles: Roles(RoleManager, RoleAdmin), Listed: true},
		{Name: "Admin", Path: PathAdmin, RequiredRoles: Roles(RoleAdmin), Listed: true},
	}
}
