// Package router decides what the portal renders for a requested path
// given the current authentication state. It is a pure decision function
// with no internal state.
package router

import (
	"log/slog"

	"github.com/careview/portal/pkg/session"
)

// Well-known paths.
const (
	PathRoot      = "/"
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

// ViewKind identifies what to render.
type ViewKind string

const (
	// ViewLoading renders the loading indicator.
	ViewLoading ViewKind = "loading"

	// ViewLogin renders the login screen.
	ViewLogin ViewKind = "login"

	// ViewDashboard renders the dashboard for View.Role.
	ViewDashboard ViewKind = "dashboard"

	// ViewRedirect instructs the shell to navigate to View.Target.
	ViewRedirect ViewKind = "redirect"
)

// View is the resolved rendering decision.
type View struct {
	Kind ViewKind `json:"kind"`

	// Role is set for dashboard views.
	Role string `json:"role,omitempty"`

	// Target is set for redirect views.
	Target string `json:"target,omitempty"`
}

// Resolve maps the authentication state and a requested path to the view
// the shell should render. It never fails: unknown paths redirect, and a
// session carrying a role outside the known variants is treated as
// corrupted and forced back to the login screen.
func Resolve(st session.State, requestedPath string) View {
	if st.Phase.Loading() {
		return View{Kind: ViewLoading}
	}

	if st.Phase != session.PhaseAuthenticated || st.Session == nil {
		if requestedPath == PathLogin {
			return View{Kind: ViewLogin}
		}
		return View{Kind: ViewRedirect, Target: PathLogin}
	}

	if !st.Session.Role.Valid() {
		slog.Warn("router: session carries unknown role, treating as corrupted",
			"role", st.Session.Role.String())
		return View{Kind: ViewRedirect, Target: PathLogin}
	}

	switch requestedPath {
	case PathLogin:
		return View{Kind: ViewRedirect, Target: PathDashboard}
	case PathRoot:
		return View{Kind: ViewRedirect, Target: PathDashboard}
	case PathDashboard:
		return View{Kind: ViewDashboard, Role: st.Session.Role.String()}
	default:
		return View{Kind: ViewRedirect, Target: PathDashboard}
	}
}
