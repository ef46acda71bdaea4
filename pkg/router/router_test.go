package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/careview/portal/pkg/directory"
	"github.com/careview/portal/pkg/session"
)

func authenticated(role directory.Role) session.State {
	return session.State{
		Phase: session.PhaseAuthenticated,
		Session: &session.Session{
			UserID: "usr-1",
			Email:  string(role) + "@healthcare.com",
			Role:   role,
		},
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		path  string
		want  View
	}{
		{
			name:  "initializing shows loading regardless of path",
			state: session.State{Phase: session.PhaseInitializing},
			path:  PathDashboard,
			want:  View{Kind: ViewLoading},
		},
		{
			name:  "authenticating shows loading",
			state: session.State{Phase: session.PhaseAuthenticating},
			path:  PathLogin,
			want:  View{Kind: ViewLoading},
		},
		{
			name:  "unauthenticated login path renders login",
			state: session.State{Phase: session.PhaseUnauthenticated},
			path:  PathLogin,
			want:  View{Kind: ViewLogin},
		},
		{
			name:  "unauthenticated dashboard redirects to login",
			state: session.State{Phase: session.PhaseUnauthenticated},
			path:  PathDashboard,
			want:  View{Kind: ViewRedirect, Target: PathLogin},
		},
		{
			name:  "unauthenticated root redirects to login",
			state: session.State{Phase: session.PhaseUnauthenticated},
			path:  PathRoot,
			want:  View{Kind: ViewRedirect, Target: PathLogin},
		},
		{
			name:  "auth failed treated as unauthenticated",
			state: session.State{Phase: session.PhaseAuthFailed},
			path:  PathDashboard,
			want:  View{Kind: ViewRedirect, Target: PathLogin},
		},
		{
			name:  "unauthenticated unknown path redirects to login",
			state: session.State{Phase: session.PhaseUnauthenticated},
			path:  "/nowhere",
			want:  View{Kind: ViewRedirect, Target: PathLogin},
		},
		{
			name:  "authenticated login path redirects to dashboard",
			state: authenticated(directory.RolePatient),
			path:  PathLogin,
			want:  View{Kind: ViewRedirect, Target: PathDashboard},
		},
		{
			name:  "authenticated root redirects to dashboard",
			state: authenticated(directory.RoleDoctor),
			path:  PathRoot,
			want:  View{Kind: ViewRedirect, Target: PathDashboard},
		},
		{
			name:  "patient dashboard",
			state: authenticated(directory.RolePatient),
			path:  PathDashboard,
			want:  View{Kind: ViewDashboard, Role: "patient"},
		},
		{
			name:  "doctor dashboard",
			state: authenticated(directory.RoleDoctor),
			path:  PathDashboard,
			want:  View{Kind: ViewDashboard, Role: "doctor"},
		},
		{
			name:  "admin dashboard",
			state: authenticated(directory.RoleAdmin),
			path:  PathDashboard,
			want:  View{Kind: ViewDashboard, Role: "admin"},
		},
		{
			name:  "authenticated unknown path redirects to dashboard",
			state: authenticated(directory.RoleAdmin),
			path:  "/nowhere",
			want:  View{Kind: ViewRedirect, Target: PathDashboard},
		},
		{
			name:  "corrupted role forces login redirect",
			state: authenticated(directory.Role("superuser")),
			path:  PathDashboard,
			want:  View{Kind: ViewRedirect, Target: PathLogin},
		},
		{
			name: "authenticated phase without session redirects to login",
			state: session.State{
				Phase: session.PhaseAuthenticated,
			},
			path: PathDashboard,
			want: View{Kind: ViewRedirect, Target: PathLogin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.state, tt.path))
		})
	}
}
