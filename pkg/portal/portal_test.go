package portal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careview/portal/pkg/directory"
	"github.com/careview/portal/pkg/session"
)

func newTestPortal(t *testing.T) *Portal {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Session.LoginLatency = time.Millisecond

	p, err := New(cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNewWiresServices(t *testing.T) {
	p := newTestPortal(t)

	assert.NotNil(t, p.Directory)
	assert.NotNil(t, p.Sessions)
	assert.NotNil(t, p.Bus)
	assert.NotNil(t, p.Health)
	assert.NotNil(t, p.Config())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenStore.Type = "redis"

	_, err := New(cfg, Options{})
	assert.Error(t, err)
}

func TestNewNilConfigUsesDefaults(t *testing.T) {
	p, err := New(nil, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, "careview-portal", p.Config().Server.Name)
}

func TestRestoreMarksReady(t *testing.T) {
	p := newTestPortal(t)

	assert.False(t, p.Health.IsReady())
	assert.Equal(t, session.PhaseInitializing, p.Sessions.Current().Phase)

	p.Restore(context.Background())

	assert.True(t, p.Health.IsReady())
	assert.Equal(t, session.PhaseUnauthenticated, p.Sessions.Current().Phase)
}

func TestEndToEndLoginFlow(t *testing.T) {
	p := newTestPortal(t)
	ctx := context.Background()
	p.Restore(ctx)

	require.True(t, p.Sessions.Login(ctx, "patient@healthcare.com", directory.DemoPassword))
	st := p.Sessions.Current()
	require.NotNil(t, st.Session)
	assert.Equal(t, directory.RolePatient, st.Session.Role)

	p.Sessions.Logout()
	assert.Nil(t, p.Sessions.Current().Session)
}

func TestCloseDrains(t *testing.T) {
	cfg := DefaultConfig()
	p, err := New(cfg, Options{})
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Equal(t, "draining", p.Health.State())
}
