package portal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/careview/portal/pkg/audit"
	auditpg "github.com/careview/portal/pkg/audit/postgres"
	"github.com/careview/portal/pkg/database"
	"github.com/careview/portal/pkg/database/migrate"
	"github.com/careview/portal/pkg/directory"
	"github.com/careview/portal/pkg/health"
	"github.com/careview/portal/pkg/notify"
	"github.com/careview/portal/pkg/session"
	"github.com/careview/portal/pkg/token"
	tokenpg "github.com/careview/portal/pkg/token/postgres"
)

// Portal owns the portal's runtime services and their lifecycle.
type Portal struct {
	cfg *Config

	Directory *directory.Directory
	Sessions  *session.Manager
	Bus       *notify.Bus
	Health    *health.Checker

	db *sql.DB
}

// Options overrides pieces of the wiring, mainly for tests.
type Options struct {
	// Directory replaces the demo credential directory.
	Directory *directory.Directory

	// TokenStore replaces the config-selected token store.
	TokenStore token.Store

	// Audit replaces the config-selected audit sink.
	Audit audit.Logger

	// DB replaces the connection opened from config.
	DB *sql.DB

	// Logger is used for diagnostics. Nil selects slog.Default.
	Logger *slog.Logger
}

// New builds a portal from configuration. It opens the database when the
// config needs one and runs schema migrations, but does not start the
// session restore; callers run Restore once at process start.
func New(cfg *Config, opts Options) (*Portal, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Portal{cfg: cfg, db: opts.DB}

	dir := opts.Directory
	if dir == nil {
		var err error
		dir, err = directory.NewDemo()
		if err != nil {
			return nil, fmt.Errorf("building credential directory: %w", err)
		}
	}
	p.Directory = dir

	if err := p.openDatabase(); err != nil {
		return nil, err
	}

	store, err := p.buildTokenStore(opts)
	if err != nil {
		return nil, err
	}

	auditor := opts.Audit
	if auditor == nil {
		auditor = p.buildAuditSink(opts)
	}

	p.Sessions = session.NewManager(session.Options{
		Directory:    dir,
		Codec:        token.NewCodec([]byte(cfg.Session.SigningKey), cfg.Session.TokenLifetime),
		Store:        store,
		Audit:        auditor,
		LoginLatency: cfg.Session.LoginLatency,
		Logger:       opts.Logger,
	})
	p.Bus = notify.NewBus(cfg.Notifications.Capacity)
	p.Health = health.NewChecker()

	return p, nil
}

// Restore runs the remembered-session restore and marks the portal ready.
func (p *Portal) Restore(ctx context.Context) {
	p.Sessions.Restore(ctx)
	p.Health.SetReady()
}

// Config returns the active configuration.
func (p *Portal) Config() *Config {
	return p.cfg
}

// Close releases resources: the notification bus, session subscribers,
// and the database connection.
func (p *Portal) Close() error {
	p.Health.SetDraining()
	p.Bus.Close()
	p.Sessions.Close()
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// openDatabase connects and migrates when any component needs Postgres.
func (p *Portal) openDatabase() error {
	needsDB := p.cfg.TokenStore.Type == TokenStorePostgres || p.cfg.Audit.Sink == AuditSinkPostgres
	if !needsDB || p.db != nil {
		if p.db != nil && needsDB {
			if err := migrate.Run(p.db); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
		}
		return nil
	}

	db, err := database.Open(p.cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := migrate.Run(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrating database: %w", err)
	}
	p.db = db
	return nil
}

func (p *Portal) buildTokenStore(opts Options) (token.Store, error) {
	if opts.TokenStore != nil {
		return opts.TokenStore, nil
	}

	switch p.cfg.TokenStore.Type {
	case TokenStoreFile:
		return token.NewFileStore(p.cfg.TokenStore.Path), nil
	case TokenStorePostgres:
		return tokenpg.New(p.db, p.cfg.Session.Installation), nil
	default:
		return token.NewMemoryStore(), nil
	}
}

func (p *Portal) buildAuditSink(opts Options) audit.Logger {
	if p.cfg.Audit.Sink == AuditSinkPostgres {
		return auditpg.New(p.db)
	}
	return audit.NewSlogLogger(opts.Logger)
}
