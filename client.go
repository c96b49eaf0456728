package portalsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/ladupla/portalsync/internal/remote"
)

// DefaultAdminEmail is the account created on an empty user collection so a
// fresh install is never locked out.
const DefaultAdminEmail = "admin@laclinicadelecommerce.com"

const defaultAdminPassword = "admin"

// Portal is the top-level sync client: the local cache, the typed
// repositories over it, the reconciler, and the auth gate. All methods are
// safe for concurrent use.
type Portal struct {
	cfg        Config
	store      *Store
	remote     remote.Client
	pump       *mirrorPump
	reconciler *Reconciler
	debug      *DebugLogger
	log        *slog.Logger

	users    *UserRepo
	clients  *ClientRepo
	sessions *SessionRepo
	modules  *ModuleRepo
	lessons  *LessonRepo
	progress *ProgressRepo
	reports  *ReportRepo
	auth     *AuthGate
}

// New creates a portal client from the given configuration. With no
// RemoteURL the client runs offline: all reads and writes hit the local
// cache and nothing is mirrored.
func New(cfg Config) (*Portal, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := NewStore(cfg.LocalPath)
	if err != nil {
		return nil, err
	}

	debug, err := NewDebugLogger(cfg.Debug, cfg.DebugLogPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	log := slog.Default().With("component", "portalsync")

	p := &Portal{
		cfg:   cfg,
		store: store,
		debug: debug,
		log:   log,
	}

	if !cfg.IsOffline() {
		p.remote = remote.NewHTTPClient(cfg.RemoteURL, cfg.APIKey).WithDebug(debug)
		p.pump = newMirrorPump(p.remote, store, log, cfg.MirrorTimeout)
		p.reconciler = newReconciler(p.remote, store, log, cfg.SyncTimeout)
	}

	deps := repoDeps{store: store, pump: p.pump, log: log}
	p.users = &UserRepo{deps}
	p.clients = &ClientRepo{deps}
	p.sessions = &SessionRepo{deps}
	p.modules = &ModuleRepo{deps}
	p.lessons = &LessonRepo{deps}
	p.progress = &ProgressRepo{deps}
	p.reports = &ReportRepo{deps}
	p.auth = &AuthGate{users: p.users, clients: p.clients, store: store, log: log}

	return p, nil
}

// Init brings the cache up to date before the portal starts serving: one
// blocking reconciliation pass (skipped offline), then the bootstrap admin
// if the user collection came up empty. An unreachable mirror is not fatal;
// the portal starts from the cache.
func (p *Portal) Init(ctx context.Context) (*SyncReport, error) {
	var report *SyncReport
	if p.reconciler != nil {
		var err error
		report, err = p.reconciler.SyncFromRemote(ctx)
		if err != nil {
			return nil, err
		}
	}

	if err := p.ensureAdmin(); err != nil {
		return report, err
	}
	return report, nil
}

// Refresh runs another reconciliation pass on demand. Returns ErrOffline
// when no remote mirror is configured.
func (p *Portal) Refresh(ctx context.Context) (*SyncReport, error) {
	if p.reconciler == nil {
		return nil, ErrOffline
	}
	return p.reconciler.SyncFromRemote(ctx)
}

// PushPending re-issues the remote mirror write for every record still
// pending. Returns ErrOffline when no remote mirror is configured.
func (p *Portal) PushPending(ctx context.Context) error {
	if p.reconciler == nil {
		return ErrOffline
	}
	return p.reconciler.PushPending(ctx)
}

// ensureAdmin seeds the default admin account when no users exist, so a
// fresh install (or an empty remote) always has a working login.
func (p *Portal) ensureAdmin() error {
	users, err := p.users.All()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}

	_, err = p.users.Save(User{
		Email:        DefaultAdminEmail,
		PasswordHash: hash,
		Name:         "Admin",
		Role:         RoleAdmin,
	})
	if err != nil {
		return err
	}

	p.log.Info("seeded default admin account", "email", DefaultAdminEmail)
	return nil
}

// Users returns the user repository.
func (p *Portal) Users() *UserRepo { return p.users }

// Clients returns the client repository.
func (p *Portal) Clients() *ClientRepo { return p.clients }

// Sessions returns the audit-session repository.
func (p *Portal) Sessions() *SessionRepo { return p.sessions }

// Modules returns the training-module repository.
func (p *Portal) Modules() *ModuleRepo { return p.modules }

// Lessons returns the lesson repository.
func (p *Portal) Lessons() *LessonRepo { return p.lessons }

// Progress returns the user-progress repository.
func (p *Portal) Progress() *ProgressRepo { return p.progress }

// Reports returns the AI-report repository.
func (p *Portal) Reports() *ReportRepo { return p.reports }

// Auth returns the auth gate.
func (p *Portal) Auth() *AuthGate { return p.auth }

// Offline reports whether the portal runs without a remote mirror.
func (p *Portal) Offline() bool { return p.remote == nil }

// Stats returns cache statistics.
func (p *Portal) Stats() (*StoreStats, error) {
	return p.store.Stats()
}

// HealthCheck verifies the local cache and, when configured, remote mirror
// connectivity.
func (p *Portal) HealthCheck(ctx context.Context) *HealthStatus {
	status := &HealthStatus{Healthy: true, StoreOK: true}

	if _, err := p.store.Stats(); err != nil {
		status.Healthy = false
		status.StoreOK = false
		status.Error = err.Error()
		return status
	}

	if p.remote != nil {
		if err := p.remote.Ping(ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
		} else {
			status.RemoteReachable = true
		}
	}

	return status
}

// Close flushes in-flight mirror writes and closes the cache. Mirror writes
// still queued after the timeout stay pending and retry on next start.
func (p *Portal) Close() error {
	p.pump.close(5 * time.Second)
	if err := p.debug.Close(); err != nil {
		p.log.Warn("closing debug log failed", "error", err)
	}
	return p.store.Close()
}
