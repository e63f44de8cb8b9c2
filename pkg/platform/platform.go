package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/shoppermo/shoppermo-server/internal/apidocs"
	"github.com/shoppermo/shoppermo-server/pkg/account"
	accountpg "github.com/shoppermo/shoppermo-server/pkg/account/postgres"
	"github.com/shoppermo/shoppermo-server/pkg/admin"
	"github.com/shoppermo/shoppermo-server/pkg/database/migrate"
	"github.com/shoppermo/shoppermo-server/pkg/health"
	apihttp "github.com/shoppermo/shoppermo-server/pkg/http"
	"github.com/shoppermo/shoppermo-server/pkg/intake"
	"github.com/shoppermo/shoppermo-server/pkg/merchant"
	"github.com/shoppermo/shoppermo-server/pkg/metrics"
	"github.com/shoppermo/shoppermo-server/pkg/notify"
	"github.com/shoppermo/shoppermo-server/pkg/session"
	"github.com/shoppermo/shoppermo-server/pkg/submission"
	submissionpg "github.com/shoppermo/shoppermo-server/pkg/submission/postgres"
)

// rateLimitCleanupInterval is how often idle client limiters are dropped.
const rateLimitCleanupInterval = time.Minute

// intakePaths are the public form endpoints served by the intake handler.
var intakePaths = []string{
	"/api/waitlist",
	"/api/merchant-applications",
	"/api/contact-sales",
	"/api/contact",
}

// Platform is the assembled Shoppermo service.
type Platform struct {
	config    *Config
	lifecycle *Lifecycle
	health    *health.Checker

	db     *sql.DB
	ownsDB bool

	accounts    *account.Service
	submissions *submission.Service

	adminAuth        *admin.Authenticator
	adminSessions    *session.MemoryStore[admin.Identity]
	merchantSessions *session.MemoryStore[merchant.Identity]

	dispatcher *notify.Dispatcher
	limiter    *apihttp.RateLimiter

	handler http.Handler
}

// New creates a new platform instance.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}

	p := &Platform{
		config:    options.Config,
		lifecycle: NewLifecycle(),
		health:    health.NewChecker(),
	}

	if err := p.initStores(options); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("initializing stores: %w", err)
	}
	p.initSessions(options)
	if err := p.initNotifier(options); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("initializing notifications: %w", err)
	}
	p.initRateLimit()
	p.buildHandler()

	return p, nil
}

// initStores selects PostgreSQL or in-memory persistence.
func (p *Platform) initStores(opts *Options) error {
	p.db = opts.DB
	if p.db == nil && p.config.Database.DSN != "" {
		db, err := openDB(p.config.Database)
		if err != nil {
			return err
		}
		p.db = db
		p.ownsDB = true
	}

	subOpts := []submission.ServiceOption{submission.WithClock(opts.Clock)}
	accOpts := []account.ServiceOption{account.WithServiceClock(opts.Clock)}

	if p.db == nil {
		slog.Warn("no database configured; accounts and submissions are kept in memory")
		p.accounts = account.NewService(account.NewMemoryStore(), accOpts...)
		p.submissions = submission.NewService(submission.NewMemoryStore(), subOpts...)
		return nil
	}

	if !p.config.Database.SkipMigrations {
		if err := migrate.Run(p.db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	db := p.db
	p.health.AddCheck("database", db.PingContext)
	p.accounts = account.NewService(accountpg.New(db), accOpts...)
	p.submissions = submission.NewService(submissionpg.New(db), subOpts...)
	return nil
}

func openDB(cfg DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// initSessions creates both session domains and schedules their sweepers.
func (p *Platform) initSessions(opts *Options) {
	interval := p.config.Session.CleanupInterval

	p.adminSessions = session.NewMemoryStore[admin.Identity](session.DomainAdmin, session.WithClock(opts.Clock))
	p.lifecycle.Register("admin sessions",
		func(context.Context) error {
			p.adminSessions.StartCleanupRoutine(interval)
			return nil
		},
		func(context.Context) error { return p.adminSessions.Close() },
	)

	p.merchantSessions = session.NewMemoryStore[merchant.Identity](session.DomainMerchant, session.WithClock(opts.Clock))
	p.lifecycle.Register("merchant sessions",
		func(context.Context) error {
			p.merchantSessions.StartCleanupRoutine(interval)
			return nil
		},
		func(context.Context) error { return p.merchantSessions.Close() },
	)

	p.adminAuth = admin.NewAuthenticator(p.config.Admin.Password, p.adminSessions)
}

// initNotifier builds the sender and the background dispatcher.
func (p *Platform) initNotifier(opts *Options) error {
	sender := opts.Sender
	if sender == nil {
		var err error
		if sender, err = p.createSender(); err != nil {
			return err
		}
	}

	p.dispatcher = notify.NewDispatcher(sender, p.config.Notify.Timeout)
	p.lifecycle.OnStop("notifications", p.dispatcher.Close)
	return nil
}

func (p *Platform) createSender() (notify.Sender, error) {
	cfg := p.config.Notify
	if cfg.Provider != NotifyProviderGmail {
		slog.Info("notifications are logged only", "provider", cfg.Provider)
		return notify.LogSender{}, nil
	}

	sender, err := notify.NewGmailSender(context.Background(), notify.GmailConfig{
		Recipient:    cfg.Recipient,
		From:         cfg.From,
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		RefreshToken: cfg.Gmail.RefreshToken,
		AccessToken:  cfg.Gmail.AccessToken,
		BaseURL:      cfg.Gmail.BaseURL,
		TokenURL:     cfg.Gmail.TokenURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gmail sender: %w", err)
	}
	return sender, nil
}

func (p *Platform) initRateLimit() {
	cfg := p.config.RateLimit
	if !cfg.Enabled {
		return
	}
	p.limiter = apihttp.NewRateLimiter(apihttp.RateLimitConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		TrustProxy:        cfg.TrustProxy,
	})
	p.lifecycle.Register("rate limiter",
		func(context.Context) error {
			p.limiter.StartCleanupRoutine(rateLimitCleanupInterval)
			return nil
		},
		func(context.Context) error { return p.limiter.Close() },
	)
}

// buildHandler assembles the routes and the middleware chain. The rate
// limiter applies to /api/ only so probes and scrapes are never throttled.
func (p *Platform) buildHandler() {
	api := http.NewServeMux()
	api.Handle("/api/admin/", admin.NewHandler(admin.Deps{
		Auth:        p.adminAuth,
		Accounts:    p.accounts,
		Submissions: p.submissions,
	}))
	api.Handle("/api/merchant/", merchant.NewHandler(p.accounts, p.merchantSessions))

	forms := intake.NewHandler(p.submissions, p.dispatcher)
	for _, path := range intakePaths {
		api.Handle("POST "+path, forms)
		api.HandleFunc(path, postOnly)
	}
	if !p.config.Server.DisableDocs {
		api.Handle("GET /api/docs/", apidocs.Handler())
	}
	api.HandleFunc("/api/", notFound)

	var apiHandler http.Handler = api
	if p.limiter != nil {
		apiHandler = p.limiter.Middleware(apiHandler)
	}

	root := http.NewServeMux()
	root.Handle("/api/", apiHandler)
	root.Handle("GET /healthz", p.health.LivenessHandler())
	root.Handle("GET /readyz", p.health.ReadinessHandler())
	root.Handle("GET /metrics", metrics.Handler())
	root.HandleFunc("/", notFound)

	p.handler = metrics.InstrumentHandler(apihttp.RequestLogger(root))
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	apihttp.WriteError(w, http.StatusNotFound, "Not found")
}

func postOnly(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	apihttp.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// Start starts background components and marks the service ready.
func (p *Platform) Start(ctx context.Context) error {
	if err := p.lifecycle.Start(ctx); err != nil {
		return err
	}
	p.health.SetReady()
	return nil
}

// Stop marks the service draining, then stops background components. Pending
// notifications are delivered or abandoned when ctx is done.
func (p *Platform) Stop(ctx context.Context) error {
	p.health.SetDraining()
	return p.lifecycle.Stop(ctx)
}

// Handler returns the root HTTP handler.
func (p *Platform) Handler() http.Handler {
	return p.handler
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Health returns the health checker.
func (p *Platform) Health() *health.Checker {
	return p.health
}

// Accounts returns the merchant account service.
func (p *Platform) Accounts() *account.Service {
	return p.accounts
}

// Submissions returns the submission service.
func (p *Platform) Submissions() *submission.Service {
	return p.submissions
}

// Close releases the database connection if the platform opened it.
func (p *Platform) Close() error {
	if p.ownsDB && p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
		p.db = nil
	}
	return nil
}
