package cli

import (
	"bufio"
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/client/client"
	"github.com/dmitrijs2005/gophstore/internal/client/config"
	"github.com/dmitrijs2005/gophstore/internal/client/guard"
	"github.com/dmitrijs2005/gophstore/internal/client/localdb"
	"github.com/dmitrijs2005/gophstore/internal/client/middleware"
	"github.com/dmitrijs2005/gophstore/internal/client/services"
	"github.com/dmitrijs2005/gophstore/internal/client/session"
	"github.com/dmitrijs2005/gophstore/internal/client/state"
	"github.com/dmitrijs2005/gophstore/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophstore/internal/client/upload"
	"github.com/dmitrijs2005/gophstore/internal/logging"
)

var errNotLoggedIn = errors.New("please log in")

// App is the terminal client. All collaborators are built by NewApp.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	tokens tokenstore.Store
	api    *client.Client

	auth    services.AuthService
	users   services.UserService
	storage services.StorageService

	session *session.Manager
	guard   *guard.Guard
	nav     *state.Navigator
	profile *state.UserStore
	uploads *upload.Queue
	mw      *middleware.Client

	reader *bufio.Reader
	out    *syncWriter
}

// NewApp opens the local database (unless cfg.Ephemeral) and wires every
// service against cfg.ServerURL.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		config:  cfg,
		logger:  logging.New(os.Stderr, cfg.LogLevel),
		nav:     state.NewNavigator(),
		profile: state.NewUserStore(),
		reader:  bufio.NewReader(os.Stdin),
		out:     &syncWriter{w: os.Stdout},
	}

	if cfg.Ephemeral {
		a.tokens = tokenstore.NewMemoryStore()
	} else {
		db, err := localdb.Open(ctx, cfg.DatabasePath)
		if err != nil {
			a.logger.Error(ctx, "error initializing database", "path", cfg.DatabasePath, "error", err)
			return nil, err
		}
		a.db = db
		a.tokens = tokenstore.NewSQLiteStore(db)
	}

	api, err := client.New(cfg.ServerURL, a.tokens,
		client.WithLogger(a.logger.With("component", "http")),
		client.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	a.api = api

	a.auth = services.NewAuthService(api, a.tokens, a.logger)
	a.users = services.NewUserService(api)
	a.storage = services.NewStorageService(api, a.logger)

	a.session = session.NewManager(a.tokens, api, session.WithLogger(a.logger))
	a.guard = guard.New(a.session,
		guard.WithAfterNavigate(a.loadProfile),
		guard.WithLogger(a.logger),
	)

	report := newUploadReporter(a.printf)
	a.uploads = upload.NewQueue(a.storage,
		upload.WithLogger(a.logger.With("component", "upload")),
		upload.WithOnChange(report.onChange),
	)

	mwOpts := []middleware.Option{middleware.WithLogger(a.logger.With("component", "middleware"))}
	if cfg.MiddlewareInsecure {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // local self-signed middleware
		mwOpts = append(mwOpts, middleware.WithHTTPClient(&http.Client{Transport: transport, Timeout: cfg.RequestTimeout}))
	}
	mw, err := middleware.New(cfg.MiddlewareURL, mwOpts...)
	if err != nil {
		a.uploads.Close()
		a.closeDB()
		return nil, err
	}
	a.mw = mw

	return a, nil
}

// Run starts the REPL and blocks until the user exits or ctx is done.
// Pending uploads are waited for before returning; a second cancellation
// aborts them.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	scanner := bufio.NewScanner(a.reader)
	runREPL(ctx, a, a.status, scanner)

	if a.pendingUploads() == 0 || ctx.Err() != nil {
		return
	}
	a.printf("Waiting for %d upload(s) to finish (Ctrl+C to abort)...\n", a.pendingUploads())
	if err := a.uploads.Wait(ctx); err != nil {
		a.logger.Warn(ctx, "uploads interrupted", "error", err)
	}
}

// Close stops the upload queue and closes the local database.
func (a *App) Close() {
	a.uploads.Close()
	a.closeDB()
}

func (a *App) closeDB() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(context.Background(), "close database", "error", err)
	}
	a.db = nil
}

// status renders the prompt: user and location, or "guest".
func (a *App) status() string {
	name := a.profile.Username()
	if name == "" {
		return "guest"
	}
	return fmt.Sprintf("%s:%s", name, a.nav.Location())
}

func (a *App) pendingUploads() int {
	n := 0
	for _, e := range a.uploads.List() {
		if e.Status.Active() {
			n++
		}
	}
	return n
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	tok, err := a.tokens.AccessToken(ctx)
	return err == nil && tok != ""
}

// require runs the guard for a protected command.
func (a *App) require(ctx context.Context, name string) error {
	to := guard.Route{Name: name, RequiresAuth: true}
	if a.guard.Navigate(ctx, to) != to {
		a.profile.Reset()
		a.nav.Reset()
		return errNotLoggedIn
	}
	return nil
}

// loadProfile is the guard's after-navigation hook. The profile is fetched
// once per session.
func (a *App) loadProfile(ctx context.Context, _ guard.Route) error {
	if _, ok := a.profile.User(); ok {
		return nil
	}
	u, err := a.users.Me(ctx)
	if err != nil {
		return err
	}
	a.profile.Set(*u)
	return nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// syncWriter serializes writes from the REPL and the upload queue.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
