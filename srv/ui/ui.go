package ui

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opd-ai/bookwriter/srv/generator"
	"github.com/opd-ai/bookwriter/srv/util"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures a GeneratorUI.
type Options struct {
	Controller *generator.Controller
	Store      Store
	// Password is the shared secret every user logs in with. Login is
	// impossible while it is empty.
	Password   string
	SessionTTL time.Duration
	Logger     *log.Logger
	// Gatherer is exposed on MetricsPath when both are set.
	Gatherer    prometheus.Gatherer
	MetricsPath string
	// LoginLimit is the number of login attempts allowed per IP and minute.
	LoginLimit int
}

type GeneratorUI struct {
	router     chi.Router
	controller *generator.Controller
	store      Store
	password   string
	sessionTTL time.Duration
	logger     *log.Logger
	templates  *template.Template
	opts       Options
}

func NewGeneratorUI(opts Options) (*GeneratorUI, error) {
	if opts.Controller == nil {
		return nil, errors.New("ui: controller is required")
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore(opts.SessionTTL)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.LoginLimit <= 0 {
		opts.LoginLimit = 10
	}
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	ui := &GeneratorUI{
		router:     chi.NewRouter(),
		controller: opts.Controller,
		store:      opts.Store,
		password:   opts.Password,
		sessionTTL: opts.SessionTTL,
		logger:     opts.Logger,
		templates:  tmpl,
		opts:       opts,
	}
	ui.setupRoutes()
	return ui, nil
}

func (ui *GeneratorUI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ui.router.ServeHTTP(w, r)
}

func (ui *GeneratorUI) setupRoutes() {
	ui.router.Use(middleware.RequestID)
	ui.router.Use(middleware.RealIP)
	ui.router.Use(util.LoggingMiddleware(ui.logger))
	ui.router.Use(util.RecoveryMiddleware(ui.logger))
	ui.router.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	ui.router.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	ui.router.Use(middleware.SetHeader("Referrer-Policy", "same-origin"))

	ui.router.Get("/healthz", handleHealthCheck)
	if ui.opts.Gatherer != nil && ui.opts.MetricsPath != "" {
		ui.router.Handle(ui.opts.MetricsPath, promhttp.HandlerFor(ui.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	ui.router.Group(func(r chi.Router) {
		r.Use(ui.sessionMiddleware)

		r.Get("/login", ui.handleLoginPage)
		r.With(httprate.LimitByIP(ui.opts.LoginLimit, time.Minute)).Post("/login", ui.handleLogin)
		r.Post("/logout", ui.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(ui.requireLogin)
			r.Get("/", ui.handleHome)
			r.Post("/configure", ui.handleConfigure)
			r.Post("/outline", ui.handleEditOutline)
			r.Post("/confirm", ui.handleConfirm)
			r.Post("/generate", ui.handleGenerate)
			r.Post("/chapters", ui.handleEditChapters)
			r.Post("/chapters/{index}", ui.handleEditChapter)
			r.Post("/compile", ui.handleCompile)
			r.Get("/download", ui.handleDownload)
		})
	})
}

type stateKey struct{}

// sessionMiddleware loads the caller's state, starting a new session when the
// cookie is missing, malformed or expired.
func (ui *GeneratorUI) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var st *State
		if cookie, err := r.Cookie(sessionCookie); err == nil && isValidSession(cookie.Value) {
			st, err = ui.store.Get(r.Context(), cookie.Value)
			if err != nil && !errors.Is(err, ErrSessionNotFound) {
				ui.logger.Error("loading session", "err", err)
				http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if st == nil {
			st = newState(newSessionID())
			ui.setSessionCookie(w, r, st.ID)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), stateKey{}, st)))
	})
}

func (ui *GeneratorUI) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !stateFrom(r).Authenticated {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func stateFrom(r *http.Request) *State {
	return r.Context().Value(stateKey{}).(*State)
}

func (ui *GeneratorUI) save(r *http.Request, st *State) error {
	if err := ui.store.Save(r.Context(), st); err != nil {
		ui.logger.Error("saving session", "session", st.ID, "err", err)
		return err
	}
	return nil
}
