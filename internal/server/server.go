package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/coordinator"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/storage"
)

// Deps are the collaborators a Server routes to. DB, Gatherer, MCP and
// Tailscale are optional.
type Deps struct {
	Workout   *coordinator.Coordinator
	Catalog   *catalog.Service
	Auth      *auth.State
	DB        *storage.DB
	Metrics   *metrics.Manager
	Gatherer  prometheus.Gatherer
	MCP       http.Handler
	Tailscale WhoIsClient
	APIKey    string
	// APIUser is the login API key requests act as. Empty means the local user.
	APIUser string
	Log     *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	workout   *coordinator.Coordinator
	catalog   *catalog.Service
	auth      *auth.State
	db        *storage.DB
	metrics   *metrics.Manager
	gatherer  prometheus.Gatherer
	mcp       http.Handler
	tailscale WhoIsClient
	apiKey    string
	apiUser   string
	log       *slog.Logger
	router    chi.Router

	// eventInterval is how often the event stream polls for changes.
	eventInterval time.Duration
}

// New creates a new Server with all routes configured.
func New(d Deps) *Server {
	s := &Server{
		workout:       d.Workout,
		catalog:       d.Catalog,
		auth:          d.Auth,
		db:            d.DB,
		metrics:       d.Metrics,
		gatherer:      d.Gatherer,
		mcp:           d.MCP,
		tailscale:     d.Tailscale,
		apiKey:        d.APIKey,
		apiUser:       d.APIUser,
		log:           d.Log,
		router:        chi.NewRouter(),
		eventInterval: 250 * time.Millisecond,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	if s.metrics != nil {
		s.router.Use(Instrument(s.metrics))
	}

	s.router.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Group(func(r chi.Router) {
		r.Use(s.identity())
		r.Use(s.signIn)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/me", s.handleMe)

			r.Get("/workout", s.handleWorkoutState)
			r.Get("/workout/events", s.handleWorkoutEvents)
			r.Post("/workout/start", s.handleStartWorkout)
			r.Post("/workout/sets/complete", s.handleCompleteSet)
			r.Post("/workout/rest/complete", s.handleRestComplete)
			r.Post("/workout/end", s.handleEndWorkout)
			r.Post("/workout/reset", s.handleResetWorkout)
			r.Put("/workout/elapsed", s.handleUpdateElapsed)

			r.Get("/exercises", s.handleListExercises)
			r.Post("/exercises", s.handleCreateExercise)
			r.Delete("/exercises/{id}", s.handleDeleteExercise)

			if s.db != nil {
				r.Get("/stats", s.handleStats)
			}
		})

		if s.mcp != nil {
			r.Handle("/mcp", s.mcp)
			r.Handle("/mcp/*", s.mcp)
		}
	})
}

// identity picks how requests are attributed: tailnet WhoIs when running
// on tsnet, the API key's user when a key is configured, else the local
// dev user.
func (s *Server) identity() func(http.Handler) http.Handler {
	switch {
	case s.tailscale != nil:
		return TailscaleIdentity(s.tailscale, s.log)
	case s.apiKey != "":
		user := UserInfo{Login: s.apiUser, DisplayName: s.apiUser}
		if user.Login == "" {
			user = devUser
		}
		return func(next http.Handler) http.Handler {
			return APIKeyAuth(s.apiKey)(StaticIdentity(user)(next))
		}
	default:
		return DevIdentity
	}
}

// signIn makes the requesting user current so workout snapshots are
// mirrored under their name. The local user stays signed out.
func (s *Server) signIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := userInfoFromContext(r)
		current, _ := s.auth.CurrentUser()
		switch {
		case info.Login == catalog.LocalUser:
			if current != "" {
				s.auth.SignOut()
			}
		case info.Login != current:
			s.auth.SignIn(info.Login)
			s.touchUser(r, info)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) touchUser(r *http.Request, info UserInfo) {
	if s.db == nil {
		return
	}
	if err := s.db.TouchUser(r.Context(), info.Login, info.DisplayName); err != nil {
		s.log.Warn("recording user", "login", info.Login, "error", err)
	}
}
