package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/vidhaven/vidhaven/internal/access"
	"github.com/vidhaven/vidhaven/internal/ads"
	"github.com/vidhaven/vidhaven/internal/auth"
	"github.com/vidhaven/vidhaven/internal/database"
	"github.com/vidhaven/vidhaven/internal/geoip"
	"github.com/vidhaven/vidhaven/internal/homepage"
	"github.com/vidhaven/vidhaven/internal/httputil"
	"github.com/vidhaven/vidhaven/internal/player"
	"github.com/vidhaven/vidhaven/internal/ratelimit"
	"github.com/vidhaven/vidhaven/internal/realtime"
	"github.com/vidhaven/vidhaven/internal/validate"
	"github.com/vidhaven/vidhaven/internal/video"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB               database.DBTX
	Pinger           Pinger
	Storage          video.ObjectStorage
	Hub              *realtime.Hub
	Geo              *geoip.Resolver
	Sessions         *player.Store
	JWTSecret        string
	HMACSecret       string
	BaseURL          string
	AllowedOrigins   string
	MaxUploadBytes   int64
	S3PublicEndpoint string
	AdSchedule       ads.Schedule
}

type Server struct {
	router          chi.Router
	db              database.DBTX
	pinger          Pinger
	authHandler     *auth.Handler
	accessHandler   *access.Handler
	videoHandler    *video.Handler
	adsHandler      *ads.Handler
	homepageHandler *homepage.Handler
	playerHandler   *player.Handler
	realtimeHandler *realtime.Handler
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))

	if cfg.AllowedOrigins != "" {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}).Handler)
	}

	s := &Server{router: r, db: cfg.DB, pinger: cfg.Pinger}

	if cfg.DB != nil {
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET is required; set the environment variable")
		}

		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:8080"
		}
		secureCookies := strings.HasPrefix(baseURL, "https://")

		s.authHandler = auth.NewHandler(cfg.DB, cfg.JWTSecret, secureCookies)
		s.accessHandler = access.NewHandler(cfg.DB, cfg.Hub, cfg.HMACSecret, secureCookies)
		s.videoHandler = video.NewHandler(cfg.DB, cfg.Storage, cfg.Hub, cfg.Geo, baseURL, cfg.MaxUploadBytes)
		s.adsHandler = ads.NewHandler(cfg.DB, cfg.Hub, cfg.AdSchedule)
		s.homepageHandler = homepage.NewHandler(cfg.DB, cfg.Hub)
	}
	if cfg.Sessions != nil {
		s.playerHandler = player.NewHandler(cfg.Sessions)
	}
	if cfg.Hub != nil {
		s.realtimeHandler = realtime.NewHandler(cfg.Hub)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
	})

	if s.authHandler != nil {
		authLimiter := ratelimit.NewLimiter(0.5, 5)
		s.router.Route("/api/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", s.authHandler.Register)
			r.Post("/login", s.authHandler.Login)
			r.Post("/refresh", s.authHandler.Refresh)
			r.Post("/logout", s.authHandler.Logout)
		})
	}

	if s.accessHandler != nil {
		verifyLimiter := ratelimit.NewLimiter(1, 5)
		s.router.With(verifyLimiter.Middleware).Post("/api/access/verify", s.accessHandler.Verify)
		s.router.Get("/api/access/button-config", s.accessHandler.GetButtonConfig)
	}

	if s.videoHandler != nil {
		publicLimiter := ratelimit.NewLimiter(10, 30)

		// Public browsing sits behind the access gate.
		s.router.Group(func(r chi.Router) {
			r.Use(publicLimiter.Middleware)
			r.Use(s.authHandler.OptionalMiddleware)
			r.Use(s.accessHandler.RequireGate)

			r.Get("/api/videos", s.videoHandler.List)
			r.Get("/api/videos/{id}", s.videoHandler.Get)
			r.Get("/api/videos/by-url/{customUrl}", s.videoHandler.GetByCustomURL)
			r.Get("/api/videos/{id}/download", s.videoHandler.Download)
			r.Get("/api/homepage", s.homepageHandler.List)
			r.Get("/api/homepage/config", s.homepageHandler.GetConfig)
			r.Get("/api/seo/{page}", s.homepageHandler.GetSEO)
			r.Get("/api/ads/slot/{position}", s.adsHandler.Slot)

			r.Get("/", s.handleIndex)
			r.Get("/watch/{id}", s.videoHandler.WatchPage)
			r.Get("/v/{customUrl}", s.videoHandler.WatchPageByCustomURL)
		})

		// Reactions skip the gate so embeds keep working.
		s.router.Group(func(r chi.Router) {
			r.Use(publicLimiter.Middleware)
			r.Get("/api/videos/{id}/reactions", s.videoHandler.ListReactions)
			r.Post("/api/videos/{id}/reactions", s.videoHandler.React)
		})

		// Admin console.
		s.router.Route("/api/admin", func(r chi.Router) {
			r.Use(s.authHandler.Middleware)
			r.Use(s.authHandler.RequireAdmin)

			r.Get("/videos", s.videoHandler.AdminList)
			r.Post("/videos", s.videoHandler.Create)
			r.Post("/videos/upload", s.videoHandler.Upload)
			r.Post("/videos/{id}/finalize", s.videoHandler.Finalize)
			r.Put("/videos/{id}", s.videoHandler.Update)
			r.Delete("/videos/{id}", s.videoHandler.Delete)

			r.Get("/ads", s.adsHandler.List)
			r.Post("/ads", s.adsHandler.Create)
			r.Put("/ads/{id}", s.adsHandler.Update)
			r.Patch("/ads/{id}/toggle", s.adsHandler.Toggle)
			r.Delete("/ads/{id}", s.adsHandler.Delete)

			r.Get("/access-codes", s.accessHandler.List)
			r.Post("/access-codes", s.accessHandler.Create)
			r.Patch("/access-codes/{id}/toggle", s.accessHandler.Toggle)
			r.Delete("/access-codes/{id}", s.accessHandler.Delete)
			r.Put("/access-codes/button-config", s.accessHandler.SaveButtonConfig)

			r.Get("/homepage", s.homepageHandler.List)
			r.Post("/homepage", s.homepageHandler.Create)
			r.Put("/homepage/{id}", s.homepageHandler.Update)
			r.Delete("/homepage/{id}", s.homepageHandler.Delete)
			r.Post("/homepage/{id}/reorder", s.homepageHandler.Reorder)
			r.Put("/homepage-config", s.homepageHandler.SaveConfig)
			r.Get("/seo", s.homepageHandler.ListSEO)
			r.Put("/seo/{page}", s.homepageHandler.SaveSEO)

			r.Get("/download-config", s.videoHandler.GetDownloadConfig)
			r.Put("/download-config", s.videoHandler.SaveDownloadConfig)
		})
	}

	if s.playerHandler != nil {
		s.router.Route("/api/player/sessions", func(r chi.Router) {
			r.Post("/", s.playerHandler.Create)
			r.Get("/{id}", s.playerHandler.Get)
			r.Post("/{id}/events", s.playerHandler.Event)
		})
	}

	if s.realtimeHandler != nil {
		s.router.Get("/api/realtime", s.realtimeHandler.Stream)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
