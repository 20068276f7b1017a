package handler

import (
	"net/http"
	"time"

	"profile-service/internal/capture"
	"profile-service/internal/card"
	"profile-service/internal/config"
	"profile-service/internal/gallery"
	"profile-service/internal/realtime"
	"profile-service/internal/service"
	"profile-service/pkg/cache"
	"profile-service/pkg/middleware"
	"profile-service/pkg/response"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config   config.Config
	Profiles *service.ProfileService
	Uploads  *service.UploadService
	Renderer *card.Renderer
	Exporter *capture.Exporter // optional
	Hub      *realtime.Hub
	Cache    *cache.Cache // optional; nil disables rate limiting
	Logger   *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	store := service.NewLocalStore(d.Profiles, d.Uploads, d.Config.PublicOrigin)

	profileHandler := NewProfileHandler(d.Profiles, d.Logger)
	uploadHandler := NewUploadHandler(d.Uploads, d.Config.MaxUploadBytes, d.Logger)
	viewHandler := NewViewHandler(d.Renderer, store, gallery.NewLoader(store, d.Logger), d.Logger)
	cardHandler := NewCardHandler(d.Profiles, d.Renderer, d.Exporter, d.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observe(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix(service.UploadURLPrefix, http.FileServer(http.Dir(d.Uploads.Dir()))))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimiter(d.Cache, d.Config.RateLimit, d.Config.RateWindow, d.Config.RateBlock, "profiles"))

		r.Get("/", profileHandler.Root)
		r.Post("/upload", uploadHandler.Upload)
		r.Post("/profiles", profileHandler.CreateProfile)
		r.Get("/profiles", profileHandler.ListProfiles)
		r.Get("/profiles/{profileID}", profileHandler.GetProfile)
	})

	r.Get("/", viewHandler.Generator)
	r.With(middleware.RateLimiter(d.Cache, d.Config.RateLimit, d.Config.RateWindow, d.Config.RateBlock, "generate")).
		Post("/", viewHandler.Generate)
	r.Get("/gallery", viewHandler.Gallery)

	r.Route("/cards/{profileID}", func(r chi.Router) {
		r.Get("/", cardHandler.Document)
		r.Group(func(r chi.Router) {
			// a GIF takes 50 captures; keep export bursts small
			r.Use(middleware.RateLimiter(d.Cache, 10, time.Minute, d.Config.RateBlock, "export"))
			r.Get("/export.png", cardHandler.ExportPNG)
			r.Get("/export.gif", cardHandler.ExportGIF)
		})
	})

	r.Handle("/ws/profiles", realtime.NewSocketHandler(d.Hub, d.Config.CORSOrigins, d.Logger))
	return r
}
