package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/propdesk/listing-engine/internal/catalog"
	"github.com/propdesk/listing-engine/internal/config"
	"github.com/propdesk/listing-engine/internal/mapsurface"
	"github.com/propdesk/listing-engine/internal/preview"
	"github.com/propdesk/listing-engine/internal/session"
	"github.com/propdesk/listing-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	repo     storage.Repository
	sessions *session.Manager
	previews preview.Store
	catalog  *catalog.Catalog
	mapHub   *mapsurface.Hub
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	repo storage.Repository,
	sessions *session.Manager,
	previews preview.Store,
	cat *catalog.Catalog,
	mapHub *mapsurface.Hub,
) *Server {
	s := &Server{
		config:   cfg,
		repo:     repo,
		sessions: sessions,
		previews: previews,
		catalog:  cat,
		mapHub:   mapHub,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Get("/{id}", s.handleGetProject)
		})

		// Catalog
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/amenities", s.handleListAmenities)
			r.Get("/landmarks", s.handleListLandmarks)
		})

		// Edit sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleOpenSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleCloseSession)

				r.Post("/amenities/{amenityID}/toggle", s.handleToggleAmenity)
				r.Post("/amenities/toggle-all", s.handleToggleAllAmenities)

				r.Post("/media", s.handleUploadMedia)
				r.Delete("/media/{assetID}", s.handleRemoveMedia)
				r.Put("/media/{assetID}/description", s.handleSetMediaDescription)
				r.Put("/media/{assetID}/primary", s.handleSetMediaPrimary)
				r.Get("/media/{assetID}/preview", s.handleMediaPreview)

				r.Post("/picker/open", s.handleOpenPicker)
				r.Post("/picker/select", s.handlePickerSelect)
				r.Post("/picker/drag", s.handlePickerDrag)
				r.Post("/picker/confirm", s.handlePickerConfirm)
				r.Post("/picker/cancel", s.handlePickerCancel)

				r.Put("/location", s.handleSetLocation)
				r.Put("/extras", s.handleUpdateExtras)

				r.Get("/draft", s.handleGetDraft)
				r.Post("/save", s.handleSaveSession)
				r.Post("/cancel", s.handleCancelSession)

				r.Get("/map/ws", s.handleMapWS)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
