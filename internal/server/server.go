package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fruitscan/apiserver/config"
	"github.com/fruitscan/apiserver/internal/db"
	"github.com/fruitscan/apiserver/internal/handlers"
	"github.com/fruitscan/apiserver/internal/logging"
	"github.com/fruitscan/apiserver/internal/services"
	"github.com/fruitscan/apiserver/internal/storage"
	"github.com/fruitscan/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	firestore  *firestore.Client
}

// New constructs a Server with all dependencies wired in.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	fsClient, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := newBlobStorage(ctx, cfg)
	if err != nil {
		_ = fsClient.Close()
		return nil, err
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		_ = fsClient.Close()
		return nil, fmt.Errorf("ensuring bucket: %w", err)
	}

	userRepo := store.NewUserRepository(fsClient)
	scanRepo := store.NewScanRepository(fsClient)

	userService := services.NewUserService(userRepo, blobs, log, cfg.BcryptCost)
	scanService := services.NewScanService(userRepo, scanRepo, blobs, log)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, userService, jwtSecret, cfg.JWT.TokenTTL)
	router.Route("/user", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.UserRouter(r, userService)
		r.Route("/scan-result-history", func(r chi.Router) {
			handlers.ScanRouter(r, scanService)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		firestore:  fsClient,
	}, nil
}

func newBlobStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.firestore != nil {
		_ = s.firestore.Close()
	}
	return s.httpServer.Close()
}
