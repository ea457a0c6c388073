package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phuslu/log"

	"github.com/markdave123-py/Archiva/internal/api/handlers"
	middleware "github.com/markdave123-py/Archiva/internal/api/middlewares"
	"github.com/markdave123-py/Archiva/internal/config"
	"github.com/markdave123-py/Archiva/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, docs *services.DocumentService, search *services.SearchService, folders *services.FolderService, logger *log.Logger) *Server {
	docHandler := handlers.NewDocumentHandler(docs)
	searchHandler := handlers.NewSearchHandler(search)
	folderHandler := handlers.NewFolderHandler(folders)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(middleware.JWT(cfg.JWTSecret))

			protected.Post("/documents/upload", docHandler.Upload)
			protected.Get("/documents", docHandler.List)
			protected.Get("/documents/{documentID}", docHandler.Get)
			protected.Get("/documents/{documentID}/download", docHandler.Download)
			protected.Delete("/documents/{documentID}", docHandler.Delete)
			protected.Post("/documents/{documentID}/archive", docHandler.Archive)
			protected.Post("/documents/{documentID}/move", docHandler.Move)
			protected.Post("/documents/{documentID}/reprocess", docHandler.Reprocess)

			protected.Post("/search", searchHandler.Search)
			protected.Post("/context", searchHandler.Context)

			protected.Post("/folders", folderHandler.Create)
			protected.Get("/folders/tree", folderHandler.Tree)
			protected.Get("/folders/root/contents", folderHandler.Contents)
			protected.Patch("/folders/{folderID}", folderHandler.Update)
			protected.Post("/folders/{folderID}/move", folderHandler.Move)
			protected.Delete("/folders/{folderID}", folderHandler.Delete)
			protected.Get("/folders/{folderID}/contents", folderHandler.Contents)
			protected.Get("/folders/{folderID}/breadcrumb", folderHandler.Breadcrumb)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
