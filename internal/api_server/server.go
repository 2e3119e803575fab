package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/annotext/batch-annotator/internal/annotator"
	"github.com/annotext/batch-annotator/internal/config"
	"github.com/annotext/batch-annotator/internal/controller"
	"github.com/annotext/batch-annotator/internal/engine"
	handlers "github.com/annotext/batch-annotator/internal/handlers/v1alpha1"
	"github.com/annotext/batch-annotator/internal/objstore"
	"github.com/annotext/batch-annotator/internal/pipeline"
	"github.com/annotext/batch-annotator/pkg/metrics"
	"github.com/annotext/batch-annotator/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg      *config.Config
	store    objstore.Store
	listener net.Listener
}

// New returns a new instance of a batch-annotator server.
func New(
	cfg *config.Config,
	store objstore.Store,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		listener: listener,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	registry := pipeline.NewRegistry()
	gateway := annotator.NewClient(s.cfg.Annotator.URL)
	eng := engine.New(s.store, gateway)

	ctrl := controller.New(s.store, registry, eng)
	go ctrl.Run(ctx)

	zap.S().Named("api_server").Infof("registered analysis types: %v", registry.Names())

	h := handlers.NewServiceHandler(ctrl)
	router.Get("/health", h.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/initialize", h.Initialize)
		r.Post("/batches", h.CreateBatch)
		r.Get("/batches/{id}/progress", h.CheckProgress)
	})

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
