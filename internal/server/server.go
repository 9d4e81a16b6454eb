package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hiredesk/internal/storage"
	"hiredesk/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// ApplicationStore is the persistence surface the handlers need.
// *store.ApplicationRepository satisfies it.
type ApplicationStore interface {
	Create(ctx context.Context, app *types.Application) error
	Application(ctx context.Context, id string) (*types.Application, error)
	Applications(ctx context.Context, filter types.ApplicationFilter) ([]*types.Application, error)
	SubmittedOn(ctx context.Context, email, phone string, day time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, status types.ApplicationStatus) (*types.Application, error)
	SetOfferLetter(ctx context.Context, id string, doc *types.DocumentMeta) (*types.Application, error)
	ClearOfferLetter(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) ([]string, error)
}

type Service struct {
	logger  *logrus.Logger
	config  *types.Config
	apps    ApplicationStore
	uploads *storage.LocalStorage

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	apps ApplicationStore,
	uploads *storage.LocalStorage,
) (*Service, error) {
	mux := flow.New()

	s := &Service{
		logger:  logger,
		config:  config,
		apps:    apps,
		uploads: uploads,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)
	r.Use(cors.AllowAll().Handler)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/api/applications", s.handleSubmitApplication, http.MethodPost)
	r.HandleFunc("/api/applications", s.handleListApplications, http.MethodGet)
	r.HandleFunc("/api/applications", s.handleClearApplications, http.MethodDelete)
	r.HandleFunc("/api/applications/:id", s.handleGetApplication, http.MethodGet)
	r.HandleFunc("/api/applications/:id/status", s.handleUpdateStatus, http.MethodPut)
	r.HandleFunc("/api/applications/:id/offer-letter", s.handleUploadOfferLetter, http.MethodPost)
	r.HandleFunc("/api/applications/:id/offer-letter", s.handleRemoveOfferLetter, http.MethodDelete)

	// Uploaded documents are served directly from the upload directory.
	r.Handle("/uploads/...", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploads.Dir()))), http.MethodGet)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
