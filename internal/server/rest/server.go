// Package rest exposes the services over HTTP/JSON using gin.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/netx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

type UserAPI interface {
	Authenticate(ctx context.Context, username, password string) (*services.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

type ResetAPI interface {
	RequestReset(ctx context.Context, username string) error
	ChangePassword(ctx context.Context, p auth.Principal, username, password string) error
}

type DashboardAPI interface {
	Fetch(ctx context.Context, p auth.Principal, id string) (models.DashboardView, error)
	CheckPasswordNeeded(ctx context.Context, p *auth.Principal, id string) (*services.PasswordNeeded, error)
	CheckPassword(ctx context.Context, id, candidate string) (*services.PasswordCheck, error)
	ShareToggle(ctx context.Context, p auth.Principal, id string) (bool, error)
	ChangePassword(ctx context.Context, p auth.Principal, id, password string) error
	Save(ctx context.Context, p auth.Principal, id string, layout, items json.RawMessage, nextID int) error
	Clone(ctx context.Context, p auth.Principal, id, name string) (*models.Dashboard, error)
	Delete(ctx context.Context, p auth.Principal, id string) error
	List(ctx context.Context, p auth.Principal) ([]models.DashboardSummary, error)
	Create(ctx context.Context, p auth.Principal, name string) (*models.Dashboard, error)
}

type ExportAPI interface {
	Export(ctx context.Context, p auth.Principal, id string) (string, error)
}

type SourceAPI interface {
	Create(ctx context.Context, p auth.Principal, in services.SourceInput) error
	Change(ctx context.Context, p auth.Principal, in services.SourceInput) error
	Delete(ctx context.Context, p auth.Principal, id string) error
	List(ctx context.Context, p auth.Principal) ([]models.PublicSource, error)
	CheckSources(ctx context.Context, p auth.Principal, names []string) ([]string, error)
}

type GeneralAPI interface {
	Statistics(ctx context.Context) (*models.Statistics, error)
	TestURL(ctx context.Context, url string) bool
	TestURLRequest(ctx context.Context, fr netx.ForwardRequest) *netx.ForwardResult
}

// Services groups the business operations served over HTTP.
type Services struct {
	Users      UserAPI
	Resets     ResetAPI
	Dashboards DashboardAPI
	Exports    ExportAPI
	Sources    SourceAPI
	General    GeneralAPI
}

type HTTPServer struct {
	address   string
	logger    logging.Logger
	jwtSecret []byte
	svc       Services
	engine    *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, secretKey string, svc Services) *HTTPServer {
	s := &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
		svc:       svc,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the configured gin engine.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
