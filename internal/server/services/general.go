package services

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/netx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
)

// ForwardFailure is the body returned when a relayed request fails.
const ForwardFailure = "Something went wrong"

// GeneralService serves public platform information and URL helpers.
type GeneralService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	prober      Prober
	log         logging.Logger
}

func NewGeneralService(db *sql.DB, m repomanager.RepositoryManager, prober Prober, log logging.Logger) *GeneralService {
	return &GeneralService{db: db, repomanager: m, prober: prober, log: log.With("module", "general")}
}

func (s *GeneralService) Statistics(ctx context.Context) (*models.Statistics, error) {
	users, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return nil, err
	}
	dashboards, views, err := s.repomanager.Dashboards(s.db).Totals(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := s.repomanager.Sources(s.db).Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Statistics{Users: users, Dashboards: dashboards, Views: views, Sources: sources}, nil
}

// TestURL reports whether url answers a GET.
func (s *GeneralService) TestURL(ctx context.Context, url string) bool {
	return url != "" && s.prober.Active(ctx, url)
}

// TestURLRequest relays fr. Failures are folded into a 500 result.
func (s *GeneralService) TestURLRequest(ctx context.Context, fr netx.ForwardRequest) *netx.ForwardResult {
	failed := &netx.ForwardResult{Status: http.StatusInternalServerError, Response: ForwardFailure}
	if fr.URL == "" {
		return failed
	}

	res, err := s.prober.Forward(ctx, fr)
	if err != nil {
		s.log.Debug(ctx, "forwarded request failed", "url", fr.URL, "error", err)
		return failed
	}
	return res
}
