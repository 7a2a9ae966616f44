package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/netx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// probeConcurrency limits parallel reachability checks per request.
const probeConcurrency = 4

// Prober checks and relays outbound HTTP requests.
type Prober interface {
	Active(ctx context.Context, url string) bool
	Forward(ctx context.Context, fr netx.ForwardRequest) (*netx.ForwardResult, error)
}

// SourceInput carries the editable fields of a source.
type SourceInput struct {
	ID       string
	Name     string
	Type     string
	URL      string
	Login    string
	Passcode string
	VHost    string
}

func (in SourceInput) toModel(owner string) *models.Source {
	return &models.Source{
		ID:       in.ID,
		Owner:    owner,
		Name:     strings.TrimSpace(in.Name),
		Type:     in.Type,
		URL:      in.URL,
		Login:    in.Login,
		Passcode: in.Passcode,
		VHost:    in.VHost,
	}
}

// SourceService manages the caller's sources.
type SourceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	prober      Prober
	log         logging.Logger
}

func NewSourceService(db *sql.DB, m repomanager.RepositoryManager, prober Prober, log logging.Logger) *SourceService {
	return &SourceService{db: db, repomanager: m, prober: prober, log: log.With("module", "sources")}
}

func (s *SourceService) Create(ctx context.Context, p auth.Principal, in SourceInput) error {
	src := in.toModel(p.ID)
	if src.Name == "" {
		return common.Validation("name is a required field")
	}

	repo := s.repomanager.Sources(s.db)

	exists, err := repo.ExistsByName(ctx, p.ID, src.Name)
	if err != nil {
		return err
	}
	if exists {
		return common.Conflict(msgSourceExists)
	}

	if _, err := repo.Create(ctx, src); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.Conflict(msgSourceExists)
		}
		return err
	}
	return nil
}

func (s *SourceService) Change(ctx context.Context, p auth.Principal, in SourceInput) error {
	notFound := common.NotFound(msgSourceNotFound)
	if !validID(in.ID) {
		return notFound
	}

	src := in.toModel(p.ID)
	if src.Name == "" {
		return common.Validation("name is a required field")
	}

	if err := s.repomanager.Sources(s.db).Update(ctx, src); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.Conflict(msgSourceExists)
		}
		return classify(err, notFound)
	}
	return nil
}

func (s *SourceService) Delete(ctx context.Context, p auth.Principal, id string) error {
	notFound := common.NotFound(msgSourceNotFound)
	if !validID(id) {
		return notFound
	}

	if err := s.repomanager.Sources(s.db).Delete(ctx, id, p.ID); err != nil {
		return classify(err, notFound)
	}
	return nil
}

func (s *SourceService) List(ctx context.Context, p auth.Principal) ([]models.PublicSource, error) {
	list, err := s.repomanager.Sources(s.db).ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	result := make([]models.PublicSource, 0, len(list))
	for _, src := range list {
		result = append(result, src.Public())
	}
	return result, nil
}

// CheckSources probes the caller's sources named in names, stores their
// reachability and returns the names of the active ones in listing order.
func (s *SourceService) CheckSources(ctx context.Context, p auth.Principal, names []string) ([]string, error) {
	repo := s.repomanager.Sources(s.db)

	list, err := repo.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	// Each probe writes only its own slot.
	active := make([]bool, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)

	for i, src := range list {
		if _, ok := wanted[src.Name]; !ok {
			continue
		}
		g.Go(func() error {
			ok := s.prober.Active(gctx, src.URL)
			if ok {
				metrics.SourceProbes.WithLabelValues("active").Inc()
			} else {
				metrics.SourceProbes.WithLabelValues("inactive").Inc()
			}

			if err := repo.SetActive(gctx, src.ID, ok); err != nil {
				return err
			}

			active[i] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]string, 0, len(list))
	for i, src := range list {
		if active[i] {
			result = append(result, src.Name)
		}
	}
	return result, nil
}
