package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
)

var (
	emptyLayout = json.RawMessage(`[]`)
	emptyItems  = json.RawMessage(`{}`)
)

// PasswordNeeded is the outcome of CheckPasswordNeeded.
type PasswordNeeded struct {
	// Owner is common.OwnerSelf when the caller owns the dashboard.
	Owner          string
	Shared         bool
	HasPassword    bool
	PasswordNeeded bool
	View           models.DashboardView
}

// PasswordCheck is the outcome of CheckPassword. Owner and View are only
// set when Correct is true.
type PasswordCheck struct {
	Correct bool
	Owner   string
	View    models.DashboardView
}

// DashboardService decides who may see or change a dashboard.
//
// Reads by id (Fetch, CheckPasswordNeeded, CheckPassword) do not require
// ownership. Every mutation is scoped to the owner; a dashboard that is
// absent or owned by someone else is reported the same way.
type DashboardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewDashboardService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *DashboardService {
	return &DashboardService{db: db, repomanager: m, log: log.With("module", "dashboards")}
}

// Fetch returns the whole dashboard and counts a view.
func (s *DashboardService) Fetch(ctx context.Context, p auth.Principal, id string) (models.DashboardView, error) {
	d, err := s.countView(ctx, id)
	if err != nil {
		return models.HiddenView(), err
	}
	s.log.Debug(ctx, "dashboard fetched", "dashboard_id", id, "user_id", p.ID)
	return models.FullView(d), nil
}

// CheckPasswordNeeded counts a view and tells whether p must supply the
// dashboard password. p is nil for anonymous callers.
func (s *DashboardService) CheckPasswordNeeded(ctx context.Context, p *auth.Principal, id string) (*PasswordNeeded, error) {
	d, err := s.countView(ctx, id)
	if err != nil {
		return nil, err
	}

	self := p != nil && p.ID != "" && p.ID == d.Owner
	needed := d.HasPassword() && !self

	res := &PasswordNeeded{
		Shared:         d.Shared,
		HasPassword:    needed,
		PasswordNeeded: needed,
		View:           models.HiddenView(),
	}
	if self {
		res.Owner = common.OwnerSelf
	}
	if !needed {
		res.View = models.ProjectedView(d)
	}
	return res, nil
}

func (s *DashboardService) countView(ctx context.Context, id string) (*models.Dashboard, error) {
	notFound := common.NotFound(msgDashboardSpecifiedNotFound)
	if !validID(id) {
		return nil, notFound
	}

	d, err := s.repomanager.Dashboards(s.db).GetAndCountView(ctx, id)
	if err != nil {
		return nil, classify(err, notFound)
	}
	metrics.DashboardViews.Inc()
	return d, nil
}

// CheckPassword compares candidate with the dashboard password. An
// unprotected dashboard never matches.
func (s *DashboardService) CheckPassword(ctx context.Context, id, candidate string) (*PasswordCheck, error) {
	notFound := common.NotFound(msgDashboardSpecifiedNotFound)
	if !validID(id) {
		return nil, notFound
	}

	d, err := s.repomanager.Dashboards(s.db).Get(ctx, id)
	if err != nil {
		return nil, classify(err, notFound)
	}

	if !d.HasPassword() || !cryptox.ComparePassword(*d.Password, candidate) {
		return &PasswordCheck{View: models.HiddenView()}, nil
	}
	return &PasswordCheck{Correct: true, Owner: d.Owner, View: models.ProjectedView(d)}, nil
}

// ShareToggle flips the shared flag and returns the new value.
func (s *DashboardService) ShareToggle(ctx context.Context, p auth.Principal, id string) (bool, error) {
	notFound := common.NotFound(msgDashboardSpecifiedNotFound)
	if !validID(id) {
		return false, notFound
	}

	shared, err := s.repomanager.Dashboards(s.db).ToggleShared(ctx, id, p.ID)
	if err != nil {
		return false, classify(err, notFound)
	}
	s.log.Info(ctx, "dashboard share toggled", "dashboard_id", id, "shared", shared)
	return shared, nil
}

// ChangePassword protects the dashboard with password. An empty password
// removes the protection.
func (s *DashboardService) ChangePassword(ctx context.Context, p auth.Principal, id, password string) error {
	notFound := common.NotFound(msgDashboardSpecifiedNotFound)
	if !validID(id) {
		return notFound
	}

	var hash *string
	if password != "" {
		h, err := cryptox.HashPassword(password)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		hash = &h
	}

	if err := s.repomanager.Dashboards(s.db).SetPassword(ctx, id, p.ID, hash); err != nil {
		return classify(err, notFound)
	}
	return nil
}

// Save overwrites layout, items and nextId of an owned dashboard.
func (s *DashboardService) Save(ctx context.Context, p auth.Principal, id string, layout, items json.RawMessage, nextID int) error {
	notFound := common.NotFound(msgDashboardSelectedNotFound)
	if !validID(id) {
		return notFound
	}

	layout, err := normalizeJSON(layout, emptyLayout, '[', "layout")
	if err != nil {
		return err
	}
	items, err = normalizeJSON(items, emptyItems, '{', "items")
	if err != nil {
		return err
	}

	if err := s.repomanager.Dashboards(s.db).Save(ctx, id, p.ID, layout, items, nextID); err != nil {
		return classify(err, notFound)
	}
	return nil
}

// normalizeJSON substitutes def for an absent value and requires raw to be a
// JSON value starting with open ('[' for arrays, '{' for objects).
func normalizeJSON(raw, def json.RawMessage, open byte, field string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return def, nil
	}
	if trimmed[0] != open || !json.Valid([]byte(trimmed)) {
		kind := "an object"
		if open == '[' {
			kind = "an array"
		}
		return nil, common.Validation(field + " must be " + kind)
	}
	return json.RawMessage(trimmed), nil
}

// Clone copies an owned dashboard under a new name. The copy is unshared,
// unprotected and has no views.
func (s *DashboardService) Clone(ctx context.Context, p auth.Principal, id, name string) (*models.Dashboard, error) {
	notFound := common.NotFound(msgDashboardSelectedNotFound)
	if !validID(id) {
		return nil, notFound
	}

	repo := s.repomanager.Dashboards(s.db)

	src, err := repo.GetOwned(ctx, id, p.ID)
	if err != nil {
		return nil, classify(err, notFound)
	}

	clone := &models.Dashboard{
		Owner:  p.ID,
		Name:   name,
		Layout: src.Layout,
		Items:  src.Items,
		NextID: src.NextID,
	}
	return s.create(ctx, clone)
}

// Create adds an empty dashboard named name.
func (s *DashboardService) Create(ctx context.Context, p auth.Principal, name string) (*models.Dashboard, error) {
	return s.create(ctx, &models.Dashboard{
		Owner:  p.ID,
		Name:   name,
		Layout: emptyLayout,
		Items:  emptyItems,
		NextID: 1,
	})
}

func (s *DashboardService) create(ctx context.Context, d *models.Dashboard) (*models.Dashboard, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, common.Validation("name is a required field")
	}

	repo := s.repomanager.Dashboards(s.db)

	exists, err := repo.ExistsByName(ctx, d.Owner, d.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.Conflict(msgDashboardExists)
	}

	// The unique (owner, name) index settles concurrent inserts.
	created, err := repo.Create(ctx, d)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(msgDashboardExists)
		}
		return nil, err
	}

	s.log.Info(ctx, "dashboard created", "dashboard_id", created.ID, "user_id", d.Owner)
	return created, nil
}

func (s *DashboardService) Delete(ctx context.Context, p auth.Principal, id string) error {
	notFound := common.NotFound(msgDashboardSelectedNotFound)
	if !validID(id) {
		return notFound
	}

	if err := s.repomanager.Dashboards(s.db).Delete(ctx, id, p.ID); err != nil {
		return classify(err, notFound)
	}
	s.log.Info(ctx, "dashboard deleted", "dashboard_id", id, "user_id", p.ID)
	return nil
}

// List returns summaries of the caller's dashboards.
func (s *DashboardService) List(ctx context.Context, p auth.Principal) ([]models.DashboardSummary, error) {
	list, err := s.repomanager.Dashboards(s.db).ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	result := make([]models.DashboardSummary, 0, len(list))
	for _, d := range list {
		result = append(result, d.Summary())
	}
	return result, nil
}
