package rest

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/dashkeeper/internal/netx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/services"
)

type fakeUsers struct {
	authRes  *services.AuthResult
	user     *models.User
	err      error
	username string
}

func (f *fakeUsers) Authenticate(ctx context.Context, username, password string) (*services.AuthResult, error) {
	f.username = username
	return f.authRes, f.err
}

func (f *fakeUsers) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	f.username = username
	return f.user, f.err
}

type fakeResets struct {
	err    error
	caller auth.Principal
}

func (f *fakeResets) RequestReset(ctx context.Context, username string) error { return f.err }

func (f *fakeResets) ChangePassword(ctx context.Context, p auth.Principal, username, password string) error {
	f.caller = p
	return f.err
}

type fakeDashboards struct {
	view     models.DashboardView
	needed   *services.PasswordNeeded
	check    *services.PasswordCheck
	shared   bool
	list     []models.DashboardSummary
	err      error
	lastID   string
	caller   *auth.Principal
	lastJSON json.RawMessage
}

func (f *fakeDashboards) Fetch(ctx context.Context, p auth.Principal, id string) (models.DashboardView, error) {
	f.lastID, f.caller = id, &p
	return f.view, f.err
}

func (f *fakeDashboards) CheckPasswordNeeded(ctx context.Context, p *auth.Principal, id string) (*services.PasswordNeeded, error) {
	f.lastID, f.caller = id, p
	return f.needed, f.err
}

func (f *fakeDashboards) CheckPassword(ctx context.Context, id, candidate string) (*services.PasswordCheck, error) {
	f.lastID = id
	return f.check, f.err
}

func (f *fakeDashboards) ShareToggle(ctx context.Context, p auth.Principal, id string) (bool, error) {
	f.lastID = id
	return f.shared, f.err
}

func (f *fakeDashboards) ChangePassword(ctx context.Context, p auth.Principal, id, password string) error {
	f.lastID = id
	return f.err
}

func (f *fakeDashboards) Save(ctx context.Context, p auth.Principal, id string, layout, items json.RawMessage, nextID int) error {
	f.lastID, f.lastJSON = id, layout
	return f.err
}

func (f *fakeDashboards) Clone(ctx context.Context, p auth.Principal, id, name string) (*models.Dashboard, error) {
	f.lastID = id
	return &models.Dashboard{ID: "clone"}, f.err
}

func (f *fakeDashboards) Delete(ctx context.Context, p auth.Principal, id string) error {
	f.lastID = id
	return f.err
}

func (f *fakeDashboards) List(ctx context.Context, p auth.Principal) ([]models.DashboardSummary, error) {
	return f.list, f.err
}

func (f *fakeDashboards) Create(ctx context.Context, p auth.Principal, name string) (*models.Dashboard, error) {
	return &models.Dashboard{Name: name}, f.err
}

type fakeExports struct {
	url string
	err error
}

func (f *fakeExports) Export(ctx context.Context, p auth.Principal, id string) (string, error) {
	return f.url, f.err
}

type fakeSources struct {
	list   []models.PublicSource
	active []string
	err    error
	names  []string
}

func (f *fakeSources) Create(ctx context.Context, p auth.Principal, in services.SourceInput) error {
	return f.err
}

func (f *fakeSources) Change(ctx context.Context, p auth.Principal, in services.SourceInput) error {
	return f.err
}

func (f *fakeSources) Delete(ctx context.Context, p auth.Principal, id string) error { return f.err }

func (f *fakeSources) List(ctx context.Context, p auth.Principal) ([]models.PublicSource, error) {
	return f.list, f.err
}

func (f *fakeSources) CheckSources(ctx context.Context, p auth.Principal, names []string) ([]string, error) {
	f.names = names
	return f.active, f.err
}

type fakeGeneral struct {
	stats   *models.Statistics
	active  bool
	result  *netx.ForwardResult
	err     error
	forward netx.ForwardRequest
}

func (f *fakeGeneral) Statistics(ctx context.Context) (*models.Statistics, error) {
	return f.stats, f.err
}

func (f *fakeGeneral) TestURL(ctx context.Context, url string) bool { return f.active }

func (f *fakeGeneral) TestURLRequest(ctx context.Context, fr netx.ForwardRequest) *netx.ForwardResult {
	f.forward = fr
	return f.result
}
