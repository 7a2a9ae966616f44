package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/dbx"
	"github.com/dmitrijs2005/dashkeeper/internal/netx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/dashboards"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/sources"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- in-memory repositories honouring the same ownership rules as SQL ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func newFakeUsersRepo() *fakeUsersRepo { return &fakeUsersRepo{users: map[string]*models.User{}} }

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, ex := range f.users {
		if ex.Username == u.Username || ex.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	f.users[c.Username] = &c
	out := c
	return &out, nil
}

func (f *fakeUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, username, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return common.ErrorNotFound
	}
	u.Password = hash
	return nil
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.users)), nil
}

type fakeResetRepo struct {
	mu     sync.Mutex
	tokens map[string]models.ResetToken
	// beforeConsume runs ahead of Consume, e.g. to redeem the token first.
	beforeConsume func()
}

func newFakeResetRepo() *fakeResetRepo { return &fakeResetRepo{tokens: map[string]models.ResetToken{}} }

func (f *fakeResetRepo) Upsert(ctx context.Context, t *models.ResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[t.Username] = *t
	return nil
}

func (f *fakeResetRepo) Get(ctx context.Context, username string) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (f *fakeResetRepo) Consume(ctx context.Context, username string, now time.Time) error {
	if f.beforeConsume != nil {
		f.beforeConsume()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[username]
	if !ok || t.Expired(now) {
		return common.ErrorNotFound
	}
	delete(f.tokens, username)
	return nil
}

type fakeDashboardsRepo struct {
	mu         sync.Mutex
	dashboards map[string]*models.Dashboard
	// createConflict makes Create fail as if a concurrent insert won.
	createConflict bool
}

func newFakeDashboardsRepo() *fakeDashboardsRepo {
	return &fakeDashboardsRepo{dashboards: map[string]*models.Dashboard{}}
}

func cloneDashboard(d *models.Dashboard) *models.Dashboard {
	c := *d
	if d.Password != nil {
		p := *d.Password
		c.Password = &p
	}
	return &c
}

func (f *fakeDashboardsRepo) Create(ctx context.Context, d *models.Dashboard) (*models.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createConflict {
		return nil, common.ErrorAlreadyExists
	}
	for _, ex := range f.dashboards {
		if ex.Owner == d.Owner && ex.Name == d.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := cloneDashboard(d)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	f.dashboards[c.ID] = c
	return cloneDashboard(c), nil
}

func (f *fakeDashboardsRepo) Get(ctx context.Context, id string) (*models.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dashboards[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneDashboard(d), nil
}

func (f *fakeDashboardsRepo) GetAndCountView(ctx context.Context, id string) (*models.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dashboards[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	d.Views++
	return cloneDashboard(d), nil
}

func (f *fakeDashboardsRepo) owned(id, owner string) (*models.Dashboard, bool) {
	d, ok := f.dashboards[id]
	if !ok || d.Owner != owner {
		return nil, false
	}
	return d, true
}

func (f *fakeDashboardsRepo) GetOwned(ctx context.Context, id, owner string) (*models.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.owned(id, owner)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneDashboard(d), nil
}

func (f *fakeDashboardsRepo) ListByOwner(ctx context.Context, owner string) ([]*models.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Dashboard
	for _, d := range f.dashboards {
		if d.Owner == owner {
			out = append(out, cloneDashboard(d))
		}
	}
	return out, nil
}

func (f *fakeDashboardsRepo) ExistsByName(ctx context.Context, owner, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.dashboards {
		if d.Owner == owner && d.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDashboardsRepo) ToggleShared(ctx context.Context, id, owner string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.owned(id, owner)
	if !ok {
		return false, common.ErrorNotFound
	}
	d.Shared = !d.Shared
	return d.Shared, nil
}

func (f *fakeDashboardsRepo) SetPassword(ctx context.Context, id, owner string, hash *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.owned(id, owner)
	if !ok {
		return common.ErrorNotFound
	}
	d.Password = hash
	return nil
}

func (f *fakeDashboardsRepo) Save(ctx context.Context, id, owner string, layout, items json.RawMessage, nextID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.owned(id, owner)
	if !ok {
		return common.ErrorNotFound
	}
	d.Layout, d.Items, d.NextID = layout, items, nextID
	return nil
}

func (f *fakeDashboardsRepo) Delete(ctx context.Context, id, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.owned(id, owner); !ok {
		return common.ErrorNotFound
	}
	delete(f.dashboards, id)
	return nil
}

func (f *fakeDashboardsRepo) Totals(ctx context.Context) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var views int64
	for _, d := range f.dashboards {
		views += d.Views
	}
	return int64(len(f.dashboards)), views, nil
}

type fakeSourcesRepo struct {
	mu      sync.Mutex
	sources []*models.Source
	setErr  error
}

func (f *fakeSourcesRepo) Create(ctx context.Context, s *models.Source) (*models.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.sources {
		if ex.Owner == s.Owner && ex.Name == s.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *s
	c.ID = uuid.NewString()
	f.sources = append(f.sources, &c)
	out := c
	return &out, nil
}

func (f *fakeSourcesRepo) Update(ctx context.Context, s *models.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *models.Source
	for _, ex := range f.sources {
		if ex.ID == s.ID && ex.Owner == s.Owner {
			target = ex
		}
	}
	if target == nil {
		return common.ErrorNotFound
	}
	for _, ex := range f.sources {
		if ex.ID != s.ID && ex.Owner == s.Owner && ex.Name == s.Name {
			return common.ErrorAlreadyExists
		}
	}
	target.Name, target.Type, target.URL = s.Name, s.Type, s.URL
	target.Login, target.Passcode, target.VHost = s.Login, s.Passcode, s.VHost
	return nil
}

func (f *fakeSourcesRepo) Delete(ctx context.Context, id, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ex := range f.sources {
		if ex.ID == id && ex.Owner == owner {
			f.sources = append(f.sources[:i], f.sources[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeSourcesRepo) ListByOwner(ctx context.Context, owner string) ([]*models.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Source
	for _, s := range f.sources {
		if s.Owner == owner {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeSourcesRepo) ExistsByName(ctx context.Context, owner, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sources {
		if s.Owner == owner && s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSourcesRepo) SetActive(ctx context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	for _, s := range f.sources {
		if s.ID == id {
			s.Active = active
		}
	}
	return nil
}

func (f *fakeSourcesRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.sources)), nil
}

type fakeRepoManager struct {
	users      *fakeUsersRepo
	resets     *fakeResetRepo
	dashboards *fakeDashboardsRepo
	sources    *fakeSourcesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:      newFakeUsersRepo(),
		resets:     newFakeResetRepo(),
		dashboards: newFakeDashboardsRepo(),
		sources:    &fakeSourcesRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository             { return m.users }
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokens.Repository { return m.resets }
func (m *fakeRepoManager) Dashboards(db dbx.DBTX) dashboards.Repository   { return m.dashboards }
func (m *fakeRepoManager) Sources(db dbx.DBTX) sources.Repository         { return m.sources }

// --- collaborators ---

type fakeNotifier struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeProber struct {
	active     map[string]bool
	forwardOut *netx.ForwardResult
	forwardErr error
	forwarded  []netx.ForwardRequest
}

func (f *fakeProber) Active(ctx context.Context, url string) bool {
	return f.active[url]
}

func (f *fakeProber) Forward(ctx context.Context, fr netx.ForwardRequest) (*netx.ForwardResult, error) {
	f.forwarded = append(f.forwarded, fr)
	if f.forwardErr != nil {
		return nil, f.forwardErr
	}
	return f.forwardOut, nil
}
