package services

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResetService(t *testing.T) (*ResetService, *fakeRepoManager, *fakeNotifier, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rm := newFakeRepoManager()
	n := &fakeNotifier{}
	return NewResetService(db, rm, n, testConfig(), logging.Nop()), rm, n, mock
}

var hrefToken = regexp.MustCompile(`href="([^"]+)"`)

func TestRequestReset(t *testing.T) {
	s, rm, n, _ := newResetService(t)
	ctx := context.Background()
	seedUser(t, rm, "admin", "admin@example.com", "admin")

	err := s.RequestReset(ctx, "ghost")
	requireDomainError(t, err, common.ErrorResource, "Resource Error: User not found.")
	assert.Empty(t, rm.resets.tokens)

	require.NoError(t, s.RequestReset(ctx, "admin"))

	stored, ok := rm.resets.tokens["admin"]
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.ExpireAt, 5*time.Second)

	p, err := auth.ParseToken(stored.Token, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{Username: "admin"}, p, "reset token embeds only the username")

	require.Len(t, n.sent, 1)
	assert.Equal(t, "admin@example.com", n.sent[0].To)
	m := hrefToken.FindStringSubmatch(n.sent[0].HTML)
	require.Len(t, m, 2)
	link, err := url.Parse(m[1])
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", link.Path)
	assert.Equal(t, stored.Token, link.Query().Get("token"))

	// a second request overwrites the first
	s.now = func() time.Time { return time.Now().Add(time.Minute) }
	require.NoError(t, s.RequestReset(ctx, "admin"))
	assert.Len(t, rm.resets.tokens, 1)
	assert.True(t, rm.resets.tokens["admin"].ExpireAt.After(stored.ExpireAt))
}

func TestRequestReset_DeliveryFailureIsSwallowed(t *testing.T) {
	s, rm, n, _ := newResetService(t)
	seedUser(t, rm, "admin", "admin@example.com", "admin")
	n.err = errors.New("smtp down")

	require.NoError(t, s.RequestReset(context.Background(), "admin"))
	assert.Contains(t, rm.resets.tokens, "admin")
}

func TestChangePassword_Lifecycle(t *testing.T) {
	s, rm, _, mock := newResetService(t)
	ctx := context.Background()
	seedUser(t, rm, "admin", "admin@example.com", "old")
	principal := auth.Principal{Username: "admin"}

	err := s.ChangePassword(ctx, principal, "admin", "new")
	requireDomainError(t, err, common.ErrorExpired, "Resource Error: Reset token has expired.")

	require.NoError(t, s.RequestReset(ctx, "admin"))

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, s.ChangePassword(ctx, principal, "admin", "new"))
	require.NoError(t, mock.ExpectationsWereMet())

	assert.True(t, cryptox.ComparePassword(rm.users.users["admin"].Password, "new"))
	assert.NotContains(t, rm.resets.tokens, "admin")

	err = s.ChangePassword(ctx, principal, "admin", "newer")
	requireDomainError(t, err, common.ErrorExpired, "Resource Error: Reset token has expired.")
	assert.True(t, cryptox.ComparePassword(rm.users.users["admin"].Password, "new"))
}

func TestChangePassword_Rejections(t *testing.T) {
	s, rm, _, _ := newResetService(t)
	ctx := context.Background()
	seedUser(t, rm, "admin", "admin@example.com", "old")
	seedUser(t, rm, "eve", "eve@example.com", "eve")
	require.NoError(t, s.RequestReset(ctx, "admin"))

	err := s.ChangePassword(ctx, auth.Principal{Username: "admin"}, "admin", "")
	requireDomainError(t, err, common.ErrorValidation, "Validation Error: password is a required field")

	err = s.ChangePassword(ctx, auth.Principal{Username: "admin"}, "ghost", "x")
	requireDomainError(t, err, common.ErrorResource, "Resource Error: User not found.")

	err = s.ChangePassword(ctx, auth.Principal{Username: "eve"}, "admin", "x")
	requireDomainError(t, err, common.ErrorResource, "Resource Error: User not found.")

	rm.resets.tokens["admin"] = models.ResetToken{Username: "admin", Token: "t", ExpireAt: time.Now().Add(-time.Second)}
	err = s.ChangePassword(ctx, auth.Principal{Username: "admin"}, "admin", "x")
	requireDomainError(t, err, common.ErrorExpired, "Resource Error: Reset token has expired.")

	assert.True(t, cryptox.ComparePassword(rm.users.users["admin"].Password, "old"))
}

func TestChangePassword_RollbackOnFailure(t *testing.T) {
	s, rm, _, mock := newResetService(t)
	ctx := context.Background()
	seedUser(t, rm, "admin", "admin@example.com", "old")
	require.NoError(t, s.RequestReset(ctx, "admin"))

	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	err := s.ChangePassword(ctx, auth.Principal{Username: "admin"}, "admin", "new")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conn")
	assert.Contains(t, rm.resets.tokens, "admin")
}

func TestChangePassword_TokenRedeemedConcurrently(t *testing.T) {
	s, rm, _, mock := newResetService(t)
	ctx := context.Background()
	seedUser(t, rm, "admin", "admin@example.com", "old")
	require.NoError(t, s.RequestReset(ctx, "admin"))

	// Another request redeems the token between the lookup and the commit.
	rm.resets.beforeConsume = func() {
		rm.resets.mu.Lock()
		delete(rm.resets.tokens, "admin")
		rm.resets.mu.Unlock()
	}

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.ChangePassword(ctx, auth.Principal{Username: "admin"}, "admin", "new")

	requireDomainError(t, err, common.ErrorExpired, "Resource Error: Reset token has expired.")
	require.NoError(t, mock.ExpectationsWereMet())
	assert.True(t, cryptox.ComparePassword(rm.users.users["admin"].Password, "old"))
}

func TestChangePassword_ExpiresBetweenLookupAndRedeem(t *testing.T) {
	s, rm, _, mock := newResetService(t)
	ctx := context.Background()
	seedUser(t, rm, "admin", "admin@example.com", "old")

	now := time.Now()
	rm.resets.tokens["admin"] = models.ResetToken{Username: "admin", Token: "t", ExpireAt: now.Add(time.Millisecond)}
	calls := 0
	s.now = func() time.Time {
		calls++
		if calls == 1 {
			return now
		}
		return now.Add(time.Second)
	}

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.ChangePassword(ctx, auth.Principal{Username: "admin"}, "admin", "new")

	requireDomainError(t, err, common.ErrorExpired, "Resource Error: Reset token has expired.")
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, rm.resets.tokens, "admin")
}
