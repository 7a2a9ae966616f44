package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestUpsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	q := `(?s)^INSERT\s+INTO\s+reset_tokens.*ON\s+CONFLICT\s+\(username\)\s+DO\s+UPDATE.*`
	mock.ExpectExec(q).WithArgs("admin", "tok", exp).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), &models.ResetToken{Username: "admin", Token: "tok", ExpireAt: exp}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	mock.ExpectExec(q).WillReturnError(errors.New("boom"))
	err := repo.Upsert(context.Background(), &models.ResetToken{Username: "admin", Token: "tok", ExpireAt: exp})
	if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+username,\s*token,\s*expire_at\s+FROM\s+reset_tokens\s+WHERE\s+username\s*=\s*\$1\s*$`
	exp := time.Now()
	mock.ExpectQuery(q).WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"username", "token", "expire_at"}).AddRow("admin", "tok", exp))

	got, err := repo.Get(context.Background(), "admin")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Token != "tok" || !got.ExpireAt.Equal(exp) {
		t.Fatalf("unexpected token: %+v", got)
	}

	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	if _, err := repo.Get(context.Background(), "ghost"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestConsume(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+reset_tokens\s+WHERE\s+username\s*=\s*\$1\s+AND\s+expire_at\s*>\s*\$2\s*$`
	now := time.Now()

	mock.ExpectExec(q).WithArgs("admin", now).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Consume(context.Background(), "admin", now); err != nil {
		t.Fatalf("Consume error: %v", err)
	}

	// Already redeemed or expired.
	mock.ExpectExec(q).WithArgs("admin", now).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.Consume(context.Background(), "admin", now); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}

	mock.ExpectExec(q).WillReturnError(errors.New("boom"))
	err := repo.Consume(context.Background(), "admin", now)
	if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
