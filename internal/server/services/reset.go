package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/dashkeeper/internal/dbx"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/config"
	"github.com/dmitrijs2005/dashkeeper/internal/server/mailer"
	"github.com/dmitrijs2005/dashkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
)

// ResetService runs the password reset lifecycle. A user has at most one
// pending reset; requesting again replaces it and a successful change
// removes it.
type ResetService struct {
	db                         *sql.DB
	repomanager                repomanager.RepositoryManager
	notifier                   mailer.Notifier
	jwtSecret                  []byte
	resetTokenValidityDuration time.Duration
	resetURL                   string
	log                        logging.Logger
	now                        func() time.Time
}

func NewResetService(db *sql.DB, m repomanager.RepositoryManager, n mailer.Notifier, cfg *config.Config, log logging.Logger) *ResetService {
	return &ResetService{
		db:                         db,
		repomanager:                m,
		notifier:                   n,
		jwtSecret:                  []byte(cfg.SecretKey),
		resetTokenValidityDuration: cfg.ResetTokenValidityDuration,
		resetURL:                   cfg.ResetURL,
		log:                        log.With("module", "reset"),
		now:                        time.Now,
	}
}

// RequestReset issues a reset token for username and e-mails the reset
// link. Delivery failures are logged, not returned.
func (s *ResetService) RequestReset(ctx context.Context, username string) error {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return classify(err, common.Resource(msgUserNotFound))
	}

	token, err := auth.GenerateResetToken(user.Username, s.jwtSecret, s.resetTokenValidityDuration)
	if err != nil {
		return fmt.Errorf("error generating reset token: %w", err)
	}

	reset := &models.ResetToken{
		Username: user.Username,
		Token:    token,
		ExpireAt: s.now().Add(s.resetTokenValidityDuration),
	}
	if err := s.repomanager.ResetTokens(s.db).Upsert(ctx, reset); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	s.notify(ctx, user, token)
	return nil
}

func (s *ResetService) notify(ctx context.Context, user *models.User, token string) {
	msg, err := mailer.RenderReset(user.Email, mailer.ResetEmail{
		Username: user.Username,
		Link:     s.resetLink(token),
		ValidFor: s.resetTokenValidityDuration,
	})
	if err == nil {
		err = s.notifier.Send(ctx, msg)
	}
	if err != nil {
		metrics.ResetEmails.WithLabelValues("failed").Inc()
		s.log.Warn(ctx, "reset e-mail not delivered", "username", user.Username, "error", err)
		return
	}
	metrics.ResetEmails.WithLabelValues("sent").Inc()
}

func (s *ResetService) resetLink(token string) string {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return s.resetURL + "?" + common.TokenQueryParam + "=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set(common.TokenQueryParam, token)
	u.RawQuery = q.Encode()
	return u.String()
}

// ChangePassword redeems the pending reset of username. The caller must
// hold a token issued for the same username.
func (s *ResetService) ChangePassword(ctx context.Context, p auth.Principal, username, password string) error {
	if password == "" {
		return common.Validation("password is a required field")
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		return classify(err, common.Resource(msgUserNotFound))
	}
	if p.Username != user.Username {
		return common.Resource(msgUserNotFound)
	}

	reset, err := s.repomanager.ResetTokens(s.db).Get(ctx, user.Username)
	if err != nil {
		return classify(err, common.Expired(msgResetExpired))
	}
	if reset.Expired(s.now()) {
		return common.Expired(msgResetExpired)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	// Consume runs first; a concurrent redeemer finds no row and rolls back.
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.ResetTokens(tx).Consume(ctx, user.Username, s.now()); err != nil {
			return classify(err, common.Expired(msgResetExpired))
		}
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.Username, hash); err != nil {
			return classify(err, common.Resource(msgUserNotFound))
		}
		return nil
	})
	if err != nil {
		var de *common.DomainError
		if errors.As(err, &de) {
			return err
		}
		return fmt.Errorf("error changing password: %w", err)
	}

	s.log.Info(ctx, "password changed", "username", user.Username)
	return nil
}
