package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/dmitrijs2005/dashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/dashkeeper/internal/server/config"
	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/repomanager"
)

// AuthResult is returned by a successful login.
type AuthResult struct {
	User  auth.Principal
	Token string
}

// UserService provides authentication-related operations:
// - Authenticate: verify credentials and mint a session token
// - Register: create users
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
	log                          logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
		log:                          log.With("module", "users"),
	}
}

// Authenticate checks username and password and returns a session token
// embedding the user's id, username and e-mail.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, classify(err, common.Authentication(msgUserNotFound))
	}

	if !cryptox.ComparePassword(user.Password, password) {
		return nil, common.Authentication(msgPasswordMismatch)
	}

	p := auth.Principal{ID: user.ID, Username: user.Username, Email: user.Email}
	token, err := auth.GenerateSessionToken(p, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	s.log.Info(ctx, "user authenticated", "user_id", user.ID)
	return &AuthResult{User: p, Token: token}, nil
}

// Register creates a user. Username and e-mail must be unused.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "":
		return nil, common.Validation("username is a required field")
	case email == "":
		return nil, common.Validation("email is a required field")
	case password == "":
		return nil, common.Validation("password is a required field")
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, &models.User{Username: username, Email: email, Password: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.Conflict(msgRegistrationConflict)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}
