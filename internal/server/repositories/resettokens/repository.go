package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/dashkeeper/internal/server/models"
)

// Repository stores at most one pending reset per username.
type Repository interface {
	Upsert(ctx context.Context, token *models.ResetToken) error
	Get(ctx context.Context, username string) (*models.ResetToken, error)
	// Consume removes the reset of username if it is still valid at now.
	// A missing or expired reset yields common.ErrorNotFound.
	Consume(ctx context.Context, username string, now time.Time) error
}
