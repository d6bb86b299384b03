package database

import (
	"context"
	"fmt"

	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/session"
	"github.com/watxaut/FontsReviewerApp/supabase/client"
)

// Repository reads and writes application tables through PostgREST. Every
// call runs with the caller's access token from ctx, or the anon key when
// the caller is anonymous, so row-level security decides what is visible.
type Repository struct {
	client *client.Client
	logger *logging.Logger
}

// NewRepository creates a repository. A nil logger uses logging.Default().
func NewRepository(c *client.Client, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{client: c, logger: logger}
}

func (r *Repository) ready() error {
	if r == nil || r.client == nil {
		return fmt.Errorf("%w: repository not initialized", ErrInvalidInput)
	}
	return nil
}

func (r *Repository) from(ctx context.Context, table string) *client.QueryBuilder {
	return r.client.From(table).WithToken(session.AccessToken(ctx))
}
