// Package reviewer implements the fountain review API: accounts, fountains,
// reviews, statistics and the live user-stats stream.
package reviewer

import (
	"context"
	"fmt"
	"time"

	"github.com/watxaut/FontsReviewerApp/internal/database"
	"github.com/watxaut/FontsReviewerApp/internal/domain"
	"github.com/watxaut/FontsReviewerApp/internal/geo"
	"github.com/watxaut/FontsReviewerApp/internal/logging"
	"github.com/watxaut/FontsReviewerApp/internal/metrics"
	"github.com/watxaut/FontsReviewerApp/internal/session"
	commonservice "github.com/watxaut/FontsReviewerApp/services/common/service"
)

const (
	ServiceID   = "reviewer"
	ServiceName = "Fonts Reviewer API"
	Version     = "1.0.0"
)

// Store captures the persistence surface needed by the reviewer service.
type Store interface {
	GetProfile(ctx context.Context, id string) (*domain.User, error)
	FindProfileByNickname(ctx context.Context, nickname string) (*domain.User, error)
	CreateProfile(ctx context.Context, id, nickname string) (*domain.User, error)
	UpdateNickname(ctx context.Context, id, nickname string) (*domain.User, error)

	CreateReview(ctx context.Context, req domain.CreateReviewRequest, userID, nickname string) (*domain.Review, error)
	ListReviewsForFountain(ctx context.Context, fountainID string) ([]domain.Review, error)
	GetUserReview(ctx context.Context, userID, fountainID string) (*domain.Review, error)
	UpdateReview(ctx context.Context, id string, ratings domain.Ratings, comment *string) (*domain.Review, error)
	DeleteReview(ctx context.Context, id string) error
	ListReviewedFountainIDs(ctx context.Context, userID string) ([]string, error)

	ListFountainsWithStats(ctx context.Context, includeDeleted bool) ([]domain.Fountain, error)
	GetFountainByCodi(ctx context.Context, codi string) (*domain.Fountain, error)
	CreateFountain(ctx context.Context, codi string, req domain.CreateFountainRequest) (*domain.Fountain, error)
	SoftDeleteFountain(ctx context.Context, codi string) error

	ListFountainStats(ctx context.Context) ([]database.FountainStatsDTO, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// AuthStore wraps the identity provider.
type AuthStore interface {
	SignUp(ctx context.Context, email, password, nickname string) (*database.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*database.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*session.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Reader serves the public aggregate views without going through
// PostgREST. It is optional.
type Reader interface {
	ListFountainsWithStats(ctx context.Context, includeDeleted bool) ([]domain.Fountain, error)
	GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// Connectivity reports whether the backend can be reached.
type Connectivity interface {
	Check(ctx context.Context) error
}

// Service implements the reviewer API.
type Service struct {
	*commonservice.BaseService

	store   Store
	auth    AuthStore
	reader  Reader
	conn    Connectivity
	watcher ProfileWatcher
	metrics *metrics.Metrics
	logger  *logging.Logger
	gate    geo.Gate

	leaderboardLimit int
	now              func() time.Time
}

// Config configures the reviewer service.
type Config struct {
	Store        Store
	Auth         AuthStore
	Reader       Reader       // optional direct Postgres reads
	Connectivity Connectivity // optional; skipped when nil
	Watcher      ProfileWatcher
	Metrics      *metrics.Metrics
	Logger       *logging.Logger

	ReviewRadiusMeters float64
	LeaderboardLimit   int
}

// New creates the reviewer service and registers its routes.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("reviewer: store is required")
	}
	if cfg.Auth == nil {
		return nil, fmt.Errorf("reviewer: auth store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New("")
	}
	if cfg.LeaderboardLimit <= 0 {
		cfg.LeaderboardLimit = database.DefaultLeaderboardLimit
	}

	checks := map[string]commonservice.HealthCheck{}
	if cfg.Connectivity != nil {
		checks["supabase"] = cfg.Connectivity.Check
	}

	base := commonservice.NewBase(commonservice.BaseConfig{
		ID:      ServiceID,
		Name:    ServiceName,
		Version: Version,
		Logger:  cfg.Logger,
		Checks:  checks,
	})

	s := &Service{
		BaseService:      base,
		store:            cfg.Store,
		auth:             cfg.Auth,
		reader:           cfg.Reader,
		conn:             cfg.Connectivity,
		watcher:          cfg.Watcher,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		gate:             geo.NewGate(cfg.ReviewRadiusMeters),
		leaderboardLimit: cfg.LeaderboardLimit,
		now:              time.Now,
	}

	base.WithStats(s.statistics)
	base.RegisterStandardRoutes()
	s.registerRoutes()

	return s, nil
}

func (s *Service) statistics() map[string]any {
	return map[string]any{
		"review_radius_meters": s.gate.RadiusMeters,
		"leaderboard_limit":    s.leaderboardLimit,
		"direct_reads":         s.reader != nil,
		"live_stats":           s.watcher != nil,
	}
}
