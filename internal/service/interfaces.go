package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"fitsync/internal/domain"
)

type AccountStore interface {
	List(ctx context.Context) ([]domain.Account, error)
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	UpdateCredential(ctx context.Context, id int64, cred *domain.Credential) error
}

type ActivityStore interface {
	ExistsByStravaID(ctx context.Context, stravaActivityID int64) (bool, error)
	BulkInsert(ctx context.Context, activities []domain.Activity) (int64, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, userID int64) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type ActivitySource interface {
	ListActivities(ctx context.Context, accessToken string, after time.Time) ([]domain.RawActivity, error)
	GetStreams(ctx context.Context, accessToken string, activityID int64) (domain.StreamBundle, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.Credential, error)
}

type Geocoder interface {
	Resolve(ctx context.Context, lat, lng float64) domain.Location
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, activity *domain.Activity) error
	Close() error
}
