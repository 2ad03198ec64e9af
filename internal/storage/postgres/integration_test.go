//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"fitsync/internal/domain"
	"fitsync/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.RunContainer(s.ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_users.up.sql"),
			filepath.Join(migrationsPath, "002_create_activities.up.sql"),
			filepath.Join(migrationsPath, "003_create_account_sync_state.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM activities")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM account_sync_state")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM users")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) insertUser(username string, linked bool) int64 {
	var id int64
	if linked {
		expiry := time.Now().Add(2 * time.Hour)
		err := s.db.GetContext(s.ctx, &id, `
			INSERT INTO users (username, strava_token, strava_refresh_token, strava_token_expires_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, username, "access-"+username, "refresh-"+username, expiry)
		s.Require().NoError(err)
	} else {
		err := s.db.GetContext(s.ctx, &id, `
			INSERT INTO users (username) VALUES ($1) RETURNING id
		`, username)
		s.Require().NoError(err)
	}
	return id
}

func (s *PostgresIntegrationSuite) activity(userID, stravaID int64) domain.Activity {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Activity{
		UserID:           userID,
		Name:             "Morning Run",
		ActivityType:     domain.ActivityTypeRun,
		Distance:         5012,
		StartTime:        now.Add(-time.Hour),
		EndTime:          now.Add(-30 * time.Minute),
		City:             utils.Ptr("Annecy"),
		Country:          utils.Ptr("France"),
		ElevationGain:    120,
		ElevationLoss:    118,
		Pace:             0.36,
		AverageSpeed:     2.78,
		Waypoints:        []domain.Waypoint{{Lat: utils.Ptr(45.9), Lng: utils.Ptr(6.12), HeartRate: utils.Ptr(132)}},
		StravaActivityID: utils.Ptr(stravaID),
		CreatedAt:        now,
	}
}

func (s *PostgresIntegrationSuite) TestAccountStore_ListAndGet() {
	store := NewAccountStore(s.db)

	linkedID := s.insertUser("alice", true)
	unlinkedID := s.insertUser("bob", false)

	accounts, err := store.List(s.ctx)
	s.NoError(err)
	s.Len(accounts, 2)
	s.True(accounts[0].Linked())
	s.False(accounts[1].Linked())

	account, err := store.GetByID(s.ctx, linkedID)
	s.NoError(err)
	s.Require().NotNil(account)
	s.Equal("alice", account.Username)
	s.Equal("access-alice", *account.AccessToken)

	account, err = store.GetByID(s.ctx, unlinkedID)
	s.NoError(err)
	s.Require().NotNil(account)
	s.Nil(account.AccessToken)
}

func (s *PostgresIntegrationSuite) TestAccountStore_GetByID_Missing() {
	store := NewAccountStore(s.db)

	account, err := store.GetByID(s.ctx, 424242)
	s.NoError(err)
	s.Nil(account)
}

func (s *PostgresIntegrationSuite) TestAccountStore_UpdateCredential() {
	store := NewAccountStore(s.db)
	id := s.insertUser("alice", true)

	cred := &domain.Credential{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    time.Now().Add(6 * time.Hour).UTC().Truncate(time.Microsecond),
	}

	err := store.UpdateCredential(s.ctx, id, cred)
	s.NoError(err)

	account, err := store.GetByID(s.ctx, id)
	s.NoError(err)
	s.Equal("new-access", *account.AccessToken)
	s.Equal("new-refresh", *account.RefreshToken)
	s.WithinDuration(cred.ExpiresAt, *account.TokenExpiresAt, time.Second)
}

func (s *PostgresIntegrationSuite) TestAccountStore_UpdateCredential_Missing() {
	store := NewAccountStore(s.db)

	err := store.UpdateCredential(s.ctx, 424242, &domain.Credential{
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    time.Now(),
	})
	s.Error(err)
	s.Contains(err.Error(), "not found")
}

func (s *PostgresIntegrationSuite) TestActivityStore_BulkInsertAndExists() {
	store := NewActivityStore(s.db)
	userID := s.insertUser("alice", true)

	exists, err := store.ExistsByStravaID(s.ctx, 42)
	s.NoError(err)
	s.False(exists)

	inserted, err := store.BulkInsert(s.ctx, []domain.Activity{
		s.activity(userID, 42),
		s.activity(userID, 43),
	})
	s.NoError(err)
	s.Equal(int64(2), inserted)

	exists, err = store.ExistsByStravaID(s.ctx, 42)
	s.NoError(err)
	s.True(exists)

	var waypoints string
	err = s.db.GetContext(s.ctx, &waypoints, "SELECT waypoints::text FROM activities WHERE strava_activity_id = $1", 42)
	s.NoError(err)
	s.Contains(waypoints, `"lat"`)
	s.Contains(waypoints, `"hr"`)
}

func (s *PostgresIntegrationSuite) TestActivityStore_BulkInsert_ConflictDoesNothing() {
	store := NewActivityStore(s.db)
	userID := s.insertUser("alice", true)

	inserted, err := store.BulkInsert(s.ctx, []domain.Activity{s.activity(userID, 42)})
	s.NoError(err)
	s.Equal(int64(1), inserted)

	// A replay of the same external id plus one new record inserts only the
	// new one.
	inserted, err = store.BulkInsert(s.ctx, []domain.Activity{
		s.activity(userID, 42),
		s.activity(userID, 99),
	})
	s.NoError(err)
	s.Equal(int64(1), inserted)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM activities")
	s.NoError(err)
	s.Equal(2, count)
}

func (s *PostgresIntegrationSuite) TestActivityStore_BulkInsert_Empty() {
	store := NewActivityStore(s.db)

	inserted, err := store.BulkInsert(s.ctx, nil)
	s.NoError(err)
	s.Zero(inserted)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_GetNew() {
	store := NewSyncStateStore(s.db)
	userID := s.insertUser("alice", true)

	state, err := store.Get(s.ctx, userID)
	s.NoError(err)
	s.Require().NotNil(state)
	s.Equal(userID, state.UserID)
	s.True(state.LastSyncedAt.IsZero())
	s.Equal(int64(0), state.TotalSynced)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_UpdateAndGet() {
	store := NewSyncStateStore(s.db)
	userID := s.insertUser("alice", true)
	now := time.Now().UTC().Truncate(time.Microsecond)

	state := &domain.SyncState{
		UserID:       userID,
		LastSyncedAt: now,
		TotalSynced:  100,
	}
	err := store.Update(s.ctx, state)
	s.NoError(err)

	retrieved, err := store.Get(s.ctx, userID)
	s.NoError(err)
	s.Equal(userID, retrieved.UserID)
	s.Equal(int64(100), retrieved.TotalSynced)
	s.WithinDuration(now, retrieved.LastSyncedAt, time.Second)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_UpdateExisting() {
	store := NewSyncStateStore(s.db)
	userID := s.insertUser("alice", true)
	now := time.Now().UTC().Truncate(time.Microsecond)

	state := &domain.SyncState{UserID: userID, LastSyncedAt: now, TotalSynced: 10}
	s.NoError(store.Update(s.ctx, state))

	state.LastSyncedAt = now.Add(time.Hour)
	state.TotalSynced = 20
	s.NoError(store.Update(s.ctx, state))

	retrieved, err := store.Get(s.ctx, userID)
	s.NoError(err)
	s.Equal(int64(20), retrieved.TotalSynced)
	s.WithinDuration(now.Add(time.Hour), retrieved.LastSyncedAt, time.Second)
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	activityStore := NewActivityStore(s.db)
	stateStore := NewSyncStateStore(s.db)
	userID := s.insertUser("alice", true)
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := activityStore.BulkInsert(ctx, []domain.Activity{s.activity(userID, 42)}); err != nil {
			return err
		}
		return stateStore.Update(ctx, &domain.SyncState{UserID: userID, LastSyncedAt: now, TotalSynced: 1})
	})
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM activities WHERE strava_activity_id = $1", 42)
	s.NoError(err)
	s.Equal(1, count)

	state, err := stateStore.Get(s.ctx, userID)
	s.NoError(err)
	s.Equal(int64(1), state.TotalSynced)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	activityStore := NewActivityStore(s.db)
	userID := s.insertUser("alice", true)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := activityStore.BulkInsert(ctx, []domain.Activity{s.activity(userID, 42)}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM activities WHERE strava_activity_id = $1", 42)
	s.NoError(err)
	s.Equal(0, count)
}
