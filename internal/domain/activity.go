package domain

import (
	"errors"
	"time"
)

// ErrNotLinked marks an account without Strava credentials.
var ErrNotLinked = errors.New("account has no linked strava credentials")

// Account holds a user's Strava OAuth credential. Credential fields are nil
// until the account is linked.
type Account struct {
	ID             int64      `db:"id"`
	Username       string     `db:"username"`
	AccessToken    *string    `db:"strava_token"`
	RefreshToken   *string    `db:"strava_refresh_token"`
	TokenExpiresAt *time.Time `db:"strava_token_expires_at"`
}

// Linked reports whether the account has a usable Strava credential.
func (a *Account) Linked() bool {
	return a.AccessToken != nil && a.RefreshToken != nil && a.TokenExpiresAt != nil
}

// Credential is a fresh token pair returned by the Strava token endpoint.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RawActivity is one workout as reported by Strava. Immutable once fetched,
// never persisted verbatim.
type RawActivity struct {
	ID           int64
	Name         string
	SportType    string
	StartTime    time.Time
	ElapsedTime  int // seconds
	Distance     float64
	StartLat     float64
	StartLng     float64
	AverageSpeed float64
	AverageWatts float64
}

// StreamBundle carries the per-second sensor channels of one raw activity.
// Channels may be absent or of unequal length; entries may be null.
type StreamBundle struct {
	Lat       []*float64
	Lng       []*float64
	Altitude  []*float64
	Time      []*int
	HeartRate []*int
	Cadence   []*int
	Power     []*int
	Velocity  []*float64
}

// Waypoint is one normalized sample. JSON tags match the stored waypoint
// document consumed by the frontend.
type Waypoint struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lon"`
	Elevation *float64 `json:"ele"`
	Time      *int     `json:"time"`
	HeartRate *int     `json:"hr"`
	Cadence   *int     `json:"cad"`
	Power     *int     `json:"power"`
	Velocity  *float64 `json:"vel"`
	Pace      *float64 `json:"pace"`
}

// Location is a resolved start location. Each field is independently optional.
type Location struct {
	City    *string
	Town    *string
	Country *string
}

// Activity is the normalized internal record. StravaActivityID is nil for
// manually created records and is the sole de-duplication key when set.
type Activity struct {
	ID               int64
	UserID           int64
	Name             string
	ActivityType     ActivityType
	Distance         int // meters
	StartTime        time.Time
	EndTime          time.Time
	City             *string
	Town             *string
	Country          *string
	ElevationGain    int
	ElevationLoss    int
	Pace             float64 // seconds per meter
	AverageSpeed     float64
	AveragePower     float64
	Waypoints        []Waypoint
	StravaActivityID *int64
	CreatedAt        time.Time
}

// SyncState tracks per-account sync progress. A zero LastSyncedAt means the
// account has never been synced.
type SyncState struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	TotalSynced  int64     `db:"total_synced"`
}
