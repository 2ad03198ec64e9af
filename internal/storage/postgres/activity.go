package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"fitsync/internal/domain"
)

const activityColumns = 17

type ActivityStore struct {
	db *sqlx.DB
}

func NewActivityStore(db *sqlx.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) ExistsByStravaID(ctx context.Context, stravaActivityID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS (SELECT 1 FROM activities WHERE strava_activity_id = $1)",
		stravaActivityID,
	)
	return exists, err
}

// BulkInsert writes all records in one multi-row statement and returns the
// number actually inserted. The unique index on strava_activity_id plus
// ON CONFLICT DO NOTHING is the authoritative duplicate guard; a record that
// raced in between the dedup check and this insert is silently dropped.
func (s *ActivityStore) BulkInsert(ctx context.Context, activities []domain.Activity) (int64, error) {
	if len(activities) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO activities (
		user_id, name, distance, activity_type, start_time, end_time,
		city, town, country, created_at, waypoints,
		elevation_gain, elevation_loss, pace, average_speed, average_power,
		strava_activity_id
	) VALUES `)

	valueArgs := make([]interface{}, 0, len(activities)*activityColumns)

	for i, a := range activities {
		waypoints, err := json.Marshal(a.Waypoints)
		if err != nil {
			return 0, fmt.Errorf("marshal waypoints for activity %v: %w", a.StravaActivityID, err)
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < activityColumns; j++ {
			if j > 0 {
				sb.WriteString(", $")
			} else {
				sb.WriteString("$")
			}
			sb.WriteString(strconv.Itoa(i*activityColumns + j + 1))
		}
		sb.WriteString(")")

		valueArgs = append(valueArgs,
			a.UserID,
			a.Name,
			a.Distance,
			int(a.ActivityType),
			a.StartTime,
			a.EndTime,
			a.City,
			a.Town,
			a.Country,
			a.CreatedAt,
			waypoints,
			a.ElevationGain,
			a.ElevationLoss,
			a.Pace,
			a.AverageSpeed,
			a.AveragePower,
			a.StravaActivityID,
		)
	}
	sb.WriteString(" ON CONFLICT (strava_activity_id) DO NOTHING")

	result, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), valueArgs...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
