package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"fitsync/internal/derive"
	"fitsync/internal/domain"
)

// Normalizer turns one raw activity plus its streams into a normalized
// internal record. It never fails for data-shape reasons: unknown sport
// types default, missing channels null-pad, geolocation failures degrade
// to an unknown location.
type Normalizer struct {
	geocoder Geocoder
	logger   *slog.Logger
}

func NewNormalizer(geocoder Geocoder, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		geocoder: geocoder,
		logger:   logger.With("component", "normalizer"),
	}
}

func (n *Normalizer) Normalize(ctx context.Context, userID int64, raw domain.RawActivity, streams domain.StreamBundle) domain.Activity {
	metrics := derive.Compute(streams, raw.AverageSpeed)
	location := n.geocoder.Resolve(ctx, raw.StartLat, raw.StartLng)

	stravaID := raw.ID

	return domain.Activity{
		UserID:           userID,
		Name:             raw.Name,
		ActivityType:     domain.MapSportType(raw.SportType),
		Distance:         int(math.Round(raw.Distance)),
		StartTime:        raw.StartTime,
		EndTime:          raw.StartTime.Add(time.Duration(raw.ElapsedTime) * time.Second),
		City:             location.City,
		Town:             location.Town,
		Country:          location.Country,
		ElevationGain:    metrics.ElevationGain,
		ElevationLoss:    metrics.ElevationLoss,
		Pace:             metrics.AveragePace,
		AverageSpeed:     raw.AverageSpeed,
		AveragePower:     raw.AverageWatts,
		Waypoints:        metrics.Waypoints,
		StravaActivityID: &stravaID,
		CreatedAt:        time.Now().UTC(),
	}
}
