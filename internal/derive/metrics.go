// Package derive computes activity metrics from raw sensor streams.
package derive

import (
	"math"

	"fitsync/internal/domain"
)

// Metrics is the result of one derivation pass over a stream bundle.
type Metrics struct {
	Waypoints     []domain.Waypoint
	ElevationGain int
	ElevationLoss int
	AveragePace   float64
}

// Compute walks the stream bundle once and produces index-aligned waypoints
// plus elevation gain/loss and average pace. The heart-rate channel governs
// the sample count; the time channel is the fallback when heart rate is
// absent. Shorter channels are null-padded.
func Compute(streams domain.StreamBundle, averageSpeed float64) Metrics {
	n := len(streams.HeartRate)
	if n == 0 {
		n = len(streams.Time)
	}

	waypoints := make([]domain.Waypoint, 0, n)

	var gain, loss float64
	var previousElevation *float64

	for i := 0; i < n; i++ {
		wp := domain.Waypoint{
			Lat:       floatAt(streams.Lat, i),
			Lng:       floatAt(streams.Lng, i),
			Elevation: floatAt(streams.Altitude, i),
			Time:      intAt(streams.Time, i),
			HeartRate: intAt(streams.HeartRate, i),
			Cadence:   intAt(streams.Cadence, i),
			Power:     intAt(streams.Power, i),
			Velocity:  floatAt(streams.Velocity, i),
		}
		wp.Pace = pace(wp.Velocity)

		// A missing altitude reading contributes nothing; the last known
		// altitude stays the reference across the gap.
		if wp.Elevation != nil {
			if previousElevation != nil {
				change := *wp.Elevation - *previousElevation
				if change > 0 {
					gain += change
				} else {
					loss += math.Abs(change)
				}
			}
			previousElevation = wp.Elevation
		}

		waypoints = append(waypoints, wp)
	}

	averagePace := 0.0
	if averageSpeed != 0 {
		averagePace = 1 / averageSpeed
	}

	return Metrics{
		Waypoints:     waypoints,
		ElevationGain: int(math.Round(gain)),
		ElevationLoss: int(math.Round(loss)),
		AveragePace:   averagePace,
	}
}

// pace is the reciprocal of instantaneous velocity in seconds per meter.
// Zero velocity is a legitimate "stopped" reading, not an error, and yields
// a null pace.
func pace(velocity *float64) *float64 {
	if velocity == nil || *velocity == 0 {
		return nil
	}
	p := 1 / *velocity
	return &p
}

func floatAt(channel []*float64, i int) *float64 {
	if i < len(channel) {
		return channel[i]
	}
	return nil
}

func intAt(channel []*int, i int) *int {
	if i < len(channel) {
		return channel[i]
	}
	return nil
}
