package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/domain"
	"fitsync/testdata/utils"
)

func floats(vs ...float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = utils.Ptr(v)
	}
	return out
}

func ints(vs ...int) []*int {
	out := make([]*int, len(vs))
	for i, v := range vs {
		out[i] = utils.Ptr(v)
	}
	return out
}

func TestCompute_Elevation(t *testing.T) {
	streams := domain.StreamBundle{
		Time:     ints(0, 1, 2, 3),
		Altitude: floats(100, 105, 103, 110),
	}

	m := Compute(streams, 0)

	assert.Equal(t, 12, m.ElevationGain)
	assert.Equal(t, 2, m.ElevationLoss)
}

func TestCompute_ElevationGapKeepsReference(t *testing.T) {
	streams := domain.StreamBundle{
		Time:     ints(0, 1, 2),
		Altitude: []*float64{utils.Ptr(100.0), nil, utils.Ptr(104.0)},
	}

	m := Compute(streams, 0)

	// The gap sample contributes nothing; the climb is still measured
	// against the last known altitude.
	assert.Equal(t, 4, m.ElevationGain)
	assert.Equal(t, 0, m.ElevationLoss)
}

func TestCompute_ElevationRounding(t *testing.T) {
	streams := domain.StreamBundle{
		Time:     ints(0, 1),
		Altitude: floats(100, 101.6),
	}

	m := Compute(streams, 0)

	assert.Equal(t, 2, m.ElevationGain)
}

func TestCompute_HeartRateGovernsLength(t *testing.T) {
	streams := domain.StreamBundle{
		HeartRate: ints(120, 125, 130),
		Time:      ints(0, 1),
		Lat:       floats(48.1),
	}

	m := Compute(streams, 0)

	require.Len(t, m.Waypoints, 3)

	// Shorter channels null-pad past their end.
	assert.Equal(t, 0, *m.Waypoints[0].Time)
	assert.Nil(t, m.Waypoints[2].Time)
	assert.NotNil(t, m.Waypoints[0].Lat)
	assert.Nil(t, m.Waypoints[1].Lat)
}

func TestCompute_TimeFallbackWithoutHeartRate(t *testing.T) {
	streams := domain.StreamBundle{
		Time: ints(0, 1, 2, 3, 4),
	}

	m := Compute(streams, 0)

	assert.Len(t, m.Waypoints, 5)
	for _, wp := range m.Waypoints {
		assert.Nil(t, wp.HeartRate)
	}
}

func TestCompute_Pace(t *testing.T) {
	streams := domain.StreamBundle{
		Time:     ints(0, 1, 2),
		Velocity: []*float64{utils.Ptr(2.0), utils.Ptr(0.0), nil},
	}

	m := Compute(streams, 2.5)

	require.Len(t, m.Waypoints, 3)
	require.NotNil(t, m.Waypoints[0].Pace)
	assert.InDelta(t, 0.5, *m.Waypoints[0].Pace, 1e-9)
	assert.Nil(t, m.Waypoints[1].Pace, "stopped sample has no pace")
	assert.Nil(t, m.Waypoints[2].Pace)

	assert.InDelta(t, 0.4, m.AveragePace, 1e-9)
}

func TestCompute_ZeroAverageSpeed(t *testing.T) {
	m := Compute(domain.StreamBundle{Time: ints(0)}, 0)

	assert.Zero(t, m.AveragePace)
}

func TestCompute_EmptyBundle(t *testing.T) {
	m := Compute(domain.StreamBundle{}, 3.0)

	assert.Empty(t, m.Waypoints)
	assert.Zero(t, m.ElevationGain)
	assert.Zero(t, m.ElevationLoss)
	assert.InDelta(t, 1.0/3.0, m.AveragePace, 1e-9)
}
