package domain

// ActivityType is the closed internal activity-type code.
type ActivityType int

const (
	ActivityTypeRun          ActivityType = 1
	ActivityTypeTrailRun     ActivityType = 2
	ActivityTypeVirtualRun   ActivityType = 3
	ActivityTypeRide         ActivityType = 4
	ActivityTypeGravelRide   ActivityType = 5
	ActivityTypeEBikeRide    ActivityType = 6
	ActivityTypeVirtualRide  ActivityType = 7
	ActivityTypeMountainBike ActivityType = 8
	ActivityTypeSwim         ActivityType = 9
	ActivityTypeWorkout      ActivityType = 10
)

// sportTypes maps Strava sport-type labels to internal codes. The external
// taxonomy evolves independently, so missing labels are not an error.
var sportTypes = map[string]ActivityType{
	"running":             ActivityTypeRun,
	"Run":                 ActivityTypeRun,
	"trail running":       ActivityTypeTrailRun,
	"TrailRun":            ActivityTypeTrailRun,
	"VirtualRun":          ActivityTypeVirtualRun,
	"cycling":             ActivityTypeRide,
	"Ride":                ActivityTypeRide,
	"GravelRide":          ActivityTypeGravelRide,
	"EBikeRide":           ActivityTypeEBikeRide,
	"EMountainBikeRide":   ActivityTypeEBikeRide,
	"VirtualRide":         ActivityTypeVirtualRide,
	"virtual_ride":        ActivityTypeVirtualRide,
	"MountainBikeRide":    ActivityTypeMountainBike,
	"swimming":            ActivityTypeSwim,
	"Swim":                ActivityTypeSwim,
	"open_water_swimming": ActivityTypeSwim,
	"Workout":             ActivityTypeWorkout,
}

// MapSportType maps an external sport-type label to an internal code.
// Unknown labels map to ActivityTypeWorkout; it never fails.
func MapSportType(sportType string) ActivityType {
	if t, ok := sportTypes[sportType]; ok {
		return t
	}
	return ActivityTypeWorkout
}
