package strava

// summaryActivity is the Strava API representation of one activity in the
// athlete activity list.
type summaryActivity struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SportType    string    `json:"sport_type"`
	StartDate    string    `json:"start_date"`
	ElapsedTime  int       `json:"elapsed_time"`
	Distance     float64   `json:"distance"`
	StartLatLng  []float64 `json:"start_latlng"`
	AverageSpeed float64   `json:"average_speed"`
	AverageWatts float64   `json:"average_watts"`
}

// streamSet is the key_by_type=true response of the activity streams endpoint.
type streamSet struct {
	LatLng         *latLngStream `json:"latlng"`
	Altitude       *floatStream  `json:"altitude"`
	Time           *intStream    `json:"time"`
	HeartRate      *intStream    `json:"heartrate"`
	Cadence        *intStream    `json:"cadence"`
	Watts          *intStream    `json:"watts"`
	VelocitySmooth *floatStream  `json:"velocity_smooth"`
}

type latLngStream struct {
	Data [][]float64 `json:"data"`
}

type floatStream struct {
	Data []*float64 `json:"data"`
}

type intStream struct {
	Data []*int `json:"data"`
}

// tokenResponse is the Strava OAuth token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}
