// Package models holds the data model for Strava activities and tokens.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const (
	metersPerMile = 1609.344
	feetPerMeter  = 3.281
)

// sportIcons maps Strava sport types to emoji icons.
var sportIcons = map[string]string{
	"Run":               "🏃",
	"TrailRun":          "🏃",
	"VirtualRun":        "🏃",
	"Ride":              "🚴",
	"GravelRide":        "🚴",
	"MountainBikeRide":  "🚵",
	"EBikeRide":         "🚲",
	"EMountainBikeRide": "🚵",
	"VirtualRide":       "🚴",
	"Swim":              "🏊",
	"Walk":              "🚶",
	"Hike":              "🥾",
	"Workout":           "💪",
	"WeightTraining":    "🏋️",
	"Yoga":              "🧘",
	"Crossfit":          "🏋️",
	"Elliptical":        "🏃",
	"StairStepper":      "🪜",
	"Rowing":            "🚣",
	"VirtualRow":        "🚣",
	"Kayaking":          "🛶",
	"Canoeing":          "🛶",
	"AlpineSki":         "⛷️",
	"BackcountrySki":    "⛷️",
	"NordicSki":         "🎿",
	"Snowboard":         "🏂",
	"IceSkate":          "⛸️",
	"Golf":              "⛳",
	"Soccer":            "⚽",
	"Tennis":            "🎾",
	"Pickleball":        "🏓",
	"RockClimbing":      "🧗",
	"Surfing":           "🏄",
	"Windsurf":          "🏄",
	"Kitesurf":          "🏄",
	"StandUpPaddling":   "🏄",
	"Skateboard":        "🛹",
	"InlineSkate":       "🛼",
	"Sail":              "⛵",
}

// SportIcon returns the emoji icon for a sport type.
func SportIcon(sportType string) string {
	if icon, ok := sportIcons[sportType]; ok {
		return icon
	}
	return "🏅"
}

// FormatDuration formats seconds as H:MM:SS or M:SS.
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatPace formats seconds-per-km as M:SS.
func FormatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 {
		return "—"
	}
	minutes := int(secondsPerKm) / 60
	secs := int(secondsPerKm) % 60
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// MetersToMiles converts meters to miles.
func MetersToMiles(meters float64) float64 {
	return meters / metersPerMile
}

// MetersToFeet converts meters to feet.
func MetersToFeet(meters float64) float64 {
	return meters * feetPerMeter
}

// ActivitySummary is one element of an activity list page, kept verbatim.
// Only the identifier and name are interpreted; Raw carries the full record.
type ActivitySummary struct {
	ID   int64
	Name string
	Raw  json.RawMessage
}

// Lap is a single lap from an activity detail record.
type Lap struct {
	LapIndex           int     `json:"lap_index"`
	Distance           float64 `json:"distance"`
	ElapsedTime        int     `json:"elapsed_time"`
	AverageSpeed       float64 `json:"average_speed"`
	AverageHeartrate   float64 `json:"average_heartrate"`
	TotalElevationGain float64 `json:"total_elevation_gain"`
}

// Activity is a Strava activity with the fields the exporter renders.
type Activity struct {
	ID             int64
	Name           string
	SportType      string
	StartDateLocal time.Time
	Description    string

	ElapsedTime int // seconds
	MovingTime  int // seconds

	Distance     float64 // meters
	AverageSpeed float64 // m/s
	MaxSpeed     float64 // m/s

	TotalElevationGain float64 // meters

	AverageHeartrate float64
	MaxHeartrate     int

	Calories float64

	StartLatLng []float64

	// Primary photo only; the API exposes no more on the summary/detail.
	PhotoURL string

	Laps []Lap
}

// apiActivity is the wire shape of an activity record.
type apiActivity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	SportType          string    `json:"sport_type"`
	Type               string    `json:"type"`
	StartDateLocal     string    `json:"start_date_local"`
	StartDate          string    `json:"start_date"`
	Description        string    `json:"description"`
	ElapsedTime        int       `json:"elapsed_time"`
	MovingTime         int       `json:"moving_time"`
	Distance           float64   `json:"distance"`
	AverageSpeed       float64   `json:"average_speed"`
	MaxSpeed           float64   `json:"max_speed"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	AverageHeartrate   float64   `json:"average_heartrate"`
	MaxHeartrate       int       `json:"max_heartrate"`
	Calories           float64   `json:"calories"`
	StartLatLng        []float64 `json:"start_latlng"`
	Laps               []Lap     `json:"laps"`
	Photos             struct {
		Count   int `json:"count"`
		Primary struct {
			URLs map[string]string `json:"urls"`
		} `json:"primary"`
	} `json:"photos"`
}

// ActivityFromAPI builds an Activity from a raw API response record.
func ActivityFromAPI(data []byte) (*Activity, error) {
	var wire apiActivity
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode activity: %w", err)
	}

	sportType := wire.SportType
	if sportType == "" {
		sportType = wire.Type
	}
	if sportType == "" {
		sportType = "Workout"
	}

	startDate := parseActivityDate(wire.StartDateLocal, wire.StartDate)

	// Prefer the larger photo size
	photoURL := ""
	if wire.Photos.Count > 0 {
		if url, ok := wire.Photos.Primary.URLs["600"]; ok && url != "" {
			photoURL = url
		} else if url, ok := wire.Photos.Primary.URLs["100"]; ok {
			photoURL = url
		}
	}

	return &Activity{
		ID:                 wire.ID,
		Name:               defaultString(wire.Name, "Untitled Activity"),
		SportType:          sportType,
		StartDateLocal:     startDate,
		Description:        wire.Description,
		ElapsedTime:        wire.ElapsedTime,
		MovingTime:         wire.MovingTime,
		Distance:           wire.Distance,
		AverageSpeed:       wire.AverageSpeed,
		MaxSpeed:           wire.MaxSpeed,
		TotalElevationGain: wire.TotalElevationGain,
		AverageHeartrate:   wire.AverageHeartrate,
		MaxHeartrate:       wire.MaxHeartrate,
		Calories:           wire.Calories,
		StartLatLng:        wire.StartLatLng,
		PhotoURL:           photoURL,
		Laps:               wire.Laps,
	}, nil
}

func parseActivityDate(local, utc string) time.Time {
	for _, s := range []string{local, utc} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return t
		}
	}
	return time.Now()
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Icon returns the emoji icon for this activity's sport type.
func (a *Activity) Icon() string {
	return SportIcon(a.SportType)
}

// DistanceKm returns the distance in kilometers.
func (a *Activity) DistanceKm() float64 {
	return a.Distance / 1000
}

// DistanceMi returns the distance in miles.
func (a *Activity) DistanceMi() float64 {
	return MetersToMiles(a.Distance)
}

// ElapsedTimeFmt returns the formatted elapsed time.
func (a *Activity) ElapsedTimeFmt() string {
	return FormatDuration(a.ElapsedTime)
}

// MovingTimeFmt returns the formatted moving time.
func (a *Activity) MovingTimeFmt() string {
	return FormatDuration(a.MovingTime)
}

// PacePerKm returns pace in seconds per km, or 0 when distance is zero.
func (a *Activity) PacePerKm() float64 {
	if a.DistanceKm() > 0 {
		return float64(a.MovingTime) / a.DistanceKm()
	}
	return 0
}

// PacePerMi returns pace in seconds per mile, or 0 when distance is zero.
func (a *Activity) PacePerMi() float64 {
	if a.DistanceMi() > 0 {
		return float64(a.MovingTime) / a.DistanceMi()
	}
	return 0
}

// SpeedKph returns the average speed in km/h.
func (a *Activity) SpeedKph() float64 {
	return a.AverageSpeed * 3.6
}

// SpeedMph returns the average speed in mph.
func (a *Activity) SpeedMph() float64 {
	return a.AverageSpeed * 2.237
}

// ElevationGainFt returns the elevation gain in feet.
func (a *Activity) ElevationGainFt() float64 {
	return MetersToFeet(a.TotalElevationGain)
}

// StravaURL returns the URL to view the activity on Strava.
func (a *Activity) StravaURL() string {
	return fmt.Sprintf("https://www.strava.com/activities/%d", a.ID)
}

// Filename generates the Markdown filename for this activity:
// YYYY-MM-DD-<slug>-<id>.md with the slug capped at 50 characters.
func (a *Activity) Filename() string {
	dateStr := a.StartDateLocal.Format("2006-01-02")
	nameSlug := slug.Make(a.Name)
	if len(nameSlug) > 50 {
		nameSlug = strings.TrimRight(nameSlug[:50], "-")
	}
	return fmt.Sprintf("%s-%s-%d.md", dateStr, nameSlug, a.ID)
}

// IsRunOrWalk reports whether pace (rather than speed) should be displayed.
func (a *Activity) IsRunOrWalk() bool {
	switch a.SportType {
	case "Run", "TrailRun", "VirtualRun", "Walk", "Hike":
		return true
	}
	return false
}
