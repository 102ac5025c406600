package models

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{754, "12:34"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
		{86399, "23:59:59"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatPace(t *testing.T) {
	tests := []struct {
		secondsPerKm float64
		want         string
	}{
		{0, "—"},
		{-10, "—"},
		{300, "5:00"},
		{365.8, "6:05"},
		{59, "0:59"},
	}
	for _, tt := range tests {
		if got := FormatPace(tt.secondsPerKm); got != tt.want {
			t.Errorf("FormatPace(%v) = %q, want %q", tt.secondsPerKm, got, tt.want)
		}
	}
}

func TestSportIcon(t *testing.T) {
	tests := []struct {
		sport string
		want  string
	}{
		{"Run", "🏃"},
		{"TrailRun", "🏃"},
		{"Ride", "🚴"},
		{"Swim", "🏊"},
		{"Hike", "🥾"},
		{"Yoga", "🧘"},
		{"UnderwaterBasketWeaving", "🏅"},
		{"", "🏅"},
	}
	for _, tt := range tests {
		if got := SportIcon(tt.sport); got != tt.want {
			t.Errorf("SportIcon(%q) = %q, want %q", tt.sport, got, tt.want)
		}
	}
}

func TestActivityFromAPI(t *testing.T) {
	data := []byte(`{
		"id": 12345678901,
		"name": "Morning Run",
		"sport_type": "Run",
		"start_date_local": "2025-11-29T07:30:00Z",
		"description": "Easy pace around the park",
		"elapsed_time": 1845,
		"moving_time": 1800,
		"distance": 5000.0,
		"average_speed": 2.78,
		"max_speed": 3.5,
		"total_elevation_gain": 42.0,
		"average_heartrate": 152.3,
		"max_heartrate": 171,
		"calories": 320.5,
		"start_latlng": [51.5074, -0.1278],
		"photos": {
			"count": 1,
			"primary": {"urls": {"100": "https://example.com/small.jpg", "600": "https://example.com/large.jpg"}}
		}
	}`)

	a, err := ActivityFromAPI(data)
	if err != nil {
		t.Fatalf("ActivityFromAPI failed: %v", err)
	}

	if a.ID != 12345678901 || a.Name != "Morning Run" || a.SportType != "Run" {
		t.Errorf("unexpected identity fields: %+v", a)
	}
	if a.StartDateLocal.Format("2006-01-02 15:04") != "2025-11-29 07:30" {
		t.Errorf("start date = %v", a.StartDateLocal)
	}
	if a.DistanceKm() != 5.0 {
		t.Errorf("DistanceKm = %v, want 5.0", a.DistanceKm())
	}
	if a.PhotoURL != "https://example.com/large.jpg" {
		t.Errorf("expected 600px photo preferred, got %q", a.PhotoURL)
	}
	if a.MovingTimeFmt() != "30:00" {
		t.Errorf("MovingTimeFmt = %q", a.MovingTimeFmt())
	}
}

func TestActivityFromAPI_Fallbacks(t *testing.T) {
	a, err := ActivityFromAPI([]byte(`{"id": 1, "type": "Ride", "start_date_local": "2025-01-15T08:00:00"}`))
	if err != nil {
		t.Fatalf("ActivityFromAPI failed: %v", err)
	}
	if a.SportType != "Ride" {
		t.Errorf("expected legacy type field used, got %q", a.SportType)
	}
	if a.Name != "Untitled Activity" {
		t.Errorf("expected name fallback, got %q", a.Name)
	}
	if a.StartDateLocal.Hour() != 8 {
		t.Errorf("expected naive timestamp parsed, got %v", a.StartDateLocal)
	}

	a, err = ActivityFromAPI([]byte(`{"id": 2}`))
	if err != nil {
		t.Fatalf("ActivityFromAPI failed: %v", err)
	}
	if a.SportType != "Workout" {
		t.Errorf("expected Workout fallback, got %q", a.SportType)
	}
}

func TestActivityFromAPI_Malformed(t *testing.T) {
	if _, err := ActivityFromAPI([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed record")
	}
}

func TestActivity_Filename(t *testing.T) {
	date := time.Date(2025, 11, 29, 7, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		want string
	}{
		{"Morning Run", "2025-11-29-morning-run-12345678901.md"},
		{"🏃 5K Race!!!", "2025-11-29-5k-race-12345678901.md"},
	}
	for _, tt := range tests {
		a := &Activity{ID: 12345678901, Name: tt.name, StartDateLocal: date}
		if got := a.Filename(); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestActivity_FilenameSlugCapped(t *testing.T) {
	a := &Activity{
		ID:             1,
		Name:           "A very long activity name that keeps going and going well past any reasonable length",
		StartDateLocal: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	got := a.Filename()
	// "2025-01-01-" + slug + "-1.md": the slug portion is at most 50 chars
	// and never ends in a dash.
	slugPart := got[len("2025-01-01-") : len(got)-len("-1.md")]
	if len(slugPart) > 50 {
		t.Errorf("slug %q exceeds 50 chars", slugPart)
	}
	if slugPart[len(slugPart)-1] == '-' {
		t.Errorf("slug %q ends in a dash", slugPart)
	}
}

func TestActivity_PaceAndSpeed(t *testing.T) {
	a := &Activity{SportType: "Run", Distance: 5000, MovingTime: 1500, AverageSpeed: 3.33}

	if got := a.PacePerKm(); got != 300 {
		t.Errorf("PacePerKm = %v, want 300", got)
	}
	if !a.IsRunOrWalk() {
		t.Error("Run should display pace")
	}

	ride := &Activity{SportType: "Ride", AverageSpeed: 10}
	if ride.IsRunOrWalk() {
		t.Error("Ride should display speed")
	}
	if got := ride.SpeedKph(); got != 36.0 {
		t.Errorf("SpeedKph = %v, want 36.0", got)
	}

	empty := &Activity{SportType: "Yoga"}
	if got := empty.PacePerKm(); got != 0 {
		t.Errorf("PacePerKm with no distance = %v, want 0", got)
	}
}

func TestActivity_StravaURL(t *testing.T) {
	a := &Activity{ID: 42}
	if got := a.StravaURL(); got != "https://www.strava.com/activities/42" {
		t.Errorf("StravaURL = %q", got)
	}
}
