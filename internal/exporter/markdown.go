// Package exporter renders Strava activities as Obsidian-flavored Markdown
// files and manages the output directory layout.
package exporter

import (
	"fmt"
	"strings"

	"github.com/stravamark/stravamark/internal/models"
)

// GenerateFrontmatter renders the YAML frontmatter for an activity.
func GenerateFrontmatter(a *models.Activity) string {
	lines := []string{
		"---",
		fmt.Sprintf("strava_id: %d", a.ID),
		fmt.Sprintf("date: %s", a.StartDateLocal.Format("2006-01-02T15:04:05")),
		fmt.Sprintf("name: %q", a.Name),
		fmt.Sprintf("sport_type: %s", a.SportType),
		fmt.Sprintf("icon: %s", a.Icon()),
	}

	if a.Description != "" {
		desc := strings.ReplaceAll(a.Description, `"`, `\"`)
		desc = strings.ReplaceAll(desc, "\n", " ")
		lines = append(lines, fmt.Sprintf(`description: "%s"`, desc))
	}

	lines = append(lines,
		fmt.Sprintf("elapsed_time: %d", a.ElapsedTime),
		fmt.Sprintf("elapsed_time_fmt: %q", a.ElapsedTimeFmt()),
		fmt.Sprintf("moving_time: %d", a.MovingTime),
		fmt.Sprintf("moving_time_fmt: %q", a.MovingTimeFmt()),
	)

	lines = append(lines,
		fmt.Sprintf("distance_m: %.1f", a.Distance),
		fmt.Sprintf("distance_km: %.2f", a.DistanceKm()),
		fmt.Sprintf("distance_mi: %.2f", a.DistanceMi()),
	)

	lines = append(lines,
		fmt.Sprintf("average_speed_ms: %.2f", a.AverageSpeed),
		fmt.Sprintf("speed_kph: %.1f", a.SpeedKph()),
		fmt.Sprintf("speed_mph: %.1f", a.SpeedMph()),
	)

	if a.IsRunOrWalk() && a.PacePerKm() > 0 {
		lines = append(lines,
			fmt.Sprintf("pace_per_km: %.1f", a.PacePerKm()),
			fmt.Sprintf("pace_per_mi: %.1f", a.PacePerMi()),
		)
	}

	if a.MaxSpeed > 0 {
		lines = append(lines, fmt.Sprintf("max_speed_ms: %.2f", a.MaxSpeed))
	}

	if a.TotalElevationGain > 0 {
		lines = append(lines,
			fmt.Sprintf("elevation_gain_m: %.1f", a.TotalElevationGain),
			fmt.Sprintf("elevation_gain_ft: %.1f", a.ElevationGainFt()),
		)
	}

	if a.AverageHeartrate > 0 {
		lines = append(lines, fmt.Sprintf("average_heartrate: %.0f", a.AverageHeartrate))
	}
	if a.MaxHeartrate > 0 {
		lines = append(lines, fmt.Sprintf("max_heartrate: %d", a.MaxHeartrate))
	}

	if a.Calories > 0 {
		lines = append(lines, fmt.Sprintf("calories: %.0f", a.Calories))
	}

	if len(a.StartLatLng) == 2 {
		lines = append(lines,
			fmt.Sprintf("start_lat: %.6f", a.StartLatLng[0]),
			fmt.Sprintf("start_lng: %.6f", a.StartLatLng[1]),
		)
	}

	if a.PhotoURL != "" {
		lines = append(lines, fmt.Sprintf(`photo: "[[media/%d_photo.jpg]]"`, a.ID))
	}

	sportTag := strings.ReplaceAll(strings.ToLower(a.SportType), " ", "-")
	lines = append(lines,
		"tags:",
		"  - activity",
		fmt.Sprintf("  - %s", sportTag),
	)

	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

// GenerateBody renders the Markdown body for an activity.
func GenerateBody(a *models.Activity) string {
	lines := []string{
		fmt.Sprintf("# %s %s", a.Icon(), a.Name),
		"",
		fmt.Sprintf("**Date:** %s", a.StartDateLocal.Format("Monday, January 02, 2006 at 03:04 PM")),
		"",
		"## Summary",
		"",
		"| Metric | Value |",
		"|--------|-------|",
		fmt.Sprintf("| Distance | %.2f km (%.2f mi) |", a.DistanceKm(), a.DistanceMi()),
		fmt.Sprintf("| Duration | %s moving / %s elapsed |", a.MovingTimeFmt(), a.ElapsedTimeFmt()),
	}

	if a.IsRunOrWalk() && a.PacePerKm() > 0 {
		lines = append(lines, fmt.Sprintf("| Pace | %s /km (%s /mi) |",
			models.FormatPace(a.PacePerKm()), models.FormatPace(a.PacePerMi())))
	} else {
		lines = append(lines, fmt.Sprintf("| Speed | %.1f km/h (%.1f mph) |", a.SpeedKph(), a.SpeedMph()))
	}

	if a.TotalElevationGain > 0 {
		lines = append(lines, fmt.Sprintf("| Elevation | ↑ %.0f m (%.0f ft) |",
			a.TotalElevationGain, a.ElevationGainFt()))
	}

	if a.Calories > 0 {
		lines = append(lines, fmt.Sprintf("| Calories | %.0f kcal |", a.Calories))
	}

	if a.AverageHeartrate > 0 || a.MaxHeartrate > 0 {
		var hrParts []string
		if a.AverageHeartrate > 0 {
			hrParts = append(hrParts, fmt.Sprintf("%.0f avg", a.AverageHeartrate))
		}
		if a.MaxHeartrate > 0 {
			hrParts = append(hrParts, fmt.Sprintf("%d max", a.MaxHeartrate))
		}
		lines = append(lines, fmt.Sprintf("| Heart Rate | %s bpm |", strings.Join(hrParts, " / ")))
	}

	if a.Description != "" {
		lines = append(lines,
			"",
			"## Description",
			"",
			a.Description,
		)
	}

	if a.PhotoURL != "" {
		lines = append(lines,
			"",
			"## Photo",
			"",
			fmt.Sprintf("![[media/%d_photo.jpg]]", a.ID),
		)
	}

	lines = append(lines,
		"",
		"---",
		fmt.Sprintf("*Exported from Strava activity [%d](%s)*", a.ID, a.StravaURL()),
	)

	return strings.Join(lines, "\n")
}

// GenerateMarkdown renders the complete Markdown file content.
func GenerateMarkdown(a *models.Activity) string {
	return GenerateFrontmatter(a) + "\n\n" + GenerateBody(a) + "\n"
}
