package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"time"

	"github.com/stravamark/stravamark/internal/models"
)

// MaxPerPage is the largest page size the activities endpoint accepts.
const MaxPerPage = 200

// ActivityFilter narrows the activity listing by time range and page size.
type ActivityFilter struct {
	After   time.Time // only activities after this instant
	Before  time.Time // only activities before this instant
	PerPage int       // page size, capped at MaxPerPage; 0 means MaxPerPage
}

// GetAthlete retrieves the authenticated athlete profile.
func (c *Client) GetAthlete(ctx context.Context) (map[string]any, error) {
	var athlete map[string]any
	if err := c.getJSON(ctx, "/athlete", nil, &athlete); err != nil {
		return nil, err
	}
	return athlete, nil
}

// GetActivity retrieves detailed activity information.
func (c *Client) GetActivity(ctx context.Context, id int64) (*models.Activity, error) {
	body, err := c.execute(ctx, "GET", fmt.Sprintf("/activities/%d", id), nil)
	if err != nil {
		return nil, err
	}
	return models.ActivityFromAPI(body)
}

// Activities returns a lazy, one-shot sequence of activity summaries across
// pages, in server order. Pages are requested with a 1-based counter;
// iteration stops on an empty page or on a page shorter than the page size
// (the upstream last-page signal, preserved exactly — a truly-final full
// page costs one extra request). Re-iterating requires a fresh call.
func (c *Client) Activities(ctx context.Context, filter ActivityFilter) iter.Seq2[models.ActivitySummary, error] {
	perPage := filter.PerPage
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return func(yield func(models.ActivitySummary, error) bool) {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(perPage))
		if !filter.After.IsZero() {
			params.Set("after", strconv.FormatInt(filter.After.Unix(), 10))
		}
		if !filter.Before.IsZero() {
			params.Set("before", strconv.FormatInt(filter.Before.Unix(), 10))
		}

		var prevFirstID int64
		for page := 1; ; page++ {
			params.Set("page", strconv.Itoa(page))

			body, err := c.execute(ctx, "GET", "/athlete/activities", params)
			if err != nil {
				yield(models.ActivitySummary{}, err)
				return
			}

			var records []json.RawMessage
			if err := json.Unmarshal(body, &records); err != nil {
				yield(models.ActivitySummary{}, fmt.Errorf("failed to decode activity page: %w", err))
				return
			}

			if len(records) == 0 {
				return
			}

			// Guard against a misbehaving server re-serving a page.
			firstID := peekSummary(records[0]).ID
			if page > 1 && firstID != 0 && firstID == prevFirstID {
				c.logger.Warn().Int("page", page).Int64("id", firstID).Msg("Duplicate activity page, stopping")
				return
			}
			prevFirstID = firstID

			for _, record := range records {
				summary := peekSummary(record)
				if !yield(summary, nil) {
					return
				}
			}

			if len(records) < perPage {
				return
			}
		}
	}
}

// peekSummary extracts the identifier and name from a raw activity record,
// keeping the record itself verbatim.
func peekSummary(record json.RawMessage) models.ActivitySummary {
	var head struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	_ = json.Unmarshal(record, &head)
	return models.ActivitySummary{
		ID:   head.ID,
		Name: head.Name,
		Raw:  record,
	}
}
