package strava

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Rate limit headers carry "<15-minute>,<daily>" integer pairs.
const (
	rateLimitHeader = "X-RateLimit-Limit"
	rateUsageHeader = "X-RateLimit-Usage"
)

// RateLimitInfo tracks the provider's 15-minute and daily quotas as reported
// by response headers. It is advisory only: it never blocks a call, it exists
// for reporting and for callers that want to throttle proactively.
type RateLimitInfo struct {
	Limit15Min int
	Usage15Min int
	LimitDaily int
	UsageDaily int
}

// defaultRateLimitInfo mirrors the provider's documented default quotas.
func defaultRateLimitInfo() RateLimitInfo {
	return RateLimitInfo{
		Limit15Min: 100,
		LimitDaily: 1000,
	}
}

// Remaining15Min returns the calls left in the current 15-minute window.
func (r RateLimitInfo) Remaining15Min() int {
	return r.Limit15Min - r.Usage15Min
}

// RemainingDaily returns the calls left in the current daily window.
func (r RateLimitInfo) RemainingDaily() int {
	return r.LimitDaily - r.UsageDaily
}

// IsLimited reports whether the next call would be rate limited.
func (r RateLimitInfo) IsLimited() bool {
	return r.Usage15Min >= r.Limit15Min || r.UsageDaily >= r.LimitDaily
}

// String returns a human-readable rate limit summary.
func (r RateLimitInfo) String() string {
	return fmt.Sprintf("Rate limits: %d/%d (15 min), %d/%d (daily)",
		r.Usage15Min, r.Limit15Min, r.UsageDaily, r.LimitDaily)
}

// update overwrites the tracked values from response headers. Both headers
// must be present and each must decompose into exactly two integers; any
// parse failure leaves the previous values unchanged.
func (r *RateLimitInfo) update(h http.Header) {
	limits, ok := parsePair(h.Get(rateLimitHeader))
	if !ok {
		return
	}
	usages, ok := parsePair(h.Get(rateUsageHeader))
	if !ok {
		return
	}

	r.Limit15Min = limits[0]
	r.LimitDaily = limits[1]
	r.Usage15Min = usages[0]
	r.UsageDaily = usages[1]
}

// parsePair parses a "n,m" header value into two integers.
func parsePair(value string) ([2]int, bool) {
	if value == "" {
		return [2]int{}, false
	}
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return [2]int{}, false
	}

	var pair [2]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return [2]int{}, false
		}
		pair[i] = n
	}
	return pair, true
}
