// Package analytics computes feedback summary statistics from a snapshot of
// the feedback record set. It performs no I/O and never mutates its input.
package analytics

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/godilite/krishi-gateway/internal/repository/models"
)

// LatestLimit is the length of the latest-feedback feed.
const LatestLimit = 5

// Weekdays are the trend labels in display order.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type LatestEntry struct {
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

type TrendPoint struct {
	Date     string `json:"date"`
	Feedback int64  `json:"feedback"`
}

// Stats is derived on every request and never persisted.
type Stats struct {
	TotalFeedback      int              `json:"totalFeedback"`
	AvgRating          float64          `json:"avgRating"`
	UsersCount         int64            `json:"usersCount"`
	RatingDistribution map[int]int64    `json:"ratingDistribution"`
	LatestFeedback     []LatestEntry    `json:"latestFeedback"`
	TrendData          map[string]int64 `json:"-"`
}

// Trend returns TrendData ordered Monday to Sunday. Weekdays with no
// feedback are absent rather than zero.
func (s Stats) Trend() []TrendPoint {
	points := make([]TrendPoint, 0, len(s.TrendData))
	for _, day := range Weekdays {
		if n, ok := s.TrendData[day]; ok {
			points = append(points, TrendPoint{Date: day, Feedback: n})
		}
	}
	return points
}

// MarshalJSON renders trendData as the ordered list the web client plots.
func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	return json.Marshal(struct {
		plain
		TrendData []TrendPoint `json:"trendData"`
	}{plain: plain(s), TrendData: s.Trend()})
}

type options struct {
	loc *time.Location
}

type Option func(*options)

// WithLocation sets the zone used for weekday labels and feed timestamps.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WeekdayLabel is the 3-letter day-of-week of t, e.g. "Mon".
func WeekdayLabel(t time.Time) string {
	return t.Weekday().String()[:3]
}

// Aggregate computes Stats over snapshot. usersCount is read independently
// from the account store and copied through.
func Aggregate(snapshot []models.Feedback, usersCount int64, opts ...Option) Stats {
	o := options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	stats := Stats{
		TotalFeedback:      len(snapshot),
		UsersCount:         usersCount,
		RatingDistribution: make(map[int]int64),
		TrendData:          make(map[string]int64),
	}

	var sum int64
	for _, f := range snapshot {
		sum += int64(f.Rating)
		stats.RatingDistribution[f.Rating]++
		stats.TrendData[WeekdayLabel(f.CreatedAt.In(o.loc))]++
	}
	if len(snapshot) > 0 {
		stats.AvgRating = float64(sum) / float64(len(snapshot))
	}

	stats.LatestFeedback = latest(snapshot, o.loc)
	return stats
}

func latest(snapshot []models.Feedback, loc *time.Location) []LatestEntry {
	sorted := slices.Clone(snapshot)
	slices.SortStableFunc(sorted, func(a, b models.Feedback) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	n := min(LatestLimit, len(sorted))
	feed := make([]LatestEntry, 0, n)
	for _, f := range sorted[:n] {
		feed = append(feed, LatestEntry{
			Name:    f.Name,
			Rating:  f.Rating,
			Message: f.Message,
			Time:    f.CreatedAt.In(loc).Format(time.RFC3339),
		})
	}
	return feed
}
