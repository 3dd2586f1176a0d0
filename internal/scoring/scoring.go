// Package scoring converts adapter RawRecords into ranked PopularityRecords.
//
// Two published formulas cover the known platform set:
//
//	view-based (VideoPlatform, Forum, GitHub):
//	    score = ((likes*2) + (comments*3) + (replies*3)) / max(views, 1) * 1000
//	trend-based (TrendFeed):
//	    score = searchVolume * (1 + trendChangePercent/100)
//
// The two scales are platform-local: they rank records against each other
// but the absolute magnitudes are not interchangeable interpretations.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"WorkflowRadar/internal/domain"
)

// Weight constants for the view-based formula. Declared once so the score
// is auditable rather than tuned ad hoc per record.
const (
	likeWeight    = 2.0
	commentWeight = 3.0
	replyWeight   = 3.0
	scoreScale    = 1000.0
)

// ErrMalformed marks a RawRecord missing required normalization inputs.
// Callers drop the record and count it; the error never propagates further.
var ErrMalformed = errors.New("malformed raw record")

// Normalize maps one RawRecord into a PopularityRecord. It is deterministic
// and side-effect free: identical input (including now) yields identical
// output.
func Normalize(raw domain.RawRecord, now time.Time) (domain.PopularityRecord, error) {
	if raw.Title == "" {
		return domain.PopularityRecord{}, fmt.Errorf("%w: empty title", ErrMalformed)
	}
	if !knownPlatform(raw.Platform) {
		return domain.PopularityRecord{}, fmt.Errorf("%w: unknown platform %q", ErrMalformed, raw.Platform)
	}
	if raw.Views < 0 || raw.Likes < 0 || raw.Comments < 0 || raw.Replies < 0 || raw.SearchVolume < 0 {
		return domain.PopularityRecord{}, fmt.Errorf("%w: negative metric", ErrMalformed)
	}

	country := raw.Country
	if country == "" {
		country = domain.CountryUnspecified
	}

	metrics := domain.Metrics{
		Views:              raw.Views,
		Likes:              raw.Likes,
		Comments:           raw.Comments,
		Replies:            raw.Replies,
		Contributors:       raw.Contributors,
		SearchVolume:       raw.SearchVolume,
		TrendChangePercent: raw.TrendChangePercent,
		LikeToViewRatio:    ratio(raw.Likes, raw.Views),
		CommentToViewRatio: ratio(raw.Comments, raw.Views),
	}

	var score float64
	if raw.Platform == domain.PlatformTrend {
		score = trendScore(raw.SearchVolume, raw.TrendChangePercent)
	} else {
		score = engagementScore(raw.Views, raw.Likes, raw.Comments, raw.Replies)
	}
	if score < 0 {
		score = 0
	}

	return domain.PopularityRecord{
		Title:           raw.Title,
		Description:     raw.Description,
		Platform:        raw.Platform,
		Country:         country,
		Metrics:         metrics,
		EngagementScore: score,
		SourceURL:       raw.URL,
		LastUpdated:     now,
	}, nil
}

// engagementScore applies the weighted interaction formula with a views
// floor of 1 to avoid division by zero.
func engagementScore(views, likes, comments, replies int64) float64 {
	v := float64(views)
	if v < 1 {
		v = 1
	}
	weighted := float64(likes)*likeWeight + float64(comments)*commentWeight + float64(replies)*replyWeight
	return round2(weighted / v * scoreScale)
}

// trendScore is the TrendFeed analogue: monthly volume boosted by the
// trailing percent change. Comparable for ranking only.
func trendScore(volume int64, changePercent float64) float64 {
	return round2(float64(volume) * (1 + changePercent/100))
}

func ratio(part, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return round4(float64(part) / float64(views))
}

func knownPlatform(p domain.Platform) bool {
	for _, known := range domain.KnownPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
