package domain

import "time"

// Platform tags the external source a record was collected from.
type Platform string

const (
	PlatformVideo  Platform = "VideoPlatform"
	PlatformForum  Platform = "Forum"
	PlatformTrend  Platform = "TrendFeed"
	PlatformGitHub Platform = "GitHub"
)

// KnownPlatforms lists every platform the normalizer handles.
var KnownPlatforms = []Platform{PlatformVideo, PlatformForum, PlatformTrend, PlatformGitHub}

// Country narrows a fetch to one region; Unspecified is used by
// platform-agnostic sources.
type Country string

const (
	CountryUS          Country = "US"
	CountryIN          Country = "IN"
	CountryUnspecified Country = "unspecified"
)

// Scope is the unit of work handed to one adapter: which region to query
// and which curated keywords to fan out over.
type Scope struct {
	Country  Country
	Keywords []string
}

// Metrics is the sparse per-record metric set. Inapplicable metrics stay
// zero; they are never null on the wire.
type Metrics struct {
	Views              int64   `json:"views,omitempty"`
	Likes              int64   `json:"likes,omitempty"`
	Comments           int64   `json:"comments,omitempty"`
	Replies            int64   `json:"replies,omitempty"`
	Contributors       int64   `json:"contributors,omitempty"`
	SearchVolume       int64   `json:"search_volume,omitempty"`
	TrendChangePercent float64 `json:"trend_change,omitempty"`
	LikeToViewRatio    float64 `json:"like_to_view_ratio,omitempty"`
	CommentToViewRatio float64 `json:"comment_to_view_ratio,omitempty"`
}

// RawRecord is what an adapter emits before normalization: source-specific
// counts plus the platform tag the normalizer dispatches on.
type RawRecord struct {
	Title              string
	Description        string
	URL                string
	Platform           Platform
	Country            Country
	Views              int64
	Likes              int64
	Comments           int64
	Replies            int64
	Contributors       int64
	SearchVolume       int64
	TrendChangePercent float64
}

// PopularityRecord is one ranked item. Records are immutable once built; a
// refresh produces a new generation instead of mutating the old one.
type PopularityRecord struct {
	Title           string    `json:"workflow"`
	Description     string    `json:"description,omitempty"`
	Platform        Platform  `json:"platform"`
	Country         Country   `json:"country"`
	Metrics         Metrics   `json:"metrics"`
	EngagementScore float64   `json:"engagement_score"`
	SourceURL       string    `json:"url,omitempty"`
	LastUpdated     time.Time `json:"last_updated"`
}

// Snapshot is one complete published result set. It is assembled entirely
// off-line and installed via a single atomic swap; readers see either the
// whole old snapshot or the whole new one.
type Snapshot struct {
	CycleID          string
	Records          []PopularityRecord
	LastSync         time.Time
	CountsByPlatform map[Platform]int
	CountsByCountry  map[Country]int
}

// EmptySnapshot is the store's state before the first collection run.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		CountsByPlatform: map[Platform]int{},
		CountsByCountry:  map[Country]int{},
	}
}

// TopTitle returns the highest-ranked record's title, or "" when empty.
func (s *Snapshot) TopTitle() string {
	if len(s.Records) == 0 {
		return ""
	}
	return s.Records[0].Title
}
