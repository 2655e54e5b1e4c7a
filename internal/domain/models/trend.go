package models

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the wire format of observation timestamps and updated_at fields.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the wire format of prediction target dates.
const DateLayout = "2006-01-02"

const (
	PlatformTikTok  = "TikTok"
	PlatformTwitter = "Twitter"
)

// RawTrend is a trend as reported by a platform client, before persistence.
type RawTrend struct {
	Text      string    `json:"text"`
	Hashtags  []string  `json:"hashtags"`
	ViewCount int64     `json:"view_count"`
	Platform  string    `json:"platform"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Trend is a stored trend row. Every collection run appends a new row per
// trend text, which is what turns the table into a per-topic time series.
type Trend struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Hashtags  []string  `json:"hashtags"`
	ViewCount int64     `json:"view_count"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTrend stamps a raw trend with an id and creation time.
func NewTrend(r RawTrend, now time.Time) Trend {
	created := r.FetchedAt
	if created.IsZero() {
		created = now
	}
	return Trend{
		ID:        uuid.New(),
		Text:      r.Text,
		Hashtags:  r.Hashtags,
		ViewCount: r.ViewCount,
		Platform:  r.Platform,
		CreatedAt: created.UTC(),
	}
}

// TrendRecord is the historical triple consumed by topic grouping.
type TrendRecord struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	ViewCount int64  `json:"view_count"`
}

// Record projects a stored trend onto its historical triple.
func (t Trend) Record() TrendRecord {
	return TrendRecord{
		Text:      t.Text,
		Timestamp: t.CreatedAt.UTC().Format(TimestampLayout),
		ViewCount: t.ViewCount,
	}
}

// TrendEvent is the Kafka payload for asynchronous ingestion and the live feed.
type TrendEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Trend      Trend     `json:"trend"`
	ProducedAt time.Time `json:"produced_at"`
}

type KeywordCount struct {
	Keyword   string `json:"keyword"`
	Frequency int    `json:"frequency"`
}

type TrendingTopic struct {
	Topic     string `json:"topic"`
	Frequency int    `json:"frequency"`
	Sentiment string `json:"sentiment"`
}

// TrendAnalysis is the keyword summary returned by GET /api/trends.
// TopKeywords is ordered by frequency, ties in first-seen order.
type TrendAnalysis struct {
	TopKeywords        []KeywordCount  `json:"top_keywords"`
	PlatformComparison map[string]int  `json:"platform_comparison"`
	TrendingTopics     []TrendingTopic `json:"trending_topics"`
}
