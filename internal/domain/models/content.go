package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ContentVideo = "video"
	ContentImage = "image"
	ContentAll   = "all"
)

type ContentIdea struct {
	Title               string `json:"title"`
	Format              string `json:"format"`
	EstimatedEngagement string `json:"estimated_engagement"`
	Suggestion          string `json:"suggestion"`
}

type Recommendations struct {
	VideoIdeas       []ContentIdea `json:"video_ideas"`
	ImageIdeas       []ContentIdea `json:"image_ideas"`
	Hashtags         []string      `json:"hashtags"`
	BestPostingTimes []string      `json:"best_posting_times"`
}

type GeneratedContent struct {
	Type        string   `json:"type"`
	Topic       string   `json:"topic"`
	Content     string   `json:"content"`
	Suggestions []string `json:"suggestions"`
}

// ContentRecord is a stored content row attached to a trend.
type ContentRecord struct {
	ID                  uuid.UUID
	TrendID             uuid.UUID
	Type                string
	Suggestion          string
	Format              string
	EstimatedEngagement string
	CreatedAt           time.Time
}
