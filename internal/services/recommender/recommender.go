package recommender

import (
	"fmt"
	"strings"

	"TrendPulse/internal/domain/models"
	domsvc "TrendPulse/internal/domain/service"
)

type template struct {
	kind   string
	format string
}

var (
	videoTemplates = []template{
		{kind: "tutorial", format: "60s explanation"},
		{kind: "reaction", format: "duet style"},
		{kind: "showcase", format: "before/after"},
	}
	imageTemplates = []template{
		{kind: "infographic", format: "carousel"},
		{kind: "meme", format: "comparison"},
		{kind: "quote", format: "text overlay"},
	}

	bestPostingTimes   = []string{"9:00 AM", "3:00 PM", "7:00 PM"}
	generalSuggestions = []string{
		"Use trending hashtags",
		"Post during peak hours",
		"Include relevant keywords",
	}
)

const (
	videoEngagement = "High"
	imageEngagement = "Medium"
)

// Recommender builds content ideas from fixed templates.
type Recommender struct{}

func New() *Recommender { return &Recommender{} }

func (r *Recommender) Recommend(topic string) models.Recommendations {
	return models.Recommendations{
		VideoIdeas:       VideoIdeas(topic),
		ImageIdeas:       ImageIdeas(topic),
		Hashtags:         Hashtags(topic),
		BestPostingTimes: append([]string(nil), bestPostingTimes...),
	}
}

// Generate returns a content brief. Unknown types are echoed back unchanged.
func (r *Recommender) Generate(contentType, topic string) models.GeneratedContent {
	return models.GeneratedContent{
		Type:        contentType,
		Topic:       topic,
		Content:     fmt.Sprintf("Generated %s content for %s", contentType, topic),
		Suggestions: append([]string(nil), generalSuggestions...),
	}
}

func VideoIdeas(topic string) []models.ContentIdea {
	ideas := make([]models.ContentIdea, 0, len(videoTemplates))
	for _, t := range videoTemplates {
		ideas = append(ideas, models.ContentIdea{
			Title:               fmt.Sprintf("%s about %s", title(t.kind), topic),
			Format:              t.format,
			EstimatedEngagement: videoEngagement,
			Suggestion:          fmt.Sprintf("Create a %s %s video about %s", t.format, t.kind, topic),
		})
	}
	return ideas
}

func ImageIdeas(topic string) []models.ContentIdea {
	ideas := make([]models.ContentIdea, 0, len(imageTemplates))
	for _, t := range imageTemplates {
		ideas = append(ideas, models.ContentIdea{
			Title:               fmt.Sprintf("%s for %s", title(t.kind), topic),
			Format:              t.format,
			EstimatedEngagement: imageEngagement,
			Suggestion:          fmt.Sprintf("Design a %s %s about %s", t.format, t.kind, topic),
		})
	}
	return ideas
}

func Hashtags(topic string) []string {
	return []string{
		"#" + strings.ReplaceAll(topic, " ", ""),
		"#" + strings.ReplaceAll(topic, " ", "_"),
		"#trending",
		"#viral",
		"#" + topic + "challenge",
	}
}

// title upper-cases the first letter of an ASCII template kind.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var _ domsvc.ContentRecommender = (*Recommender)(nil)
