package recommender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func TestRecommend(t *testing.T) {
	got := New().Recommend("dance challenge")

	require.Len(t, got.VideoIdeas, 3)
	assert.Equal(t, models.ContentIdea{
		Title:               "Tutorial about dance challenge",
		Format:              "60s explanation",
		EstimatedEngagement: "High",
		Suggestion:          "Create a 60s explanation tutorial video about dance challenge",
	}, got.VideoIdeas[0])
	assert.Equal(t, "Showcase about dance challenge", got.VideoIdeas[2].Title)

	require.Len(t, got.ImageIdeas, 3)
	assert.Equal(t, models.ContentIdea{
		Title:               "Meme for dance challenge",
		Format:              "comparison",
		EstimatedEngagement: "Medium",
		Suggestion:          "Design a comparison meme about dance challenge",
	}, got.ImageIdeas[1])

	assert.Equal(t, []string{
		"#dancechallenge",
		"#dance_challenge",
		"#trending",
		"#viral",
		"#dance challengechallenge",
	}, got.Hashtags)
	assert.Equal(t, []string{"9:00 AM", "3:00 PM", "7:00 PM"}, got.BestPostingTimes)
}

func TestRecommendDoesNotShareSlices(t *testing.T) {
	r := New()
	first := r.Recommend("x")
	first.BestPostingTimes[0] = "midnight"

	assert.Equal(t, "9:00 AM", r.Recommend("x").BestPostingTimes[0])
}

func TestGenerate(t *testing.T) {
	got := New().Generate("video", "AI news")

	assert.Equal(t, "video", got.Type)
	assert.Equal(t, "AI news", got.Topic)
	assert.Equal(t, "Generated video content for AI news", got.Content)
	assert.Len(t, got.Suggestions, 3)
}
