package platform

func count(n int64) *int64 { return &n }

var (
	tiktokLive = []apiTrend{
		{Text: "Dance Challenge 2024", Views: count(1000000), Hashtags: []string{"dance", "viral"}},
		{Text: "Recipe Tutorial Trend", Views: count(500000), Hashtags: []string{"cooking", "food"}},
	}
	twitterLive = []apiTrend{
		{Text: "Tech News Update", TweetCount: count(50000), Hashtags: []string{"tech", "news"}},
		{Text: "Sports Championship", TweetCount: count(75000), Hashtags: []string{"sports", "championship"}},
	}

	tiktokFallback = []apiTrend{
		{Text: "Morning Routine Challenge", Views: count(2000000), Hashtags: []string{"morning", "routine"}},
		{Text: "Workout Transformation", Views: count(1500000), Hashtags: []string{"fitness", "transformation"}},
		{Text: "Cooking Hack Video", Views: count(800000), Hashtags: []string{"cooking", "hack"}},
	}
	twitterFallback = []apiTrend{
		{Text: "AI Technology News", TweetCount: count(100000), Hashtags: []string{"AI", "tech"}},
		{Text: "Environmental Challenge", TweetCount: count(80000), Hashtags: []string{"environment", "sustainability"}},
		{Text: "Music Festival Updates", TweetCount: count(60000), Hashtags: []string{"music", "festival"}},
	}
)
