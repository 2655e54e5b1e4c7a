package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"TrendPulse/internal/domain/models"
	domsvc "TrendPulse/internal/domain/service"
)

const (
	topKeywordsLimit    = 10
	trendingTopicsLimit = 5
	positiveFrequency   = 5
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

var defaultStopwords = []string{"the", "be", "to", "of", "and", "a", "in", "that"}

// Analyzer counts keywords across platforms and groups history into topic series.
type Analyzer struct {
	stopwords map[string]struct{}
	platforms []string
}

type Option func(*Analyzer)

// WithStopwords replaces the default stopword list.
func WithStopwords(words ...string) Option {
	return func(a *Analyzer) {
		a.stopwords = make(map[string]struct{}, len(words))
		for _, w := range words {
			a.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithPlatforms sets the platforms always reported in the comparison, even with zero trends.
func WithPlatforms(names ...string) Option {
	return func(a *Analyzer) { a.platforms = names }
}

func New(opts ...Option) *Analyzer {
	a := &Analyzer{platforms: []string{models.PlatformTikTok, models.PlatformTwitter}}
	WithStopwords(defaultStopwords...)(a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CleanText lowercases text and drops everything but letters, digits, underscores and spaces.
func CleanText(text string) string {
	return nonWord.ReplaceAllString(strings.ToLower(text), "")
}

// Keywords splits cleaned text into words and removes stopwords.
func (a *Analyzer) Keywords(text string) []string {
	words := strings.Fields(CleanText(text))
	out := words[:0]
	for _, w := range words {
		if _, stop := a.stopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}

// Analyze builds the keyword summary. Platform keys in the comparison are lowercased.
func (a *Analyzer) Analyze(byPlatform map[string][]models.RawTrend) models.TrendAnalysis {
	comparison := make(map[string]int, len(a.platforms))
	for _, p := range a.platforms {
		comparison[strings.ToLower(p)] = 0
	}

	var counter keywordCounter
	for _, platform := range a.platformOrder(byPlatform) {
		trends := byPlatform[platform]
		comparison[strings.ToLower(platform)] = len(trends)
		for _, t := range trends {
			for _, kw := range a.Keywords(t.Text) {
				counter.add(kw)
			}
		}
	}

	ranked := counter.mostCommon()

	top := make([]models.KeywordCount, 0, topKeywordsLimit)
	for _, kc := range ranked[:min(len(ranked), topKeywordsLimit)] {
		top = append(top, kc)
	}

	topics := make([]models.TrendingTopic, 0, trendingTopicsLimit)
	for _, kc := range ranked[:min(len(ranked), trendingTopicsLimit)] {
		sentiment := "neutral"
		if kc.Frequency > positiveFrequency {
			sentiment = "positive"
		}
		topics = append(topics, models.TrendingTopic{Topic: kc.Keyword, Frequency: kc.Frequency, Sentiment: sentiment})
	}

	return models.TrendAnalysis{
		TopKeywords:        top,
		PlatformComparison: comparison,
		TrendingTopics:     topics,
	}
}

// platformOrder walks configured platforms first, then any others by name,
// so keyword first-seen order does not depend on map iteration.
func (a *Analyzer) platformOrder(byPlatform map[string][]models.RawTrend) []string {
	seen := make(map[string]bool, len(byPlatform))
	order := make([]string, 0, len(byPlatform))
	for _, p := range a.platforms {
		if _, ok := byPlatform[p]; ok {
			order = append(order, p)
			seen[p] = true
		}
	}

	var rest []string
	for p := range byPlatform {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// GroupByTopic groups records by lowercased text. Each series is sorted by
// timestamp; records with equal timestamps keep their input order.
func (a *Analyzer) GroupByTopic(records []models.TrendRecord) map[string][]models.Observation {
	groups := make(map[string][]models.Observation)
	for _, r := range records {
		topic := strings.ToLower(r.Text)
		groups[topic] = append(groups[topic], models.Observation{
			Timestamp: r.Timestamp,
			ViewCount: r.ViewCount,
		})
	}

	// TimestampLayout sorts lexically in time order
	for _, series := range groups {
		sort.SliceStable(series, func(i, j int) bool { return series[i].Timestamp < series[j].Timestamp })
	}
	return groups
}

type keywordCounter struct {
	index  map[string]int
	counts []models.KeywordCount
}

func (c *keywordCounter) add(word string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[word]; ok {
		c.counts[i].Frequency++
		return
	}
	c.index[word] = len(c.counts)
	c.counts = append(c.counts, models.KeywordCount{Keyword: word, Frequency: 1})
}

// mostCommon orders by frequency, ties by first appearance.
func (c *keywordCounter) mostCommon() []models.KeywordCount {
	out := append([]models.KeywordCount(nil), c.counts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Frequency > out[j].Frequency })
	return out
}

var _ domsvc.TrendAnalyzer = (*Analyzer)(nil)
