// Package sentiment scores news with fixed keyword lists, classifies the
// overall mood and extracts trending topics from headlines.
package sentiment

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"MarketIntel/internal/domain/models"
)

type Config struct {
	MaxArticles int `yaml:"max_articles" default:"50"`
	NewsLimit   int `yaml:"news_limit" default:"10"`
	TopicLimit  int `yaml:"topic_limit" default:"5"`
}

func DefaultConfig() Config {
	return Config{MaxArticles: 50, NewsLimit: 10, TopicLimit: 5}
}

const (
	extremeScore  = 2.0
	moderateScore = 0.5
	extremeNet    = 30.0
	moderateNet   = 10.0

	minTopicLen = 5

	labelBullish = "bullish"
	labelBearish = "bearish"
	labelNeutral = "neutral"
)

var nonWord = regexp.MustCompile(`\W+`)

// Analyzer scores a batch of news for one symbol.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze scores up to MaxArticles of the most recent items. stats, when not
// nil, overrides the bullish/bearish shares derived from the articles.
func (a *Analyzer) Analyze(symbol string, items []models.NewsItem, stats *models.SentimentStats) *models.SentimentAnalysis {
	recent := make([]models.NewsItem, len(items))
	copy(recent, items)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Datetime > recent[j].Datetime })
	if a.cfg.MaxArticles > 0 && len(recent) > a.cfg.MaxArticles {
		recent = recent[:a.cfg.MaxArticles]
	}

	scored := make([]models.ScoredNews, 0, len(recent))
	total, bullish, bearish := 0, 0, 0
	for _, it := range recent {
		s := Score(it.Headline + " " + it.Summary)
		total += s
		label := labelNeutral
		switch {
		case s > 0:
			label = labelBullish
			bullish++
		case s < 0:
			label = labelBearish
			bearish++
		}
		scored = append(scored, models.ScoredNews{NewsItem: it, Score: s, Sentiment: label})
	}

	avg := 0.0
	metrics := models.SentimentMetrics{ArticlesCount: len(recent)}
	if n := len(recent); n > 0 {
		avg = float64(total) / float64(n)
		metrics.BullishPercent = float64(bullish) / float64(n) * 100
		metrics.BearishPercent = float64(bearish) / float64(n) * 100
	}
	if stats != nil {
		metrics.BullishPercent = stats.BullishPercent
		metrics.BearishPercent = stats.BearishPercent
	}
	metrics.NeutralPercent = math.Max(0, 100-metrics.BullishPercent-metrics.BearishPercent)

	news := scored
	if a.cfg.NewsLimit > 0 && len(news) > a.cfg.NewsLimit {
		news = news[:a.cfg.NewsLimit]
	}

	headlines := make([]string, len(recent))
	for i, it := range recent {
		headlines[i] = it.Headline
	}

	return &models.SentimentAnalysis{
		Symbol:  symbol,
		Score:   avg,
		Mood:    ClassifyMood(avg, metrics.BullishPercent, metrics.BearishPercent),
		Metrics: metrics,
		News:    news,
		Topics:  Topics(headlines, a.cfg.TopicLimit),
	}
}

// Score counts matched positive keywords minus matched negative keywords.
func Score(text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, k := range PositiveKeywords {
		if strings.Contains(lower, k) {
			score++
		}
	}
	for _, k := range NegativeKeywords {
		if strings.Contains(lower, k) {
			score--
		}
	}
	return score
}

// ClassifyMood maps an average score and bullish/bearish percentages to a
// mood. Extreme moods take priority over moderate ones, fear over greed.
func ClassifyMood(avgScore, bullishPct, bearishPct float64) models.Mood {
	net := bullishPct - bearishPct
	switch {
	case avgScore < -extremeScore || net < -extremeNet:
		return models.MoodExtremeFear
	case avgScore < -moderateScore || net < -moderateNet:
		return models.MoodFear
	case avgScore > extremeScore || net > extremeNet:
		return models.MoodExtremeGreed
	case avgScore > moderateScore || net > moderateNet:
		return models.MoodGreed
	default:
		return models.MoodNeutral
	}
}

// Topics returns the limit most frequent headline tokens longer than four
// characters, excluding stopwords. Ties are ordered alphabetically.
func Topics(headlines []string, limit int) []models.Topic {
	counts := make(map[string]int)
	for _, h := range headlines {
		for _, tok := range nonWord.Split(strings.ToLower(h), -1) {
			if utf8.RuneCountInString(tok) < minTopicLen {
				continue
			}
			if _, stop := Stopwords[tok]; stop {
				continue
			}
			counts[tok]++
		}
	}

	out := make([]models.Topic, 0, len(counts))
	for w, c := range counts {
		out = append(out, models.Topic{Topic: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Topic < out[j].Topic
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
