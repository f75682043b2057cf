package sentiment

import (
	"fmt"
	"math"
	"testing"

	"MarketIntel/internal/domain/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"Shares SURGE after record quarter", 2},
		{"Stock plunges on fraud lawsuit", -3},
		{"Rally fades as crash looms", 0},
		{"Board meets on Tuesday", 0},
		{"surge surge surge", 1},
	}
	for _, tt := range tests {
		if got := Score(tt.text); got != tt.want {
			t.Errorf("Score(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestClassifyMoodPriority(t *testing.T) {
	tests := []struct {
		avg, bull, bear float64
		want            models.Mood
	}{
		{-3, 0, 0, models.MoodExtremeFear},
		{0, 10, 50, models.MoodExtremeFear},
		{3, 0, 40, models.MoodExtremeFear},
		{-1, 0, 0, models.MoodFear},
		{0, 10, 25, models.MoodFear},
		{-1, 80, 0, models.MoodFear},
		{3, 0, 0, models.MoodExtremeGreed},
		{0, 50, 10, models.MoodExtremeGreed},
		{1, 0, 0, models.MoodGreed},
		{0, 25, 10, models.MoodGreed},
		{0, 0, 0, models.MoodNeutral},
		{0.5, 20, 10, models.MoodNeutral},
		{-0.5, 10, 20, models.MoodNeutral},
	}
	for _, tt := range tests {
		if got := ClassifyMood(tt.avg, tt.bull, tt.bear); got != tt.want {
			t.Errorf("ClassifyMood(%v, %v, %v) = %s, want %s", tt.avg, tt.bull, tt.bear, got, tt.want)
		}
	}
}

func TestClassifyMoodIsTotal(t *testing.T) {
	valid := map[models.Mood]bool{
		models.MoodExtremeFear: true, models.MoodFear: true, models.MoodNeutral: true,
		models.MoodGreed: true, models.MoodExtremeGreed: true,
	}
	for avg := -5.0; avg <= 5; avg += 0.25 {
		for bull := 0.0; bull <= 100; bull += 10 {
			for bear := 0.0; bull+bear <= 100; bear += 10 {
				if m := ClassifyMood(avg, bull, bear); !valid[m] {
					t.Fatalf("unexpected mood %q", m)
				}
			}
		}
	}
}

func TestTopics(t *testing.T) {
	headlines := []string{
		"Nvidia earnings beat, chips rally",
		"NVIDIA guidance lifts chips sector",
		"Why the market loves Nvidia earnings",
		"Their shares climb",
	}
	got := Topics(headlines, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 topics, got %d: %+v", len(got), got)
	}
	if got[0].Topic != "nvidia" || got[0].Count != 3 {
		t.Fatalf("expected nvidia first, got %+v", got[0])
	}
	if got[1].Topic != "chips" || got[2].Topic != "earnings" {
		t.Fatalf("expected ties ordered alphabetically, got %+v", got[1:3])
	}
	for _, tp := range got {
		if len(tp.Topic) <= 4 {
			t.Fatalf("short token %q leaked", tp.Topic)
		}
		if _, stop := Stopwords[tp.Topic]; stop {
			t.Fatalf("stopword %q leaked", tp.Topic)
		}
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	res := NewAnalyzer(DefaultConfig()).Analyze("AAPL", nil, nil)
	if res.Score != 0 || res.Mood != models.MoodNeutral {
		t.Fatalf("expected neutral zero score, got %v %s", res.Score, res.Mood)
	}
	if res.Metrics.ArticlesCount != 0 || res.Metrics.NeutralPercent != 100 {
		t.Fatalf("unexpected metrics %+v", res.Metrics)
	}
	if len(res.News) != 0 || len(res.Topics) != 0 {
		t.Fatalf("expected no news and no topics")
	}
}

func TestAnalyzeDerivesPercentages(t *testing.T) {
	items := []models.NewsItem{
		{Headline: "Apple shares surge on record iPhone sales", Datetime: 3},
		{Headline: "Apple faces lawsuit over App Store", Datetime: 2},
		{Headline: "Apple schedules developer event", Datetime: 1},
		{Headline: "Analysts upgrade Apple", Summary: "strong services growth", Datetime: 4},
	}
	res := NewAnalyzer(DefaultConfig()).Analyze("AAPL", items, nil)
	if res.Metrics.ArticlesCount != 4 {
		t.Fatalf("expected 4 articles, got %d", res.Metrics.ArticlesCount)
	}
	if res.Metrics.BullishPercent != 50 || res.Metrics.BearishPercent != 25 || res.Metrics.NeutralPercent != 25 {
		t.Fatalf("unexpected metrics %+v", res.Metrics)
	}
	// scores 2, -1, 0, 3
	if math.Abs(res.Score-1) > 1e-9 {
		t.Fatalf("expected avg score 1, got %v", res.Score)
	}
	if res.Mood != models.MoodGreed {
		t.Fatalf("expected GREED, got %s", res.Mood)
	}
	if res.News[0].Datetime != 4 || res.News[0].Sentiment != "bullish" {
		t.Fatalf("expected newest item first with label, got %+v", res.News[0])
	}
}

func TestAnalyzeExternalStatsAndLimits(t *testing.T) {
	items := make([]models.NewsItem, 0, 60)
	for i := 0; i < 60; i++ {
		items = append(items, models.NewsItem{Headline: fmt.Sprintf("Item %d", i), Datetime: int64(i)})
	}
	stats := &models.SentimentStats{BullishPercent: 20, BearishPercent: 60}
	res := NewAnalyzer(DefaultConfig()).Analyze("TSLA", items, stats)
	if res.Metrics.ArticlesCount != 50 {
		t.Fatalf("expected articles capped at 50, got %d", res.Metrics.ArticlesCount)
	}
	if len(res.News) != 10 || res.News[0].Datetime != 59 {
		t.Fatalf("expected the 10 most recent items, got %d", len(res.News))
	}
	if res.Metrics.BullishPercent != 20 || res.Metrics.NeutralPercent != 20 {
		t.Fatalf("expected external percentages, got %+v", res.Metrics)
	}
	if res.Mood != models.MoodExtremeFear {
		t.Fatalf("expected EXTREME_FEAR from net bullish -40, got %s", res.Mood)
	}
}
