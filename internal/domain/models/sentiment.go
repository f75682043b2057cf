package models

import "time"

// Mood is the overall sentiment classification.
type Mood string

const (
	MoodExtremeFear  Mood = "EXTREME_FEAR"
	MoodFear         Mood = "FEAR"
	MoodNeutral      Mood = "NEUTRAL"
	MoodGreed        Mood = "GREED"
	MoodExtremeGreed Mood = "EXTREME_GREED"
)

type SentimentMetrics struct {
	BullishPercent float64 `json:"bullishPercent"`
	BearishPercent float64 `json:"bearishPercent"`
	NeutralPercent float64 `json:"neutralPercent"`
	ArticlesCount  int     `json:"articlesCount"`
}

// ScoredNews is a news item enriched with its keyword score.
type ScoredNews struct {
	NewsItem
	Score     int    `json:"score"`
	Sentiment string `json:"sentiment"` // bullish, bearish or neutral
}

type Topic struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type SentimentAnalysis struct {
	Symbol      string           `json:"symbol"`
	Score       float64          `json:"score"`
	Mood        Mood             `json:"mood"`
	Metrics     SentimentMetrics `json:"metrics"`
	News        []ScoredNews     `json:"news"`
	Topics      []Topic          `json:"topics"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
