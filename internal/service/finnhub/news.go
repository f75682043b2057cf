package finnhub

import (
	"context"
	"errors"
	"time"

	"MarketIntel/internal/domain/models"
	drepo "MarketIntel/internal/domain/repository"
	xhttp "MarketIntel/pkg/http"
	applogger "MarketIntel/pkg/logger"
	"MarketIntel/pkg/util"
)

const provider = "finnhub"

// RESTOptions configures the Finnhub REST client.
type RESTOptions struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetryElapsed time.Duration
}

// NewsClient implements NewsSource and SentimentSource on the Finnhub REST API.
type NewsClient struct {
	http *xhttp.Client
	l    *applogger.Logger
}

var (
	_ drepo.NewsSource      = (*NewsClient)(nil)
	_ drepo.SentimentSource = (*NewsClient)(nil)
)

// NewNewsClient creates a Finnhub REST client.
func NewNewsClient(opts RESTOptions) *NewsClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://finnhub.io/api/v1"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &NewsClient{
		http: xhttp.NewClient(opts.BaseURL,
			xhttp.WithAuthParam("token", opts.APIKey),
			xhttp.WithTimeout(opts.Timeout),
			xhttp.WithRateLimit(opts.RequestsPerSec),
			xhttp.WithRetry(opts.MaxRetryElapsed),
		),
		l: applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (c *NewsClient) SetLogger(l *applogger.Logger) {
	c.l = l.With(applogger.String("component", "finnhub_rest"))
}

type newsArticle struct {
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// GetNews returns company news published between from and to (day precision).
func (c *NewsClient) GetNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsItem, error) {
	var articles []newsArticle
	err := c.get(ctx, "/company-news", map[string][]string{
		"symbol": {symbol},
		"from":   {util.FormatDay(from)},
		"to":     {util.FormatDay(to)},
	}, &articles)
	if err != nil {
		return nil, err
	}

	items := make([]models.NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, models.NewsItem{
			Headline: a.Headline,
			Summary:  a.Summary,
			URL:      a.URL,
			Datetime: a.Datetime,
		})
	}
	c.l.Debug("news fetched", applogger.String("symbol", symbol), applogger.Int("count", len(items)))
	return items, nil
}

type newsSentimentResponse struct {
	Symbol    string `json:"symbol"`
	Sentiment *struct {
		BullishPercent float64 `json:"bullishPercent"`
		BearishPercent float64 `json:"bearishPercent"`
	} `json:"sentiment"`
}

// GetSentiment returns bullish/bearish shares in percent, or nil when the
// provider has no figures for the symbol.
func (c *NewsClient) GetSentiment(ctx context.Context, symbol string) (*models.SentimentStats, error) {
	var resp newsSentimentResponse
	if err := c.get(ctx, "/news-sentiment", map[string][]string{"symbol": {symbol}}, &resp); err != nil {
		return nil, err
	}
	if resp.Sentiment == nil {
		return nil, nil
	}
	// provider reports fractions
	return &models.SentimentStats{
		BullishPercent: resp.Sentiment.BullishPercent * 100,
		BearishPercent: resp.Sentiment.BearishPercent * 100,
	}, nil
}

func (c *NewsClient) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	err := c.http.Get(ctx, path, params, dest)
	if err == nil {
		return nil
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &models.UpstreamError{Provider: provider, StatusCode: se.StatusCode, Message: se.Body, Err: err}
	}
	return &models.UpstreamError{Provider: provider, Message: "request " + path, Err: err}
}
