package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketIntel/internal/domain/models"
	drepo "MarketIntel/internal/domain/repository"
	xhttp "MarketIntel/pkg/http"
	applogger "MarketIntel/pkg/logger"
	"MarketIntel/pkg/util"

	"github.com/shopspring/decimal"
)

const provider = "twelvedata"

// Options configures the TwelveData client.
type Options struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	RequestsPerSec  int
	MaxRetryElapsed time.Duration
}

// Client implements CandleSource and QuoteSource on the TwelveData REST API.
type Client struct {
	http *xhttp.Client
	l    *applogger.Logger
}

var (
	_ drepo.CandleSource = (*Client)(nil)
	_ drepo.QuoteSource  = (*Client)(nil)
)

// New creates a TwelveData client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.twelvedata.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		http: xhttp.NewClient(opts.BaseURL,
			xhttp.WithAuthParam("apikey", opts.APIKey),
			xhttp.WithTimeout(opts.Timeout),
			xhttp.WithRateLimit(opts.RequestsPerSec),
			xhttp.WithRetry(opts.MaxRetryElapsed),
		),
		l: applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) {
	c.l = l.With(applogger.String("component", "twelvedata_client"))
}

type apiStatus struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type timeSeriesResponse struct {
	apiStatus
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

// GetCandles fetches candles newest-first. The provider order is kept as is.
func (c *Client) GetCandles(ctx context.Context, symbol string, interval drepo.Interval, outputSize int) ([]models.Candle, error) {
	body, err := c.get(ctx, "/time_series", map[string][]string{
		"symbol":     {symbol},
		"interval":   {string(interval)},
		"outputsize": {strconv.Itoa(outputSize)},
		"order":      {"desc"},
	})
	if err != nil {
		return nil, err
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &models.UpstreamError{Provider: provider, Message: "malformed time series", Err: err}
	}
	// error payloads arrive with HTTP 200
	if data.Status == "error" {
		return nil, &models.UpstreamError{Provider: provider, StatusCode: data.Code, Message: data.Message}
	}
	if len(data.Values) == 0 {
		return nil, models.NewDataInsufficient("candles "+symbol, 1, 0)
	}

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		if _, ok := util.ParseCandleTime(v.Datetime); !ok {
			return nil, &models.UpstreamError{Provider: provider, Message: "malformed candle datetime " + strconv.Quote(v.Datetime)}
		}
		ohlc, err := parseDecimals(v.Open, v.High, v.Low, v.Close)
		if err != nil {
			return nil, &models.UpstreamError{Provider: provider, Message: "malformed candle at " + v.Datetime, Err: err}
		}
		candles = append(candles, models.Candle{
			Datetime: v.Datetime,
			Open:     ohlc[0],
			High:     ohlc[1],
			Low:      ohlc[2],
			Close:    ohlc[3],
			Volume:   v.Volume,
		})
	}

	c.l.Debug("candles fetched",
		applogger.String("symbol", symbol),
		applogger.String("interval", string(interval)),
		applogger.Int("count", len(candles)),
	)
	return candles, nil
}

type priceEntry struct {
	apiStatus
	Price string `json:"price"`
}

// GetQuotes fetches the latest price of each symbol in one batch request.
// Symbols the provider rejects are left out of the result.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	body, err := c.get(ctx, "/price", map[string][]string{
		"symbol": {strings.Join(symbols, ",")},
	})
	if err != nil {
		return nil, err
	}

	entries := make(map[string]priceEntry, len(symbols))
	if len(symbols) == 1 {
		var e priceEntry
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, &models.UpstreamError{Provider: provider, Message: "malformed price", Err: err}
		}
		entries[symbols[0]] = e
	} else {
		var status apiStatus
		if err := json.Unmarshal(body, &status); err == nil && status.Status == "error" {
			return nil, &models.UpstreamError{Provider: provider, StatusCode: status.Code, Message: status.Message}
		}
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, &models.UpstreamError{Provider: provider, Message: "malformed price batch", Err: err}
		}
	}

	now := time.Now().UTC()
	for _, sym := range symbols {
		e, ok := entries[sym]
		if !ok {
			continue
		}
		if e.Status == "error" {
			if len(symbols) == 1 {
				return nil, &models.UpstreamError{Provider: provider, StatusCode: e.Code, Message: e.Message}
			}
			c.l.Warn("price rejected", applogger.String("symbol", sym), applogger.String("message", e.Message))
			continue
		}
		p, err := decimal.NewFromString(e.Price)
		if err != nil {
			c.l.Warn("malformed price", applogger.String("symbol", sym), applogger.Error(err))
			continue
		}
		out[sym] = models.Quote{Symbol: sym, Price: p.InexactFloat64(), Timestamp: now}
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string) ([]byte, error) {
	var body []byte
	err := c.http.Get(ctx, path, params, &body)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			return nil, &models.UpstreamError{Provider: provider, StatusCode: se.StatusCode, Message: se.Body, Err: err}
		}
		return nil, &models.UpstreamError{Provider: provider, Message: "request " + path, Err: err}
	}
	return body, nil
}

func parseDecimals(values ...string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", v, err)
		}
		out[i] = d.InexactFloat64()
	}
	return out, nil
}
