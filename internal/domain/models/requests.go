package models

// Requests for the analytics HTTP endpoints.

type SignalRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,ticker"`
	Interval string `query:"interval" json:"interval" default:"5min" validate:"interval"`
}

type VolatilityRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,ticker"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"interval"`
}

// ArbitrageRequest takes a comma separated list of at least two distinct
// symbols. GasPrice is in gwei; zero skips the route profit estimate.
type ArbitrageRequest struct {
	Symbols  string  `query:"symbols" json:"symbols" validate:"required,tickers=2"`
	GasPrice float64 `query:"gasPrice" json:"gasPrice" validate:"gte=0"`
}

type SentimentRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,ticker"`
}

type RiskRequest struct {
	Account string `query:"account" json:"account" validate:"required,max=64"`
}

type OverviewRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required,ticker"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"interval"`
}
