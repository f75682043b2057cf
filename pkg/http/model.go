package http

// APIResponse is the envelope every endpoint answers with. Data holds the
// result on success and a list of errors otherwise.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request parameter.
type ValidationError struct {
	Code    string                 `json:"code" example:"ERR_TICKER"`
	Field   string                 `json:"field,omitempty" example:"symbol"`
	Value   string                 `json:"value,omitempty" example:"AAPL$"`
	Message string                 `json:"message" example:"symbol must be a ticker symbol"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
