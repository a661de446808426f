package models

// Query parameters of the dashboard HTTP endpoints.

type SeriesRequest struct {
	Limit int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=20000"`
	Since string `query:"since" json:"since"`
}

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"120" validate:"gte=1,lte=3600"`
}

// Health is the /healthz body.
type Health struct {
	Status   string `json:"status"`
	Feed     string `json:"feed"`
	Symbol   string `json:"symbol"`
	DepthLen int    `json:"depth_len"`
	TradeLen int    `json:"trade_len"`
	DepthCap int    `json:"depth_cap"`
	TradeCap int    `json:"trade_cap"`
}
