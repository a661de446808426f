package http

// Envelope is the body of every API response.
type Envelope struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// ValidationError describes one rejected query field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_LTE"`
	Field   string                 `json:"field,omitempty" example:"limit"`
	Message string                 `json:"message,omitempty" example:"limit must be less than or equal to 20000"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Page is the tail of a bounded series. Total counts matching rows before the limit was applied.
type Page struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
	Limit int         `json:"limit,omitempty"`
}
