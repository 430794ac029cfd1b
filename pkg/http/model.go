package http

// APIResponse represents standard API response.
type APIResponse struct {
	Success bool        `json:"success" example:"true"`
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Count   *int        `json:"count,omitempty" example:"42"`
	Data    interface{} `json:"data"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_INVALID_ARGUMENT"`
	Field   string                 `json:"field,omitempty" example:"start_date"`
	Message string                 `json:"message,omitempty" example:"start_date must be a date in YYYY-MM-DD format"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
