package response

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Data       interface{}       `json:"data,omitempty"`
	Meta       *Meta             `json:"meta,omitempty"`
	Code       string            `json:"code,omitempty"`
	Message    string            `json:"message,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// Meta describes the page returned by a paginated list
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessWithPagination wraps a page of results together with its position
func SuccessWithPagination(statusCode int, data interface{}, page, limit int, total int64) Response {
	resp := Success(statusCode, data)
	resp.Meta = &Meta{Page: page, Limit: limit, Total: total}
	return resp
}

// Error returns a standard error response with a machine readable code
func Error(statusCode int, code, message string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}
