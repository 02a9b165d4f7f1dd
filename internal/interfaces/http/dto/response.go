package dto

// Response is the envelope every API endpoint returns. Exactly one of
// Data and Error is set.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo carries the machine-readable code and human message of a
// failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta describes a list result.
type Meta struct {
	Total int `json:"total"`
	Limit int `json:"limit"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta wraps a list result with its total and the
// limit that produced it.
func NewSuccessResponseWithMeta(data interface{}, total, limit int) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Limit: limit},
	}
}

// NewErrorResponse builds a failure envelope.
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// ListRequest represents common list request parameters
type ListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// LimitOrDefault returns the requested limit, defaulting to 50.
func (r ListRequest) LimitOrDefault() int {
	if r.Limit <= 0 {
		return 50
	}
	return r.Limit
}
