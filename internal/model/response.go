package model

// Response is the JSON envelope of every /api reply, including 429s.
type Response struct {
	Data    any     `json:"data,omitempty"`
	Error   *string `json:"error,omitempty"`
	Message string  `json:"message"`
}

// ErrorResponse carries the user-facing text in Error and a short status in Message.
func ErrorResponse(errMsg, message string) Response {
	return Response{Error: &errMsg, Message: message}
}
