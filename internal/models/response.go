package models

// APIResponse is the envelope returned by write endpoints and by every error.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func Success(data interface{}, message string) APIResponse {
	return APIResponse{Code: 200, Message: message, Data: data}
}

func Created(data interface{}, message string) APIResponse {
	return APIResponse{Code: 201, Message: message, Data: data}
}

func Error(code int, message string) APIResponse {
	return APIResponse{Code: code, Message: message}
}
