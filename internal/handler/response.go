package handler

// HeaderDeviceID carries the client-supplied device identifier on every
// device-scoped endpoint.
const HeaderDeviceID = "X-Device-Id"

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}
