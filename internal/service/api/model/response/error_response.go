package response

// ErrorResponse API 오류 응답
type ErrorResponse struct {
	// ResultCode HTTP 상태 코드 (예: 400, 409, 503)
	ResultCode int `json:"result_code"`

	Message string `json:"message"`
}
