package httputil

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/api/model/response"
	"github.com/darkkaiser/review-console/internal/service/contract"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// statusByErrorType 애플리케이션 에러 종류별 HTTP 상태 코드입니다.
var statusByErrorType = map[apperrors.ErrorType]int{
	apperrors.InvalidInput:    http.StatusBadRequest,
	apperrors.Unauthorized:    http.StatusUnauthorized,
	apperrors.Forbidden:       http.StatusForbidden,
	apperrors.NotFound:        http.StatusNotFound,
	apperrors.Conflict:        http.StatusConflict,
	apperrors.ExecutionFailed: http.StatusBadGateway,
	apperrors.ParsingFailed:   http.StatusBadGateway,
	apperrors.Unavailable:     http.StatusServiceUnavailable,
	apperrors.Timeout:         http.StatusGatewayTimeout,
}

// ErrorHandler Echo 프레임워크의 전역 에러 핸들러입니다.
//
// echo.HTTPError와 애플리케이션 에러(apperrors)를 모두 표준 ErrorResponse JSON으로 변환합니다.
// 5xx 응답에는 내부 오류 내용을 노출하지 않습니다.
func ErrorHandler(err error, c echo.Context) {
	code, message := resolve(err)

	fields := applog.Fields{
		"path":        c.Request().URL.Path,
		"method":      c.Request().Method,
		"status_code": code,
		"error":       err,
		"remote_ip":   c.RealIP(),
		"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if code >= http.StatusInternalServerError {
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Error("HTTP 5xx: 서버 내부 오류")
	} else if code >= http.StatusBadRequest {
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Warn("HTTP 4xx: 클라이언트 요청 오류")
	}

	// 이미 응답(예: SSE 스트림)이 시작되었으면 추가로 쓸 수 없습니다.
	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	_ = c.JSON(code, response.ErrorResponse{
		ResultCode: code,
		Message:    message,
	})
}

// resolve 에러를 HTTP 상태 코드와 클라이언트용 메시지로 변환합니다.
func resolve(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := he.Code
		message := http.StatusText(code)
		switch m := he.Message.(type) {
		case string:
			message = m
		case response.ErrorResponse:
			message = m.Message
		}
		if code == http.StatusNotFound && message == http.StatusText(http.StatusNotFound) {
			message = constants.ErrMsgNotFound
		}
		return code, message
	}

	code := http.StatusInternalServerError
	switch {
	case contract.IsSubmissionRejected(err), contract.IsInvalidState(err):
		code = http.StatusConflict
	case contract.IsTaskNotFound(err):
		code = http.StatusNotFound
	default:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if c, ok := statusByErrorType[appErr.Type()]; ok {
				code = c
			}
		}
	}

	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable && code != http.StatusGatewayTimeout {
		return code, constants.ErrMsgInternalServer
	}

	if msg := FormatValidationError(err); msg != "" {
		return code, msg
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return code, appErr.Message()
	}

	return code, http.StatusText(code)
}
