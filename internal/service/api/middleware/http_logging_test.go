package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
)

func TestHTTPLogger(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		handler       echo.HandlerFunc
		expectedCode  int
		expectedLevel string
		expectedURI   string
	}{
		{
			name:          "정상 요청",
			target:        "/api/v1/tasks/review/r-1",
			handler:       func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			expectedCode:  http.StatusOK,
			expectedLevel: "info",
			expectedURI:   "/api/v1/tasks/review/r-1",
		},
		{
			name:          "핸들러 에러는 에러 핸들러가 결정한 상태 코드로 기록",
			target:        "/api/v1/tasks/review/r-1",
			handler:       func(echo.Context) error { return apperrors.New(apperrors.Conflict, "거부") },
			expectedCode:  http.StatusConflict,
			expectedLevel: "info",
			expectedURI:   "/api/v1/tasks/review/r-1",
		},
		{
			name:          "5xx는 에러 레벨",
			target:        "/api/v1/tasks/review/r-1",
			handler:       func(echo.Context) error { return apperrors.New(apperrors.Unavailable, "중지됨") },
			expectedCode:  http.StatusServiceUnavailable,
			expectedLevel: "error",
			expectedURI:   "/api/v1/tasks/review/r-1",
		},
		{
			name:          "민감한 쿼리 마스킹",
			target:        "/api/v1/stats?token=abcdefgh12345678&page=1",
			handler:       func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
			expectedCode:  http.StatusNoContent,
			expectedLevel: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			e := newTestEcho()
			e.Use(HTTPLogger())
			e.GET("/*", tt.handler)

			rec := serve(e, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.expectedCode, rec.Code)

			var access map[string]any
			for _, entry := range logEntries(t, buf) {
				if entry["component"] == "api.middleware.http_logger" {
					access = entry
				}
			}
			require.NotNil(t, access, "접근 로그가 기록되어야 합니다")

			assert.Equal(t, tt.expectedLevel, access["level"])
			assert.EqualValues(t, tt.expectedCode, access["status"])
			assert.Equal(t, http.MethodGet, access["method"])
			if tt.expectedURI != "" {
				assert.Equal(t, tt.expectedURI, access["uri"])
			} else {
				assert.NotContains(t, access["uri"], "abcdefgh12345678")
			}
		})
	}
}

func TestMaskSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		unchanged bool
	}{
		{name: "민감 정보 없음", uri: "/api/v1/tasks?page=1", unchanged: true},
		{name: "토큰", uri: "/api/v1/tasks?token=secret-token-value"},
		{name: "비밀번호", uri: "/login?password=hunter2hunter2"},
		{name: "해석 불가", uri: "%zz", unchanged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskSensitiveQueryParams(tt.uri)
			if tt.unchanged {
				assert.Equal(t, tt.uri, got)
				return
			}
			assert.NotEqual(t, tt.uri, got)
			assert.NotContains(t, got, "secret-token-value")
			assert.NotContains(t, got, "hunter2hunter2")
		})
	}
}
