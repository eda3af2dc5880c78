package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/review-console/internal/service/api/httputil"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// =============================================================================
// Helpers
// =============================================================================

// captureLogs 전역 로거 출력을 JSON 형식으로 버퍼에 모읍니다. 전역 상태를 바꾸므로 병렬 실행하지 않습니다.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	logger := applog.StandardLogger()
	prevOut, prevFormatter, prevLevel := logger.Out, logger.Formatter, logger.Level

	buf := new(bytes.Buffer)
	logger.SetOutput(buf)
	logger.SetFormatter(&applog.JSONFormatter{})
	logger.SetLevel(applog.DebugLevel)

	t.Cleanup(func() {
		logger.SetOutput(prevOut)
		logger.SetFormatter(prevFormatter)
		logger.SetLevel(prevLevel)
	})

	return buf
}

// logEntries 버퍼에 기록된 로그를 한 줄씩 해석합니다.
func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	return e
}

func serve(e *echo.Echo, method, target string, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, m := range mutate {
		m(req)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
