package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	applog "github.com/darkkaiser/review-console/pkg/log"
	"github.com/darkkaiser/review-console/pkg/strutil"
)

// maxDetailRunes 에러 메시지에 담을 백엔드 응답 사유의 최대 길이입니다.
const maxDetailRunes = 300

// Doer HTTP 요청을 수행하는 인터페이스입니다. *http.Client가 이를 만족합니다.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type request struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

type response struct {
	statusCode int
	body       []byte
	requestID  string
}

func (r response) success() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// detail 백엔드 에러 응답의 사유를 추출합니다.
// detail이 문자열이면 그대로, 검증 에러 배열이면 각 항목의 msg를 이어 붙입니다.
func (r response) detail() string {
	doc := gjson.ParseBytes(r.body)

	d := doc.Get("detail")
	switch {
	case d.Type == gjson.String:
		return strutil.Truncate(d.String(), maxDetailRunes)

	case d.IsArray():
		var msgs []string
		for _, item := range d.Array() {
			if msg := item.Get("msg").String(); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strutil.Truncate(strings.Join(msgs, "; "), maxDetailRunes)
	}

	if msg := doc.Get("message").String(); msg != "" {
		return strutil.Truncate(msg, maxDetailRunes)
	}

	return strutil.Truncate(strings.TrimSpace(string(r.body)), maxDetailRunes)
}

// statusError 성공하지 못한 응답을 상태 코드에 맞는 종류의 에러로 변환합니다.
func (r response) statusError(op string) error {
	errType := apperrors.ExecutionFailed
	switch {
	case r.statusCode == http.StatusUnauthorized:
		errType = apperrors.Unauthorized
	case r.statusCode == http.StatusForbidden:
		errType = apperrors.Forbidden
	case r.statusCode == http.StatusNotFound:
		errType = apperrors.NotFound
	case r.statusCode == http.StatusTooManyRequests, r.statusCode >= 500:
		errType = apperrors.Unavailable
	}

	message := fmt.Sprintf("%s 요청이 실패했습니다 (HTTP %d %s)", op, r.statusCode, http.StatusText(r.statusCode))
	if detail := r.detail(); detail != "" {
		message += ": " + detail
	}

	return apperrors.New(errType, message)
}

// do 요청 하나를 보내고 응답 본문 전체를 읽어 반환합니다.
// 상태 코드와 관계없이 응답을 받으면 에러가 없으며, 상태 코드 해석은 호출자의 몫입니다.
func (g *Gateway) do(ctx context.Context, op string, req request) (response, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return response{}, apperrors.Wrap(err, apperrors.Timeout, fmt.Sprintf("%s 요청이 호출 속도 제한 대기 중 취소되었습니다", op))
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	target := g.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return response{}, apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("%s 요청 생성에 실패했습니다 (URL: %s)", op, target))
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.token)
	}

	fields := applog.Fields{
		"op":         op,
		"method":     req.method,
		"path":       req.path,
		"request_id": requestID,
	}

	start := time.Now()
	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		fields["error"] = err
		fields["elapsed"] = time.Since(start).String()
		applog.WithComponentAndFields(component, fields).Debug("백엔드 요청 전송 실패")

		errType := apperrors.Unavailable
		if errors.Is(err, context.DeadlineExceeded) {
			errType = apperrors.Timeout
		}
		return response{}, apperrors.Wrap(err, errType, fmt.Sprintf("%s 요청 전송 중 에러가 발생했습니다", op))
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, g.maxBodyBytes+1))
	if err != nil {
		return response{}, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("%s 응답 본문을 읽는 중 에러가 발생했습니다", op))
	}
	if int64(len(data)) > g.maxBodyBytes {
		return response{}, apperrors.Newf(apperrors.ExecutionFailed, "%s 응답 본문이 허용 크기(%d 바이트)를 초과했습니다", op, g.maxBodyBytes)
	}

	fields["status"] = httpResp.StatusCode
	fields["elapsed"] = time.Since(start).String()
	applog.WithComponentAndFields(component, fields).Trace("백엔드 요청 완료")

	return response{statusCode: httpResp.StatusCode, body: data, requestID: requestID}, nil
}
