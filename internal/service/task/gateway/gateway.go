// Package gateway 리뷰 백엔드의 세 가지 작업 엔드포인트 계열을 하나의 contract.Gateway로 감싸는 HTTP 구현체입니다.
package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/darkkaiser/review-console/internal/config"
	"github.com/darkkaiser/review-console/internal/pkg/clock"
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
	applog "github.com/darkkaiser/review-console/pkg/log"
	"github.com/darkkaiser/review-console/pkg/strutil"
)

// component Gateway 로깅용 컴포넌트 이름
const component = "task.gateway"

// Gateway contract.Gateway의 HTTP 구현체입니다. 상태를 갖지 않으며 여러 고루틴에서 동시에 사용할 수 있습니다.
type Gateway struct {
	baseURL      string
	token        string
	timeout      time.Duration
	maxBodyBytes int64

	client  Doer
	limiter *rate.Limiter
	clock   clock.Clock

	families map[contract.Kind]family
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ contract.Gateway = (*Gateway)(nil)

type Option func(*Gateway)

// WithHTTPClient 요청을 수행할 HTTP 클라이언트를 지정합니다.
func WithHTTPClient(client Doer) Option {
	return func(g *Gateway) { g.client = client }
}

// WithClock 제출 시각과 결과 조회 시각에 사용할 시계를 지정합니다.
func WithClock(c clock.Clock) Option {
	return func(g *Gateway) { g.clock = c }
}

// New 백엔드 설정으로 Gateway를 생성합니다. 작업 종류마다 엔드포인트 계열이 모두 설정되어 있어야 합니다.
func New(cfg config.BackendConfig, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.Token,
		timeout:      cfg.RequestTimeout,
		maxBodyBytes: cfg.MaxBodyBytes,

		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		clock:   clock.Real(),

		families: make(map[contract.Kind]family, len(contract.Kinds)),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, kind := range contract.Kinds {
		ep, ok := cfg.Endpoints[kind.String()]
		if !ok {
			return nil, apperrors.Newf(apperrors.InvalidInput, "%s 작업의 엔드포인트 계열이 설정되지 않았습니다", kind)
		}

		f, err := newFamily(kind, ep)
		if err != nil {
			return nil, err
		}
		g.families[kind] = f
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"base_url":        g.baseURL,
		"token":           strutil.Mask(g.token),
		"request_timeout": cfg.RequestTimeout.String(),
		"rate_limit":      cfg.RateLimit,
	}).Debug("백엔드 Gateway 생성 완료")

	return g, nil
}

func (g *Gateway) family(kind contract.Kind) (family, error) {
	f, ok := g.families[kind]
	if !ok {
		return family{}, apperrors.Newf(apperrors.InvalidInput, "지원하지 않는 작업 종류입니다: %s", kind)
	}
	return f, nil
}

// Submit 작업을 제출합니다. 제출 요청은 중복 작업을 만들 수 있으므로 재시도하지 않습니다.
func (g *Gateway) Submit(ctx context.Context, params contract.Params) (contract.TaskHandle, error) {
	if params == nil {
		return contract.TaskHandle{}, apperrors.New(apperrors.InvalidInput, "작업 요청 값이 없습니다")
	}
	if err := params.Validate(); err != nil {
		return contract.TaskHandle{}, err
	}

	f, err := g.family(params.Kind())
	if err != nil {
		return contract.TaskHandle{}, err
	}
	req, err := f.submitRequest(params)
	if err != nil {
		return contract.TaskHandle{}, err
	}

	resp, err := g.do(ctx, "작업 제출", req)
	if err != nil {
		return contract.TaskHandle{}, err
	}

	switch resp.statusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		reason := resp.detail()
		if reason == "" {
			reason = "백엔드가 작업 생성을 거부했습니다"
		}
		applog.WithComponentAndFields(component, applog.Fields{
			"kind":       f.kind.String(),
			"status":     resp.statusCode,
			"reason":     reason,
			"request_id": resp.requestID,
		}).Info("백엔드가 작업 제출을 거부했습니다")

		return contract.TaskHandle{}, contract.NewSubmissionRejectedError(reason)
	}
	if !resp.success() {
		return contract.TaskHandle{}, resp.statusError("작업 제출")
	}

	id, err := decodeSubmit(resp.body)
	if err != nil {
		return contract.TaskHandle{}, err
	}

	handle := contract.NewTaskHandle(f.kind, id, g.clock.Now())

	applog.WithComponentAndFields(component, applog.Fields{
		"kind":       f.kind.String(),
		"task_id":    id,
		"path":       req.path,
		"request_id": resp.requestID,
	}).Info("작업 제출 완료")

	return handle, nil
}

// FetchSnapshot 작업의 현재 상태를 조회합니다. HTTP 404는 ErrTaskNotFound이고, 그 밖의 실패는 모두 일시적 실패입니다.
func (g *Gateway) FetchSnapshot(ctx context.Context, handle contract.TaskHandle) (contract.Snapshot, error) {
	f, err := g.family(handle.Kind)
	if err != nil {
		return contract.Snapshot{}, err
	}
	req, err := f.statusRequest(handle.ID)
	if err != nil {
		return contract.Snapshot{}, err
	}

	resp, err := g.do(ctx, "상태 조회", req)
	if err != nil {
		return contract.Snapshot{}, err
	}
	if resp.statusCode == http.StatusNotFound {
		return contract.Snapshot{}, contract.NewTaskNotFoundError(handle)
	}
	if !resp.success() {
		return contract.Snapshot{}, resp.statusError("상태 조회")
	}

	return decodeSnapshot(resp.body, f.scale)
}

// FetchResult 성공한 작업의 결과를 조회합니다. observed가 Succeeded가 아니면 네트워크 호출 없이 ErrInvalidState를 반환합니다.
func (g *Gateway) FetchResult(ctx context.Context, handle contract.TaskHandle, observed contract.Snapshot) (contract.TaskResult, error) {
	if observed.Status != contract.StatusSucceeded {
		return contract.TaskResult{}, contract.NewInvalidStateError(handle, observed.Status)
	}

	f, err := g.family(handle.Kind)
	if err != nil {
		return contract.TaskResult{}, err
	}
	req, err := f.resultRequest(handle.ID)
	if err != nil {
		return contract.TaskResult{}, err
	}

	resp, err := g.do(ctx, "결과 조회", req)
	if err != nil {
		return contract.TaskResult{}, err
	}

	switch {
	case resp.statusCode == http.StatusNotFound:
		return contract.TaskResult{}, contract.NewTaskNotFoundError(handle)
	case resp.statusCode == http.StatusBadRequest:
		// 백엔드는 아직 끝나지 않았거나 취소된 작업의 결과 요청을 400으로 거부합니다.
		return contract.TaskResult{}, contract.NewInvalidStateError(handle, observed.Status)
	case !resp.success():
		return contract.TaskResult{}, resp.statusError("결과 조회")
	}

	payload, err := decodeResult(f.kind, resp.body, f.embeddedResult())
	if err != nil {
		return contract.TaskResult{}, err
	}

	return contract.TaskResult{Handle: handle, Payload: payload, FetchedAt: g.clock.Now()}, nil
}

// RequestCancel 백엔드에 취소를 요청합니다. 이미 끝났거나 사라진 작업(HTTP 400/404/409)은 아무 일도 하지 않습니다.
func (g *Gateway) RequestCancel(ctx context.Context, handle contract.TaskHandle) error {
	f, err := g.family(handle.Kind)
	if err != nil {
		return err
	}
	req, err := f.cancelRequest(handle.ID)
	if err != nil {
		return err
	}

	resp, err := g.do(ctx, "작업 취소", req)
	if err != nil {
		return err
	}

	switch resp.statusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		applog.WithComponentAndFields(component, applog.Fields{
			"kind":    f.kind.String(),
			"task_id": handle.ID,
			"status":  resp.statusCode,
			"reason":  resp.detail(),
		}).Debug("이미 종료된 작업이므로 취소 요청을 무시합니다")
		return nil
	}
	if !resp.success() {
		return resp.statusError("작업 취소")
	}

	return nil
}
