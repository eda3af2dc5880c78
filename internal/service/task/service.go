// Package task 비동기 백엔드 작업의 제출, 관찰, 결과 조회, 취소를 하나로 묶은 작업 서비스를 제공합니다.
package task

import (
	"context"
	"sync"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/internal/service/task/cancellation"
	"github.com/darkkaiser/review-console/internal/service/task/poller"
	"github.com/darkkaiser/review-console/internal/service/task/registry"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// component 작업 서비스의 로깅용 컴포넌트 이름
const component = "task.service"

// TerminalHandler 서비스로 제출된 작업이 종료되었을 때 호출됩니다.
// 레지스트리 이벤트 루프에서 호출되므로 블로킹되면 안 됩니다.
type TerminalHandler func(contract.Observation)

type Option func(*Service)

// WithRegistryOptions 내부 레지스트리 생성에 사용할 옵션을 지정합니다.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(s *Service) { s.registryOpts = append(s.registryOpts, opts...) }
}

// WithTerminalHandler 서비스로 제출된 작업의 종료 관찰을 받을 핸들러를 추가합니다.
//
// 핸들러가 하나라도 등록되어 있으면 서비스는 제출한 작업을 종료될 때까지 직접 관찰합니다.
// 화면의 구독자가 모두 떠나도 작업 종료를 놓치지 않기 위해서입니다.
func WithTerminalHandler(h TerminalHandler) Option {
	return func(s *Service) {
		if h != nil {
			s.terminalHandlers = append(s.terminalHandlers, h)
		}
	}
}

// Service 작업 서비스입니다.
//
// Gateway로 작업을 제출하고, Registry로 작업 상태를 관찰하며, Coordinator로 취소를 조정합니다.
// 화면(API), 스케줄러, 알림 서비스는 모두 이 서비스 하나를 통해 작업을 다룹니다.
type Service struct {
	gateway     contract.Gateway
	registry    *registry.Registry
	coordinator *cancellation.Coordinator

	registryOpts     []registry.Option
	terminalHandlers []TerminalHandler

	running   bool
	runningMu sync.Mutex
}

// NewService 작업 서비스를 생성합니다.
//
// 매개변수:
//   - gateway: 백엔드 작업 엔드포인트를 감싼 Gateway입니다. nil이면 패닉이 발생합니다.
//   - policy: 작업 관찰에 사용할 폴링 정책입니다. Start에서 검증됩니다.
func NewService(gateway contract.Gateway, policy poller.Policy, opts ...Option) *Service {
	if gateway == nil {
		panic("Gateway는 필수입니다")
	}

	s := &Service{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}

	s.registry = registry.New(gateway, policy, s.registryOpts...)
	s.coordinator = cancellation.New(s.registry)

	return s
}

// Start 작업 서비스를 시작합니다.
//
// 호출자는 호출 전에 serviceStopWG.Add(1)을 해야 합니다. serviceStopCtx가 취소되면 모든 작업 관찰을 멈추고
// 레지스트리 이벤트 루프가 종료된 뒤 serviceStopWG.Done()이 호출됩니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 작업 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("작업 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	if err := s.registry.Start(serviceStopCtx, serviceStopWG); err != nil {
		return err
	}

	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"terminal_handlers": len(s.terminalHandlers),
	}).Info("서비스 시작 완료: 작업 서비스가 정상적으로 초기화되었습니다")

	return nil
}

// Running 서비스가 시작되었는지 여부입니다.
func (s *Service) Running() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	return s.running
}

// Submit 작업을 제출합니다. 제출 요청은 재시도하지 않습니다.
//
// 백엔드가 작업 생성을 거부하면 contract.ErrSubmissionRejected를 감싼 에러를 반환합니다.
func (s *Service) Submit(ctx context.Context, params contract.Params) (contract.TaskHandle, error) {
	if !s.Running() {
		return contract.TaskHandle{}, ErrServiceNotRunning
	}

	handle, err := s.gateway.Submit(ctx, params)
	if err != nil {
		return contract.TaskHandle{}, err
	}

	if len(s.terminalHandlers) > 0 {
		if err := s.watchTerminal(handle); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"task_id": handle.ID,
				"kind":    handle.Kind.String(),
				"error":   err,
			}).Warn("종료 알림을 위한 작업 관찰 등록에 실패했습니다")
		}
	}

	return handle, nil
}

// watchTerminal 작업이 끝날 때까지 관찰하다가 종료 관찰을 핸들러에 전달하고 구독을 해제합니다.
func (s *Service) watchTerminal(handle contract.TaskHandle) error {
	var (
		mu       sync.Mutex
		sub      registry.Subscription
		attached bool
		finished bool
	)

	// 콜백은 Subscribe가 반환되기 전에 실행될 수 있으므로 구독 해제는 둘 중 나중에 끝나는 쪽이 합니다.
	created, err := s.registry.Subscribe(handle, func(obs contract.Observation) {
		if !obs.IsTerminal() {
			return
		}

		mu.Lock()
		if finished {
			mu.Unlock()
			return
		}
		finished = true
		if attached {
			s.registry.Unsubscribe(sub)
		}
		mu.Unlock()

		for _, h := range s.terminalHandlers {
			s.callTerminalHandler(h, obs)
		}
	})
	if err != nil {
		return err
	}

	mu.Lock()
	sub, attached = created, true
	if finished {
		s.registry.Unsubscribe(sub)
	}
	mu.Unlock()

	return nil
}

func (s *Service) callTerminalHandler(h TerminalHandler, obs contract.Observation) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"task_id": obs.Handle.ID,
				"panic":   r,
			}).Error("종료 핸들러에서 패닉이 발생하여 복구했습니다")
		}
	}()

	h(obs)
}

// SubmitAndWatch 작업을 제출하고 곧바로 관찰을 구독합니다.
func (s *Service) SubmitAndWatch(ctx context.Context, params contract.Params, fn registry.Subscriber) (contract.TaskHandle, registry.Subscription, error) {
	handle, err := s.Submit(ctx, params)
	if err != nil {
		return contract.TaskHandle{}, registry.Subscription{}, err
	}

	sub, err := s.registry.Subscribe(handle, fn)
	if err != nil {
		return handle, registry.Subscription{}, err
	}

	return handle, sub, nil
}

// Subscribe 작업의 관찰을 구독합니다. 블로킹되지 않으며, 알려진 관찰이 있으면 곧바로 전달됩니다.
func (s *Service) Subscribe(handle contract.TaskHandle, fn registry.Subscriber) (registry.Subscription, error) {
	return s.registry.Subscribe(handle, fn)
}

// Unsubscribe 구독을 해제합니다. 여러 번 호출해도 안전합니다.
func (s *Service) Unsubscribe(sub registry.Subscription) {
	s.registry.Unsubscribe(sub)
}

// Latest 작업의 마지막 관찰을 반환합니다.
func (s *Service) Latest(id contract.TaskID) (contract.Observation, bool) {
	return s.registry.Latest(id)
}

func (s *Service) Stats() registry.Stats {
	return s.registry.Stats()
}

// Await 작업이 종료될 때까지 기다려 종료 관찰을 반환합니다. ctx가 먼저 끝나면 기다림만 포기합니다.
func (s *Service) Await(ctx context.Context, handle contract.TaskHandle) (contract.Observation, error) {
	terminal := make(chan contract.Observation, 1)

	sub, err := s.registry.Subscribe(handle, func(obs contract.Observation) {
		if !obs.IsTerminal() {
			return
		}
		select {
		case terminal <- obs:
		default:
		}
	})
	if err != nil {
		return contract.Observation{}, err
	}
	defer s.registry.Unsubscribe(sub)

	select {
	case obs := <-terminal:
		return obs, nil
	case <-ctx.Done():
		return contract.Observation{}, apperrors.Wrapf(ctx.Err(), apperrors.Timeout, "작업(%s)의 종료를 기다리는 중 요청이 취소되었습니다", handle)
	}
}

// FetchResult 성공한 작업의 결과를 조회합니다.
//
// 레지스트리가 성공을 관찰하지 못한 작업(관찰 기록이 없거나 아직 진행 중, 실패, 취소)은
// 네트워크 호출 없이 contract.ErrInvalidState를 감싼 에러를 반환합니다.
func (s *Service) FetchResult(ctx context.Context, handle contract.TaskHandle) (contract.TaskResult, error) {
	obs, ok := s.registry.Latest(handle.ID)
	if !ok {
		return contract.TaskResult{}, contract.NewInvalidStateError(handle, contract.StatusPending)
	}
	if obs.Snapshot.Status != contract.StatusSucceeded {
		return contract.TaskResult{}, contract.NewInvalidStateError(handle, obs.Snapshot.Status)
	}

	return s.gateway.FetchResult(ctx, handle, obs.Snapshot)
}

// Cancel 작업을 취소하고 종료 관찰을 받을 때까지 기다립니다.
// 이미 종료된 작업이면 원격 호출 없이 곧바로 반환하며, 취소보다 작업 종료가 먼저였다면 Outcome.RaceLost가 설정됩니다.
func (s *Service) Cancel(ctx context.Context, handle contract.TaskHandle) (cancellation.Outcome, error) {
	return s.coordinator.Cancel(ctx, handle)
}
