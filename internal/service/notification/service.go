package notification

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/review-console/internal/config"
	"github.com/darkkaiser/review-console/internal/service/contract"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// component 알림 서비스의 로깅용 컴포넌트 이름
const component = "notification.service"

const (
	// sendTimeout 알림 하나를 전송할 때 허용하는 최대 시간입니다. 속도 제한 대기 시간이 포함됩니다.
	sendTimeout = 30 * time.Second

	// shutdownTimeout 종료 시 대기열에 남은 알림을 전송하기 위해 기다리는 최대 시간입니다.
	shutdownTimeout = 60 * time.Second
)

// Service 작업 종료 관찰을 받아 대기열에 쌓고, 별도의 고루틴에서 하나씩 전송하는 알림 서비스입니다.
//
// Notify는 작업 레지스트리의 이벤트 루프에서 호출되므로 절대 블로킹되지 않습니다.
// 대기열이 가득 차면 알림을 버리고 경고 로그를 남깁니다.
type Service struct {
	enabled bool
	kinds   map[contract.Kind]bool

	sender    Sender
	formatter *Formatter

	// queue 전송 대기 중인 알림입니다. 여러 생산자가 동시에 넣을 수 있으므로 닫지 않습니다.
	queue chan Message

	running   bool
	runningMu sync.RWMutex
}

// NewService 알림 서비스를 생성합니다. 설정에서 비활성화되었거나 sender가 nil이면 아무 일도 하지 않는 서비스가 됩니다.
func NewService(cfg config.TelegramConfig, sender Sender) *Service {
	s := &Service{
		enabled:   cfg.Enabled && sender != nil,
		kinds:     make(map[contract.Kind]bool),
		sender:    sender,
		formatter: DefaultFormatter(),
		queue:     make(chan Message, max(cfg.QueueSize, 1)),
	}

	for _, name := range cfg.Kinds {
		if kind, err := contract.ParseKind(name); err == nil {
			s.kinds[kind] = true
		}
	}

	return s
}

// Enabled 알림이 실제로 전송되는지 여부입니다.
func (s *Service) Enabled() bool {
	return s.enabled
}

// Start 알림 전송 고루틴을 시작합니다. 비활성화된 서비스는 곧바로 serviceStopWG.Done()을 호출합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 알림 서비스 초기화 프로세스를 시작합니다")

	if !s.enabled {
		serviceStopWG.Done()
		applog.WithComponent(component).Info("알림이 비활성화되어 있어 알림 서비스를 시작하지 않습니다")
		return nil
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("알림 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	s.running = true

	go s.runSender(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"queue_size": cap(s.queue),
		"kinds":      len(s.kinds),
	}).Info("서비스 시작 완료: 알림 서비스가 정상적으로 초기화되었습니다")

	return nil
}

// Notify 작업 종료 관찰을 알림 대기열에 넣습니다. 블로킹되지 않으며 task.TerminalHandler로 사용할 수 있습니다.
func (s *Service) Notify(obs contract.Observation) {
	if !obs.IsTerminal() && obs.Kind != contract.ObservedUnknown {
		return
	}
	if len(s.kinds) > 0 && !s.kinds[obs.Handle.Kind] {
		return
	}

	_ = s.enqueue(s.formatter.Format(obs))
}

func (s *Service) enqueue(m Message) error {
	if !s.enabled {
		return ErrDisabled
	}

	s.runningMu.RLock()
	defer s.runningMu.RUnlock()

	if !s.running {
		return ErrClosed
	}

	select {
	case s.queue <- m:
		return nil
	default:
		applog.WithComponentAndFields(component, applog.Fields{
			"task_id": m.TaskID,
			"kind":    m.Kind.String(),
			"status":  m.Status.String(),
		}).Warn("알림 요청 거부: 발송 대기열 용량 초과 (Queue Full)")
		return ErrQueueFull
	}
}

func (s *Service) runSender(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		select {
		case m := <-s.queue:
			ctx, cancel := context.WithTimeout(serviceStopCtx, sendTimeout)
			s.send(ctx, m)
			cancel()

		case <-serviceStopCtx.Done():
			s.shutdown()
			return
		}
	}
}

// shutdown 새 알림을 더 받지 않고, 대기열에 남은 알림을 제한 시간 안에서 모두 전송합니다.
func (s *Service) shutdown() {
	applog.WithComponent(component).Info("종료 절차 진입: 알림 서비스 중지 시그널을 수신했습니다")

	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	sent := 0
	for {
		select {
		case m := <-s.queue:
			if ctx.Err() != nil {
				continue
			}
			s.send(ctx, m)
			sent++

		default:
			applog.WithComponentAndFields(component, applog.Fields{
				"flushed": sent,
			}).Info("알림 서비스 종료 완료: 대기열에 남은 알림을 정리했습니다")
			return
		}
	}
}

func (s *Service) send(ctx context.Context, m Message) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"task_id": m.TaskID,
				"panic":   r,
			}).Error("알림 전송 중 패닉이 발생하여 복구했습니다")
		}
	}()

	if err := s.sender.Send(ctx, m); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"task_id": m.TaskID,
			"kind":    m.Kind.String(),
			"error":   err,
		}).Error("알림 전송 실패")
		return
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"task_id": m.TaskID,
		"kind":    m.Kind.String(),
		"status":  m.Status.String(),
	}).Debug("알림 전송 완료")
}
