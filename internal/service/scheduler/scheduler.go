// Package scheduler 설정된 Cron 스케줄에 맞춰 주기적인 GitLab 동기화를 실행하는 서비스를 제공합니다.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/darkkaiser/review-console/internal/config"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/pkg/cronx"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// jobSync 주기적인 전체 동기화 작업의 이름
const jobSync = "sync"

// SyncRunner 동기화를 제출하고 종료를 기다리는 대상입니다. *task.Service가 이를 만족합니다.
type SyncRunner interface {
	TriggerSync(ctx context.Context, params contract.SyncParams) (contract.TaskHandle, error)
	Await(ctx context.Context, handle contract.TaskHandle) (contract.Observation, error)
}

// Scheduler 설정 파일의 scheduler 항목에 정의된 작업을 Cron 스케줄에 맞춰 자동으로 실행하는 서비스입니다.
type Scheduler struct {
	config config.SchedulerConfig

	cron *cron.Cron

	syncRunner SyncRunner

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(cfg config.SchedulerConfig, runner SyncRunner) *Scheduler {
	if runner == nil {
		panic("SyncRunner는 필수입니다")
	}

	return &Scheduler{
		config:     cfg,
		syncRunner: runner,
	}
}

// Start 스케줄러를 시작하고 활성화된 작업을 Cron 엔진에 등록합니다.
//
// 매개변수:
//   - serviceStopCtx: 서비스 종료 신호를 받기 위한 Context
//   - serviceStopWG: 서비스 종료 완료를 알리기 위한 WaitGroup
//
// 반환값:
//   - error: syncRunner가 nil이거나 Cron 표현식이 올바르지 않은 경우
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Scheduler 서비스 초기화 프로세스를 시작합니다")

	if s.syncRunner == nil {
		serviceStopWG.Done()
		return ErrSyncRunnerNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	// 1. Cron 엔진 초기화
	// - StandardParser: 초 단위 스케줄링 지원 (6개 필드: 초 분 시 일 월 요일)
	// - Recover: Panic 발생 시 복구하여 다음 스케줄에 영향을 주지 않음
	// - SkipIfStillRunning: 이전 동기화가 끝나지 않았으면 이번 실행을 건너뜀
	logger := cron.VerbosePrintfLogger(applog.StandardLogger())
	c := cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)

	// 2. 작업 등록
	if s.config.Sync.Enabled {
		timeSpec := s.config.Sync.TimeSpec
		if _, err := c.AddFunc(timeSpec, func() { s.runSync(serviceStopCtx) }); err != nil {
			serviceStopWG.Done()
			return NewErrInvalidCronSpec(jobSync, timeSpec, err)
		}
	}

	// 3. 스케줄러 시작
	s.cron = c
	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"registered_schedules": len(s.cron.Entries()),
		"sync_enabled":         s.config.Sync.Enabled,
		"sync_time_spec":       s.config.Sync.TimeSpec,
	}).Info("서비스 시작 완료: Scheduler 서비스가 정상적으로 초기화되었습니다")

	// 4. 종료 신호 대기
	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.stop()
	}()

	return nil
}

// stop 실행 중인 스케줄러를 중지하고 진행 중인 작업이 끝날 때까지 기다립니다.
func (s *Scheduler) stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("종료 절차 진입: Scheduler 서비스 중지 시그널을 수신했습니다")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}

// runSync 전체 동기화를 제출하고, 설정된 시간 안에서 종료를 기다려 결과를 기록합니다.
//
// 동기화 대기는 서비스 종료 신호(serviceStopCtx)에도 묶여 있으므로 종료 시 cron.Stop()이 오래 막히지 않습니다.
// 대기를 포기해도 백엔드의 동기화 작업은 계속 진행됩니다.
func (s *Scheduler) runSync(serviceStopCtx context.Context) {
	ctx, cancel := context.WithTimeout(serviceStopCtx, s.config.Sync.Timeout)
	defer cancel()

	fields := applog.Fields{"job": jobSync}
	startedAt := time.Now()

	handle, err := s.syncRunner.TriggerSync(ctx, contract.SyncParams{Scope: contract.SyncScopeAll})
	if err != nil {
		fields["error"] = err
		if contract.IsSubmissionRejected(err) {
			applog.WithComponentAndFields(component, fields).Info("이미 진행 중인 동기화가 있어 이번 예약 실행을 건너뜁니다")
			return
		}
		applog.WithComponentAndFields(component, fields).Error("예약된 동기화 제출에 실패했습니다")
		return
	}

	fields["task_id"] = handle.ID
	applog.WithComponentAndFields(component, fields).Info("예약된 동기화를 제출했습니다")

	obs, err := s.syncRunner.Await(ctx, handle)
	fields["elapsed"] = time.Since(startedAt).Round(time.Millisecond).String()
	if err != nil {
		fields["error"] = err
		applog.WithComponentAndFields(component, fields).Warn("동기화 종료를 기다리지 못했습니다 (백엔드 작업은 계속 진행됩니다)")
		return
	}

	fields["status"] = obs.Snapshot.Status.String()
	fields["observation"] = obs.Kind.String()

	switch obs.Snapshot.Status {
	case contract.StatusSucceeded:
		applog.WithComponentAndFields(component, fields).Info("예약된 동기화 완료")
	case contract.StatusFailed:
		fields["reason"] = obs.Snapshot.Error
		applog.WithComponentAndFields(component, fields).Error("예약된 동기화 실패")
	default:
		applog.WithComponentAndFields(component, fields).Warn("예약된 동기화가 취소되었습니다")
	}
}
