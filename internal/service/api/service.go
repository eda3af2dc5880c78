package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/darkkaiser/review-console/internal/config"
	"github.com/darkkaiser/review-console/internal/pkg/version"
	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/api/handler/system"
	v1 "github.com/darkkaiser/review-console/internal/service/api/v1"
	v1handler "github.com/darkkaiser/review-console/internal/service/api/v1/handler"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

// TaskService 작업 API가 사용하는 작업 서비스 기능입니다. *task.Service가 이를 만족합니다.
type TaskService interface {
	v1handler.TaskService
	system.TaskService
}

// Service 브라우저용 작업 API 서버의 생명주기를 관리합니다.
//
// Start로 시작하며 serviceStopCtx가 취소되면 Graceful Shutdown을 수행한 뒤 serviceStopWG.Done()을 호출합니다.
type Service struct {
	appConfig *config.AppConfig

	taskService TaskService
	notifier    system.Notifier

	buildInfo version.Info

	e *echo.Echo

	running   bool
	runningMu sync.Mutex
}

// NewService notifier는 nil일 수 있습니다. 이 경우 헬스체크는 알림을 비활성화 상태로 보고합니다.
func NewService(appConfig *config.AppConfig, taskService TaskService, notifier system.Notifier, buildInfo version.Info) *Service {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}
	if taskService == nil {
		panic(constants.PanicMsgTaskServiceRequired)
	}

	return &Service{
		appConfig: appConfig,

		taskService: taskService,
		notifier:    notifier,

		buildInfo: buildInfo,
	}
}

// Start API 서버를 별도 고루틴에서 시작하고 즉시 반환합니다.
// 설정에서 비활성화되어 있거나 이미 실행 중이면 아무것도 하지 않습니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	l := applog.WithComponent(constants.ComponentService)

	if !s.appConfig.API.Enabled {
		defer serviceStopWG.Done()
		l.Info("작업 API 서비스가 비활성화되어 있습니다")
		return nil
	}
	if s.running {
		defer serviceStopWG.Done()
		l.Warn("작업 API 서비스가 이미 시작됨!!!")
		return nil
	}

	l.Info("작업 API 서비스 시작중...")

	s.e = s.setupServer()
	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG, s.e)

	l.Info("작업 API 서비스 시작됨")

	return nil
}

// Addr 서버가 수신 중인 주소입니다. 아직 수신을 시작하지 않았으면 nil입니다.
func (s *Service) Addr() net.Addr {
	s.runningMu.Lock()
	e := s.e
	s.runningMu.Unlock()

	if e == nil {
		return nil
	}
	return e.ListenerAddr()
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup, e *echo.Echo) {
	defer serviceStopWG.Done()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// setupServer 핸들러, 미들웨어 체인, 라우트를 구성한 Echo 인스턴스를 만듭니다.
func (s *Service) setupServer() *echo.Echo {
	apiConfig := s.appConfig.API

	systemHandler := system.NewHandler(s.taskService, s.notifier, s.buildInfo)
	v1Handler := v1handler.NewHandler(s.taskService, apiConfig.SnapshotWait)

	e := NewHTTPServer(HTTPServerConfig{
		Debug:        s.appConfig.Debug,
		AllowOrigins: apiConfig.CORS.AllowOrigins,
		RateLimit:    apiConfig.RateLimit,
		RateBurst:    apiConfig.RateBurst,
		BodyLimit:    apiConfig.BodyLimit,
	})

	// 열린 SSE 스트림은 스스로 끝나지 않으므로 Shutdown이 시작되면 모든 요청 컨텍스트를 취소합니다.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	e.Server.BaseContext = func(net.Listener) context.Context { return baseCtx }
	e.Server.RegisterOnShutdown(cancelRequests)

	RegisterRoutes(e, systemHandler)
	v1.RegisterRoutes(e, v1Handler)

	return e
}

func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	address := s.appConfig.API.ListenAddress
	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"address": address,
	}).Debug("HTTP 서버 시작")

	err := e.Start(address)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(constants.ComponentService).Info("HTTP 서버 종료됨")
		return
	}

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"address": address,
		"error":   err,
	}).Error("HTTP 서버 실행 중 치명적인 오류가 발생했습니다")
}

// waitForShutdown 종료 신호 또는 HTTP 서버의 예기치 않은 종료를 기다린 뒤 상태를 정리합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(constants.ComponentService).Info("작업 API 서비스 중지중...")

	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 서버가 먼저 끝났으므로 Shutdown을 호출하지 않습니다.
		applog.WithComponent(constants.ComponentService).Error("HTTP 서버가 예기치 않게 종료되었습니다")
		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": err,
		}).Error("HTTP 서버 Graceful Shutdown 실패")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info("작업 API 서비스 중지됨")
}
