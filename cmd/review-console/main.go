package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/review-console/internal/config"
	"github.com/darkkaiser/review-console/internal/pkg/version"
	"github.com/darkkaiser/review-console/internal/service/api"
	"github.com/darkkaiser/review-console/internal/service/notification"
	"github.com/darkkaiser/review-console/internal/service/notification/telegram"
	"github.com/darkkaiser/review-console/internal/service/scheduler"
	"github.com/darkkaiser/review-console/internal/service/task"
	"github.com/darkkaiser/review-console/internal/service/task/gateway"
	"github.com/darkkaiser/review-console/internal/service/task/poller"
	"github.com/darkkaiser/review-console/internal/service/task/registry"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

const banner = `
  ____            _                  ____                      _
 |  _ \ _____   _(_) _____      __  / ___|___  _ __  ___  ___ | | ___
 | |_) / _ \ \ / / |/ _ \ \ /\ / / | |   / _ \| '_ \/ __|/ _ \| |/ _ \
 |  _ <  __/\ V /| |  __/\ V  V /  | |__| (_) | | | \__ \ (_) | |  __/
 |_| \_\___| \_/ |_|\___| \_/\_/    \____\___/|_| |_|___/\___/|_|\___|
                                                               %s
--------------------------------------------------------------------------------
`

// service main이 시작하고 종료를 기다리는 장기 실행 서비스입니다.
// Start는 즉시 반환하며, 종료가 끝나면 serviceStopWG.Done()을 호출합니다.
type service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}

func main() {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithFile(configFilename(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	appLogCloser, err := applog.Setup(logOptions(appConfig.Debug))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 콘솔 구동을 중단합니다. (Cause: %v)\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	applog.SetDebugMode(appConfig.Debug)

	buildInfo := version.Get()
	fmt.Printf(banner, buildInfo.Version)

	l := applog.WithComponent("main")
	l.WithFields(buildInfo.Fields()).Info("콘솔 초기화 시작")

	for _, warning := range appConfig.VerifyRecommendations() {
		l.Warn(warning)
	}

	services, err := newServices(appConfig, buildInfo)
	if err != nil {
		l.WithError(err).Error("서비스 생성 실패")
		appLogCloser.Close()
		os.Exit(1)
	}

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			l.WithError(err).Error("서비스 초기화 실패")

			cancel()
			serviceStopWG.Wait()

			appLogCloser.Close()
			os.Exit(1)
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	l.Info("콘솔 가동 완료")

	<-termC

	l.Info("종료 신호 수신")
	cancel()
	serviceStopWG.Wait()
}

// configFilename 첫 번째 실행 인자가 있으면 설정 파일 경로로 사용합니다.
func configFilename(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return config.DefaultFilename
}

func logOptions(debug bool) applog.Options {
	if debug {
		return applog.NewDevelopmentOptions(config.AppName)
	}
	return applog.NewProductionOptions(config.AppName)
}

// newServices 서비스 객체를 만들고 서로 연결합니다. 반환 순서가 곧 시작 순서입니다.
//
// 작업 서비스가 먼저 시작되어야 스케줄러와 API가 작업을 제출할 수 있고,
// 알림 서비스는 작업 서비스의 종료 관찰을 받아 텔레그램으로 전달합니다.
func newServices(appConfig *config.AppConfig, buildInfo version.Info) ([]service, error) {
	gw, err := gateway.New(appConfig.Backend)
	if err != nil {
		return nil, err
	}

	notificationService, err := newNotificationService(appConfig)
	if err != nil {
		return nil, err
	}

	polling := appConfig.Polling
	taskService := task.NewService(gw, poller.Policy{
		Interval:             polling.Interval,
		MaxInterval:          polling.MaxInterval,
		MaxTransientFailures: polling.MaxTransientFailures,
		CancelGrace:          polling.CancelGrace,
	},
		task.WithRegistryOptions(
			registry.WithCacheTTL(polling.CacheTTL),
			registry.WithTerminalRetention(polling.TerminalRetention),
			registry.WithCallTimeout(appConfig.Backend.RequestTimeout),
		),
		task.WithTerminalHandler(notificationService.Notify),
	)

	syncScheduler := scheduler.NewService(appConfig.Scheduler, taskService)
	apiService := api.NewService(appConfig, taskService, notificationService, buildInfo)

	return []service{taskService, notificationService, syncScheduler, apiService}, nil
}

// newNotificationService 텔레그램이 비활성화되어 있으면 아무것도 보내지 않는 알림 서비스를 반환합니다.
func newNotificationService(appConfig *config.AppConfig) (*notification.Service, error) {
	telegramConfig := appConfig.Notifier.Telegram
	if !telegramConfig.Enabled {
		return notification.NewService(telegramConfig, nil), nil
	}

	sender, err := telegram.New(telegramConfig, appConfig.Debug)
	if err != nil {
		return nil, err
	}

	return notification.NewService(telegramConfig, sender), nil
}
