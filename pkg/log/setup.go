package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultDir        = "logs"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 20
)

var (
	setupOnce      sync.Once
	globalCloser   io.Closer
	globalSetupErr error
)

// Setup 전역 로거를 초기화합니다. 프로세스당 최초 1회만 적용되며 이후 호출은 첫 결과를 그대로 반환합니다.
//
// logrus 기본 출력은 버리고, 실제 기록은 레벨별로 분배하는 hook이 lumberjack 파일들에 수행합니다.
// 반환된 io.Closer는 애플리케이션 종료 시 반드시 닫아야 합니다.
func Setup(opts Options) (io.Closer, error) {
	setupOnce.Do(func() {
		globalCloser, globalSetupErr = setup(opts)
	})

	return globalCloser, globalSetupErr
}

func setup(opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("유효하지 않은 로그 설정: %w", err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetReportCaller(opts.ReportCaller)
	logrus.SetFormatter(&silentFormatter{})
	logrus.SetOutput(io.Discard)

	newFile := func(suffix string) *lumberjack.Logger {
		name := opts.Name + suffix + ".log"
		return &lumberjack.Logger{
			Filename:   filepath.Join(dir, name),
			MaxSize:    orDefault(opts.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, defaultMaxBackups),
			MaxAge:     opts.MaxAge,
			LocalTime:  true,
		}
	}

	h := &hook{formatter: newTextFormatter(opts.CallerPathPrefix)}
	c := &closer{hook: h}

	mainFile := newFile("")
	h.mainWriter = mainFile
	c.closers = append(c.closers, mainFile)

	if opts.EnableCriticalLog {
		f := newFile(".critical")
		h.criticalWriter = f
		c.closers = append(c.closers, f)
	}
	if opts.EnableVerboseLog {
		f := newFile(".verbose")
		h.verboseWriter = f
		c.closers = append(c.closers, f)
	}
	if opts.EnableConsoleLog {
		h.consoleWriter = os.Stdout
	}

	logrus.AddHook(h)
	logrus.RegisterExitHandler(func() { _ = c.Close() })

	return c, nil
}

func newTextFormatter(callerPathPrefix string) *TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			function = frame.Function + "(line:" + strconv.Itoa(frame.Line) + ")"
			if callerPathPrefix != "" {
				if cut, found := strings.CutPrefix(function, callerPathPrefix); found {
					function = "..." + cut
				}
			}
			return
		},
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// silentFormatter logrus 기본 출력 경로의 포맷팅 비용을 없애기 위해 아무것도 만들지 않습니다.
type silentFormatter struct{}

func (silentFormatter) Format(*Entry) ([]byte, error) {
	return nil, nil
}

// closer hook과 파일들을 한 번만 닫습니다.
type closer struct {
	closers []io.Closer
	hook    *hook
	closed  atomic.Bool
}

func (c *closer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if c.hook != nil {
		c.hook.Close()
	}

	var errs error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}
