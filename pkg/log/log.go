package log

import "github.com/sirupsen/logrus"

// StandardLogger 전역 logrus 로거를 반환합니다. cron, echo 등 외부 라이브러리의 로거 어댑터에 사용합니다.
func StandardLogger() *Logger {
	return logrus.StandardLogger()
}

// SetDebugMode 디버그 모드이면 TRACE, 아니면 INFO 레벨로 전환합니다.
func SetDebugMode(debug bool) {
	if debug {
		logrus.SetLevel(TraceLevel)
	} else {
		logrus.SetLevel(InfoLevel)
	}
}

func WithComponent(component string) *Entry {
	return logrus.WithField("component", component)
}

// WithComponentAndFields component 필드가 항상 포함된 Entry를 반환합니다.
// fields에 component 키가 있더라도 인자로 받은 component가 우선합니다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	merged := make(Fields, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["component"] = component

	return logrus.WithFields(merged)
}

// New 전역 로거와 독립된 새 로거를 생성합니다.
func New() *Logger {
	return logrus.New()
}
