// Package clock 시간 의존 로직을 테스트에서 결정적으로 구동할 수 있도록 시계를 추상화합니다.
package clock

import "time"

// Clock 현재 시각과 지연 실행 타이머를 제공합니다.
type Clock interface {
	Now() time.Time

	// AfterFunc d 이후 별도의 고루틴에서 f를 호출합니다.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer AfterFunc로 예약된 호출입니다.
type Timer interface {
	// Stop 아직 실행되지 않은 호출을 취소합니다. 취소에 성공하면 true를 반환합니다.
	Stop() bool
}

type realClock struct{}

// Real 실제 시스템 시계를 반환합니다.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
