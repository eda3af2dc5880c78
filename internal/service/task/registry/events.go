package registry

import (
	"github.com/darkkaiser/review-console/internal/service/contract"
)

// event 이벤트 루프가 처리하는 입력입니다. 모든 상태 변경은 이벤트 루프에서 하나씩 순서대로 처리됩니다.
type event interface {
	isEvent()
}

type subscribeEvent struct {
	sub    Subscription
	handle contract.TaskHandle
	fn     Subscriber
}

type unsubscribeEvent struct {
	sub Subscription
}

type cancelEvent struct {
	handle contract.TaskHandle
	reply  chan contract.Observation
}

type evictEvent struct {
	id contract.TaskID

	// seq 0이면 명시적 제거 요청, 아니면 보관 기간 만료 타이머입니다.
	seq uint64
}

type tickEvent struct {
	id      contract.TaskID
	gen     uint64
	timerID uint64
}

type graceEvent struct {
	id      contract.TaskID
	gen     uint64
	timerID uint64
}

type pollDoneEvent struct {
	id       contract.TaskID
	seq      uint64
	snapshot contract.Snapshot
	err      error
}

// barrierEvent 앞서 넣은 이벤트가 모두 처리되었음을 알립니다.
type barrierEvent struct {
	done chan struct{}
}

func (subscribeEvent) isEvent()   {}
func (unsubscribeEvent) isEvent() {}
func (cancelEvent) isEvent()      {}
func (evictEvent) isEvent()       {}
func (tickEvent) isEvent()        {}
func (graceEvent) isEvent()       {}
func (pollDoneEvent) isEvent()    {}
func (barrierEvent) isEvent()     {}
