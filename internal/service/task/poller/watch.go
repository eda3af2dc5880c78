// Package poller 작업 하나를 관찰하는 폴링 상태 머신을 제공합니다.
//
// Watch는 시계도 네트워크도 다루지 않습니다. 입력(시작, 틱, 응답, 실패, 취소, 유예 만료)을 받아
// 수행할 효과(Effect) 목록을 돌려줄 뿐이며, 실제 타이머 예약과 백엔드 호출은 registry가 수행합니다.
// 덕분에 합성한 스냅샷만으로 모든 전이를 테스트할 수 있습니다.
//
//	Idle ──Start──▶ Polling ──Cancel──▶ Draining
//	  │                │                   │
//	  └──Cancel──┐     └─종료 스냅샷──┐    └─종료 스냅샷 / 유예 만료──┐
//	             ▼                    ▼                               ▼
//	                              Stopped
package poller

import (
	"time"

	"github.com/darkkaiser/review-console/internal/service/contract"
)

type State int

const (
	StateIdle State = iota
	StatePolling
	StateDraining
	StateStopped
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StatePolling:  "polling",
	StateDraining: "draining",
	StateStopped:  "stopped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// EffectKind Watch가 요청하는 동작의 종류입니다.
type EffectKind int

const (
	// EffectFetch 지금 상태 조회를 한 번 수행합니다.
	EffectFetch EffectKind = iota

	// EffectSchedule Delay 후 TimerID 틱을 예약합니다. 이전에 예약된 틱은 무효가 됩니다.
	EffectSchedule

	// EffectDeliver Observation을 구독자에게 전달합니다.
	EffectDeliver

	// EffectRemoteCancel 백엔드에 취소를 요청합니다.
	EffectRemoteCancel

	// EffectArmGrace Delay 후 TimerID 유예 만료를 예약합니다.
	EffectArmGrace

	// EffectStopped Watch가 종료되었습니다. 예약된 타이머를 모두 정리해야 합니다.
	EffectStopped
)

var effectKindNames = [...]string{
	EffectFetch:        "fetch",
	EffectSchedule:     "schedule",
	EffectDeliver:      "deliver",
	EffectRemoteCancel: "remote_cancel",
	EffectArmGrace:     "arm_grace",
	EffectStopped:      "stopped",
}

func (k EffectKind) String() string {
	if k < 0 || int(k) >= len(effectKindNames) {
		return "invalid"
	}
	return effectKindNames[k]
}

type Effect struct {
	Kind        EffectKind
	Delay       time.Duration
	TimerID     uint64
	Observation contract.Observation
}

// Watch 작업 하나에 대한 폴링 상태 머신입니다. 동시 접근에 안전하지 않으며 registry의 이벤트 루프에서만 사용됩니다.
type Watch struct {
	handle contract.TaskHandle
	policy Policy

	state State

	last    contract.Snapshot
	hasLast bool

	failures int

	timerSeq   uint64
	armedTick  uint64
	armedGrace uint64
}

// NewWatch last는 캐시에 남아 있던 마지막 스냅샷이며, 없으면 nil입니다.
func NewWatch(handle contract.TaskHandle, policy Policy, last *contract.Snapshot) *Watch {
	w := &Watch{handle: handle, policy: policy, state: StateIdle}
	if last != nil {
		w.last = *last
		w.hasLast = true
	}
	return w
}

func (w *Watch) State() State { return w.state }

func (w *Watch) Handle() contract.TaskHandle { return w.handle }

// Failures 현재 연속된 일시적 실패 횟수입니다.
func (w *Watch) Failures() int { return w.failures }

// Active 폴링 또는 취소 대기 중이어서 계속 관찰이 필요한지 여부입니다.
func (w *Watch) Active() bool {
	return w.state == StatePolling || w.state == StateDraining
}

// Start Idle → Polling. 첫 상태 조회는 지연 없이 즉시 수행합니다.
func (w *Watch) Start() []Effect {
	if w.state != StateIdle {
		return nil
	}
	w.state = StatePolling
	return []Effect{{Kind: EffectFetch}}
}

// Resume Idle → Polling. 캐시된 스냅샷이 아직 신선할 때 즉시 조회하지 않고 delay 후 첫 틱을 예약합니다.
func (w *Watch) Resume(delay time.Duration) []Effect {
	if w.state != StateIdle {
		return nil
	}
	if delay <= 0 {
		return w.Start()
	}
	w.state = StatePolling
	return []Effect{w.schedule(delay)}
}

// Tick 예약해 둔 틱이 도착했습니다. 가장 최근에 예약한 틱이 아니거나 이미 종료된 경우 무시합니다.
func (w *Watch) Tick(timerID uint64) []Effect {
	if !w.Active() || timerID == 0 || timerID != w.armedTick {
		return nil
	}
	w.armedTick = 0
	return []Effect{{Kind: EffectFetch}}
}

// Snapshot 백엔드 응답을 반영합니다. s는 정규화된 스냅샷이어야 합니다.
func (w *Watch) Snapshot(s contract.Snapshot) []Effect {
	if !w.Active() {
		return nil
	}

	w.failures = 0
	w.last = s
	w.hasLast = true

	effects := []Effect{w.deliver(contract.ObservedSnapshot, s, nil)}
	if s.IsTerminal() {
		return append(effects, w.stop())
	}
	return append(effects, w.schedule(w.policy.Interval))
}

// Stale 현재 스냅샷보다 오래된 응답이어서 버려졌습니다. 연락은 되었으므로 실패 횟수를 초기화하고 정상 간격으로 다시 조회합니다.
func (w *Watch) Stale() []Effect {
	if !w.Active() {
		return nil
	}
	w.failures = 0
	return []Effect{w.schedule(w.policy.Interval)}
}

// TransientFailure 네트워크 오류 등 일시적 실패입니다. 작업 상태는 바꾸지 않고 백오프 후 재시도합니다.
// 연속 실패가 MaxTransientFailures에 도달한 순간에만 Unknown 관찰을 한 번 내보냅니다.
func (w *Watch) TransientFailure(now time.Time, err error) []Effect {
	if !w.Active() {
		return nil
	}

	w.failures++

	var effects []Effect
	if w.failures == w.policy.MaxTransientFailures {
		s := w.last
		if !w.hasLast {
			s = contract.Snapshot{Status: contract.StatusPending, ObservedAt: now}
		}
		effects = append(effects, w.deliver(contract.ObservedUnknown, s, err))
	}

	return append(effects, w.schedule(w.policy.Backoff(w.failures)))
}

// NotFound 백엔드에 작업 기록이 없습니다. 재시도하지 않고 로컬에서 종료합니다.
//
// 취소 대기 중이었다면 취소 요청으로 작업이 정리된 것이므로 Cancelled, 그 외에는 Failed로 종료합니다.
func (w *Watch) NotFound(now time.Time, err error) []Effect {
	if !w.Active() {
		return nil
	}

	s := contract.Snapshot{
		Progress:   w.last.Progress,
		ObservedAt: now,
	}
	if w.state == StateDraining {
		s.Status = contract.StatusCancelled
		s.Message = "취소 요청 후 백엔드에서 작업이 정리되었습니다"
	} else {
		s.Status = contract.StatusFailed
		s.Message = "백엔드에서 작업을 찾을 수 없습니다"
		if err != nil {
			s.Error = err.Error()
		} else {
			s.Error = s.Message
		}
	}

	return w.finishLocally(s.Normalize(), err)
}

// Cancel 취소 요청입니다. 여러 번 호출해도 원격 취소는 한 번만 요청됩니다.
//
//   - Idle: 아직 조회 전이므로 즉시 로컬 Cancelled로 종료하고 원격 취소만 요청합니다.
//   - Polling: Draining으로 전환하고 원격 취소와 유예 만료를 예약합니다. 예약된 틱은 유지되어 계속 관찰합니다.
//   - Draining, Stopped: 아무 일도 하지 않습니다.
func (w *Watch) Cancel(now time.Time) []Effect {
	switch w.state {
	case StateIdle:
		effects := []Effect{{Kind: EffectRemoteCancel}}
		return append(effects, w.finishLocally(w.cancelledSnapshot(now, "관찰 시작 전에 취소되었습니다"), nil)...)

	case StatePolling:
		w.state = StateDraining
		w.timerSeq++
		w.armedGrace = w.timerSeq
		return []Effect{
			{Kind: EffectRemoteCancel},
			{Kind: EffectArmGrace, Delay: w.policy.CancelGrace, TimerID: w.armedGrace},
		}

	default:
		return nil
	}
}

// GraceExpired 취소 유예 시간이 지났는데도 백엔드가 종료를 확인하지 않았으면 로컬 Cancelled로 종료합니다.
func (w *Watch) GraceExpired(now time.Time, timerID uint64) []Effect {
	if w.state != StateDraining || timerID == 0 || timerID != w.armedGrace {
		return nil
	}
	return w.finishLocally(w.cancelledSnapshot(now, "취소 확인 대기 시간이 지나 로컬에서 취소 처리했습니다"), nil)
}

// Halt 구독자가 모두 떠났습니다. 아무것도 전달하지 않고 종료합니다.
func (w *Watch) Halt() {
	w.state = StateStopped
	w.armedTick = 0
	w.armedGrace = 0
}

func (w *Watch) cancelledSnapshot(now time.Time, message string) contract.Snapshot {
	return contract.Snapshot{
		Status:     contract.StatusCancelled,
		Progress:   w.last.Progress,
		Message:    message,
		StartedAt:  w.last.StartedAt,
		ObservedAt: now,
	}.Normalize()
}

func (w *Watch) finishLocally(s contract.Snapshot, cause error) []Effect {
	w.last = s
	w.hasLast = true
	return []Effect{w.deliver(contract.ObservedLocalTerminal, s, cause), w.stop()}
}

func (w *Watch) schedule(delay time.Duration) Effect {
	w.timerSeq++
	w.armedTick = w.timerSeq
	return Effect{Kind: EffectSchedule, Delay: delay, TimerID: w.armedTick}
}

func (w *Watch) stop() Effect {
	w.Halt()
	return Effect{Kind: EffectStopped}
}

func (w *Watch) deliver(kind contract.ObservationKind, s contract.Snapshot, err error) Effect {
	return Effect{
		Kind: EffectDeliver,
		Observation: contract.Observation{
			Handle:              w.handle,
			Kind:                kind,
			Snapshot:            s,
			ConsecutiveFailures: w.failures,
			Err:                 err,
		},
	}
}
