package poller

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/review-console/internal/service/contract"
)

// =============================================================================
// Helpers
// =============================================================================

var (
	testNow    = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	testHandle = contract.NewTaskHandle(contract.KindReview, "review-1", testNow)
	errNetwork = errors.New("connection refused")
)

func testPolicy() Policy {
	return Policy{
		Interval:             time.Second,
		MaxInterval:          30 * time.Second,
		MaxTransientFailures: 3,
		CancelGrace:          5 * time.Second,
	}
}

func snap(status contract.Status, progress int) contract.Snapshot {
	return contract.Snapshot{Status: status, Progress: progress, ObservedAt: testNow}.Normalize()
}

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, 0, len(effects))
	for _, e := range effects {
		out = append(out, e.Kind)
	}
	return out
}

func find(effects []Effect, kind EffectKind) (Effect, bool) {
	for _, e := range effects {
		if e.Kind == kind {
			return e, true
		}
	}
	return Effect{}, false
}

func startedWatch(t *testing.T) *Watch {
	t.Helper()
	w := NewWatch(testHandle, testPolicy(), nil)
	require.Equal(t, []EffectKind{EffectFetch}, kinds(w.Start()))
	return w
}

// =============================================================================
// Polling
// =============================================================================

func TestWatch_Start_FetchesImmediately(t *testing.T) {
	w := NewWatch(testHandle, testPolicy(), nil)
	assert.Equal(t, StateIdle, w.State())

	effects := w.Start()

	assert.Equal(t, []EffectKind{EffectFetch}, kinds(effects))
	assert.Equal(t, StatePolling, w.State())
	assert.Nil(t, w.Start(), "이미 시작된 Watch는 다시 시작되지 않아야 합니다")
}

func TestWatch_Resume_SchedulesRemainingFreshness(t *testing.T) {
	w := NewWatch(testHandle, testPolicy(), nil)

	effects := w.Resume(300 * time.Millisecond)

	require.Equal(t, []EffectKind{EffectSchedule}, kinds(effects))
	assert.Equal(t, 300*time.Millisecond, effects[0].Delay)
	assert.Equal(t, StatePolling, w.State())
}

func TestWatch_ReviewScenario(t *testing.T) {
	w := startedWatch(t)

	var delivered []contract.Snapshot
	feed := func(s contract.Snapshot) []Effect {
		effects := w.Snapshot(s)
		if d, ok := find(effects, EffectDeliver); ok {
			delivered = append(delivered, d.Observation.Snapshot)
		}
		return effects
	}

	e1 := feed(snap(contract.StatusPending, 0))
	assert.Equal(t, []EffectKind{EffectDeliver, EffectSchedule}, kinds(e1))
	assert.Equal(t, time.Second, e1[1].Delay)
	require.Equal(t, []EffectKind{EffectFetch}, kinds(w.Tick(e1[1].TimerID)))

	e2 := feed(snap(contract.StatusRunning, 40))
	require.Equal(t, []EffectKind{EffectFetch}, kinds(w.Tick(e2[1].TimerID)))

	e3 := feed(snap(contract.StatusSucceeded, 100))
	assert.Equal(t, []EffectKind{EffectDeliver, EffectStopped}, kinds(e3))
	assert.Equal(t, StateStopped, w.State())

	require.Len(t, delivered, 3, "구독자는 정확히 세 개의 스냅샷을 관찰해야 합니다")
	assert.Equal(t, contract.StatusPending, delivered[0].Status)
	assert.Equal(t, 40, delivered[1].Progress)
	assert.Equal(t, contract.StatusSucceeded, delivered[2].Status)

	assert.Nil(t, w.Tick(e2[1].TimerID), "종료 후 도착한 틱은 폴링을 되살리지 않아야 합니다")
	assert.Nil(t, w.Snapshot(snap(contract.StatusRunning, 50)), "종료 후 응답은 무시되어야 합니다")
}

func TestWatch_Tick_IgnoresStaleTimer(t *testing.T) {
	w := startedWatch(t)

	first := w.Snapshot(snap(contract.StatusRunning, 10))
	staleID := first[1].TimerID

	// 같은 틱을 기다리는 동안 다른 응답이 도착해 새 틱이 예약된 상황
	second := w.Stale()
	require.Equal(t, []EffectKind{EffectSchedule}, kinds(second))

	assert.Nil(t, w.Tick(staleID), "이전 틱은 무시되어야 합니다")
	assert.Equal(t, []EffectKind{EffectFetch}, kinds(w.Tick(second[0].TimerID)))
	assert.Nil(t, w.Tick(second[0].TimerID), "같은 틱은 한 번만 처리되어야 합니다")
}

// =============================================================================
// Transient failures
// =============================================================================

func TestWatch_TransientFailures_UnknownThenResume(t *testing.T) {
	w := startedWatch(t)
	w.Snapshot(snap(contract.StatusRunning, 20))

	var delays []time.Duration
	var unknowns []contract.Observation

	for i := 0; i < 3; i++ {
		effects := w.TransientFailure(testNow, errNetwork)
		if d, ok := find(effects, EffectDeliver); ok {
			unknowns = append(unknowns, d.Observation)
		}
		s, ok := find(effects, EffectSchedule)
		require.True(t, ok)
		delays = append(delays, s.Delay)
	}

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
	require.Len(t, unknowns, 1, "Unknown 관찰은 한 번만 발생해야 합니다")
	assert.Equal(t, contract.ObservedUnknown, unknowns[0].Kind)
	assert.Equal(t, 3, unknowns[0].ConsecutiveFailures)
	assert.Equal(t, 20, unknowns[0].Snapshot.Progress, "Unknown은 마지막으로 알려진 스냅샷을 담아야 합니다")
	assert.ErrorIs(t, unknowns[0].Err, errNetwork)
	assert.Equal(t, StatePolling, w.State(), "일시적 실패는 작업을 종료시키지 않아야 합니다")

	// 4번째 실패에서는 Unknown이 반복되지 않음
	fourth := w.TransientFailure(testNow, errNetwork)
	assert.Equal(t, []EffectKind{EffectSchedule}, kinds(fourth))
	assert.Equal(t, 8*time.Second, fourth[0].Delay)

	resumed := w.Snapshot(snap(contract.StatusRunning, 30))
	assert.Equal(t, []EffectKind{EffectDeliver, EffectSchedule}, kinds(resumed))
	assert.Equal(t, time.Second, resumed[1].Delay, "성공 후에는 정상 간격으로 돌아가야 합니다")
	assert.Zero(t, w.Failures())
}

func TestWatch_TransientFailures_BeforeAnySnapshot(t *testing.T) {
	w := startedWatch(t)

	var unknown contract.Observation
	for i := 0; i < 3; i++ {
		if d, ok := find(w.TransientFailure(testNow, errNetwork), EffectDeliver); ok {
			unknown = d.Observation
		}
	}

	assert.Equal(t, contract.ObservedUnknown, unknown.Kind)
	assert.Equal(t, contract.StatusPending, unknown.Snapshot.Status)
	assert.False(t, unknown.IsTerminal())
}

func TestWatch_NotFound_FailsLocally(t *testing.T) {
	w := startedWatch(t)

	effects := w.NotFound(testNow, errors.New("404"))

	assert.Equal(t, []EffectKind{EffectDeliver, EffectStopped}, kinds(effects))
	obs := effects[0].Observation
	assert.Equal(t, contract.ObservedLocalTerminal, obs.Kind)
	assert.Equal(t, contract.StatusFailed, obs.Snapshot.Status)
	assert.NotEmpty(t, obs.Snapshot.Error)
	assert.NotNil(t, obs.Snapshot.CompletedAt)
	assert.Equal(t, StateStopped, w.State())
}

// =============================================================================
// Cancellation
// =============================================================================

func TestWatch_Cancel_WhilePolling(t *testing.T) {
	w := startedWatch(t)
	polled := w.Snapshot(snap(contract.StatusRunning, 40))

	effects := w.Cancel(testNow)

	assert.Equal(t, []EffectKind{EffectRemoteCancel, EffectArmGrace}, kinds(effects))
	assert.Equal(t, 5*time.Second, effects[1].Delay)
	assert.Equal(t, StateDraining, w.State())

	assert.Nil(t, w.Cancel(testNow), "두 번째 취소는 원격 취소를 다시 요청하지 않아야 합니다")

	assert.Equal(t, []EffectKind{EffectFetch}, kinds(w.Tick(polled[1].TimerID)), "Draining 중에도 관찰은 계속되어야 합니다")

	final := w.Snapshot(snap(contract.StatusCancelled, 40))
	assert.Equal(t, []EffectKind{EffectDeliver, EffectStopped}, kinds(final))
	assert.Equal(t, contract.ObservedSnapshot, final[0].Observation.Kind)

	assert.Nil(t, w.GraceExpired(testNow, effects[1].TimerID), "종료 후 유예 만료는 무시되어야 합니다")
}

func TestWatch_Cancel_GraceExpires(t *testing.T) {
	w := startedWatch(t)
	w.Snapshot(snap(contract.StatusRunning, 40))
	grace, _ := find(w.Cancel(testNow), EffectArmGrace)

	w.Snapshot(snap(contract.StatusRunning, 45))

	effects := w.GraceExpired(testNow.Add(5*time.Second), grace.TimerID)

	require.Equal(t, []EffectKind{EffectDeliver, EffectStopped}, kinds(effects))
	obs := effects[0].Observation
	assert.Equal(t, contract.ObservedLocalTerminal, obs.Kind)
	assert.Equal(t, contract.StatusCancelled, obs.Snapshot.Status)
	assert.Equal(t, 45, obs.Snapshot.Progress)
	assert.NotNil(t, obs.Snapshot.CompletedAt)
}

func TestWatch_Cancel_RaceLost(t *testing.T) {
	w := startedWatch(t)
	w.Cancel(testNow)

	effects := w.Snapshot(snap(contract.StatusSucceeded, 100))

	require.Equal(t, []EffectKind{EffectDeliver, EffectStopped}, kinds(effects))
	assert.Equal(t, contract.StatusSucceeded, effects[0].Observation.Snapshot.Status, "백엔드의 실제 종료 상태가 우선해야 합니다")
}

func TestWatch_Cancel_BeforeAnyNetworkActivity(t *testing.T) {
	w := NewWatch(testHandle, testPolicy(), nil)

	effects := w.Cancel(testNow)

	assert.Equal(t, []EffectKind{EffectRemoteCancel, EffectDeliver, EffectStopped}, kinds(effects))
	assert.Equal(t, contract.StatusCancelled, effects[1].Observation.Snapshot.Status)
	assert.Equal(t, StateStopped, w.State())
	assert.Nil(t, w.Start(), "취소된 Watch는 다시 시작되지 않아야 합니다")
	assert.Nil(t, w.Tick(1))
}

func TestWatch_NotFound_WhileDraining(t *testing.T) {
	w := startedWatch(t)
	w.Cancel(testNow)

	effects := w.NotFound(testNow, errors.New("404"))

	require.Len(t, effects, 2)
	assert.Equal(t, contract.StatusCancelled, effects[0].Observation.Snapshot.Status)
}

func TestWatch_Halt(t *testing.T) {
	w := startedWatch(t)
	scheduled := w.Snapshot(snap(contract.StatusRunning, 10))

	w.Halt()

	assert.Equal(t, StateStopped, w.State())
	assert.Nil(t, w.Tick(scheduled[1].TimerID))
	assert.Nil(t, w.TransientFailure(testNow, errNetwork))
	assert.Nil(t, w.Cancel(testNow))
}
