// Package registry 작업별 폴링 상태와 구독자를 관리하는 작업 레지스트리를 제공합니다.
//
// 레지스트리는 하나의 이벤트 루프 고루틴이 작업 ID → 엔트리 테이블을 독점적으로 소유합니다.
// 구독, 구독 해제, 취소, 타이머 만료, 상태 조회 응답은 모두 이벤트로 큐에 쌓여 루프에서 하나씩 처리되므로
// 엔트리에 대한 경쟁 상태가 없습니다. 백엔드 호출만 별도 고루틴에서 수행되고 그 결과 역시 이벤트로 되돌아옵니다.
//
// 보장 사항:
//   - 같은 작업 ID에 대해 동시에 진행 중인 상태 조회는 최대 하나입니다 (single-flight).
//   - 구독자는 완료 정도가 줄어드는 스냅샷을 관찰하지 않습니다.
//   - 종료 스냅샷이 관찰된 작업에 대해서는 더 이상 상태 조회를 하지 않습니다.
//   - 구독 콜백의 패닉은 다른 구독자나 다른 작업의 관찰에 영향을 주지 않습니다.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darkkaiser/review-console/internal/pkg/clock"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/internal/service/task/poller"
	"github.com/darkkaiser/review-console/pkg/concurrency"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

const component = "task.registry"

const (
	// DefaultCacheTTL 구독자가 모두 떠난 진행 중 작업의 마지막 스냅샷을 보관하는 시간입니다.
	DefaultCacheTTL = 30 * time.Second

	// DefaultTerminalRetention 종료된 작업의 스냅샷을 보관하는 시간입니다. 이 동안 늦게 들어온 구독자는 네트워크 호출 없이 종료 상태를 받습니다.
	DefaultTerminalRetention = 10 * time.Minute

	DefaultCallTimeout = 15 * time.Second

	shutdownTimeout = 30 * time.Second
)

// Subscriber 관찰을 전달받는 콜백입니다.
//
// 콜백은 이벤트 루프 고루틴에서 호출되므로 블로킹되면 안 됩니다. 콜백 안에서 Subscribe, Unsubscribe,
// RequestCancel을 호출하는 것은 안전하지만, 결과를 기다리는 호출(Flush, 취소 완료 대기 등)은 교착 상태를 일으킵니다.
type Subscriber func(contract.Observation)

// Subscription Subscribe가 반환하는 구독 핸들입니다.
type Subscription struct {
	ID     string
	TaskID contract.TaskID
}

// Stats 레지스트리의 현재 상태 요약입니다.
type Stats struct {
	Entries     int `json:"entries"`
	Watching    int `json:"watching"`
	InFlight    int `json:"in_flight"`
	Subscribers int `json:"subscribers"`
}

type Option func(*Registry)

func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

func WithCacheTTL(d time.Duration) Option {
	return func(r *Registry) { r.cacheTTL = d }
}

func WithTerminalRetention(d time.Duration) Option {
	return func(r *Registry) { r.terminalRetention = d }
}

// WithCallTimeout 상태 조회와 원격 취소 호출 하나에 허용하는 최대 시간입니다.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Registry) { r.callTimeout = d }
}

type subscriber struct {
	id string
	fn Subscriber
}

// entry 작업 하나의 레지스트리 상태입니다. 이벤트 루프에서만 접근합니다.
type entry struct {
	handle contract.TaskHandle

	latest    contract.Observation
	hasLatest bool

	subscribers []subscriber
	waiters     []chan contract.Observation

	watch *poller.Watch
	gen   uint64

	inflight bool
	pollSeq  uint64

	tickTimer  clock.Timer
	graceTimer clock.Timer

	evictTimer   clock.Timer
	evictSeq     uint64
	evictPending bool
}

func (e *entry) holders() int {
	return len(e.subscribers) + len(e.waiters)
}

func (e *entry) watching() bool {
	return e.watch != nil && e.watch.Active()
}

func (e *entry) fields() applog.Fields {
	return applog.Fields{
		"task_id": e.handle.ID,
		"kind":    e.handle.Kind.String(),
	}
}

// Registry 작업 레지스트리입니다. New로 만든 뒤 Start로 이벤트 루프를 시작하며,
// Start에 전달한 컨텍스트가 취소되면 모든 관찰을 중단하고 종료합니다.
type Registry struct {
	gateway contract.Gateway
	policy  poller.Policy
	clock   clock.Clock

	cacheTTL          time.Duration
	terminalRetention time.Duration
	callTimeout       time.Duration

	events *concurrency.Queue[event]

	// 이벤트 루프 전용
	entries map[contract.TaskID]*entry
	seq     uint64

	publishedMu sync.RWMutex
	published   map[contract.TaskID]contract.Observation
	stats       Stats

	callsCtx    context.Context
	cancelCalls context.CancelFunc
	calls       sync.WaitGroup

	running   bool
	runningMu sync.Mutex
}

func New(gateway contract.Gateway, policy poller.Policy, opts ...Option) *Registry {
	if gateway == nil {
		panic("Gateway는 필수입니다")
	}

	callsCtx, cancelCalls := context.WithCancel(context.Background())

	r := &Registry{
		gateway: gateway,
		policy:  policy,
		clock:   clock.Real(),

		cacheTTL:          DefaultCacheTTL,
		terminalRetention: DefaultTerminalRetention,
		callTimeout:       DefaultCallTimeout,

		events: concurrency.NewQueue[event](),

		entries:   make(map[contract.TaskID]*entry),
		published: make(map[contract.TaskID]contract.Observation),

		callsCtx:    callsCtx,
		cancelCalls: cancelCalls,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start 이벤트 루프를 시작합니다. 호출자는 호출 전에 serviceStopWG.Add(1)을 해야 하며,
// 이벤트 루프가 종료되거나 시작에 실패하면 Done이 호출됩니다.
func (r *Registry) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()

	if err := r.policy.Validate(); err != nil {
		serviceStopWG.Done()
		return err
	}

	if r.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("작업 레지스트리가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	r.running = true

	go r.runEventLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"interval":               r.policy.Interval.String(),
		"max_interval":           r.policy.MaxInterval.String(),
		"max_transient_failures": r.policy.MaxTransientFailures,
		"cancel_grace":           r.policy.CancelGrace.String(),
	}).Info("작업 레지스트리 시작 완료")

	return nil
}

// Subscribe 작업의 관찰을 구독합니다. 블로킹되지 않습니다.
//
// 해당 작업을 관찰 중이 아니면 즉시 첫 상태 조회를 시작하고, 이미 관찰 중이거나 캐시가 남아 있으면
// 마지막으로 알려진 관찰을 곧바로 전달합니다. 종료된 작업은 네트워크 호출 없이 종료 관찰만 전달합니다.
func (r *Registry) Subscribe(handle contract.TaskHandle, fn Subscriber) (Subscription, error) {
	if fn == nil {
		return Subscription{}, ErrNilSubscriber
	}
	if err := handle.Validate(); err != nil {
		return Subscription{}, err
	}

	sub := Subscription{ID: uuid.NewString(), TaskID: handle.ID}
	if !r.events.Push(subscribeEvent{sub: sub, handle: handle, fn: fn}) {
		return Subscription{}, ErrNotRunning
	}

	return sub, nil
}

// Unsubscribe 구독을 해제합니다. 여러 번 호출해도 안전합니다.
// 마지막 구독자가 떠나면 폴링을 중단하고 스냅샷은 보관 기간 동안만 캐시에 남깁니다.
func (r *Registry) Unsubscribe(sub Subscription) {
	r.events.Push(unsubscribeEvent{sub: sub})
}

// RequestCancel 작업의 취소를 요청하고, 종료 관찰이 전달될 채널을 반환합니다.
// 채널은 종료 관찰 하나를 전달한 뒤 닫히며, 레지스트리가 먼저 종료되면 값 없이 닫힙니다.
func (r *Registry) RequestCancel(handle contract.TaskHandle) (<-chan contract.Observation, error) {
	if err := handle.Validate(); err != nil {
		return nil, err
	}

	reply := make(chan contract.Observation, 1)
	if !r.events.Push(cancelEvent{handle: handle, reply: reply}) {
		return nil, ErrNotRunning
	}

	return reply, nil
}

// Evict 아무도 관찰하지 않는 작업의 캐시를 즉시 제거합니다. 구독자가 있으면 무시됩니다.
func (r *Registry) Evict(id contract.TaskID) {
	r.events.Push(evictEvent{id: id})
}

// Latest 작업의 마지막 관찰을 반환합니다. 블로킹되지 않으며 콜백 안에서도 호출할 수 있습니다.
func (r *Registry) Latest(id contract.TaskID) (contract.Observation, bool) {
	r.publishedMu.RLock()
	defer r.publishedMu.RUnlock()

	obs, ok := r.published[id]
	return obs, ok
}

func (r *Registry) Stats() Stats {
	r.publishedMu.RLock()
	defer r.publishedMu.RUnlock()

	return r.stats
}

// Flush 지금까지 요청된 모든 이벤트가 처리될 때까지 기다립니다. 구독 콜백 안에서 호출하면 안 됩니다.
func (r *Registry) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !r.events.Push(barrierEvent{done: done}) {
		return ErrNotRunning
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) runEventLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		select {
		case <-serviceStopCtx.Done():
			r.handleStop()
			return

		case <-r.events.Ready():
			for _, ev := range r.events.Drain() {
				r.dispatch(ev)
			}
			r.publishStats()
		}
	}
}

// dispatch 이벤트 하나를 처리합니다. 처리 중 패닉이 발생해도 이벤트 루프는 계속 동작합니다.
func (r *Registry) dispatch(ev event) {
	defer func() {
		if rec := recover(); rec != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"panic":   rec,
				"event":   fmt.Sprintf("%T", ev),
				"entries": len(r.entries),
			}).Error("이벤트 처리 중 패닉이 발생하여 복구했습니다")
		}
	}()

	switch ev := ev.(type) {
	case subscribeEvent:
		r.handleSubscribe(ev)
	case unsubscribeEvent:
		r.handleUnsubscribe(ev)
	case cancelEvent:
		r.handleCancel(ev)
	case evictEvent:
		r.handleEvict(ev)
	case tickEvent:
		r.handleTick(ev)
	case graceEvent:
		r.handleGrace(ev)
	case pollDoneEvent:
		r.handlePollDone(ev)
	case barrierEvent:
		r.publishStats()
		close(ev.done)
	}
}

func (r *Registry) handleSubscribe(ev subscribeEvent) {
	e := r.entryFor(ev.handle)
	r.stopEviction(e)

	sub := subscriber{id: ev.sub.ID, fn: ev.fn}
	e.subscribers = append(e.subscribers, sub)

	applog.WithComponentAndFields(component, e.fields()).WithFields(applog.Fields{
		"subscription_id": ev.sub.ID,
		"subscribers":     len(e.subscribers),
		"watching":        e.watching(),
	}).Debug("구독 추가")

	if e.hasLatest {
		r.notify(e, sub, e.latest)
	}

	r.ensureWatch(e)
}

func (r *Registry) handleUnsubscribe(ev unsubscribeEvent) {
	e, ok := r.entries[ev.sub.TaskID]
	if !ok {
		return
	}

	idx := slices.IndexFunc(e.subscribers, func(s subscriber) bool { return s.id == ev.sub.ID })
	if idx < 0 {
		return
	}
	e.subscribers = slices.Delete(e.subscribers, idx, idx+1)

	applog.WithComponentAndFields(component, e.fields()).WithFields(applog.Fields{
		"subscription_id": ev.sub.ID,
		"subscribers":     len(e.subscribers),
	}).Debug("구독 해제")

	if e.holders() == 0 {
		r.release(e)
	}
}

func (r *Registry) handleCancel(ev cancelEvent) {
	e := r.entryFor(ev.handle)

	if e.hasLatest && e.latest.IsTerminal() {
		ev.reply <- e.latest
		close(ev.reply)
		if e.holders() == 0 {
			r.release(e)
		}
		return
	}

	r.stopEviction(e)
	e.waiters = append(e.waiters, ev.reply)

	applog.WithComponentAndFields(component, e.fields()).WithField("waiters", len(e.waiters)).Info("작업 취소 요청 수신")

	r.ensureWatch(e)
	r.apply(e, e.watch.Cancel(r.clock.Now()))
}

func (r *Registry) handleEvict(ev evictEvent) {
	e, ok := r.entries[ev.id]
	if !ok {
		return
	}
	if ev.seq != 0 && ev.seq != e.evictSeq {
		return
	}
	if e.holders() > 0 {
		return
	}
	if e.inflight {
		e.evictPending = true
		return
	}

	r.remove(e)
}

func (r *Registry) handleTick(ev tickEvent) {
	e, ok := r.entries[ev.id]
	if !ok || e.gen != ev.gen || e.watch == nil {
		return
	}

	r.apply(e, e.watch.Tick(ev.timerID))
}

func (r *Registry) handleGrace(ev graceEvent) {
	e, ok := r.entries[ev.id]
	if !ok || e.gen != ev.gen || e.watch == nil {
		return
	}

	r.apply(e, e.watch.GraceExpired(r.clock.Now(), ev.timerID))
}

func (r *Registry) handlePollDone(ev pollDoneEvent) {
	e, ok := r.entries[ev.id]
	if !ok || !e.inflight || e.pollSeq != ev.seq {
		applog.WithComponentAndFields(component, applog.Fields{
			"task_id": ev.id,
			"seq":     ev.seq,
		}).Debug("대체된 상태 조회 응답을 버립니다")
		return
	}
	e.inflight = false

	now := r.clock.Now()
	watching := e.watching()

	switch {
	case ev.err == nil:
		s := ev.snapshot
		s.ObservedAt = now
		s = s.Normalize()

		if e.hasLatest && !s.Supersedes(e.latest.Snapshot) {
			applog.WithComponentAndFields(component, e.fields()).WithFields(applog.Fields{
				"status":          s.Status.String(),
				"progress":        s.Progress,
				"latest_status":   e.latest.Snapshot.Status.String(),
				"latest_progress": e.latest.Snapshot.Progress,
			}).Debug("현재보다 오래된 스냅샷을 버립니다")

			if watching {
				r.apply(e, e.watch.Stale())
			}
			break
		}

		if watching {
			r.apply(e, e.watch.Snapshot(s))
		} else {
			r.store(e, contract.Observation{Handle: e.handle, Kind: contract.ObservedSnapshot, Snapshot: s})
		}

	case contract.IsTaskNotFound(ev.err):
		applog.WithComponentAndFields(component, e.fields()).WithField("error", ev.err).Warn("백엔드에 작업이 존재하지 않습니다")

		if watching {
			r.apply(e, e.watch.NotFound(now, ev.err))
		}

	default:
		fields := e.fields()
		fields["error"] = ev.err
		if watching {
			fields["failures"] = e.watch.Failures() + 1
		}
		applog.WithComponentAndFields(component, fields).Warn("작업 상태 조회 실패 (일시적 오류로 간주하여 재시도합니다)")

		if watching {
			r.apply(e, e.watch.TransientFailure(now, ev.err))
		}
	}

	if e.evictPending && !e.inflight && e.holders() == 0 {
		r.remove(e)
	}
}

func (r *Registry) entryFor(handle contract.TaskHandle) *entry {
	if e, ok := r.entries[handle.ID]; ok {
		return e
	}

	e := &entry{handle: handle}
	r.entries[handle.ID] = e
	return e
}

// ensureWatch 관찰 중이 아니면 새 Watch를 시작합니다. 종료된 작업은 다시 관찰하지 않습니다.
func (r *Registry) ensureWatch(e *entry) {
	if e.watching() {
		return
	}
	if e.hasLatest && e.latest.IsTerminal() {
		return
	}

	e.gen++

	var last *contract.Snapshot
	if e.hasLatest {
		s := e.latest.Snapshot
		last = &s
	}
	e.watch = poller.NewWatch(e.handle, r.policy, last)

	var effects []poller.Effect
	if e.hasLatest && e.latest.Kind == contract.ObservedSnapshot {
		if age := r.clock.Now().Sub(e.latest.Snapshot.ObservedAt); age < r.policy.Interval {
			effects = e.watch.Resume(r.policy.Interval - age)
		}
	}
	if effects == nil {
		effects = e.watch.Start()
	}

	r.apply(e, effects)
}

// release 붙잡고 있는 구독자와 취소 대기자가 모두 사라진 엔트리의 관찰을 멈추고 보관 타이머를 겁니다.
func (r *Registry) release(e *entry) {
	if e.watch != nil {
		e.watch.Halt()
	}
	r.stopTimers(e)

	ttl := r.cacheTTL
	if e.hasLatest && e.latest.IsTerminal() {
		ttl = r.terminalRetention
	}

	r.seq++
	e.evictSeq = r.seq
	id, seq := e.handle.ID, e.evictSeq
	e.evictTimer = r.clock.AfterFunc(ttl, func() {
		r.events.Push(evictEvent{id: id, seq: seq})
	})
}

func (r *Registry) remove(e *entry) {
	r.stopTimers(e)
	r.stopEviction(e)
	delete(r.entries, e.handle.ID)

	r.publishedMu.Lock()
	delete(r.published, e.handle.ID)
	r.publishedMu.Unlock()

	applog.WithComponentAndFields(component, e.fields()).Debug("작업 캐시 제거")
}

func (r *Registry) apply(e *entry, effects []poller.Effect) {
	for _, eff := range effects {
		switch eff.Kind {
		case poller.EffectFetch:
			if e.inflight {
				applog.WithComponentAndFields(component, e.fields()).Trace("이미 진행 중인 상태 조회가 있어 새 조회를 생략합니다")
				continue
			}
			r.fetch(e)

		case poller.EffectSchedule:
			r.armTick(e, eff.Delay, eff.TimerID)

		case poller.EffectDeliver:
			r.deliver(e, eff.Observation)

		case poller.EffectRemoteCancel:
			r.remoteCancel(e)

		case poller.EffectArmGrace:
			r.armGrace(e, eff.Delay, eff.TimerID)

		case poller.EffectStopped:
			r.stopTimers(e)
			if e.holders() == 0 {
				r.release(e)
			}
		}
	}
}

func (r *Registry) deliver(e *entry, obs contract.Observation) {
	r.store(e, obs)

	applog.WithComponentAndFields(component, e.fields()).WithFields(applog.Fields{
		"observation": obs.Kind.String(),
		"status":      obs.Snapshot.Status.String(),
		"progress":    obs.Snapshot.Progress,
		"subscribers": len(e.subscribers),
	}).Debug("관찰 전달")

	// 콜백 안에서 구독을 해제해도 이번 전달 대상은 바뀌지 않습니다.
	for _, sub := range slices.Clone(e.subscribers) {
		r.notify(e, sub, obs)
	}

	if obs.IsTerminal() {
		for _, w := range e.waiters {
			w <- obs
			close(w)
		}
		e.waiters = nil
	}
}

func (r *Registry) notify(e *entry, sub subscriber, obs contract.Observation) {
	defer func() {
		if rec := recover(); rec != nil {
			applog.WithComponentAndFields(component, e.fields()).WithFields(applog.Fields{
				"subscription_id": sub.id,
				"panic":           rec,
			}).Error("구독 콜백에서 패닉이 발생하여 복구했습니다")
		}
	}()

	sub.fn(obs)
}

func (r *Registry) store(e *entry, obs contract.Observation) {
	e.latest = obs
	e.hasLatest = true

	r.publishedMu.Lock()
	r.published[e.handle.ID] = obs
	r.publishedMu.Unlock()
}

func (r *Registry) fetch(e *entry) {
	r.seq++
	e.pollSeq = r.seq
	e.inflight = true

	handle, seq := e.handle, e.pollSeq

	r.calls.Add(1)
	go func() {
		defer r.calls.Done()

		s, err := r.fetchSnapshot(handle)
		r.events.Push(pollDoneEvent{id: handle.ID, seq: seq, snapshot: s, err: err})
	}()
}

func (r *Registry) fetchSnapshot(handle contract.TaskHandle) (s contract.Snapshot, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("상태 조회 중 패닉 발생: %v", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(r.callsCtx, r.callTimeout)
	defer cancel()

	return r.gateway.FetchSnapshot(ctx, handle)
}

// remoteCancel 원격 취소는 최선의 노력으로 한 번만 시도합니다. 결과는 이후의 상태 조회로 확인합니다.
func (r *Registry) remoteCancel(e *entry) {
	handle := e.handle
	fields := e.fields()

	r.calls.Add(1)
	go func() {
		defer r.calls.Done()
		defer func() {
			if rec := recover(); rec != nil {
				fields["panic"] = rec
				applog.WithComponentAndFields(component, fields).Error("원격 취소 요청 중 패닉이 발생하여 복구했습니다")
			}
		}()

		ctx, cancel := context.WithTimeout(r.callsCtx, r.callTimeout)
		defer cancel()

		if err := r.gateway.RequestCancel(ctx, handle); err != nil {
			fields["error"] = err
			applog.WithComponentAndFields(component, fields).Warn("원격 취소 요청 실패 (유예 시간 동안 상태 관찰을 계속합니다)")
			return
		}

		applog.WithComponentAndFields(component, fields).Info("원격 취소 요청 완료")
	}()
}

func (r *Registry) armTick(e *entry, delay time.Duration, timerID uint64) {
	if e.tickTimer != nil {
		e.tickTimer.Stop()
	}

	id, gen := e.handle.ID, e.gen
	e.tickTimer = r.clock.AfterFunc(delay, func() {
		r.events.Push(tickEvent{id: id, gen: gen, timerID: timerID})
	})
}

func (r *Registry) armGrace(e *entry, delay time.Duration, timerID uint64) {
	if e.graceTimer != nil {
		e.graceTimer.Stop()
	}

	id, gen := e.handle.ID, e.gen
	e.graceTimer = r.clock.AfterFunc(delay, func() {
		r.events.Push(graceEvent{id: id, gen: gen, timerID: timerID})
	})
}

func (r *Registry) stopTimers(e *entry) {
	if e.tickTimer != nil {
		e.tickTimer.Stop()
		e.tickTimer = nil
	}
	if e.graceTimer != nil {
		e.graceTimer.Stop()
		e.graceTimer = nil
	}
}

func (r *Registry) stopEviction(e *entry) {
	if e.evictTimer != nil {
		e.evictTimer.Stop()
		e.evictTimer = nil
	}
	e.evictSeq = 0
	e.evictPending = false
}

func (r *Registry) publishStats() {
	var s Stats
	for _, e := range r.entries {
		s.Entries++
		s.Subscribers += len(e.subscribers)
		if e.watching() {
			s.Watching++
		}
		if e.inflight {
			s.InFlight++
		}
	}

	r.publishedMu.Lock()
	r.stats = s
	r.publishedMu.Unlock()
}

func (r *Registry) handleStop() {
	applog.WithComponent(component).Info("종료 절차 진입: 작업 레지스트리 중지 시그널을 수신했습니다")

	r.runningMu.Lock()
	r.running = false
	r.runningMu.Unlock()

	for _, ev := range r.events.Close() {
		switch ev := ev.(type) {
		case cancelEvent:
			close(ev.reply)
		case barrierEvent:
			close(ev.done)
		}
	}

	for _, e := range r.entries {
		if e.watch != nil {
			e.watch.Halt()
		}
		r.stopTimers(e)
		r.stopEviction(e)
		for _, w := range e.waiters {
			close(w)
		}
		e.waiters = nil
	}
	r.entries = make(map[contract.TaskID]*entry)

	r.publishedMu.Lock()
	r.published = make(map[contract.TaskID]contract.Observation)
	r.stats = Stats{}
	r.publishedMu.Unlock()

	r.cancelCalls()

	done := make(chan struct{})
	go func() {
		r.calls.Wait()
		close(done)
	}()

	select {
	case <-done:
		applog.WithComponent(component).Info("종료 절차 완료: 작업 레지스트리가 정상적으로 중지되었습니다")
	case <-time.After(shutdownTimeout):
		applog.WithComponent(component).Warn("종료 절차 지연: 진행 중인 백엔드 호출이 제한 시간 내에 끝나지 않았습니다")
	}
}
