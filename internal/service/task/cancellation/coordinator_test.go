package cancellation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/darkkaiser/review-console/internal/pkg/clock/clocktest"
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/internal/service/contract/mocks"
	"github.com/darkkaiser/review-console/internal/service/task/poller"
	"github.com/darkkaiser/review-console/internal/service/task/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testStart  = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	testHandle = contract.NewTaskHandle(contract.KindReview, "review-7", testStart)
)

// fakeCanceller 미리 준비한 채널(또는 에러)을 돌려주는 Canceller입니다.
type fakeCanceller struct {
	reply chan contract.Observation
	err   error
	calls int
}

func (f *fakeCanceller) RequestCancel(contract.TaskHandle) (<-chan contract.Observation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func terminal(kind contract.ObservationKind, status contract.Status) contract.Observation {
	return contract.Observation{
		Handle:   testHandle,
		Kind:     kind,
		Snapshot: contract.Snapshot{Status: status, Progress: 100},
	}
}

// =============================================================================
// Outcome 분류
// =============================================================================

func TestCoordinator_Cancel_Outcome(t *testing.T) {
	tests := []struct {
		name          string
		obs           contract.Observation
		wantRaceLost  bool
		wantForced    bool
		wantCancelled bool
	}{
		{
			name:          "백엔드가 취소를 확인",
			obs:           terminal(contract.ObservedSnapshot, contract.StatusCancelled),
			wantCancelled: true,
		},
		{
			name:          "유예 시간 만료로 로컬 확정",
			obs:           terminal(contract.ObservedLocalTerminal, contract.StatusCancelled),
			wantForced:    true,
			wantCancelled: true,
		},
		{
			name:         "취소 전에 성공으로 종료",
			obs:          terminal(contract.ObservedSnapshot, contract.StatusSucceeded),
			wantRaceLost: true,
		},
		{
			name:         "취소 전에 실패로 종료",
			obs:          terminal(contract.ObservedSnapshot, contract.StatusFailed),
			wantRaceLost: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := make(chan contract.Observation, 1)
			reply <- tt.obs
			close(reply)

			c := New(&fakeCanceller{reply: reply})

			outcome, err := c.Cancel(context.Background(), testHandle)
			require.NoError(t, err)

			assert.Equal(t, tt.obs, outcome.Observation)
			assert.Equal(t, tt.wantRaceLost, outcome.RaceLost)
			assert.Equal(t, tt.wantForced, outcome.Forced)
			assert.Equal(t, tt.wantCancelled, outcome.Cancelled())
		})
	}
}

func TestCoordinator_Cancel_Errors(t *testing.T) {
	t.Run("요청 자체가 실패", func(t *testing.T) {
		c := New(&fakeCanceller{err: registry.ErrNotRunning})

		_, err := c.Cancel(context.Background(), testHandle)
		assert.ErrorIs(t, err, registry.ErrNotRunning)
	})

	t.Run("결과 없이 채널이 닫힘", func(t *testing.T) {
		reply := make(chan contract.Observation)
		close(reply)
		c := New(&fakeCanceller{reply: reply})

		_, err := c.Cancel(context.Background(), testHandle)
		assert.ErrorIs(t, err, ErrNotRunning)
	})

	t.Run("호출자가 대기를 포기", func(t *testing.T) {
		c := New(&fakeCanceller{reply: make(chan contract.Observation, 1)})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := c.Cancel(ctx, testHandle)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Timeout))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNew_NilCanceller_Panics(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

// =============================================================================
// 레지스트리와 함께 동작
// =============================================================================

func startRegistry(t *testing.T, gw contract.Gateway) (*registry.Registry, *clocktest.Fake) {
	t.Helper()

	clk := clocktest.NewFake(testStart)
	r := registry.New(gw, poller.Policy{
		Interval:             time.Second,
		MaxInterval:          30 * time.Second,
		MaxTransientFailures: 3,
		CancelGrace:          5 * time.Second,
	}, registry.WithClock(clk))

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, r.Start(ctx, wg))

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return r, clk
}

func settle(t *testing.T, r *registry.Registry) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.Flush(context.Background()) == nil && r.Stats().InFlight == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCoordinator_WithRegistry_GraceExpiry(t *testing.T) {
	gw := &mocks.MockGateway{}
	remoteCancelled := make(chan struct{})
	var once sync.Once

	gw.On("FetchSnapshot", mock.Anything, testHandle).Return(contract.Snapshot{Status: contract.StatusRunning, Progress: 30}, nil)
	gw.On("RequestCancel", mock.Anything, testHandle).Run(func(mock.Arguments) {
		once.Do(func() { close(remoteCancelled) })
	}).Return(nil)

	r, clk := startRegistry(t, gw)
	c := New(r)

	type result struct {
		outcome Outcome
		err     error
	}
	done := make(chan result, 2)
	for range 2 {
		go func() {
			outcome, err := c.Cancel(context.Background(), testHandle)
			done <- result{outcome, err}
		}()
	}

	select {
	case <-remoteCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("원격 취소 요청이 전송되지 않았습니다")
	}
	settle(t, r)

	clk.Advance(5 * time.Second)

	for range 2 {
		select {
		case res := <-done:
			require.NoError(t, res.err)
			assert.True(t, res.outcome.Forced)
			assert.False(t, res.outcome.RaceLost)
			assert.True(t, res.outcome.Cancelled())
		case <-time.After(2 * time.Second):
			t.Fatal("취소 결과를 받지 못했습니다")
		}
	}

	settle(t, r)
	gw.AssertNumberOfCalls(t, "RequestCancel", 1)
}

func TestCoordinator_WithRegistry_AlreadyTerminal(t *testing.T) {
	gw := &mocks.MockGateway{}
	gw.On("FetchSnapshot", mock.Anything, testHandle).Return(contract.Snapshot{Status: contract.StatusSucceeded, Progress: 100}, nil).Once()

	r, _ := startRegistry(t, gw)

	sub, err := r.Subscribe(testHandle, func(contract.Observation) {})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		obs, ok := r.Latest(testHandle.ID)
		return ok && obs.IsTerminal()
	}, 2*time.Second, 5*time.Millisecond)
	r.Unsubscribe(sub)

	outcome, err := New(r).Cancel(context.Background(), testHandle)
	require.NoError(t, err)
	assert.True(t, outcome.RaceLost)
	assert.False(t, outcome.Forced)
	assert.Equal(t, contract.StatusSucceeded, outcome.Observation.Snapshot.Status)

	gw.AssertNotCalled(t, "RequestCancel", mock.Anything, mock.Anything)
}

func TestCoordinator_WithRegistry_StoppedRegistry(t *testing.T) {
	gw := &mocks.MockGateway{}
	r := registry.New(gw, poller.DefaultPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, r.Start(ctx, wg))
	cancel()
	wg.Wait()

	_, err := New(r).Cancel(context.Background(), testHandle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrNotRunning))
}
