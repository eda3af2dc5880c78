// Package cancellation 작업 취소 요청과 백엔드의 최종 상태를 맞추는 취소 조정자를 제공합니다.
package cancellation

import (
	"context"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

const component = "task.cancellation"

// ErrNotRunning 취소 결과를 받기 전에 레지스트리가 종료되었습니다.
var ErrNotRunning = apperrors.New(apperrors.Unavailable, "작업 레지스트리가 종료되어 취소 결과를 확인할 수 없습니다")

// Canceller 취소를 요청하고 종료 관찰을 전달받을 채널을 돌려주는 대상입니다. *registry.Registry가 이를 만족합니다.
type Canceller interface {
	RequestCancel(handle contract.TaskHandle) (<-chan contract.Observation, error)
}

// Outcome 취소 요청의 최종 결과입니다.
type Outcome struct {
	// Observation 취소 대기를 끝낸 종료 관찰
	Observation contract.Observation `json:"observation"`

	// RaceLost 취소가 도착하기 전에 백엔드가 작업을 끝냈습니다 (Succeeded 또는 Failed).
	RaceLost bool `json:"race_lost"`

	// Forced 유예 시간 안에 백엔드의 취소 확인을 받지 못해 로컬에서 Cancelled로 확정했습니다.
	Forced bool `json:"forced"`
}

// Cancelled 작업이 취소 상태로 끝났는지 여부입니다.
func (o Outcome) Cancelled() bool {
	return o.Observation.Snapshot.Status == contract.StatusCancelled
}

// Coordinator 취소 요청을 레지스트리에 전달하고 종료 관찰을 기다립니다.
//
// 원격 취소 호출, 유예 타이머, 이후의 상태 관찰은 모두 레지스트리의 작업 관찰 안에서 진행되므로
// 같은 작업에 대한 여러 번의 Cancel 호출은 원격 취소를 한 번만 일으킵니다.
type Coordinator struct {
	canceller Canceller
}

func New(canceller Canceller) *Coordinator {
	if canceller == nil {
		panic("Canceller는 필수입니다")
	}

	return &Coordinator{canceller: canceller}
}

// Cancel 작업을 취소하고 종료 관찰을 받을 때까지 기다립니다. 여러 번 호출해도 안전합니다.
//
// 이미 종료된 작업이면 원격 호출 없이 곧바로 반환합니다. ctx가 먼저 취소되면 기다림만 포기하며
// 취소 절차는 레지스트리에서 계속 진행됩니다.
func (c *Coordinator) Cancel(ctx context.Context, handle contract.TaskHandle) (Outcome, error) {
	reply, err := c.canceller.RequestCancel(handle)
	if err != nil {
		return Outcome{}, err
	}

	fields := applog.Fields{
		"task_id": handle.ID,
		"kind":    handle.Kind.String(),
	}

	select {
	case obs, ok := <-reply:
		if !ok {
			return Outcome{}, ErrNotRunning
		}

		outcome := Outcome{
			Observation: obs,
			RaceLost:    obs.Snapshot.Status == contract.StatusSucceeded || obs.Snapshot.Status == contract.StatusFailed,
			Forced:      obs.Kind == contract.ObservedLocalTerminal && obs.Snapshot.Status == contract.StatusCancelled,
		}

		fields["status"] = obs.Snapshot.Status.String()
		fields["race_lost"] = outcome.RaceLost
		fields["forced"] = outcome.Forced
		applog.WithComponentAndFields(component, fields).Info("작업 취소 절차 완료")

		return outcome, nil

	case <-ctx.Done():
		applog.WithComponentAndFields(component, fields).Debug("취소 결과 대기를 중단합니다 (취소 절차는 계속 진행됩니다)")
		return Outcome{}, apperrors.Wrap(ctx.Err(), apperrors.Timeout, "작업 취소 결과를 기다리는 중 요청이 취소되었습니다")
	}
}
