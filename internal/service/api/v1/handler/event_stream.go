package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/api/constants"
	"github.com/darkkaiser/review-console/internal/service/contract"
	applog "github.com/darkkaiser/review-console/pkg/log"
)

const eventObservation = "observation"

// EventsHandler 작업 관찰을 Server-Sent Events로 전달합니다.
//
// 캐시된 마지막 관찰이 있으면 곧바로 한 번 전송하고, 이후 관찰이 바뀔 때마다 전송합니다.
// 클라이언트가 느리면 중간 관찰은 버리고 가장 최신 관찰만 보냅니다.
// 종료 관찰을 보내거나 클라이언트 연결이 끊기면 스트림을 닫습니다.
func (h *Handler) EventsHandler(c echo.Context) error {
	handle, err := handleFromPath(c)
	if err != nil {
		return err
	}

	if _, ok := c.Response().Writer.(http.Flusher); !ok {
		return apperrors.New(apperrors.Internal, "응답 스트리밍을 지원하지 않는 연결입니다")
	}

	box := newMailbox()
	sub, err := h.taskService.Subscribe(handle, func(obs contract.Observation) {
		if obs.Handle.Kind == handle.Kind {
			box.put(obs)
		}
	})
	if err != nil {
		return err
	}
	defer h.taskService.Unsubscribe(sub)

	stream := newEventStream(c.Response())
	stream.writeHeaders()

	l := h.log(c).WithFields(applog.Fields{
		"component": constants.ComponentEventStream,
		"task_id":   handle.ID,
	})
	l.Debug("이벤트 스트림 시작")

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			l.Debug("클라이언트 연결 종료로 이벤트 스트림을 닫습니다")
			return nil

		case <-keepAlive.C:
			if err := stream.writeComment("keepalive"); err != nil {
				l.WithError(err).Debug("keepalive 전송 실패")
				return nil
			}

		case <-box.ready():
			obs, ok := box.take()
			if !ok {
				continue
			}
			if err := stream.writeEvent(eventObservation, obs); err != nil {
				l.WithError(err).Debug("관찰 이벤트 전송 실패")
				return nil
			}
			if obs.IsTerminal() {
				l.WithField("status", obs.Snapshot.Status.String()).Debug("종료 관찰 전송 후 이벤트 스트림을 닫습니다")
				return nil
			}
		}
	}
}

// mailbox 최신 관찰 하나만 보관합니다. put은 절대 블록되지 않으므로 구독 콜백에서 호출해도 안전합니다.
type mailbox struct {
	mu     sync.Mutex
	obs    contract.Observation
	has    bool
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) put(obs contract.Observation) {
	m.mu.Lock()
	m.obs = obs
	m.has = true
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox) ready() <-chan struct{} {
	return m.signal
}

func (m *mailbox) take() (contract.Observation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.has {
		return contract.Observation{}, false
	}
	m.has = false
	return m.obs, true
}

// eventStream text/event-stream 형식으로 프레임을 기록합니다.
type eventStream struct {
	res    *echo.Response
	nextID int64
}

func newEventStream(res *echo.Response) *eventStream {
	return &eventStream{res: res}
}

func (s *eventStream) writeHeaders() {
	header := s.res.Header()
	header.Set(echo.HeaderContentType, constants.MIMEEventStream)
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")

	s.res.WriteHeader(http.StatusOK)
	s.res.Flush()
}

func (s *eventStream) writeEvent(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "이벤트 직렬화에 실패했습니다")
	}

	s.nextID++
	if _, err := fmt.Fprintf(s.res, "event: %s\nid: %d\ndata: %s\n\n", event, s.nextID, data); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}

func (s *eventStream) writeComment(text string) error {
	if _, err := fmt.Fprintf(s.res, ": %s\n\n", text); err != nil {
		return err
	}
	s.res.Flush()
	return nil
}
