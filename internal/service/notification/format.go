package notification

import (
	"html"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/darkkaiser/review-console/internal/pkg/mark"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/pkg/strutil"
)

// maxReasonRunes 알림에 담을 실패 사유의 최대 길이입니다.
const maxReasonRunes = 500

var kindTitles = map[contract.Kind]string{
	contract.KindReview:             "코드 리뷰",
	contract.KindSync:               "GitLab 동기화",
	contract.KindTemplateGeneration: "AI 템플릿 생성",
}

// Formatter 관찰을 사람이 읽을 알림 메시지로 바꿉니다. 숫자는 지정한 언어의 표기(천 단위 구분 등)를 따릅니다.
type Formatter struct {
	printer *message.Printer
}

func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// DefaultFormatter 한국어 표기를 사용하는 Formatter입니다.
func DefaultFormatter() *Formatter {
	return NewFormatter(language.Korean)
}

// Format 종료 관찰(또는 연락 끊김 관찰)을 알림 메시지로 변환합니다.
func (f *Formatter) Format(obs contract.Observation) Message {
	s := obs.Snapshot

	title, ok := kindTitles[obs.Handle.Kind]
	if !ok {
		title = obs.Handle.Kind.String()
	}

	icon, verdict := mark.Succeeded, "완료"
	errorOccurred := false
	switch {
	case obs.Kind == contract.ObservedUnknown:
		icon, verdict, errorOccurred = mark.Unknown, "상태 확인 불가", true
	case s.Status == contract.StatusFailed:
		icon, verdict, errorOccurred = mark.Failed, "실패", true
	case s.Status == contract.StatusCancelled:
		icon, verdict = mark.Cancelled, "취소"
	case !s.Status.IsTerminal():
		icon, verdict = mark.InProgress, "진행 중"
	}

	var sb strings.Builder
	sb.WriteString(f.printer.Sprintf("%s<b>%s %s</b>\n", icon.WithSpace(), title, verdict))
	sb.WriteString(f.printer.Sprintf("작업 ID: <code>%s</code>\n", html.EscapeString(obs.Handle.ID.String())))

	if obs.Kind == contract.ObservedUnknown {
		sb.WriteString(f.printer.Sprintf("연속 %d회 상태 조회에 실패했습니다. 마지막 진행률: %d%%\n", obs.ConsecutiveFailures, s.Progress))
	} else if !s.Status.IsTerminal() || s.Status == contract.StatusCancelled {
		sb.WriteString(f.printer.Sprintf("진행률: %d%%\n", s.Progress))
	}

	if obs.Kind == contract.ObservedLocalTerminal {
		sb.WriteString("<i>백엔드의 확인 없이 콘솔에서 확정한 상태입니다.</i>\n")
	}

	if s.StartedAt != nil && s.CompletedAt != nil && s.CompletedAt.After(*s.StartedAt) {
		seconds := int64(s.CompletedAt.Sub(*s.StartedAt).Seconds())
		sb.WriteString(f.printer.Sprintf("소요 시간: %d초\n", seconds))
	}

	if reason := s.Error; reason != "" {
		sb.WriteString("사유: ")
		sb.WriteString(html.EscapeString(strutil.Truncate(reason, maxReasonRunes)))
		sb.WriteString("\n")
	} else if s.Message != "" && errorOccurred {
		sb.WriteString("메시지: ")
		sb.WriteString(html.EscapeString(strutil.Truncate(s.Message, maxReasonRunes)))
		sb.WriteString("\n")
	}

	return Message{
		TaskID:        obs.Handle.ID,
		Kind:          obs.Handle.Kind,
		Status:        s.Status,
		Text:          strings.TrimRight(sb.String(), "\n"),
		ErrorOccurred: errorOccurred,
	}
}
