// Package telegram 알림 메시지를 텔레그램 봇 API로 전송하는 notification.Sender 구현체를 제공합니다.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/darkkaiser/review-console/internal/config"
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/notification"
	applog "github.com/darkkaiser/review-console/pkg/log"
	"github.com/darkkaiser/review-console/pkg/strutil"
)

const component = "notification.telegram"

const (
	// messageMaxLength 텔레그램 메시지 한 건의 최대 길이(바이트)입니다.
	messageMaxLength = 4096

	// httpClientTimeout 봇 API 호출 한 건에 허용하는 최대 시간입니다.
	httpClientTimeout = 30 * time.Second

	// defaultRetryDelay Retry-After 값이 없을 때 재시도 전에 기다리는 시간입니다.
	defaultRetryDelay = 2 * time.Second

	maxAttempts = 3
)

// botClient 전송에 필요한 봇 API의 일부분입니다.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sender 하나의 채팅방으로 알림을 보내는 텔레그램 발송기입니다.
type Sender struct {
	chatID int64

	bot     botClient
	limiter *rate.Limiter

	retryDelay time.Duration
}

var _ notification.Sender = (*Sender)(nil)

// New 봇 토큰으로 봇 API 클라이언트를 초기화합니다. 토큰이 올바르지 않으면 봇 정보 조회 단계에서 실패합니다.
func New(cfg config.TelegramConfig, debug bool) (*Sender, error) {
	applog.WithComponentAndFields(component, applog.Fields{
		"bot_token": strutil.Mask(cfg.BotToken),
		"chat_id":   cfg.ChatID,
	}).Debug("텔레그램 봇 API 클라이언트 초기화")

	// 기본 http.Client에는 타임아웃이 없어 네트워크 장애 시 전송 고루틴이 멈출 수 있습니다.
	client := &http.Client{Timeout: httpClientTimeout}

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. bot_token이 올바른지 확인해주세요")
	}
	botAPI.Debug = debug

	return newWithBot(cfg, botAPI), nil
}

func newWithBot(cfg config.TelegramConfig, bot botClient) *Sender {
	return &Sender{
		chatID:     cfg.ChatID,
		bot:        bot,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1)),
		retryDelay: defaultRetryDelay,
	}
}

// Send 메시지를 전송합니다. 4096바이트를 넘는 메시지는 줄 단위로 나누어 여러 건으로 보냅니다.
// 한 조각이라도 전송에 실패하면 나머지 조각은 보내지 않습니다.
func (s *Sender) Send(ctx context.Context, m notification.Message) error {
	for _, chunk := range splitMessage(m.Text, messageMaxLength) {
		if err := s.sendChunk(ctx, chunk, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) sendChunk(ctx context.Context, text string, useHTML bool) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	if useHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.Timeout, "텔레그램 발송 속도 제한 대기 중 취소되었습니다")
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return apperrors.Wrap(err, apperrors.Timeout, "텔레그램 메시지 전송이 취소되었습니다")
		}

		_, err := s.bot.Send(msg)
		if err == nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"chat_id": s.chatID,
				"attempt": attempt,
				"html":    useHTML,
			}).Debug("텔레그램 메시지 전송 성공")
			return nil
		}

		lastErr = err
		code, retryAfter := parseTelegramError(err)

		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": s.chatID,
			"attempt": attempt,
			"code":    code,
			"error":   err,
		}).Warn("텔레그램 메시지 전송 실패")

		// 400은 대부분 HTML 파싱 오류이므로 서식 없이 한 번 더 보냅니다.
		if useHTML && code == http.StatusBadRequest {
			return s.sendChunk(ctx, text, false)
		}

		if !isRetryable(code) {
			return apperrors.Wrap(err, apperrors.ExecutionFailed, "텔레그램 메시지 전송에 실패했습니다")
		}
		if attempt == maxAttempts {
			break
		}

		wait := s.retryDelay
		if retryAfter > 0 {
			wait = time.Duration(retryAfter) * time.Second
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return apperrors.Wrap(ctx.Err(), apperrors.Timeout, "텔레그램 메시지 재전송 대기 중 취소되었습니다")
		case <-timer.C:
		}
	}

	return apperrors.Wrapf(lastErr, apperrors.Unavailable, "텔레그램 메시지 전송이 %d회 모두 실패했습니다", maxAttempts)
}

// parseTelegramError 봇 API 오류에서 응답 코드와 Retry-After(초)를 꺼냅니다. API 오류가 아니면 (0, 0)입니다.
func parseTelegramError(err error) (code int, retryAfter int) {
	var apiErr tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.RetryAfter
	}
	var apiErrPtr *tgbotapi.Error
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.RetryAfter
	}
	return 0, 0
}

// isRetryable 429와 5xx, 그리고 응답 코드가 없는 네트워크 오류만 재시도합니다.
func isRetryable(code int) bool {
	if code >= 400 && code < 500 {
		return code == http.StatusTooManyRequests
	}
	return true
}

// splitMessage 줄 경계를 우선으로 limit 바이트 이하의 조각으로 나눕니다. 한 줄이 limit보다 길면 UTF-8 경계에서 자릅니다.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		sb     strings.Builder
	)
	flush := func() {
		if sb.Len() > 0 {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
	}

	for line := range strings.SplitSeq(text, "\n") {
		needed := len(line)
		if sb.Len() > 0 {
			needed++
		}

		if sb.Len()+needed <= limit {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line)
			continue
		}

		flush()
		for len(line) > limit {
			var chunk string
			chunk, line = safeSplit(line, limit)
			chunks = append(chunks, chunk)
		}
		sb.WriteString(line)
	}
	flush()

	return chunks
}

// safeSplit limit 바이트 이내의 마지막 룬 경계에서 문자열을 자릅니다.
func safeSplit(s string, limit int) (chunk, remainder string) {
	if len(s) <= limit {
		return s, ""
	}

	i := limit
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	if i == 0 {
		return s[:limit], s[limit:]
	}

	return s[:i], s[i:]
}
