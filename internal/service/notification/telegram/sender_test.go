package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/review-console/internal/config"
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
	"github.com/darkkaiser/review-console/internal/service/notification"
)

// =============================================================================
// Telegram Bot Mock
// =============================================================================

type mockBot struct {
	mock.Mock
}

var _ botClient = (*mockBot)(nil)

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func newTestSender(t *testing.T) (*Sender, *mockBot) {
	t.Helper()

	bot := &mockBot{}
	bot.Test(t)

	s := newWithBot(config.TelegramConfig{ChatID: 777, RateLimit: 1000, RateBurst: 100}, bot)
	s.retryDelay = 0

	return s, bot
}

func htmlMessage(text string) any {
	return mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return c.ChatID == 777 && c.Text == text && c.ParseMode == tgbotapi.ModeHTML
	})
}

func plainMessage(text string) any {
	return mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return c.Text == text && c.ParseMode == ""
	})
}

func testMessage(text string) notification.Message {
	return notification.Message{TaskID: "review-1", Kind: contract.KindReview, Status: contract.StatusSucceeded, Text: text}
}

// =============================================================================
// 전송
// =============================================================================

func TestSender_Send_HTML(t *testing.T) {
	s, bot := newTestSender(t)
	bot.On("Send", htmlMessage("<b>완료</b>")).Return(nil).Once()

	require.NoError(t, s.Send(context.Background(), testMessage("<b>완료</b>")))
	bot.AssertExpectations(t)
}

func TestSender_Send_FallsBackToPlainText(t *testing.T) {
	s, bot := newTestSender(t)
	bot.On("Send", htmlMessage("<b>깨진 태그")).Return(&tgbotapi.Error{Code: 400, Message: "can't parse entities"}).Once()
	bot.On("Send", plainMessage("<b>깨진 태그")).Return(nil).Once()

	require.NoError(t, s.Send(context.Background(), testMessage("<b>깨진 태그")))
	bot.AssertExpectations(t)
}

func TestSender_Send_Retry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantType  apperrors.ErrorType
		wantOK    bool
	}{
		{
			name:      "429 후 성공",
			errs:      []error{&tgbotapi.Error{Code: 429, Message: "Too Many Requests"}, nil},
			wantCalls: 2,
			wantOK:    true,
		},
		{
			name:      "네트워크 오류 후 성공",
			errs:      []error{errors.New("connection reset"), nil},
			wantCalls: 2,
			wantOK:    true,
		},
		{
			name:      "권한 없음은 재시도하지 않음",
			errs:      []error{&tgbotapi.Error{Code: 403, Message: "bot was blocked by the user"}},
			wantCalls: 1,
			wantType:  apperrors.ExecutionFailed,
		},
		{
			name: "5xx 반복 실패",
			errs: []error{
				tgbotapi.Error{Code: 502, Message: "Bad Gateway"},
				tgbotapi.Error{Code: 502, Message: "Bad Gateway"},
				tgbotapi.Error{Code: 502, Message: "Bad Gateway"},
			},
			wantCalls: maxAttempts,
			wantType:  apperrors.Unavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, bot := newTestSender(t)
			for _, err := range tt.errs {
				bot.On("Send", htmlMessage("알림")).Return(err).Once()
			}

			err := s.Send(context.Background(), testMessage("알림"))
			if tt.wantOK {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, tt.wantType), "에러 타입 불일치: %v", err)
			}
			bot.AssertNumberOfCalls(t, "Send", tt.wantCalls)
		})
	}
}

func TestSender_Send_ContextCancelled(t *testing.T) {
	s, bot := newTestSender(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, testMessage("알림"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Timeout))
	bot.AssertNotCalled(t, "Send", mock.Anything)
}

func TestSender_Send_SplitsLongMessage(t *testing.T) {
	s, bot := newTestSender(t)

	line := strings.Repeat("a", 3000)
	text := line + "\n" + line
	bot.On("Send", htmlMessage(line)).Return(nil).Twice()

	require.NoError(t, s.Send(context.Background(), testMessage(text)))
	bot.AssertNumberOfCalls(t, "Send", 2)
}

func TestSender_Send_StopsOnChunkFailure(t *testing.T) {
	s, bot := newTestSender(t)

	line := strings.Repeat("b", 3000)
	bot.On("Send", mock.Anything).Return(&tgbotapi.Error{Code: 403, Message: "Forbidden"}).Once()

	require.Error(t, s.Send(context.Background(), testMessage(line+"\n"+line)))
	bot.AssertNumberOfCalls(t, "Send", 1)
}

// =============================================================================
// 오류 해석
// =============================================================================

func TestParseTelegramError(t *testing.T) {
	retry := tgbotapi.ResponseParameters{RetryAfter: 7}

	tests := []struct {
		name           string
		err            error
		wantCode       int
		wantRetryAfter int
	}{
		{name: "포인터", err: &tgbotapi.Error{Code: 429, ResponseParameters: retry}, wantCode: 429, wantRetryAfter: 7},
		{name: "값", err: tgbotapi.Error{Code: 500}, wantCode: 500},
		{name: "감싼 오류", err: fmt.Errorf("전송: %w", &tgbotapi.Error{Code: 400}), wantCode: 400},
		{name: "일반 오류", err: errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, retryAfter := parseTelegramError(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantRetryAfter, retryAfter)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(0))
	assert.True(t, isRetryable(429))
	assert.True(t, isRetryable(500))
	assert.False(t, isRetryable(400))
	assert.False(t, isRetryable(403))
}

// =============================================================================
// 메시지 분할
// =============================================================================

func TestSafeSplit(t *testing.T) {
	tests := []struct {
		name          string
		s             string
		limit         int
		wantChunk     string
		wantRemainder string
	}{
		{name: "제한 이내", s: "hello", limit: 10, wantChunk: "hello"},
		{name: "ASCII", s: "abcdef", limit: 4, wantChunk: "abcd", wantRemainder: "ef"},
		{name: "한글 경계 보존", s: "가나다", limit: 4, wantChunk: "가", wantRemainder: "나다"},
		{name: "정확한 경계", s: "가나다", limit: 6, wantChunk: "가나", wantRemainder: "다"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, remainder := safeSplit(tt.s, tt.limit)
			assert.Equal(t, tt.wantChunk, chunk)
			assert.Equal(t, tt.wantRemainder, remainder)
		})
	}
}

func TestSplitMessage(t *testing.T) {
	t.Run("짧은 메시지", func(t *testing.T) {
		assert.Equal(t, []string{"a\nb"}, splitMessage("a\nb", 10))
	})

	t.Run("줄 단위로 묶기", func(t *testing.T) {
		assert.Equal(t, []string{"aaa\nbbb", "ccc"}, splitMessage("aaa\nbbb\nccc", 8))
	})

	t.Run("긴 한 줄", func(t *testing.T) {
		text := strings.Repeat("가", 10)
		chunks := splitMessage(text, 7)

		assert.Equal(t, text, strings.Join(chunks, ""))
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 7)
			assert.True(t, utf8.ValidString(c))
		}
	})
}
