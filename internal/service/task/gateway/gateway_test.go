package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/review-console/internal/config"
	"github.com/darkkaiser/review-console/internal/pkg/clock/clocktest"
	apperrors "github.com/darkkaiser/review-console/internal/pkg/errors"
	"github.com/darkkaiser/review-console/internal/service/contract"
)

// =============================================================================
// Helpers
// =============================================================================

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testBackend struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.BackendConfig)) (*Gateway, *testBackend) {
	t.Helper()

	backend := &testBackend{}
	backend.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backend.calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(backend.server.Close)

	cfg := config.DefaultAppConfig().Backend
	cfg.BaseURL = backend.server.URL + "/api/"
	cfg.Token = "test-token"
	cfg.RequestTimeout = 2 * time.Second
	for _, m := range mutate {
		m(&cfg)
	}

	g, err := New(cfg, WithClock(clocktest.NewFake(testNow)))
	require.NoError(t, err)

	return g, backend
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func reviewHandle(id string) contract.TaskHandle {
	return contract.NewTaskHandle(contract.KindReview, contract.TaskID(id), testNow)
}

// =============================================================================
// New
// =============================================================================

func TestNew_EndpointValidation(t *testing.T) {
	t.Run("엔드포인트 계열 누락", func(t *testing.T) {
		cfg := config.DefaultAppConfig().Backend
		delete(cfg.Endpoints, "template_generation")

		_, err := New(cfg)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("동기화 제출 경로 누락", func(t *testing.T) {
		cfg := config.DefaultAppConfig().Backend
		ep := cfg.Endpoints["sync"]
		ep.Submit = map[string]string{"all": "/sync/"}
		cfg.Endpoints["sync"] = ep

		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "submit.project")
	})

	t.Run("작업 ID 자리표시자 누락", func(t *testing.T) {
		cfg := config.DefaultAppConfig().Backend
		ep := cfg.Endpoints["review"]
		ep.Status = "/reviews/tasks/status"
		cfg.Endpoints["review"] = ep

		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "{task_id}")
	})
}

// =============================================================================
// Submit
// =============================================================================

func TestSubmit_Review(t *testing.T) {
	templateID := int64(7)

	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reviews/merge-requests/42/trigger", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("force"))
		assert.Equal(t, "7", r.URL.Query().Get("template_id"))
		assert.Equal(t, "보안 관점에서 검토", r.URL.Query().Get("custom_instructions"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		writeJSON(w, http.StatusOK, `{"success": true, "task_id": "review-abc", "status": "pending", "message": "submitted"}`)
	})

	handle, err := g.Submit(context.Background(), contract.ReviewParams{
		MergeRequestID:     42,
		Force:              true,
		TemplateID:         &templateID,
		CustomInstructions: "보안 관점에서 검토",
	})
	require.NoError(t, err)

	assert.Equal(t, contract.TaskID("review-abc"), handle.ID)
	assert.Equal(t, contract.KindReview, handle.Kind)
	assert.Equal(t, testNow, handle.SubmittedAt)
}

func TestSubmit_SyncScopes(t *testing.T) {
	tests := []struct {
		name     string
		params   contract.SyncParams
		wantPath string
	}{
		{name: "전체 동기화(기본값)", params: contract.SyncParams{}, wantPath: "/api/sync/"},
		{name: "프로젝트 동기화", params: contract.SyncParams{Scope: contract.SyncScopeProject, ProjectID: 9}, wantPath: "/api/sync/projects/9"},
		{name: "로컬 저장소 동기화", params: contract.SyncParams{Scope: contract.SyncScopeRepositories}, wantPath: "/api/sync/repositories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				writeJSON(w, http.StatusOK, `{"success": true, "task_id": "sync-1", "status": "submitted"}`)
			})

			handle, err := g.Submit(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, contract.KindSync, handle.Kind)
		})
	}
}

func TestSubmit_TemplateGeneration_SendsJSONBody(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/prompt-templates/ai-generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "보안 리뷰 템플릿", body["prompt"])
		assert.Equal(t, []any{"diff", "title"}, body["selected_variables"])

		writeJSON(w, http.StatusOK, `{"task_id": "tpl-9", "message": "queued"}`)
	})

	handle, err := g.Submit(context.Background(), contract.TemplateGenerationParams{
		Prompt:            "보안 리뷰 템플릿",
		SelectedVariables: []string{"diff", "title"},
	})
	require.NoError(t, err)
	assert.Equal(t, contract.KindTemplateGeneration, handle.Kind)
	assert.Equal(t, contract.TaskID("tpl-9"), handle.ID)
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantReason string
	}{
		{
			name:       "진행 중인 리뷰 존재(409)",
			status:     http.StatusConflict,
			body:       `{"detail": "이미 리뷰가 진행 중입니다"}`,
			wantReason: "이미 리뷰가 진행 중입니다",
		},
		{
			name:       "머지 리퀘스트 없음(404)",
			status:     http.StatusNotFound,
			body:       `{"detail": "merge request not found"}`,
			wantReason: "merge request not found",
		},
		{
			name:       "입력값 검증 실패(422)",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail": [{"loc": ["query", "force"], "msg": "value is not a valid boolean"}]}`,
			wantReason: "value is not a valid boolean",
		},
		{
			name:       "success=false 응답",
			status:     http.StatusOK,
			body:       `{"success": false, "message": "동기화가 이미 실행 중입니다"}`,
			wantReason: "동기화가 이미 실행 중입니다",
		},
		{
			name:       "작업 ID 없음",
			status:     http.StatusOK,
			body:       `{"success": true, "status": "submitted"}`,
			wantReason: "task_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := g.Submit(context.Background(), contract.ReviewParams{MergeRequestID: 1})
			require.Error(t, err)
			assert.True(t, contract.IsSubmissionRejected(err))
			assert.Contains(t, err.Error(), tt.wantReason)
		})
	}
}

func TestSubmit_ServerError_IsNotRejection(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"detail": "database unavailable"}`)
	})

	_, err := g.Submit(context.Background(), contract.SyncParams{})
	require.Error(t, err)
	assert.False(t, contract.IsSubmissionRejected(err))
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))
}

func TestSubmit_InvalidParams_NoRequest(t *testing.T) {
	g, backend := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"task_id": "x"}`)
	})

	_, err := g.Submit(context.Background(), contract.ReviewParams{MergeRequestID: 0})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	_, err = g.Submit(context.Background(), contract.SyncParams{Scope: contract.SyncScopeProject})
	require.Error(t, err)

	_, err = g.Submit(context.Background(), nil)
	require.Error(t, err)

	assert.Zero(t, backend.calls.Load())
}

// =============================================================================
// FetchSnapshot
// =============================================================================

func TestFetchSnapshot_DecodesStatusDocument(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/reviews/tasks/review-abc/status", r.URL.Path)

		writeJSON(w, http.StatusOK, `{
			"task_id": "review-abc",
			"status": "running",
			"progress": 0.456,
			"message": "AI 분석 중",
			"created_at": "2026-03-01T08:59:58",
			"started_at": "2026-03-01T09:00:00.123456",
			"completed_at": null,
			"result": null,
			"error": null
		}`)
	})

	s, err := g.FetchSnapshot(context.Background(), reviewHandle("review-abc"))
	require.NoError(t, err)

	assert.Equal(t, contract.StatusRunning, s.Status)
	assert.Equal(t, 46, s.Progress)
	assert.Equal(t, "AI 분석 중", s.Message)
	require.NotNil(t, s.StartedAt)
	assert.Equal(t, 9, s.StartedAt.Hour())
	assert.Nil(t, s.CompletedAt)
	assert.Empty(t, s.Error)
}

func TestFetchSnapshot_FailedWithError(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sync/tasks/sync-1", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"success": true, "status": "failed", "progress": 0.2, "completed_at": "2026-03-01T09:10:00+09:00", "error": "GitLab 토큰 만료"}`)
	})

	s, err := g.FetchSnapshot(context.Background(), contract.NewTaskHandle(contract.KindSync, "sync-1", testNow))
	require.NoError(t, err)

	assert.Equal(t, contract.StatusFailed, s.Status)
	assert.Equal(t, 20, s.Progress)
	assert.Equal(t, "GitLab 토큰 만료", s.Error)
	require.NotNil(t, s.CompletedAt)
}

func TestFetchSnapshot_PercentScale(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status": "completed", "progress": 100}`)
	}, func(cfg *config.BackendConfig) {
		ep := cfg.Endpoints["review"]
		ep.ProgressScale = "percent"
		cfg.Endpoints["review"] = ep
	})

	s, err := g.FetchSnapshot(context.Background(), reviewHandle("r"))
	require.NoError(t, err)
	assert.Equal(t, contract.StatusSucceeded, s.Status)
	assert.Equal(t, 100, s.Progress)
}

func TestFetchSnapshot_ErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantNotFound bool
		wantType     apperrors.ErrorType
	}{
		{name: "작업 없음(404)", status: http.StatusNotFound, body: `{"detail": "任务不存在"}`, wantNotFound: true},
		{name: "서버 오류(503)", status: http.StatusServiceUnavailable, body: `{"detail": "busy"}`, wantType: apperrors.Unavailable},
		{name: "인증 실패(401)", status: http.StatusUnauthorized, body: `{"detail": "token expired"}`, wantType: apperrors.Unauthorized},
		{name: "JSON 아님", status: http.StatusOK, body: `<html>gateway</html>`, wantType: apperrors.ParsingFailed},
		{name: "알 수 없는 상태", status: http.StatusOK, body: `{"status": "paused"}`, wantType: apperrors.ParsingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := g.FetchSnapshot(context.Background(), reviewHandle("r"))
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, contract.IsTaskNotFound(err))
			if !tt.wantNotFound {
				assert.True(t, apperrors.Is(err, tt.wantType), "에러 종류: %v", err)
			}
		})
	}
}

func TestFetchSnapshot_Timeout(t *testing.T) {
	release := make(chan struct{})
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(cfg *config.BackendConfig) {
		cfg.RequestTimeout = 50 * time.Millisecond
	})
	defer close(release)

	_, err := g.FetchSnapshot(context.Background(), reviewHandle("slow"))
	require.Error(t, err)
	assert.False(t, contract.IsTaskNotFound(err))
	assert.True(t, apperrors.Is(err, apperrors.Timeout) || apperrors.Is(err, apperrors.Unavailable))
}

// =============================================================================
// FetchResult
// =============================================================================

func TestFetchResult_RequiresSucceeded(t *testing.T) {
	g, backend := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	for _, status := range []contract.Status{contract.StatusPending, contract.StatusRunning, contract.StatusFailed, contract.StatusCancelled} {
		_, err := g.FetchResult(context.Background(), reviewHandle("r"), contract.Snapshot{Status: status})
		require.Error(t, err)
		assert.True(t, contract.IsInvalidState(err), "%s 상태에서는 결과를 조회할 수 없어야 합니다", status)
	}

	assert.Zero(t, backend.calls.Load(), "성공이 관찰되기 전에는 네트워크 호출이 없어야 합니다")
}

func TestFetchResult_PerKind(t *testing.T) {
	succeeded := contract.Snapshot{Status: contract.StatusSucceeded}

	t.Run("리뷰", func(t *testing.T) {
		g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/reviews/tasks/r-1/result", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"success": true, "message": "리뷰 완료", "review_id": 314}`)
		})

		res, err := g.FetchResult(context.Background(), reviewHandle("r-1"), succeeded)
		require.NoError(t, err)
		assert.Equal(t, testNow, res.FetchedAt)
		assert.Equal(t, contract.ReviewResult{Success: true, Message: "리뷰 완료", ReviewID: 314}, res.Payload)
	})

	t.Run("동기화(상태 문서에 포함된 결과)", func(t *testing.T) {
		g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/sync/tasks/s-1", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"status": "completed", "progress": 1.0, "result": {"projects": 12, "merge_requests": 87}}`)
		})

		res, err := g.FetchResult(context.Background(), contract.NewTaskHandle(contract.KindSync, "s-1", testNow), succeeded)
		require.NoError(t, err)

		payload, ok := res.Payload.(contract.SyncResult)
		require.True(t, ok)
		assert.EqualValues(t, 12, payload.Summary["projects"])
		assert.EqualValues(t, 87, payload.Summary["merge_requests"])
	})

	t.Run("템플릿 생성", func(t *testing.T) {
		g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/prompt-templates/ai-generate/t-1/result", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"template_content": "# {{ title }}", "variables_used": ["title"], "tokens_used": 1520, "generation_time": 3200}`)
		})

		res, err := g.FetchResult(context.Background(), contract.NewTaskHandle(contract.KindTemplateGeneration, "t-1", testNow), succeeded)
		require.NoError(t, err)

		payload, ok := res.Payload.(contract.TemplateGenerationResult)
		require.True(t, ok)
		assert.True(t, payload.Success)
		assert.Equal(t, "# {{ title }}", payload.TemplateContent)
		assert.Equal(t, []string{"title"}, payload.VariablesUsed)
		assert.Equal(t, 1520, payload.TokensUsed)
		assert.Equal(t, 3200.0, payload.GenerationTime)
	})

	t.Run("백엔드가 아직 끝나지 않았다고 응답", func(t *testing.T) {
		g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"detail": "任务正在执行中"}`)
		})

		_, err := g.FetchResult(context.Background(), reviewHandle("r-2"), succeeded)
		require.Error(t, err)
		assert.True(t, contract.IsInvalidState(err))
	})
}

// =============================================================================
// RequestCancel
// =============================================================================

func TestRequestCancel(t *testing.T) {
	tests := []struct {
		name       string
		handle     contract.TaskHandle
		status     int
		wantMethod string
		wantPath   string
		wantErr    bool
	}{
		{
			name:       "리뷰 취소",
			handle:     reviewHandle("r-1"),
			status:     http.StatusOK,
			wantMethod: http.MethodPost,
			wantPath:   "/api/reviews/tasks/r-1/cancel",
		},
		{
			name:       "동기화 취소",
			handle:     contract.NewTaskHandle(contract.KindSync, "s-1", testNow),
			status:     http.StatusOK,
			wantMethod: http.MethodDelete,
			wantPath:   "/api/sync/tasks/s-1",
		},
		{
			name:       "이미 종료된 작업(400)은 무시",
			handle:     contract.NewTaskHandle(contract.KindTemplateGeneration, "t-1", testNow),
			status:     http.StatusBadRequest,
			wantMethod: http.MethodPost,
			wantPath:   "/api/prompt-templates/ai-generate/t-1/cancel",
		},
		{
			name:       "서버 오류는 에러",
			handle:     reviewHandle("r-2"),
			status:     http.StatusBadGateway,
			wantMethod: http.MethodPost,
			wantPath:   "/api/reviews/tasks/r-2/cancel",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, backend := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantMethod, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				writeJSON(w, tt.status, `{"message": "ok"}`)
			})

			err := g.RequestCancel(context.Background(), tt.handle)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.EqualValues(t, 1, backend.calls.Load())
		})
	}
}
