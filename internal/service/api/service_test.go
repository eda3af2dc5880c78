package api

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkkaiser/review-console/internal/config"
	"github.com/darkkaiser/review-console/internal/pkg/version"
)

func testAppConfig(enabled bool) *config.AppConfig {
	return &config.AppConfig{API: config.APIConfig{
		Enabled:       enabled,
		ListenAddress: "127.0.0.1:0",
		RateLimit:     100,
		RateBurst:     100,
		BodyLimit:     "1M",
		SnapshotWait:  time.Minute,
	}}
}

func TestNewService_Panics(t *testing.T) {
	assert.Panics(t, func() { NewService(nil, &fakeTaskService{}, nil, version.Info{}) })
	assert.Panics(t, func() { NewService(testAppConfig(true), nil, nil, version.Info{}) })
}

func TestService_Start_Disabled(t *testing.T) {
	s := NewService(testAppConfig(false), &fakeTaskService{}, nil, version.Info{})

	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(context.Background(), wg))
	wg.Wait()

	assert.Nil(t, s.Addr())
}

func TestService_Lifecycle(t *testing.T) {
	s := NewService(testAppConfig(true), &fakeTaskService{running: true}, nil, version.Info{})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, s.Start(ctx, wg))

	require.Eventually(t, func() bool { return s.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	baseURL := "http://" + s.Addr().String()
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

	resp, err := client.Get(baseURL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 중복 시작은 무시됩니다.
	dupWG := &sync.WaitGroup{}
	dupWG.Add(1)
	require.NoError(t, s.Start(ctx, dupWG))
	dupWG.Wait()

	// 열린 SSE 스트림이 있어도 종료가 지연되지 않아야 합니다.
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		resp, err := client.Get(baseURL + "/api/v1/tasks/review/r-1/events")
		if err != nil {
			return
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
	}()
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	cancel()
	wg.Wait()
	<-streamDone

	assert.Less(t, time.Since(start), 4*time.Second)

	s.runningMu.Lock()
	assert.False(t, s.running)
	s.runningMu.Unlock()
}
