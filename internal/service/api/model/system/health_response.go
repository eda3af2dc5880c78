package system

// HealthResponse 서버 헬스체크 응답
type HealthResponse struct {
	// Status 전체 상태: healthy, unhealthy
	Status string `json:"status"`

	// Uptime 서버 가동 시간(초)
	Uptime int64 `json:"uptime"`

	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus 의존 서비스 하나의 상태
type DependencyStatus struct {
	// Status healthy, unhealthy, disabled
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
