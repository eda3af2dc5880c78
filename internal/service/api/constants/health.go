package constants

// 헬스체크 상태
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	HealthStatusDisabled  = "disabled"
)

// 헬스체크 대상 의존성 ID
const (
	DependencyTaskService         = "task_service"
	DependencyNotificationService = "notification_service"
)
