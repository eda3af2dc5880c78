// Package middleware 작업 API 서버에서 사용하는 Echo 미들웨어를 제공합니다.
//
//   - PanicRecovery: 핸들러 패닉 복구와 스택 로깅
//   - HTTPLogger: 요청/응답 구조화 로깅 (민감한 쿼리 값 마스킹)
//   - RateLimiting: 클라이언트 IP별 요청 속도 제한
//   - ValidateContentType: 본문이 있는 요청의 Content-Type 검사
//   - Logger: Echo 내부 로거를 애플리케이션 로거로 연결하는 어댑터
package middleware
