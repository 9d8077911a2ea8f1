package util

import (
	"log/slog"
	"sync"
	"time"
)

// CircuitState: 서킷 브레이커의 상태 (닫힘, 열림, 반열림)
type CircuitState string

// CircuitState 상수 목록.
const (
	// CircuitStateClosed: 정상 작동 상태 (요청 허용)
	CircuitStateClosed CircuitState = "CLOSED"
	// CircuitStateOpen: 에러 임계치 초과로 인한 차단 상태 (요청 거부)
	CircuitStateOpen CircuitState = "OPEN"
	// CircuitStateHalfOpen: 복구 시도 중인 상태 (제한적 요청 허용)
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

func (s CircuitState) String() string {
	return string(s)
}

// CircuitBreaker: 외부 디렉토리 호출의 장애 전파 방지를 위한 서킷 브레이커
// 실패 횟수를 모니터링하고 임계치 초과 시 요청을 일시 차단한다.
type CircuitBreaker struct {
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	nextRetryTime    time.Time
	logger           *slog.Logger
	mu               sync.RWMutex
}

// NewCircuitBreaker: 새로운 서킷 브레이커 인스턴스를 생성한다.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, logger *slog.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		state:            CircuitStateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		logger:           logger,
	}
}

// GetState: 현재 서킷 브레이커의 상태를 반환한다.
// Open 상태에서 복구 대기 시간이 지났으면 Half-Open으로 전이한다.
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateOpen && time.Now().After(cb.nextRetryTime) {
		cb.transitionTo(CircuitStateHalfOpen)
	}

	return cb.state
}

// CanExecute: 현재 요청 실행이 가능한지(서킷이 열려있지 않은지) 확인한다.
func (cb *CircuitBreaker) CanExecute() bool {
	return cb.GetState() != CircuitStateOpen
}

// RecordSuccess: 요청 성공을 기록한다.
// Half-Open 상태였다면 Closed 상태로 전환하여 서킷을 복구한다.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitStateHalfOpen {
		cb.logger.Info("Circuit Breaker: Service recovered, transitioning to CLOSED")
		cb.transitionTo(CircuitStateClosed)
		cb.failureCount = 0
	} else if cb.state == CircuitStateClosed && cb.failureCount > 0 {
		cb.failureCount = 0
	}
}

// RecordFailure: 요청 실패를 기록한다.
// 실패 횟수가 임계치를 초과하면 서킷을 Open 상태로 전환한다.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	cb.logger.Warn("Circuit Breaker: Failure recorded",
		slog.Int("count", cb.failureCount),
		slog.Int("threshold", cb.failureThreshold),
	)

	if cb.state == CircuitStateHalfOpen {
		cb.logger.Error("Circuit Breaker: Recovery failed, reopening circuit")
		cb.transitionTo(CircuitStateOpen)
		cb.nextRetryTime = time.Now().Add(cb.resetTimeout)
	} else if cb.failureCount >= cb.failureThreshold {
		cb.logger.Error("Circuit Breaker: Threshold reached, OPENING circuit",
			slog.Int("threshold", cb.failureThreshold),
		)
		cb.transitionTo(CircuitStateOpen)
		cb.nextRetryTime = time.Now().Add(cb.resetTimeout)
	}
}

func (cb *CircuitBreaker) transitionTo(newState CircuitState) {
	oldState := cb.state
	cb.state = newState

	nextRetry := "n/a"
	if newState == CircuitStateOpen {
		nextRetry = cb.nextRetryTime.Format(time.RFC3339)
	}

	cb.logger.Info("Circuit Breaker: State transition",
		slog.String("from", oldState.String()),
		slog.String("to", newState.String()),
		slog.Int("failure_count", cb.failureCount),
		slog.String("next_retry", nextRetry),
	)
}

// Reset: 서킷 브레이커 상태를 강제로 초기화(Closed, 실패 횟수 0)한다.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.logger.Info("Circuit Breaker: Manual reset")
	cb.state = CircuitStateClosed
	cb.failureCount = 0
	cb.nextRetryTime = time.Time{}
}

// GetStatus: 모니터링을 위해 현재 서킷 브레이커의 상세 상태 정보를 반환한다.
func (cb *CircuitBreaker) GetStatus() CircuitBreakerStatus {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	status := CircuitBreakerStatus{
		State:        cb.state,
		FailureCount: cb.failureCount,
	}

	if cb.state == CircuitStateOpen {
		t := cb.nextRetryTime
		status.NextRetryTime = &t
	}

	return status
}

// CircuitBreakerStatus: 서킷 브레이커의 상세 상태 정보 (스냅샷)
type CircuitBreakerStatus struct {
	State         CircuitState
	FailureCount  int
	NextRetryTime *time.Time
}
