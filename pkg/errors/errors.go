// Package errors: 그룹 통계 봇 전체에서 사용되는 에러 타입들을 정의한다.
// 표준 Go 에러 스타일(struct + Unwrap)을 따른다.
package errors

import "fmt"

// PersistenceError: 카운터/설정 영속화 실패 에러
// 인메모리 상태는 이미 반영된 뒤에 발생하므로 호출자는 경고로만 처리한다.
type PersistenceError struct {
	Store     string // counter, settings, nickname 등
	Operation string // 수행 중이던 작업
	Err       error  // 원인 에러
}

func (e PersistenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("persistence error store=%s operation=%s", e.Store, e.Operation)
	}
	return fmt.Sprintf("persistence error store=%s operation=%s: %v", e.Store, e.Operation, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError: 영속화 에러를 생성한다.
func NewPersistenceError(store, operation string, cause error) *PersistenceError {
	return &PersistenceError{
		Store:     store,
		Operation: operation,
		Err:       cause,
	}
}

// DirectoryError: 외부 디렉토리(닉네임/그룹명) 조회 실패 에러
type DirectoryError struct {
	Group     string
	Operation string // lookup_nickname, lookup_group, list_members
	Err       error
}

func (e DirectoryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("directory error group=%s operation=%s", e.Group, e.Operation)
	}
	return fmt.Sprintf("directory error group=%s operation=%s: %v", e.Group, e.Operation, e.Err)
}

func (e DirectoryError) Unwrap() error { return e.Err }

// NewDirectoryError: 디렉토리 조회 에러를 생성한다.
func NewDirectoryError(group, operation string, cause error) *DirectoryError {
	return &DirectoryError{
		Group:     group,
		Operation: operation,
		Err:       cause,
	}
}

// DeliveryError: 메시지/이미지 전송 실패 에러
type DeliveryError struct {
	Group string
	Mode  string // text, image
	Err   error
}

func (e DeliveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("delivery error group=%s mode=%s", e.Group, e.Mode)
	}
	return fmt.Sprintf("delivery error group=%s mode=%s: %v", e.Group, e.Mode, e.Err)
}

func (e DeliveryError) Unwrap() error { return e.Err }

// NewDeliveryError: 전송 에러를 생성한다.
func NewDeliveryError(group, mode string, cause error) *DeliveryError {
	return &DeliveryError{
		Group: group,
		Mode:  mode,
		Err:   cause,
	}
}

// CacheError: 캐시(Valkey) 작업 중 발생한 에러
type CacheError struct {
	Operation string // get, set, hincrby 등
	Key       string // 캐시 키
	Err       error  // 원인 에러
}

func (e CacheError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache error operation=%s key=%s", e.Operation, e.Key)
	}
	return fmt.Sprintf("cache error operation=%s key=%s: %v", e.Operation, e.Key, e.Err)
}

func (e CacheError) Unwrap() error { return e.Err }

// NewCacheError: 캐시 에러를 생성한다.
func NewCacheError(operation, key string, cause error) *CacheError {
	return &CacheError{
		Operation: operation,
		Key:       key,
		Err:       cause,
	}
}

// ValidationError: 명령어 경계에서의 입력 검증 실패 에러
// 설정 상태는 변경되지 않은 채로 반환된다.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation error field=%s: %s", e.Field, e.Message)
}

// NewValidationError: 검증 에러를 생성한다.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ServiceError: 내부 서비스 로직 에러
type ServiceError struct {
	Service   string // 서비스 이름
	Operation string // 작업 이름
	Err       error  // 원인 에러
}

func (e ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("service error service=%s operation=%s", e.Service, e.Operation)
	}
	return fmt.Sprintf("service error service=%s operation=%s: %v", e.Service, e.Operation, e.Err)
}

func (e ServiceError) Unwrap() error { return e.Err }

// NewServiceError: 서비스 에러를 생성한다.
func NewServiceError(service, operation string, cause error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Err:       cause,
	}
}
