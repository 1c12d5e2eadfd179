// Package errors: 서비스 전체에서 공용으로 사용되는 에러 타입들을 정의한다.
// 도메인 패키지 간 공유되는 인프라스트럭처 에러 타입을 포함한다.
package errors

import (
	"errors"
	"fmt"
)

// RedisError: Redis 작업을 수행하는 도중 발생한 에러
type RedisError struct {
	Operation string
	Err       error
}

func (e RedisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("redis error operation=%s", e.Operation)
	}
	return fmt.Sprintf("redis error operation=%s: %v", e.Operation, e.Err)
}

func (e RedisError) Unwrap() error { return e.Err }

// SubscriptionClosedError: 세션 구독 스트림이 예기치 않게 종료되었을 때 발생하는 에러
type SubscriptionClosedError struct {
	Code string
	Err  error
}

func (e SubscriptionClosedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("subscription closed code=%s", e.Code)
	}
	return fmt.Sprintf("subscription closed code=%s: %v", e.Code, e.Err)
}

func (e SubscriptionClosedError) Unwrap() error { return e.Err }

// MalformedInputError: 입력 형식이 올바르지 않을 때 발생하는 에러
type MalformedInputError struct {
	Message string
}

func (e MalformedInputError) Error() string { return e.Message }

// expectedUserBehaviorTypes: 사용자의 정상적인 패턴 내 실수로 간주되는 에러 타입들
// IsExpectedUserBehavior 함수에서 공통으로 체크하는 타입 리스트
var expectedUserBehaviorTypes = []func() any{
	func() any { return new(MalformedInputError) },
}

// IsExpectedUserBehavior: 에러가 사용자의 정상적인(예상된) 패턴 내의 실수인지 확인한다.
// (로그 레벨을 낮추거나 사용자에게 친절한 메시지를 보내는 용도)
// 공통 에러 타입만 체크하며, 도메인 특화 에러는 각 패키지에서 확장하여 사용한다.
func IsExpectedUserBehavior(err error) bool {
	if err == nil {
		return false
	}
	for _, targetFn := range expectedUserBehaviorTypes {
		if errors.As(err, targetFn()) {
			return true
		}
	}
	return false
}
