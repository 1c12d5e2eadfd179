// Package errors: 게임 세션 도메인의 에러 타입들을 정의한다.
package errors

import (
	"errors"
	"fmt"
)

// SessionNotFoundError: 입력한 코드로 세션을 찾지 못했을 때 발생하는 에러
type SessionNotFoundError struct {
	Code string
}

func (e SessionNotFoundError) Error() string { return fmt.Sprintf("session not found: %s", e.Code) }

// NameRequiredError: 참가자 이름이 비어 있을 때 발생하는 에러
type NameRequiredError struct{}

func (e NameRequiredError) Error() string { return "player name is required" }

// NotHostError: 호스트 전용 동작을 다른 참가자가 시도했을 때 발생하는 에러
type NotHostError struct {
	UID string
}

func (e NotHostError) Error() string { return fmt.Sprintf("not host: %s", e.UID) }

// WrongPhaseError: 현재 단계에서 허용되지 않는 동작일 때 발생하는 에러
type WrongPhaseError struct {
	Phase    string
	Expected string
}

func (e WrongPhaseError) Error() string {
	return fmt.Sprintf("wrong phase: %s (expected %s)", e.Phase, e.Expected)
}

// NotEnoughPlayersError: 시작에 필요한 최소 인원이 모이지 않았을 때 발생하는 에러
type NotEnoughPlayersError struct {
	Count int
	Min   int
}

func (e NotEnoughPlayersError) Error() string {
	return fmt.Sprintf("not enough players: %d/%d", e.Count, e.Min)
}

// OversizedContentError: 제출 콘텐츠가 저장소 단일 쓰기 한도를 넘을 때 발생하는 에러.
// 공유 상태는 변경되지 않으며, 더 작은 콘텐츠로 재시도할 수 있다.
type OversizedContentError struct {
	Size  int
	Limit int
}

func (e OversizedContentError) Error() string {
	return fmt.Sprintf("content too large: %d bytes (limit %d)", e.Size, e.Limit)
}

// PlayerNotFoundError: 세션 로스터에 해당 uid가 없을 때 발생하는 에러
type PlayerNotFoundError struct {
	UID string
}

func (e PlayerNotFoundError) Error() string { return fmt.Sprintf("player not found: %s", e.UID) }

// SpectatorError: 관전자가 기여/투표를 시도했을 때 발생하는 에러
type SpectatorError struct {
	UID string
}

func (e SpectatorError) Error() string { return fmt.Sprintf("spectator cannot act: %s", e.UID) }

// SelfVoteError: 자신이 작성한 후보에 투표하려 할 때 발생하는 에러
type SelfVoteError struct {
	UID string
}

func (e SelfVoteError) Error() string { return fmt.Sprintf("cannot vote for own step: %s", e.UID) }

// InvalidVoteError: 존재하지 않거나 투표 대상이 아닌 후보일 때 발생하는 에러
type InvalidVoteError struct {
	Reason string
}

func (e InvalidVoteError) Error() string {
	if e.Reason == "" {
		return "invalid vote"
	}
	return "invalid vote: " + e.Reason
}

// EjectedError: 구독 중 로스터에서 자신의 uid가 사라졌을 때 발생하는 에러.
// 참가 종료를 의미하는 치명 에러이며 재시도해서는 안 된다.
type EjectedError struct {
	UID string
}

func (e EjectedError) Error() string { return fmt.Sprintf("ejected from session: %s", e.UID) }

// CodeTakenError: 생성하려는 세션 코드가 이미 사용 중일 때 발생하는 에러 (재생성 트리거)
type CodeTakenError struct {
	Code string
}

func (e CodeTakenError) Error() string { return fmt.Sprintf("session code taken: %s", e.Code) }

// expectedUserBehaviorTypes: 사용자의 정상적인 패턴 내 실수로 간주되는 에러 타입들
var expectedUserBehaviorTypes = []func() any{
	func() any { return new(SessionNotFoundError) },
	func() any { return new(NameRequiredError) },
	func() any { return new(OversizedContentError) },
	func() any { return new(NotEnoughPlayersError) },
	func() any { return new(SelfVoteError) },
	func() any { return new(InvalidVoteError) },
	func() any { return new(WrongPhaseError) },
}

// IsExpectedUserBehavior: 에러가 사용자의 정상적인(예상된) 실수인지 확인한다.
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
