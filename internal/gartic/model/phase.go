package model

import "strings"

// Phase: 세션 상태 머신의 상태
type Phase string

const (
	PhaseLobby         Phase = "LOBBY"
	PhaseWriteStart    Phase = "WRITE_START"
	PhaseDraw          Phase = "DRAW"
	PhaseGuess         Phase = "GUESS"
	PhaseExquisiteDraw Phase = "EXQUISITE_DRAW"
	PhaseVote          Phase = "VOTE"
	PhasePodium        Phase = "PODIUM"
	PhaseResults       Phase = "RESULTS"
)

// ParsePhase: 문자열을 Phase로 변환한다. 알 수 없는 값이면 ok=false.
func ParsePhase(input string) (Phase, bool) {
	normalized := Phase(strings.ToUpper(strings.TrimSpace(input)))
	switch normalized {
	case PhaseLobby, PhaseWriteStart, PhaseDraw, PhaseGuess,
		PhaseExquisiteDraw, PhaseVote, PhasePodium, PhaseResults:
		return normalized, true
	default:
		return PhaseLobby, false
	}
}

// IsPlay: 플레이어가 스텝을 제출하는 진행 단계인지 여부
func (p Phase) IsPlay() bool {
	switch p {
	case PhaseWriteStart, PhaseDraw, PhaseGuess, PhaseExquisiteDraw:
		return true
	default:
		return false
	}
}

// validTransitions: 허용된 상태 전이 테이블
var validTransitions = map[Phase][]Phase{
	PhaseLobby:         {PhaseWriteStart, PhaseExquisiteDraw},
	PhaseWriteStart:    {PhaseDraw, PhaseVote},
	PhaseDraw:          {PhaseGuess, PhaseVote},
	PhaseGuess:         {PhaseDraw, PhaseVote},
	PhaseExquisiteDraw: {PhaseExquisiteDraw, PhaseVote},
	PhaseVote:          {PhasePodium},
	PhasePodium:        {PhaseResults},
	PhaseResults:       {PhaseLobby},
}

// CanTransitionTo: 현재 상태에서 target으로의 전이가 허용되는지 확인한다.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range validTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// StartPhase: 게임 시작 시 진입하는 첫 진행 단계
func StartPhase(mode Mode) Phase {
	if mode == ModeExquisite {
		return PhaseExquisiteDraw
	}
	return PhaseWriteStart
}

// NextPlayPhase: 다음 라운드의 진행 단계.
// 짝수 라운드는 글(GUESS), 홀수 라운드는 그림(DRAW). EXQUISITE는 같은 단계 반복.
func NextPlayPhase(mode Mode, nextRound int) Phase {
	if mode == ModeExquisite {
		return PhaseExquisiteDraw
	}
	if nextRound%2 == 0 {
		return PhaseGuess
	}
	return PhaseDraw
}
