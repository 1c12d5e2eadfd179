package model

import "strings"

// Mode: 게임 모드 타입
type Mode string

const (
	// ModeClassic: 글 → 그림 → 글 교대 진행되는 기본 모드
	ModeClassic Mode = "CLASSIC"
	// ModeExquisite: 머리/몸통/다리를 이어 그리는 시체놀이(exquisite corpse) 모드
	ModeExquisite Mode = "EXQUISITE"
	// ModeTraditional: 종이에 그려 카메라로 찍어 올리는 모드
	ModeTraditional Mode = "TRADITIONAL"
	// ModePixel: 픽셀 그리드 에디터 모드
	ModePixel Mode = "PIXEL"
	// ModeThreeD: 복셀 에디터 모드 (출력은 동일한 스냅샷 blob)
	ModeThreeD Mode = "3D"
)

// ParseMode: 문자열을 Mode로 변환한다. 알 수 없는 값이면 ok=false.
func ParseMode(input string) (Mode, bool) {
	normalized := Mode(strings.ToUpper(strings.TrimSpace(input)))
	switch normalized {
	case ModeClassic, ModeExquisite, ModeTraditional, ModePixel, ModeThreeD:
		return normalized, true
	default:
		return ModeClassic, false
	}
}

// StepType: 한 스텝의 콘텐츠 종류
type StepType string

const (
	// StepText: 텍스트(상황 설명 또는 추측) 스텝
	StepText StepType = "TEXT"
	// StepDrawing: 그림(또는 스냅샷 blob) 스텝
	StepDrawing StepType = "DRAWING"
)

// StepTypeFor: (mode, round)만으로 스텝 타입을 결정하는 순수 함수.
// EXQUISITE는 항상 그림, 나머지 모드는 짝수 라운드 글 / 홀수 라운드 그림.
func StepTypeFor(mode Mode, round int) StepType {
	if mode == ModeExquisite {
		return StepDrawing
	}
	if round%2 == 0 {
		return StepText
	}
	return StepDrawing
}

// MaxRoundsFor: 게임 시작 시점에 고정되는 총 라운드 수.
// EXQUISITE는 신체 3분할로 고정, 그 외에는 참가자 수만큼 돈다.
func MaxRoundsFor(mode Mode, playerCount int) int {
	if mode == ModeExquisite {
		return 3
	}
	return playerCount
}

// Segment: EXQUISITE 모드에서 라운드별로 그릴 신체 부위
type Segment string

const (
	SegmentHead Segment = "HEAD"
	SegmentBody Segment = "BODY"
	SegmentLegs Segment = "LEGS"
)

// SegmentFor: 라운드 번호에 해당하는 신체 부위를 반환한다.
func SegmentFor(round int) Segment {
	switch round {
	case 0:
		return SegmentHead
	case 1:
		return SegmentBody
	default:
		return SegmentLegs
	}
}
