package redis

import (
	"context"
	"strconv"

	"github.com/valkey-io/valkey-go"

	"github.com/park285/gartic-go/internal/common/valkeyx"
	"github.com/park285/gartic-go/internal/gartic/assets"
	"github.com/park285/gartic-go/internal/gartic/model"
)

// advanceScript: 페이즈/라운드 전이를 (expectedPhase, expectedRound) CAS로 적용한다.
// EVALSHA 캐시는 valkey-go가 관리한다.
var advanceScript = valkey.NewLuaScript(assets.AdvanceLua)

// AdvanceGate: 전이 전에 서버 측에서 재검증하는 완료 조건입니다.
type AdvanceGate string

const (
	// GateReady: 비관전 플레이어 전원이 isReady 상태여야 전이합니다.
	GateReady AdvanceGate = "ready"
	// GateVoted: 비관전 플레이어 전원이 hasVoted 상태여야 전이합니다.
	GateVoted AdvanceGate = "voted"
	// GateNone: 완료 조건 없이 (phase, round) CAS만 수행합니다.
	GateNone AdvanceGate = "none"
)

// AdvanceRequest: 전이 한 번의 명세입니다.
type AdvanceRequest struct {
	ExpectedPhase model.Phase
	ExpectedRound int
	NextPhase     model.Phase
	RoundDelta    int
	Gate          AdvanceGate
	TurnExpiresAt int64 // >0 설정, 0 유지, <0 필드 삭제
	ResetFlags    bool  // 전이 시 비관전 플레이어의 준비/투표 플래그 초기화
}

// Advance: 전이를 원자적으로 시도합니다.
// 다른 주체가 먼저 전이시켜 기대한 (phase, round)가 아니게 되었거나
// 완료 조건이 깨져 있으면 아무것도 바꾸지 않고 false를 반환합니다.
// 같은 전이를 두 주체가 경합해도 정확히 한 번만 적용됩니다.
func (s *RoomStore) Advance(ctx context.Context, code string, req AdvanceRequest) (bool, error) {
	resetFlags := "0"
	if req.ResetFlags {
		resetFlags = "1"
	}

	result := advanceScript.Exec(ctx, s.client,
		[]string{roomKey(code)},
		[]string{
			string(req.ExpectedPhase),
			strconv.Itoa(req.ExpectedRound),
			string(req.NextPhase),
			strconv.Itoa(req.RoundDelta),
			string(req.Gate),
			strconv.FormatInt(req.TurnExpiresAt, 10),
			resetFlags,
		},
	)
	rev, err := result.AsInt64()
	if err != nil {
		return false, valkeyx.WrapRedisError("advance", err)
	}
	if rev == 0 {
		s.logger.Debug("advance_lost_race",
			"code", code,
			"expected_phase", req.ExpectedPhase,
			"expected_round", req.ExpectedRound,
		)
		return false, nil
	}

	if err := valkeyx.Publish(ctx, s.client, eventsChannel(code), strconv.FormatInt(rev, 10)); err != nil {
		return true, valkeyx.WrapRedisError("advance", err)
	}
	s.logger.Info("phase_advanced",
		"code", code,
		"from_phase", req.ExpectedPhase,
		"to_phase", req.NextPhase,
		"round", req.ExpectedRound+req.RoundDelta,
		"rev", rev,
	)
	return true, nil
}
