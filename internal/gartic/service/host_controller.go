package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/park285/gartic-go/internal/gartic/model"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
)

// HostController: 호스트 클라이언트에서만 도는 전이 제어 루프입니다.
//
// 세션 스트림을 구독하다가 현재 (phase, round)의 완료 조건이 성립하면
// 고정 지연 후 세션을 다시 읽어 조건을 재확인하고 CAS 전이를 시도합니다.
// 전이 자체가 원자적이라 호스트 탭이 둘 떠도 한 번만 적용됩니다.
type HostController struct {
	store        *garticredis.RoomStore
	logger       *slog.Logger
	code         string
	uid          string
	advanceDelay time.Duration
}

// NewHostController: HostController를 생성합니다. uid는 이 클라이언트의 플레이어입니다.
func NewHostController(store *garticredis.RoomStore, logger *slog.Logger, code, uid string, advanceDelay time.Duration) *HostController {
	return &HostController{
		store:        store,
		logger:       logger.With("component", "host_controller", "code", code),
		code:         code,
		uid:          uid,
		advanceDelay: advanceDelay,
	}
}

// Run: ctx가 취소될 때까지 전이 제어 루프를 돕니다.
// 구독 스트림이 닫히면 그 에러를 반환합니다.
func (h *HostController) Run(ctx context.Context) error {
	sessions, errCh := h.store.Subscribe(ctx, h.code)

	// 같은 (phase, round)에 대해 지연 타이머를 중복으로 걸지 않는다.
	// 발사 시도가 일시 오류로 끝나면 rearm으로 표시를 풀어 다음 스냅샷에서
	// 다시 시도할 수 있게 한다. 오류 없이 CAS가 거부된 경우는 상태가 이미
	// 움직인 것이므로 풀지 않는다.
	var pendingPhase model.Phase
	pendingRound := -1
	rearm := make(chan struct{}, 1)
	warnedAbsent := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errCh:
			if !ok {
				return ctx.Err()
			}
			return err
		case <-rearm:
			pendingPhase = ""
			pendingRound = -1
		case session, ok := <-sessions:
			if !ok {
				return ctx.Err()
			}
			if session == nil {
				continue
			}

			if session.HostUID() == "" && session.Phase != model.PhaseLobby {
				// 호스트가 떠난 세션은 전이 주체가 없다. 자동 승계는 하지 않는다.
				if !warnedAbsent {
					h.logger.Warn("host_absent", "phase", session.Phase)
					warnedAbsent = true
				}
				continue
			}
			warnedAbsent = false
			if session.HostUID() != h.uid {
				continue
			}

			req, ok := pendingTransition(session)
			if !ok {
				continue
			}
			if session.Phase == pendingPhase && session.Round == pendingRound {
				continue
			}
			pendingPhase = session.Phase
			pendingRound = session.Round

			go h.fireAfterDelay(ctx, req, rearm)
		}
	}
}

// fireAfterDelay: 지연 후 최신 세션으로 조건을 재확인하고 전이를 시도한다.
// 지연 사이에 상태가 바뀌었으면 (킥으로 조건이 깨졌거나 이미 전이됐으면)
// CAS가 거부하므로 그냥 끝낸다. 일시 오류로 끝나면 rearm을 울려
// 루프가 같은 (phase, round)에서 다시 시도할 수 있게 한다.
func (h *HostController) fireAfterDelay(ctx context.Context, req garticredis.AdvanceRequest, rearm chan<- struct{}) {
	timer := time.NewTimer(h.advanceDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	session, err := h.store.Load(ctx, h.code)
	if err != nil {
		h.logger.Warn("advance_reload_failed", "error", err)
		signalRearm(rearm)
		return
	}
	if session == nil || session.Phase != req.ExpectedPhase || session.Round != req.ExpectedRound {
		return
	}
	// 로스터가 변했을 수 있으니 요청을 최신 상태로 다시 만든다.
	fresh, ok := pendingTransition(session)
	if !ok {
		return
	}

	applied, err := h.store.Advance(ctx, h.code, fresh)
	if err != nil {
		h.logger.Error("advance_failed", "error", err)
		signalRearm(rearm)
		return
	}
	if !applied {
		h.logger.Debug("advance_skipped_stale",
			"phase", req.ExpectedPhase,
			"round", req.ExpectedRound,
		)
	}
}

func signalRearm(rearm chan<- struct{}) {
	select {
	case rearm <- struct{}{}:
	default:
	}
}

// pendingTransition: 세션의 완료 조건이 성립하면 적용할 전이를 돌려준다.
func pendingTransition(session *model.Session) (garticredis.AdvanceRequest, bool) {
	switch {
	case session.Phase.IsPlay() && session.AllReady():
		if session.IsGameEnd() {
			return garticredis.AdvanceRequest{
				ExpectedPhase: session.Phase,
				ExpectedRound: session.Round,
				NextPhase:     model.PhaseVote,
				Gate:          garticredis.GateReady,
				TurnExpiresAt: -1,
				ResetFlags:    true,
			}, true
		}
		next := session.Round + 1
		expires := int64(-1)
		if session.TimerDuration > 0 {
			expires = time.Now().Add(time.Duration(session.TimerDuration) * time.Second).UnixMilli()
		}
		return garticredis.AdvanceRequest{
			ExpectedPhase: session.Phase,
			ExpectedRound: session.Round,
			NextPhase:     model.NextPlayPhase(session.Mode, next),
			RoundDelta:    1,
			Gate:          garticredis.GateReady,
			TurnExpiresAt: expires,
			ResetFlags:    true,
		}, true

	case session.Phase == model.PhaseVote && session.AllVoted():
		return garticredis.AdvanceRequest{
			ExpectedPhase: model.PhaseVote,
			ExpectedRound: session.Round,
			NextPhase:     model.PhasePodium,
			Gate:          garticredis.GateVoted,
			TurnExpiresAt: -1,
		}, true
	}
	return garticredis.AdvanceRequest{}, false
}
