package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/park285/gartic-go/internal/gartic/model"
)

// startedSession: 2인 세션을 만들어 WRITE_START 0라운드 상태로 둔다.
func startedSession(t *testing.T, store *RoomStore, code string) {
	t.Helper()
	ctx := context.Background()

	if err := store.Create(ctx, newLobbySession(code)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.AddPlayer(ctx, code, model.NewPlayer("p2", "둘째", false, model.AvatarColorFor(1))); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	loaded, err := store.Load(ctx, code)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := store.StartGame(ctx, loaded, 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}
}

func markAllReady(t *testing.T, store *RoomStore, code string) {
	t.Helper()
	ctx := context.Background()
	loaded, err := store.Load(ctx, code)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	for _, p := range loaded.Players {
		if p.IsSpectator {
			continue
		}
		p.IsReady = true
		if err := store.PutPlayer(ctx, code, p); err != nil {
			t.Fatalf("put failed: %v", err)
		}
	}
}

func TestAdvance_AppliesWhenExpectedStateMatches(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	startedSession(t, store, "ADV1")
	markAllReady(t, store, "ADV1")

	applied, err := store.Advance(ctx, "ADV1", AdvanceRequest{
		ExpectedPhase: model.PhaseWriteStart,
		ExpectedRound: 0,
		NextPhase:     model.PhaseDraw,
		RoundDelta:    1,
		Gate:          GateReady,
		ResetFlags:    true,
	})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !applied {
		t.Fatal("expected transition to apply")
	}

	got, err := store.Load(ctx, "ADV1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Phase != model.PhaseDraw || got.Round != 1 {
		t.Errorf("expected DRAW round 1, got %s round %d", got.Phase, got.Round)
	}
	for _, p := range got.Players {
		if p.IsReady {
			t.Errorf("ready flag must be cleared for %s", p.UID)
		}
	}
}

func TestAdvance_RejectsStaleExpectation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	startedSession(t, store, "ADV2")
	markAllReady(t, store, "ADV2")

	applied, err := store.Advance(ctx, "ADV2", AdvanceRequest{
		ExpectedPhase: model.PhaseDraw, // 실제로는 WRITE_START
		ExpectedRound: 0,
		NextPhase:     model.PhaseGuess,
		RoundDelta:    1,
		Gate:          GateNone,
	})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if applied {
		t.Fatal("stale expectation must be rejected")
	}

	got, _ := store.Load(ctx, "ADV2")
	if got.Phase != model.PhaseWriteStart || got.Round != 0 {
		t.Errorf("state must be untouched, got %s round %d", got.Phase, got.Round)
	}
}

func TestAdvance_GateBlocksWhenNotAllReady(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	startedSession(t, store, "ADV3")

	// host만 준비 완료
	loaded, _ := store.Load(ctx, "ADV3")
	host := loaded.FindPlayer("host-uid")
	host.IsReady = true
	if err := store.PutPlayer(ctx, "ADV3", *host); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	applied, err := store.Advance(ctx, "ADV3", AdvanceRequest{
		ExpectedPhase: model.PhaseWriteStart,
		ExpectedRound: 0,
		NextPhase:     model.PhaseDraw,
		RoundDelta:    1,
		Gate:          GateReady,
	})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if applied {
		t.Fatal("gate must block while a player is pending")
	}
}

func TestAdvance_SpectatorsDoNotBlockGate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	startedSession(t, store, "ADV4")

	// 진행 중 관전 참가. 플래그는 미리 참이지만 관전자는 게이트 대상이 아니다.
	spectator := model.NewSpectator("spec", "관전자", model.AvatarColorFor(3))
	spectator.IsReady = false
	if err := store.AddPlayer(ctx, "ADV4", spectator); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	markAllReady(t, store, "ADV4")

	applied, err := store.Advance(ctx, "ADV4", AdvanceRequest{
		ExpectedPhase: model.PhaseWriteStart,
		ExpectedRound: 0,
		NextPhase:     model.PhaseDraw,
		RoundDelta:    1,
		Gate:          GateReady,
	})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !applied {
		t.Fatal("spectator must not block the gate")
	}
}

func TestAdvance_ExactlyOnceUnderRace(t *testing.T) {
	// 호스트 탭이 둘 떠서 같은 전이를 동시에 발화해도 정확히 한 번만 적용된다.
	store, _ := newTestStore(t)
	ctx := context.Background()
	startedSession(t, store, "RACE")
	markAllReady(t, store, "RACE")

	req := AdvanceRequest{
		ExpectedPhase: model.PhaseWriteStart,
		ExpectedRound: 0,
		NextPhase:     model.PhaseDraw,
		RoundDelta:    1,
		Gate:          GateReady,
		ResetFlags:    true,
	}

	const racers = 8
	results := make([]bool, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			applied, err := store.Advance(ctx, "RACE", req)
			if err != nil {
				t.Errorf("advance failed: %v", err)
				return
			}
			results[i] = applied
		}(i)
	}
	wg.Wait()

	appliedCount := 0
	for _, applied := range results {
		if applied {
			appliedCount++
		}
	}
	if appliedCount != 1 {
		t.Fatalf("expected exactly one applied transition, got %d", appliedCount)
	}

	got, _ := store.Load(ctx, "RACE")
	if got.Phase != model.PhaseDraw || got.Round != 1 {
		t.Errorf("expected single advance to DRAW round 1, got %s round %d", got.Phase, got.Round)
	}
}

func TestAdvance_TurnExpiresAtLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	startedSession(t, store, "TIME")
	markAllReady(t, store, "TIME")

	applied, err := store.Advance(ctx, "TIME", AdvanceRequest{
		ExpectedPhase: model.PhaseWriteStart,
		ExpectedRound: 0,
		NextPhase:     model.PhaseDraw,
		RoundDelta:    1,
		Gate:          GateReady,
		TurnExpiresAt: 1_700_000_000_000,
		ResetFlags:    true,
	})
	if err != nil || !applied {
		t.Fatalf("advance failed: applied=%v err=%v", applied, err)
	}
	got, _ := store.Load(ctx, "TIME")
	if got.TurnExpiresAt != 1_700_000_000_000 {
		t.Errorf("expected deadline set, got %d", got.TurnExpiresAt)
	}

	markAllReady(t, store, "TIME")
	applied, err = store.Advance(ctx, "TIME", AdvanceRequest{
		ExpectedPhase: model.PhaseDraw,
		ExpectedRound: 1,
		NextPhase:     model.PhaseVote,
		Gate:          GateReady,
		TurnExpiresAt: -1,
		ResetFlags:    true,
	})
	if err != nil || !applied {
		t.Fatalf("advance failed: applied=%v err=%v", applied, err)
	}
	got, _ = store.Load(ctx, "TIME")
	if got.TurnExpiresAt != 0 {
		t.Errorf("expected deadline cleared, got %d", got.TurnExpiresAt)
	}
}
