package service

import (
	"context"
	"errors"
	"testing"

	garticerrors "github.com/park285/gartic-go/internal/gartic/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
)

// votingGame: 2인 세션을 투표 단계까지 진행시킨다.
// 라운드 0(글) → 라운드 1(그림) → VOTE.
func votingGame(t *testing.T, sessions *SessionService, submits *SubmitService, store *garticredis.RoomStore) string {
	t.Helper()
	ctx := context.Background()
	code := startedGame(t, sessions)

	// 라운드 0: 글 제출
	for _, uid := range []string{"host-uid", "p2"} {
		if _, err := submits.Submit(ctx, code, uid, "문장 by "+uid); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	applied, err := store.Advance(ctx, code, garticredis.AdvanceRequest{
		ExpectedPhase: model.PhaseWriteStart,
		ExpectedRound: 0,
		NextPhase:     model.PhaseDraw,
		RoundDelta:    1,
		Gate:          garticredis.GateReady,
		ResetFlags:    true,
	})
	if err != nil || !applied {
		t.Fatalf("advance to DRAW failed: applied=%v err=%v", applied, err)
	}

	// 라운드 1: 그림 제출
	for _, uid := range []string{"host-uid", "p2"} {
		if _, err := submits.Submit(ctx, code, uid, "blob by "+uid); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	applied, err = store.Advance(ctx, code, garticredis.AdvanceRequest{
		ExpectedPhase: model.PhaseDraw,
		ExpectedRound: 1,
		NextPhase:     model.PhaseVote,
		Gate:          garticredis.GateReady,
		TurnExpiresAt: -1,
		ResetFlags:    true,
	})
	if err != nil || !applied {
		t.Fatalf("advance to VOTE failed: applied=%v err=%v", applied, err)
	}
	return code
}

func TestVote_CastIncrementsAndMarksVoted(t *testing.T) {
	sessions, submits, votes, store := newTestServices(t)
	ctx := context.Background()
	code := votingGame(t, sessions, submits, store)

	session, _ := sessions.Get(ctx, code)
	candidates := votes.Candidates(session, "host-uid")
	if len(candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	target := candidates[0]

	applied, err := votes.Cast(ctx, code, "host-uid", target.OwnerID, target.StepIndex)
	if err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if !applied {
		t.Fatal("expected vote to apply")
	}

	got, _ := sessions.Get(ctx, code)
	if !got.FindPlayer("host-uid").HasVoted {
		t.Error("voter must be marked as voted")
	}
	if got.Chains[target.OwnerID].Steps[target.StepIndex].Votes != 1 {
		t.Error("vote count must be incremented")
	}
}

func TestVote_DoubleCastIsIdempotent(t *testing.T) {
	sessions, submits, votes, store := newTestServices(t)
	ctx := context.Background()
	code := votingGame(t, sessions, submits, store)

	session, _ := sessions.Get(ctx, code)
	target := votes.Candidates(session, "host-uid")[0]

	if _, err := votes.Cast(ctx, code, "host-uid", target.OwnerID, target.StepIndex); err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	applied, err := votes.Cast(ctx, code, "host-uid", target.OwnerID, target.StepIndex)
	if err != nil {
		t.Fatalf("second cast errored: %v", err)
	}
	if applied {
		t.Fatal("second cast must not apply")
	}

	got, _ := sessions.Get(ctx, code)
	if got.Chains[target.OwnerID].Steps[target.StepIndex].Votes != 1 {
		t.Error("vote count must stay at 1")
	}
}

func TestVote_RejectsSelfVote(t *testing.T) {
	sessions, submits, votes, store := newTestServices(t)
	ctx := context.Background()
	code := votingGame(t, sessions, submits, store)

	// 라운드 1에 host는 p2의 체인에 그림을 그렸다. 그 스텝은 host의 것이다.
	session, _ := sessions.Get(ctx, code)
	var ownStep *model.VoteCandidate
	for _, p := range session.Players {
		chain := session.Chains[p.UID]
		for i, step := range chain.Steps {
			if step.Type == model.StepDrawing && step.AuthorID == "host-uid" {
				ownStep = &model.VoteCandidate{OwnerID: p.UID, StepIndex: i}
			}
		}
	}
	if ownStep == nil {
		t.Fatal("expected host's drawing somewhere in the chains")
	}

	_, err := votes.Cast(ctx, code, "host-uid", ownStep.OwnerID, ownStep.StepIndex)
	var selfVote *garticerrors.SelfVoteError
	if !errors.As(err, &selfVote) {
		t.Errorf("expected SelfVoteError, got %v", err)
	}
}

func TestVote_RejectsUnknownCandidate(t *testing.T) {
	sessions, submits, votes, store := newTestServices(t)
	ctx := context.Background()
	code := votingGame(t, sessions, submits, store)

	_, err := votes.Cast(ctx, code, "host-uid", "ghost", 0)
	var invalid *garticerrors.InvalidVoteError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidVoteError, got %v", err)
	}

	_, err = votes.Cast(ctx, code, "host-uid", "p2", 99)
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidVoteError for out-of-range index, got %v", err)
	}
}

func TestVote_RejectsTextStep(t *testing.T) {
	sessions, submits, votes, store := newTestServices(t)
	ctx := context.Background()
	code := votingGame(t, sessions, submits, store)

	// 인덱스 0은 라운드 0의 글 스텝이다.
	_, err := votes.Cast(ctx, code, "host-uid", "p2", 0)
	var invalid *garticerrors.InvalidVoteError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidVoteError for text step, got %v", err)
	}
}

func TestVote_RejectsOutsideVotePhase(t *testing.T) {
	sessions, _, votes, _ := newTestServices(t)
	ctx := context.Background()
	code := startedGame(t, sessions)

	_, err := votes.Cast(ctx, code, "host-uid", "p2", 0)
	var wrongPhase *garticerrors.WrongPhaseError
	if !errors.As(err, &wrongPhase) {
		t.Errorf("expected WrongPhaseError, got %v", err)
	}
}

func TestVote_SumEqualsEligibleVotesCast(t *testing.T) {
	sessions, submits, votes, store := newTestServices(t)
	ctx := context.Background()
	code := votingGame(t, sessions, submits, store)

	// 투표 중 합류한 관전자는 한 표도 넣지 못한다.
	if _, err := sessions.Join(ctx, code, "watcher", "관전자"); err != nil {
		t.Fatalf("late join failed: %v", err)
	}
	session, _ := sessions.Get(ctx, code)
	target := votes.Candidates(session, "host-uid")[0]
	if _, err := votes.Cast(ctx, code, "watcher", target.OwnerID, target.StepIndex); err == nil {
		t.Fatal("spectator vote must be rejected")
	}

	// 자격 있는 투표자 두 명이 각각 정확히 한 표씩 넣는다.
	for _, uid := range []string{"host-uid", "p2"} {
		s, _ := sessions.Get(ctx, code)
		c := votes.Candidates(s, uid)[0]
		if _, err := votes.Cast(ctx, code, uid, c.OwnerID, c.StepIndex); err != nil {
			t.Fatalf("cast failed: %v", err)
		}
	}
	if applied, _ := votes.Cast(ctx, code, "host-uid", target.OwnerID, target.StepIndex); applied {
		t.Error("double cast must not add to the tally")
	}

	got, _ := sessions.Get(ctx, code)
	total := 0
	for _, chain := range got.Chains {
		for _, step := range chain.Steps {
			total += step.Votes
		}
	}
	if total != 2 {
		t.Errorf("vote sum must equal the two eligible votes cast, got %d", total)
	}
}

func TestVote_StandingsRecomputedFromChains(t *testing.T) {
	sessions, submits, votes, store := newTestServices(t)
	ctx := context.Background()
	code := votingGame(t, sessions, submits, store)

	session, _ := sessions.Get(ctx, code)
	hostTarget := votes.Candidates(session, "host-uid")[0]
	p2Target := votes.Candidates(session, "p2")[0]

	if _, err := votes.Cast(ctx, code, "host-uid", hostTarget.OwnerID, hostTarget.StepIndex); err != nil {
		t.Fatalf("cast failed: %v", err)
	}
	if _, err := votes.Cast(ctx, code, "p2", p2Target.OwnerID, p2Target.StepIndex); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	final, _ := sessions.Get(ctx, code)
	standings := votes.Standings(final)
	if len(standings) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(standings))
	}
	total := standings[0].Score + standings[1].Score
	if total != 2 {
		t.Errorf("expected 2 votes in total, got %d", total)
	}
	if standings[0].Score < standings[1].Score {
		t.Error("standings must be in descending score order")
	}
}
