package service

import (
	"context"
	"log/slog"

	garticerrors "github.com/park285/gartic-go/internal/gartic/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
)

// VoteService: 투표 집계와 순위 계산을 담당합니다.
// 득표는 스텝에 누적 카운터로만 기록되고, 순위는 표시 시점에
// 체인 전체를 훑어 재계산합니다. 누가 누구에게 투표했는지는 저장하지 않습니다.
type VoteService struct {
	store  *garticredis.RoomStore
	logger *slog.Logger
}

// NewVoteService: VoteService를 생성합니다.
func NewVoteService(store *garticredis.RoomStore, logger *slog.Logger) *VoteService {
	return &VoteService{
		store:  store,
		logger: logger.With("component", "vote_service"),
	}
}

// Cast: 후보 하나에 투표합니다. 자기 작성 스텝/관전자/중복 투표는 거부되며,
// 중복 투표는 (false, nil)로 멱등 처리됩니다.
func (v *VoteService) Cast(ctx context.Context, code, voterUID, ownerUID string, stepIndex int) (bool, error) {
	session, err := v.store.Load(ctx, code)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, &garticerrors.SessionNotFoundError{Code: code}
	}
	if session.Phase != model.PhaseVote {
		return false, &garticerrors.WrongPhaseError{Phase: string(session.Phase), Expected: string(model.PhaseVote)}
	}

	voter := session.FindPlayer(voterUID)
	if voter == nil {
		return false, &garticerrors.PlayerNotFoundError{UID: voterUID}
	}
	if voter.IsSpectator {
		return false, &garticerrors.SpectatorError{UID: voterUID}
	}
	if voter.HasVoted {
		return false, nil
	}

	step, err := validateCandidate(session, voterUID, ownerUID, stepIndex)
	if err != nil {
		return false, err
	}

	if err := v.store.IncrVote(ctx, code, ownerUID, stepIndex); err != nil {
		return false, err
	}

	updated := *voter
	updated.HasVoted = true
	if err := v.store.PutPlayer(ctx, code, updated); err != nil {
		return false, err
	}

	v.logger.Info("vote_cast",
		"code", code,
		"voter_uid", voterUID,
		"chain_owner", ownerUID,
		"step_index", stepIndex,
		"author_uid", step.AuthorID,
	)
	return true, nil
}

// Candidates: 투표 화면에 표시할 후보 목록을 반환합니다.
func (v *VoteService) Candidates(session *model.Session, voterUID string) []model.VoteCandidate {
	return model.VoteCandidates(session, voterUID)
}

// Standings: 재계산된 점수의 포디움 순위를 반환합니다.
func (v *VoteService) Standings(session *model.Session) []model.RankedPlayer {
	return model.Ranking(session)
}

// validateCandidate: 투표 대상이 실제 투표 가능 후보인지 확인한다.
func validateCandidate(session *model.Session, voterUID, ownerUID string, stepIndex int) (model.Step, error) {
	chain, ok := session.Chains[ownerUID]
	if !ok || stepIndex < 0 || stepIndex >= len(chain.Steps) {
		return model.Step{}, &garticerrors.InvalidVoteError{Reason: "no such step"}
	}
	step := chain.Steps[stepIndex]
	if step.AuthorID == voterUID {
		return model.Step{}, &garticerrors.SelfVoteError{UID: voterUID}
	}
	if session.Mode == model.ModeExquisite {
		if stepIndex != 0 {
			return model.Step{}, &garticerrors.InvalidVoteError{Reason: "exquisite vote targets the chain"}
		}
	} else if step.Type != model.StepDrawing {
		return model.Step{}, &garticerrors.InvalidVoteError{Reason: "only drawings can be voted"}
	}
	return step, nil
}
