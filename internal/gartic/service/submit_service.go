package service

import (
	"context"
	"log/slog"

	garticerrors "github.com/park285/gartic-go/internal/gartic/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
)

// SubmitService: 라운드 기여 제출 파이프라인입니다.
// 제출은 체인 append 와 준비 플래그 쓰기의 두 단계이며,
// 같은 플레이어의 중복 제출은 준비 플래그로 멱등 처리됩니다.
type SubmitService struct {
	store           *garticredis.RoomStore
	logger          *slog.Logger
	contentMaxBytes int
}

// NewSubmitService: SubmitService를 생성합니다.
func NewSubmitService(store *garticredis.RoomStore, logger *slog.Logger, contentMaxBytes int) *SubmitService {
	return &SubmitService{
		store:           store,
		logger:          logger.With("component", "submit_service"),
		contentMaxBytes: contentMaxBytes,
	}
}

// Submit: 이번 라운드의 기여를 제출합니다.
// 반환값 applied는 이번 호출이 실제로 스텝을 추가했는지를 나타냅니다.
// 이미 제출한 플레이어의 재호출은 (false, nil)로 끝나며 아무것도 바꾸지 않습니다.
// 콘텐츠가 한도를 넘으면 공유 상태를 일절 건드리지 않고 거부합니다.
func (s *SubmitService) Submit(ctx context.Context, code, uid, content string) (bool, error) {
	// 용량 검증이 가장 먼저다. 초과 제출은 어떤 쓰기도 일으키지 않는다.
	if size := len(content); size > s.contentMaxBytes {
		return false, &garticerrors.OversizedContentError{Size: size, Limit: s.contentMaxBytes}
	}

	session, err := s.store.Load(ctx, code)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, &garticerrors.SessionNotFoundError{Code: code}
	}
	if !session.Phase.IsPlay() {
		return false, &garticerrors.WrongPhaseError{Phase: string(session.Phase), Expected: "play phase"}
	}

	player := session.FindPlayer(uid)
	if player == nil {
		return false, &garticerrors.PlayerNotFoundError{UID: uid}
	}
	if player.IsSpectator {
		return false, &garticerrors.SpectatorError{UID: uid}
	}
	if player.IsReady {
		return false, nil
	}

	ownerUID, ok := session.ChainOwnerFor(uid)
	if !ok {
		return false, &garticerrors.PlayerNotFoundError{UID: uid}
	}

	step := model.Step{
		Type:       model.StepTypeFor(session.Mode, session.Round),
		AuthorID:   uid,
		AuthorName: player.Name,
		Content:    content,
	}
	if err := s.store.AppendStep(ctx, code, ownerUID, step); err != nil {
		return false, err
	}

	updated := *player
	updated.IsReady = true
	if err := s.store.PutPlayer(ctx, code, updated); err != nil {
		// 스텝은 들어갔지만 준비 플래그 쓰기가 실패한 상태.
		// 재시도하면 IsReady가 여전히 false라 스텝이 중복될 수 있으므로 에러를 그대로 올린다.
		return false, err
	}

	s.logger.Info("step_submitted",
		"code", code,
		"uid", uid,
		"round", session.Round,
		"chain_owner", ownerUID,
		"step_type", step.Type,
		"bytes", len(content),
	)
	return true, nil
}

// PromptFor: 이번 라운드에 플레이어가 보게 될 입력 컨텍스트를 반환합니다.
// 글 라운드면 직전 그림, 그림 라운드면 직전 문장이 컨텍스트가 됩니다.
// 첫 라운드이거나 컨텍스트가 없으면 빈 스텝과 false를 반환합니다.
func (s *SubmitService) PromptFor(session *model.Session, uid string) (model.Step, bool) {
	ownerUID, ok := session.ChainOwnerFor(uid)
	if !ok {
		return model.Step{}, false
	}
	chain, ok := session.Chains[ownerUID]
	if !ok || len(chain.Steps) == 0 {
		return model.Step{}, false
	}
	return chain.Steps[len(chain.Steps)-1], true
}
