// Package service 는 세션 생명주기, 제출, 투표, 전이 제어 로직을 제공합니다.
// 모든 서비스는 공유 상태를 RoomStore를 통해서만 읽고 씁니다.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	garticerrors "github.com/park285/gartic-go/internal/gartic/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
)

const sessionCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SessionService: 세션 생성/참가와 로비 관리, 게임 시작을 담당합니다.
type SessionService struct {
	store  *garticredis.RoomStore
	logger *slog.Logger

	codeLength   int
	maxAttempts  int
	timerDefault int
}

// SessionServiceOptions: SessionService 생성 옵션입니다.
type SessionServiceOptions struct {
	CodeLength    int
	MaxAttempts   int
	TimerDuration int // 새 세션의 기본 턴 제한 초
}

// NewSessionService: SessionService를 생성합니다.
func NewSessionService(store *garticredis.RoomStore, logger *slog.Logger, opts SessionServiceOptions) *SessionService {
	return &SessionService{
		store:        store,
		logger:       logger.With("component", "session_service"),
		codeLength:   opts.CodeLength,
		maxAttempts:  opts.MaxAttempts,
		timerDefault: opts.TimerDuration,
	}
}

// Create: 새 세션을 만들고 호출자를 호스트로 참가시킵니다.
// 코드 충돌 시 재생성하며, 연속 충돌이 한도를 넘으면 실패합니다.
func (s *SessionService) Create(ctx context.Context, hostUID, hostName string) (*model.Session, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, &garticerrors.NameRequiredError{}
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		code, err := newSessionCode(s.codeLength)
		if err != nil {
			return nil, err
		}

		host := model.NewPlayer(hostUID, hostName, true, model.AvatarColorFor(0))
		session := model.NewSession(code, host, s.timerDefault)

		err = s.store.Create(ctx, session)
		if err == nil {
			return &session, nil
		}
		var taken *garticerrors.CodeTakenError
		if !errors.As(err, &taken) {
			return nil, err
		}
		s.logger.Debug("session_code_collision", "code", code, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("session code generation exhausted after %d attempts", s.maxAttempts)
}

// Join: 세션에 참가합니다. 코드는 대소문자를 구분하지 않습니다.
// 로비가 아니면 관전자로 참가하며, 같은 uid로 이미 참가 중이면
// 현재 세션을 그대로 반환합니다.
func (s *SessionService) Join(ctx context.Context, code, uid, name string) (*model.Session, error) {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &garticerrors.NameRequiredError{}
	}

	session, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}

	if existing := session.FindPlayer(uid); existing != nil {
		// 재접속. 로스터를 중복시키지 않고 표시 이름만 갱신한다.
		if existing.Name == name {
			return session, nil
		}
		refreshed := *existing
		refreshed.Name = name
		if err := s.store.PutPlayer(ctx, code, refreshed); err != nil {
			return nil, err
		}
		return s.load(ctx, code)
	}

	color := model.AvatarColorFor(len(session.Players))
	var player model.Player
	if session.Phase == model.PhaseLobby {
		player = model.NewPlayer(uid, name, false, color)
	} else {
		// 진행 중 참가는 관전. 준비/투표 플래그가 미리 참이라 전이를 막지 않는다.
		player = model.NewSpectator(uid, name, color)
	}

	if err := s.store.AddPlayer(ctx, code, player); err != nil {
		return nil, err
	}
	return s.load(ctx, code)
}

// SetMode: 호스트가 로비에서 게임 모드를 변경합니다.
func (s *SessionService) SetMode(ctx context.Context, code, uid string, mode model.Mode) error {
	session, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	if err := requireHost(session, uid); err != nil {
		return err
	}
	if session.Phase != model.PhaseLobby {
		return &garticerrors.WrongPhaseError{Phase: string(session.Phase), Expected: string(model.PhaseLobby)}
	}
	return s.store.SetMode(ctx, code, mode)
}

// SetTimer: 호스트가 로비에서 턴당 제한 시간을 변경합니다. 0이면 무제한입니다.
func (s *SessionService) SetTimer(ctx context.Context, code, uid string, seconds int) error {
	if seconds < 0 {
		seconds = 0
	}
	session, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	if err := requireHost(session, uid); err != nil {
		return err
	}
	if session.Phase != model.PhaseLobby {
		return &garticerrors.WrongPhaseError{Phase: string(session.Phase), Expected: string(model.PhaseLobby)}
	}
	return s.store.SetTimerDuration(ctx, code, seconds)
}

// Kick: 호스트가 참가자를 내보냅니다. 해당 참가자의 체인도 함께 제거되어
// 남은 인원의 순번 회전은 즉시 새 로스터 기준으로 계산됩니다.
func (s *SessionService) Kick(ctx context.Context, code, hostUID, targetUID string) error {
	session, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	if err := requireHost(session, hostUID); err != nil {
		return err
	}
	if hostUID == targetUID {
		return fmt.Errorf("host cannot kick self: %s", hostUID)
	}
	if session.FindPlayer(targetUID) == nil {
		return &garticerrors.PlayerNotFoundError{UID: targetUID}
	}
	return s.store.RemovePlayer(ctx, code, targetUID)
}

// Leave: 참가자가 스스로 세션을 떠납니다.
func (s *SessionService) Leave(ctx context.Context, code, uid string) error {
	session, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	if session.FindPlayer(uid) == nil {
		return nil
	}
	return s.store.RemovePlayer(ctx, code, uid)
}

// StartGame: 호스트가 게임을 시작합니다. 최소 인원 미달이면 거부합니다.
func (s *SessionService) StartGame(ctx context.Context, code, uid string, minPlayers int) error {
	session, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	if err := requireHost(session, uid); err != nil {
		return err
	}
	if session.Phase != model.PhaseLobby {
		return &garticerrors.WrongPhaseError{Phase: string(session.Phase), Expected: string(model.PhaseLobby)}
	}
	active := session.ActivePlayers()
	if len(active) < minPlayers {
		return &garticerrors.NotEnoughPlayersError{Count: len(active), Min: minPlayers}
	}

	var turnExpiresAt int64
	if session.TimerDuration > 0 {
		turnExpiresAt = time.Now().Add(time.Duration(session.TimerDuration) * time.Second).UnixMilli()
	}
	return s.store.StartGame(ctx, session, turnExpiresAt)
}

// ShowResults: 시상식을 끝내고 전체 결과 열람으로 넘깁니다.
// 호스트 전용이 아니라 시상식을 보고 있는 누구나 넘길 수 있습니다.
// 전이가 CAS라 여러 참가자가 동시에 눌러도 한 번만 적용됩니다.
func (s *SessionService) ShowResults(ctx context.Context, code, uid string) error {
	session, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	if session.FindPlayer(uid) == nil {
		return &garticerrors.PlayerNotFoundError{UID: uid}
	}
	if session.Phase != model.PhasePodium {
		return &garticerrors.WrongPhaseError{Phase: string(session.Phase), Expected: string(model.PhasePodium)}
	}
	applied, err := s.store.Advance(ctx, code, garticredis.AdvanceRequest{
		ExpectedPhase: model.PhasePodium,
		ExpectedRound: session.Round,
		NextPhase:     model.PhaseResults,
		Gate:          garticredis.GateNone,
	})
	if err != nil {
		return err
	}
	if !applied {
		s.logger.Debug("show_results_already_applied", "code", code)
	}
	return nil
}

// ReturnToLobby: 호스트가 세션을 로비로 되돌립니다. 체인과 득표는 비워지고
// 로스터(관전자였던 참가자 포함)는 유지됩니다.
func (s *SessionService) ReturnToLobby(ctx context.Context, code, uid string) error {
	session, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	if err := requireHost(session, uid); err != nil {
		return err
	}
	if !session.Phase.CanTransitionTo(model.PhaseLobby) {
		return &garticerrors.WrongPhaseError{Phase: string(session.Phase), Expected: string(model.PhaseResults)}
	}
	return s.store.ResetForLobby(ctx, session)
}

// Get: 세션 스냅샷을 반환합니다. 코드는 대소문자를 구분하지 않습니다.
func (s *SessionService) Get(ctx context.Context, code string) (*model.Session, error) {
	return s.load(ctx, NormalizeCode(code))
}

// NormalizeCode: 입력된 세션 코드를 저장 형태(공백 제거 + 대문자)로 맞춥니다.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *SessionService) load(ctx context.Context, code string) (*model.Session, error) {
	session, err := s.store.Load(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &garticerrors.SessionNotFoundError{Code: code}
	}
	return session, nil
}

func requireHost(session *model.Session, uid string) error {
	player := session.FindPlayer(uid)
	if player == nil {
		return &garticerrors.PlayerNotFoundError{UID: uid}
	}
	if !player.IsHost {
		return &garticerrors.NotHostError{UID: uid}
	}
	return nil
}

// newSessionCode: 대문자/숫자로 이루어진 무작위 세션 코드를 생성한다.
func newSessionCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session code failed: %w", err)
	}
	for i, b := range buf {
		buf[i] = sessionCodeCharset[int(b)%len(sessionCodeCharset)]
	}
	return string(buf), nil
}
