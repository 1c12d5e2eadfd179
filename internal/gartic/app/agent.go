package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/park285/gartic-go/internal/common/messageprovider"
	garticconfig "github.com/park285/gartic-go/internal/gartic/config"
	"github.com/park285/gartic-go/internal/gartic/identity"
	"github.com/park285/gartic-go/internal/gartic/model"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
	"github.com/park285/gartic-go/internal/gartic/service"
)

// Agent: 세션 하나에 참가해 상태 스트림을 따라가는 헤드리스 참가자입니다.
// AGENT_MODE=create 면 세션을 만들어 호스트로서 전이 제어 루프까지 돌리고,
// AGENT_MODE=join 이면 기존 세션에 참가해 구독만 합니다.
type Agent struct {
	Config   garticconfig.AgentConfig
	Game     garticconfig.GameConfig
	Store    *garticredis.RoomStore
	Sessions *service.SessionService
	Submits  *service.SubmitService
	Votes    *service.VoteService
	Messages *messageprovider.Provider
	Logger   *slog.Logger
}

// Run: ctx가 취소될 때까지 에이전트를 실행합니다.
func (a *Agent) Run(ctx context.Context) error {
	uid := identity.ComposeUID(identity.Issue(), identity.NewTabID())
	logger := a.Logger.With("component", "agent", "uid", uid)

	var code string
	var isHost bool
	switch a.Config.Mode {
	case "create":
		session, err := a.Sessions.Create(ctx, uid, a.Config.Name)
		if err != nil {
			return fmt.Errorf("agent create session failed: %w", err)
		}
		code = session.Code
		isHost = true
		logger.Info("agent_session_created", "code", code)
	case "join":
		if a.Config.JoinCode == "" {
			return fmt.Errorf("agent join mode requires AGENT_JOIN_CODE")
		}
		session, err := a.Sessions.Join(ctx, a.Config.JoinCode, uid, a.Config.Name)
		if err != nil {
			return fmt.Errorf("agent join session failed: %w", err)
		}
		code = session.Code
		logger.Info("agent_session_joined", "code", code)
	default:
		return fmt.Errorf("unknown agent mode: %q", a.Config.Mode)
	}

	runtime := service.NewClientRuntime(
		a.Store,
		a.Submits,
		a.Logger,
		code,
		uid,
		a.Messages.Get("placeholder.empty_step"),
	)
	runtime.OnSnapshot = func(session *model.Session) {
		a.logSnapshot(logger, session, uid)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runtime.Run(gctx) })
	if isHost {
		controller := service.NewHostController(a.Store, a.Logger, code, uid, a.Game.AdvanceDelay)
		g.Go(func() error { return controller.Run(gctx) })
	}
	return g.Wait()
}

// logSnapshot: 현재 페이즈에 맞는 안내 메시지를 로그로 남긴다.
func (a *Agent) logSnapshot(logger *slog.Logger, session *model.Session, uid string) {
	logger.Info("session_snapshot",
		"phase", session.Phase,
		"round", session.Round,
		"players", len(session.Players),
		"rev", session.Rev,
	)

	switch session.Phase {
	case model.PhaseWriteStart:
		logger.Info("agent_prompt", "text", a.Messages.Get("prompts.write_start"))
	case model.PhaseDraw:
		prompt, ok := a.Submits.PromptFor(session, uid)
		if ok {
			logger.Info("agent_prompt",
				"text", a.Messages.Get("prompts.draw", messageprovider.P("sentence", prompt.Content)),
			)
		}
	case model.PhaseGuess:
		logger.Info("agent_prompt", "text", a.Messages.Get("prompts.guess"))
	case model.PhaseExquisiteDraw:
		segment := strings.ToLower(string(model.SegmentFor(session.Round)))
		logger.Info("agent_prompt",
			"text", a.Messages.Get("prompts.exquisite."+segment),
		)
	case model.PhaseVote:
		logger.Info("agent_prompt",
			"text", a.Messages.Get("prompts.vote"),
			"candidates", len(a.Votes.Candidates(session, uid)),
		)
	case model.PhasePodium:
		for rank, entry := range a.Votes.Standings(session) {
			logger.Info("podium_entry",
				"rank", rank+1,
				"name", entry.Player.Name,
				"score", entry.Score,
			)
		}
	}
}
