package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	garticerrors "github.com/park285/gartic-go/internal/gartic/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
)

// ClientRuntime: 참가자 한 명의 클라이언트 측 세션 루프입니다.
//
// 세션 스트림을 구독해 스냅샷을 콜백으로 전달하고, 두 가지를 보조합니다:
//   - 퇴장 감지: 로스터에서 자신의 uid가 사라지면 루프를 끝낸다.
//   - 소프트 마감: 턴 마감이 지나도 제출하지 않았으면 현재 초안(없으면
//     자리 표시자)을 대신 제출한다. 마감은 힌트일 뿐 강제가 아니라서
//     이미 제출된 상태면 멱등하게 무시된다.
type ClientRuntime struct {
	store  *garticredis.RoomStore
	submit *SubmitService
	logger *slog.Logger
	code   string
	uid    string

	placeholder string // 마감 자동 제출에 쓰는 자리 표시자 콘텐츠

	mu    sync.Mutex
	draft string

	// OnSnapshot: 새 스냅샷마다 호출됩니다. nil이면 무시됩니다.
	OnSnapshot func(*model.Session)
}

// NewClientRuntime: ClientRuntime을 생성합니다.
func NewClientRuntime(store *garticredis.RoomStore, submit *SubmitService, logger *slog.Logger, code, uid, placeholder string) *ClientRuntime {
	return &ClientRuntime{
		store:       store,
		submit:      submit,
		logger:      logger.With("component", "client_runtime", "code", code, "uid", uid),
		code:        code,
		uid:         uid,
		placeholder: placeholder,
	}
}

// SetDraft: 아직 제출하지 않은 작업 중 콘텐츠를 보관합니다.
// 마감 자동 제출 시 이 초안이 사용됩니다.
func (c *ClientRuntime) SetDraft(content string) {
	c.mu.Lock()
	c.draft = content
	c.mu.Unlock()
}

// Submit: 현재 라운드 기여를 제출하고 초안을 비웁니다.
func (c *ClientRuntime) Submit(ctx context.Context, content string) (bool, error) {
	applied, err := c.submit.Submit(ctx, c.code, c.uid, content)
	if err != nil {
		return false, err
	}
	if applied {
		c.SetDraft("")
	}
	return applied, nil
}

// Run: ctx가 취소되거나 퇴장당할 때까지 세션 루프를 돕니다.
// 퇴장 시 EjectedError를 반환합니다. 이 에러는 재시도 대상이 아닙니다.
func (c *ClientRuntime) Run(ctx context.Context) error {
	sessions, errCh := c.store.Subscribe(ctx, c.code)

	deadline := newDeadlineTimer()
	defer deadline.stop()

	var latest *model.Session

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errCh:
			if !ok {
				return ctx.Err()
			}
			return err
		case <-deadline.c():
			c.autoSubmit(ctx, latest)
		case session, ok := <-sessions:
			if !ok {
				return ctx.Err()
			}
			if session == nil {
				// 세션 레코드 자체가 사라졌다 (만료 또는 삭제).
				return &garticerrors.SessionNotFoundError{Code: c.code}
			}

			if session.FindPlayer(c.uid) == nil && session.Phase != model.PhaseResults {
				c.logger.Info("ejected_from_session")
				return &garticerrors.EjectedError{UID: c.uid}
			}

			latest = session
			c.rearmDeadline(deadline, session)
			if c.OnSnapshot != nil {
				c.OnSnapshot(session)
			}
		}
	}
}

// rearmDeadline: 진행 중 라운드의 턴 마감에 맞춰 타이머를 다시 건다.
func (c *ClientRuntime) rearmDeadline(deadline *deadlineTimer, session *model.Session) {
	if !session.Phase.IsPlay() || session.TurnExpiresAt <= 0 {
		deadline.stop()
		return
	}
	player := session.FindPlayer(c.uid)
	if player == nil || player.IsSpectator || player.IsReady {
		deadline.stop()
		return
	}
	remaining := time.Until(time.UnixMilli(session.TurnExpiresAt))
	if remaining < 0 {
		remaining = 0
	}
	deadline.reset(remaining)
}

// autoSubmit: 마감이 지난 라운드에 초안 또는 자리 표시자를 제출한다.
func (c *ClientRuntime) autoSubmit(ctx context.Context, session *model.Session) {
	if session == nil || !session.Phase.IsPlay() {
		return
	}

	c.mu.Lock()
	content := c.draft
	c.mu.Unlock()
	if content == "" {
		content = c.placeholder
	}

	applied, err := c.Submit(ctx, content)
	if err != nil {
		if garticerrors.IsExpectedUserBehavior(err) {
			c.logger.Debug("deadline_submit_rejected", "error", err)
			return
		}
		c.logger.Warn("deadline_submit_failed", "error", err)
		return
	}
	if applied {
		c.logger.Info("deadline_auto_submit", "round", session.Round)
	}
}

// deadlineTimer: 정지 상태로 시작하는 재사용 타이머
type deadlineTimer struct {
	timer *time.Timer
}

func newDeadlineTimer() *deadlineTimer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return &deadlineTimer{timer: t}
}

func (d *deadlineTimer) c() <-chan time.Time { return d.timer.C }

func (d *deadlineTimer) reset(duration time.Duration) {
	d.stop()
	d.timer.Reset(duration)
}

func (d *deadlineTimer) stop() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
}
