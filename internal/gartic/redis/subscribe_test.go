package redis

import (
	"context"
	"testing"
	"time"

	"github.com/park285/gartic-go/internal/gartic/model"
)

func waitSnapshot(t *testing.T, sessions <-chan *model.Session) *model.Session {
	t.Helper()
	select {
	case session := <-sessions:
		return session
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribe_EmitsInitialSnapshot(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Create(ctx, newLobbySession("SUB1")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sessions, _ := store.Subscribe(ctx, "SUB1")
	got := waitSnapshot(t, sessions)
	if got == nil || got.Code != "SUB1" {
		t.Fatalf("expected initial snapshot for SUB1, got %+v", got)
	}
}

func TestSubscribe_DeliversCommits(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Create(ctx, newLobbySession("SUB2")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sessions, _ := store.Subscribe(ctx, "SUB2")
	initial := waitSnapshot(t, sessions)
	if initial == nil {
		t.Fatal("expected initial snapshot")
	}

	joiner := model.NewPlayer("p2", "둘째", false, model.AvatarColorFor(1))
	if err := store.AddPlayer(ctx, "SUB2", joiner); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// 구독 수립 전에 커밋이 끝나 알림이 유실될 수 있다.
	// 커밋을 더 일으켜 재조회를 유도하면 결국 최신 스냅샷으로 수렴해야 한다.
	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case session := <-sessions:
			if session != nil && session.FindPlayer("p2") != nil {
				return
			}
		case <-ticker.C:
			if err := store.SetTimerDuration(ctx, "SUB2", 60); err != nil {
				t.Fatalf("touch failed: %v", err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for commit snapshot")
		}
	}
}

func TestSubscribe_ClosesOnCancel(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	if err := store.Create(ctx, newLobbySession("SUB3")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	sessions, _ := store.Subscribe(ctx, "SUB3")
	waitSnapshot(t, sessions)

	cancel()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-sessions:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel must close after cancel")
		}
	}
}
