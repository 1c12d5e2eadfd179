package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/gartic-go/internal/common/testhelper"
	garticerrors "github.com/park285/gartic-go/internal/gartic/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
)

func newTestStore(t *testing.T) (*RoomStore, *miniredis.Miniredis) {
	t.Helper()
	client, mr := testhelper.NewMiniValkey(t)
	store := NewRoomStore(client, testhelper.DiscardLogger(), Config{TTL: time.Hour})
	return store, mr
}

func newLobbySession(code string) model.Session {
	host := model.NewPlayer("host-uid", "호스트", true, model.AvatarColorFor(0))
	return model.NewSession(code, host, 0)
}

func TestRoomStore_CreateAndLoad(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := newLobbySession("AB12")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.Load(ctx, "AB12")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.Code != "AB12" || got.Phase != model.PhaseLobby || got.Mode != model.ModeClassic {
		t.Errorf("unexpected session: %+v", got)
	}
	if len(got.Players) != 1 || got.Players[0].UID != "host-uid" || !got.Players[0].IsHost {
		t.Errorf("unexpected roster: %+v", got.Players)
	}
}

func TestRoomStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Load(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing session, got %+v", got)
	}
}

func TestRoomStore_CreateCodeTaken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newLobbySession("DUPE")); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	err := store.Create(ctx, newLobbySession("DUPE"))
	if err == nil {
		t.Fatal("expected code taken error")
	}
	var taken *garticerrors.CodeTakenError
	if !errors.As(err, &taken) {
		t.Errorf("expected CodeTakenError, got %v", err)
	}
}

func TestRoomStore_AddAndRemovePlayer(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newLobbySession("ROOM")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	joiner := model.NewPlayer("p2", "참가자", false, model.AvatarColorFor(1))
	if err := store.AddPlayer(ctx, "ROOM", joiner); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	got, err := store.Load(ctx, "ROOM")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got.Players) != 2 || got.Players[1].UID != "p2" {
		t.Fatalf("expected p2 appended to roster, got %+v", got.Players)
	}

	if err := store.RemovePlayer(ctx, "ROOM", "p2"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	got, err = store.Load(ctx, "ROOM")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got.Players) != 1 || got.Players[0].UID != "host-uid" {
		t.Errorf("expected only host left, got %+v", got.Players)
	}
}

func TestRoomStore_ConcurrentPlayerWritesBothSurvive(t *testing.T) {
	// 플레이어별 독립 필드 덕분에 두 플레이어의 동시 준비 플래그 쓰기가
	// 서로를 덮어쓰지 않아야 한다.
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := newLobbySession("RACE")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	p2 := model.NewPlayer("p2", "둘째", false, model.AvatarColorFor(1))
	if err := store.AddPlayer(ctx, "RACE", p2); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	var wg sync.WaitGroup
	for _, uid := range []string{"host-uid", "p2"} {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			loaded, err := store.Load(ctx, "RACE")
			if err != nil {
				t.Errorf("load failed: %v", err)
				return
			}
			player := loaded.FindPlayer(uid)
			player.IsReady = true
			if err := store.PutPlayer(ctx, "RACE", *player); err != nil {
				t.Errorf("put failed: %v", err)
			}
		}(uid)
	}
	wg.Wait()

	got, err := store.Load(ctx, "RACE")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	for _, p := range got.Players {
		if !p.IsReady {
			t.Errorf("lost update: %s is not ready", p.UID)
		}
	}
}

func TestRoomStore_StartGameAndChains(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := newLobbySession("GAME")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.AddPlayer(ctx, "GAME", model.NewPlayer("p2", "둘째", false, model.AvatarColorFor(1))); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	loaded, err := store.Load(ctx, "GAME")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := store.StartGame(ctx, loaded, 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	got, err := store.Load(ctx, "GAME")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Phase != model.PhaseWriteStart || got.Round != 0 || got.MaxRounds != 2 {
		t.Errorf("unexpected start state: phase=%s round=%d maxRounds=%d", got.Phase, got.Round, got.MaxRounds)
	}

	step := model.Step{Type: model.StepText, AuthorID: "host-uid", AuthorName: "호스트", Content: "첫 문장"}
	if err := store.AppendStep(ctx, "GAME", "host-uid", step); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	second := model.Step{Type: model.StepDrawing, AuthorID: "p2", AuthorName: "둘째", Content: "blob"}
	if err := store.AppendStep(ctx, "GAME", "host-uid", second); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err = store.Load(ctx, "GAME")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	chain := got.Chains["host-uid"]
	if len(chain.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(chain.Steps))
	}
	// append-only: 먼저 들어간 스텝이 그대로 남는다.
	if chain.Steps[0].Content != "첫 문장" || chain.Steps[1].Content != "blob" {
		t.Errorf("unexpected chain contents: %+v", chain.Steps)
	}
}

func TestRoomStore_VotesFoldIntoSteps(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := newLobbySession("VOTE")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	loaded, _ := store.Load(ctx, "VOTE")
	if err := store.StartGame(ctx, loaded, 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	step := model.Step{Type: model.StepDrawing, AuthorID: "host-uid", Content: "blob"}
	if err := store.AppendStep(ctx, "VOTE", "host-uid", step); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.IncrVote(ctx, "VOTE", "host-uid", 0); err != nil {
			t.Fatalf("incr failed: %v", err)
		}
	}

	got, err := store.Load(ctx, "VOTE")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Chains["host-uid"].Steps[0].Votes != 3 {
		t.Errorf("expected 3 votes, got %d", got.Chains["host-uid"].Steps[0].Votes)
	}
}

func TestRoomStore_ResetForLobby(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := newLobbySession("REST")
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	loaded, _ := store.Load(ctx, "REST")
	if err := store.StartGame(ctx, loaded, 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	step := model.Step{Type: model.StepText, AuthorID: "host-uid", Content: "문장"}
	if err := store.AppendStep(ctx, "REST", "host-uid", step); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	loaded, _ = store.Load(ctx, "REST")
	if err := store.ResetForLobby(ctx, loaded); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	got, err := store.Load(ctx, "REST")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Phase != model.PhaseLobby || got.Round != 0 {
		t.Errorf("expected lobby state, got phase=%s round=%d", got.Phase, got.Round)
	}
	if len(got.Chains) != 0 {
		t.Errorf("expected chains cleared, got %d", len(got.Chains))
	}
	if len(got.Players) != 1 {
		t.Errorf("roster must survive the reset, got %d players", len(got.Players))
	}
}

func TestRoomStore_SessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, newLobbySession("GONE")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	got, err := store.Load(ctx, "GONE")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected session expired, got %+v", got)
	}
}
