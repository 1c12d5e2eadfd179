// Package redis 는 세션 레코드를 Valkey 위에 저장하는 RoomStore를 제공합니다.
//
// 세션의 모든 쓰기는 저장소 프리미티브 하나로 수행됩니다:
// 플레이어는 해시의 독립 필드, 체인 스텝은 리스트 append, 득표는 HINCRBY.
// 덕분에 서로 다른 플레이어의 동시 쓰기가 서로를 덮어쓰지 않습니다.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"github.com/park285/gartic-go/internal/common/valkeyx"
	garticerrors "github.com/park285/gartic-go/internal/gartic/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
)

// Config: RoomStore 동작 설정입니다.
type Config struct {
	TTL time.Duration // 세션 키 TTL. 모든 쓰기마다 갱신된다.
}

// RoomStore: 세션 레코드 저장소입니다.
type RoomStore struct {
	client valkey.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRoomStore: RoomStore를 생성합니다.
func NewRoomStore(client valkey.Client, logger *slog.Logger, cfg Config) *RoomStore {
	return &RoomStore{
		client: client,
		logger: logger.With("component", "room_store"),
		ttl:    cfg.TTL,
	}
}

// Create: 새 세션을 저장합니다. 코드가 이미 사용 중이면 CodeTakenError를 반환합니다.
func (s *RoomStore) Create(ctx context.Context, session model.Session) error {
	key := roomKey(session.Code)

	created, err := valkeyx.HashSetNX(ctx, s.client, key, "code", session.Code)
	if err != nil {
		return valkeyx.WrapRedisError("create_session", err)
	}
	if !created {
		return &garticerrors.CodeTakenError{Code: session.Code}
	}

	scalars := map[string]string{
		"mode":          string(session.Mode),
		"phase":         string(session.Phase),
		"round":         strconv.Itoa(session.Round),
		"maxRounds":     strconv.Itoa(session.MaxRounds),
		"timerDuration": strconv.Itoa(session.TimerDuration),
		"createdAt":     strconv.FormatInt(session.CreatedAt, 10),
		"rev":           "0",
	}
	for field, value := range scalars {
		if err := valkeyx.HashSet(ctx, s.client, key, field, value); err != nil {
			return valkeyx.WrapRedisError("create_session", err)
		}
	}

	for _, p := range session.Players {
		if err := s.writePlayerField(ctx, session.Code, p); err != nil {
			return err
		}
		if err := valkeyx.ListAppend(ctx, s.client, orderKey(session.Code), p.UID); err != nil {
			return valkeyx.WrapRedisError("create_session", err)
		}
	}

	if err := s.refreshTTL(ctx, session.Code); err != nil {
		return err
	}

	s.logger.Info("session_created",
		"code", session.Code,
		"host_uid", session.HostUID(),
	)
	return s.bumpAndPublish(ctx, session.Code)
}

// Load: 세션을 조립해 반환합니다. 존재하지 않으면 (nil, nil) 입니다.
func (s *RoomStore) Load(ctx context.Context, code string) (*model.Session, error) {
	fields, err := valkeyx.HashGetAll(ctx, s.client, roomKey(code))
	if err != nil {
		return nil, valkeyx.WrapRedisError("load_session", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	session, err := assembleScalars(code, fields)
	if err != nil {
		return nil, err
	}

	if err := s.assemblePlayers(ctx, code, fields, session); err != nil {
		return nil, err
	}
	if err := s.assembleChains(ctx, code, fields, session); err != nil {
		return nil, err
	}
	if err := s.foldVotes(ctx, code, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Exists: 세션 코드가 사용 중인지 확인합니다.
func (s *RoomStore) Exists(ctx context.Context, code string) (bool, error) {
	_, found, err := valkeyx.HashGet(ctx, s.client, roomKey(code), "code")
	if err != nil {
		return false, valkeyx.WrapRedisError("exists_session", err)
	}
	return found, nil
}

// SetMode: 로비에서 게임 모드를 변경합니다.
func (s *RoomStore) SetMode(ctx context.Context, code string, mode model.Mode) error {
	if err := valkeyx.HashSet(ctx, s.client, roomKey(code), "mode", string(mode)); err != nil {
		return valkeyx.WrapRedisError("set_mode", err)
	}
	return s.bumpAndPublish(ctx, code)
}

// SetTimerDuration: 턴당 제한 시간을 변경합니다. 0이면 무제한입니다.
func (s *RoomStore) SetTimerDuration(ctx context.Context, code string, seconds int) error {
	if err := valkeyx.HashSet(ctx, s.client, roomKey(code), "timerDuration", strconv.Itoa(seconds)); err != nil {
		return valkeyx.WrapRedisError("set_timer", err)
	}
	return s.bumpAndPublish(ctx, code)
}

// PutPlayer: 플레이어 한 명의 필드만 통째로 교체합니다.
// 플레이어별 독립 필드라 다른 플레이어와의 동시 쓰기에서 갱신 손실이 없습니다.
func (s *RoomStore) PutPlayer(ctx context.Context, code string, player model.Player) error {
	if err := s.writePlayerField(ctx, code, player); err != nil {
		return err
	}
	return s.bumpAndPublish(ctx, code)
}

// AddPlayer: 로스터 끝에 플레이어를 추가합니다.
func (s *RoomStore) AddPlayer(ctx context.Context, code string, player model.Player) error {
	if err := s.writePlayerField(ctx, code, player); err != nil {
		return err
	}
	if err := valkeyx.ListAppend(ctx, s.client, orderKey(code), player.UID); err != nil {
		return valkeyx.WrapRedisError("add_player", err)
	}
	if err := s.refreshTTL(ctx, code); err != nil {
		return err
	}
	s.logger.Info("player_joined", "code", code, "uid", player.UID, "name", player.Name)
	return s.bumpAndPublish(ctx, code)
}

// RemovePlayer: 플레이어를 로스터에서 제거하고 그 체인도 함께 제거합니다.
func (s *RoomStore) RemovePlayer(ctx context.Context, code, uid string) error {
	key := roomKey(code)
	if err := valkeyx.HashDel(ctx, s.client, key, playerField(uid)); err != nil {
		return valkeyx.WrapRedisError("remove_player", err)
	}
	if err := valkeyx.ListRemove(ctx, s.client, orderKey(code), uid); err != nil {
		return valkeyx.WrapRedisError("remove_player", err)
	}
	if err := valkeyx.DeleteKeys(ctx, s.client, chainKey(code, uid)); err != nil {
		return valkeyx.WrapRedisError("remove_player", err)
	}

	if err := s.removeChainOwner(ctx, code, uid); err != nil {
		return err
	}

	s.logger.Info("player_removed", "code", code, "uid", uid)
	return s.bumpAndPublish(ctx, code)
}

// AppendStep: 체인 끝에 스텝 하나를 추가합니다. 기존 스텝은 절대 수정하지 않습니다.
func (s *RoomStore) AppendStep(ctx context.Context, code, ownerUID string, step model.Step) error {
	payload, err := json.Marshal(step)
	if err != nil {
		return fmt.Errorf("marshal step failed: %w", err)
	}
	if err := valkeyx.ListAppend(ctx, s.client, chainKey(code, ownerUID), string(payload)); err != nil {
		return valkeyx.WrapRedisError("append_step", err)
	}
	if s.ttl > 0 {
		if err := valkeyx.ExpireKeys(ctx, s.client, s.ttl, chainKey(code, ownerUID)); err != nil {
			return valkeyx.WrapRedisError("append_step", err)
		}
	}
	return nil
}

// IncrVote: 스텝 득표 수를 원자적으로 1 올립니다.
func (s *RoomStore) IncrVote(ctx context.Context, code, ownerUID string, stepIndex int) error {
	_, err := valkeyx.HashIncrBy(ctx, s.client, votesKey(code), voteField(ownerUID, stepIndex), 1)
	if err != nil {
		return valkeyx.WrapRedisError("incr_vote", err)
	}
	if s.ttl > 0 {
		if err := valkeyx.ExpireKeys(ctx, s.client, s.ttl, votesKey(code)); err != nil {
			return valkeyx.WrapRedisError("incr_vote", err)
		}
	}
	return nil
}

// StartGame: 로비 세션을 게임 시작 상태로 전환합니다.
// 회전에 참여하는 체인 소유자 집합은 이 시점의 로스터로 고정됩니다.
func (s *RoomStore) StartGame(ctx context.Context, session *model.Session, turnExpiresAt int64) error {
	code := session.Code
	key := roomKey(code)

	active := session.ActivePlayers()
	owners := make([]string, 0, len(active))
	for _, p := range active {
		owners = append(owners, p.UID)
	}
	ownersJSON, err := json.Marshal(owners)
	if err != nil {
		return fmt.Errorf("marshal chain owners failed: %w", err)
	}

	scalars := map[string]string{
		"phase":       string(model.StartPhase(session.Mode)),
		"round":       "0",
		"maxRounds":   strconv.Itoa(model.MaxRoundsFor(session.Mode, len(active))),
		"chainOwners": string(ownersJSON),
	}
	if turnExpiresAt > 0 {
		scalars["turnExpiresAt"] = strconv.FormatInt(turnExpiresAt, 10)
	}
	for field, value := range scalars {
		if err := valkeyx.HashSet(ctx, s.client, key, field, value); err != nil {
			return valkeyx.WrapRedisError("start_game", err)
		}
	}

	for _, p := range session.Players {
		if err := s.writePlayerField(ctx, code, p.ResetForGame()); err != nil {
			return err
		}
	}

	if err := s.refreshTTL(ctx, code); err != nil {
		return err
	}

	s.logger.Info("game_started",
		"code", code,
		"mode", session.Mode,
		"players", len(active),
	)
	return s.bumpAndPublish(ctx, code)
}

// ResetForLobby: 게임 결과물을 비우고 세션을 로비 상태로 되돌립니다.
// 관전자였던 참가자는 일반 참가자로 돌아와 다음 게임에 참여합니다.
func (s *RoomStore) ResetForLobby(ctx context.Context, session *model.Session) error {
	code := session.Code
	key := roomKey(code)

	if err := valkeyx.HashSet(ctx, s.client, key, "phase", string(model.PhaseLobby)); err != nil {
		return valkeyx.WrapRedisError("reset_lobby", err)
	}
	if err := valkeyx.HashSet(ctx, s.client, key, "round", "0"); err != nil {
		return valkeyx.WrapRedisError("reset_lobby", err)
	}
	if err := valkeyx.HashDel(ctx, s.client, key, "turnExpiresAt", "chainOwners"); err != nil {
		return valkeyx.WrapRedisError("reset_lobby", err)
	}

	stale := []string{votesKey(code)}
	for owner := range session.Chains {
		stale = append(stale, chainKey(code, owner))
	}
	if err := valkeyx.DeleteKeys(ctx, s.client, stale...); err != nil {
		return valkeyx.WrapRedisError("reset_lobby", err)
	}

	for _, p := range session.Players {
		if err := s.writePlayerField(ctx, code, p.ResetForLobby()); err != nil {
			return err
		}
	}

	s.logger.Info("session_reset", "code", code)
	return s.bumpAndPublish(ctx, code)
}

// Delete: 세션의 모든 키를 제거합니다.
func (s *RoomStore) Delete(ctx context.Context, session *model.Session) error {
	code := session.Code
	keys := []string{roomKey(code), orderKey(code), votesKey(code)}
	for owner := range session.Chains {
		keys = append(keys, chainKey(code, owner))
	}
	if err := valkeyx.DeleteKeys(ctx, s.client, keys...); err != nil {
		return valkeyx.WrapRedisError("delete_session", err)
	}
	s.logger.Info("session_deleted", "code", code)
	return nil
}

func (s *RoomStore) writePlayerField(ctx context.Context, code string, player model.Player) error {
	payload, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("marshal player failed: %w", err)
	}
	if err := valkeyx.HashSet(ctx, s.client, roomKey(code), playerField(player.UID), string(payload)); err != nil {
		return valkeyx.WrapRedisError("write_player", err)
	}
	return nil
}

func (s *RoomStore) removeChainOwner(ctx context.Context, code, uid string) error {
	key := roomKey(code)
	raw, found, err := valkeyx.HashGet(ctx, s.client, key, "chainOwners")
	if err != nil {
		return valkeyx.WrapRedisError("remove_chain_owner", err)
	}
	if !found {
		return nil
	}

	var owners []string
	if err := json.Unmarshal([]byte(raw), &owners); err != nil {
		return fmt.Errorf("decode chainOwners failed: %w", err)
	}
	filtered := owners[:0]
	for _, owner := range owners {
		if owner != uid {
			filtered = append(filtered, owner)
		}
	}
	updated, err := json.Marshal(filtered)
	if err != nil {
		return fmt.Errorf("marshal chain owners failed: %w", err)
	}
	if err := valkeyx.HashSet(ctx, s.client, key, "chainOwners", string(updated)); err != nil {
		return valkeyx.WrapRedisError("remove_chain_owner", err)
	}
	return nil
}

// bumpAndPublish: rev를 올리고 구독자에게 새 rev를 알립니다.
// 구독자는 알림을 받으면 세션 전체를 다시 읽으므로 알림 유실이 있어도
// 다음 알림에서 최신 상태로 수렴합니다.
func (s *RoomStore) bumpAndPublish(ctx context.Context, code string) error {
	rev, err := valkeyx.HashIncrBy(ctx, s.client, roomKey(code), "rev", 1)
	if err != nil {
		return valkeyx.WrapRedisError("bump_rev", err)
	}
	if err := valkeyx.Publish(ctx, s.client, eventsChannel(code), strconv.FormatInt(rev, 10)); err != nil {
		return valkeyx.WrapRedisError("publish_rev", err)
	}
	return nil
}

func (s *RoomStore) refreshTTL(ctx context.Context, code string) error {
	if s.ttl <= 0 {
		return nil
	}
	err := valkeyx.ExpireKeys(ctx, s.client, s.ttl, roomKey(code), orderKey(code))
	if err != nil {
		return valkeyx.WrapRedisError("refresh_ttl", err)
	}
	return nil
}

func assembleScalars(code string, fields map[string]string) (*model.Session, error) {
	round, err := strconv.Atoi(valueOr(fields, "round", "0"))
	if err != nil {
		return nil, fmt.Errorf("decode round failed: %w", err)
	}
	maxRounds, err := strconv.Atoi(valueOr(fields, "maxRounds", "0"))
	if err != nil {
		return nil, fmt.Errorf("decode maxRounds failed: %w", err)
	}
	timerDuration, err := strconv.Atoi(valueOr(fields, "timerDuration", "0"))
	if err != nil {
		return nil, fmt.Errorf("decode timerDuration failed: %w", err)
	}
	turnExpiresAt, err := strconv.ParseInt(valueOr(fields, "turnExpiresAt", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode turnExpiresAt failed: %w", err)
	}
	createdAt, err := strconv.ParseInt(valueOr(fields, "createdAt", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode createdAt failed: %w", err)
	}
	rev, err := strconv.ParseInt(valueOr(fields, "rev", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode rev failed: %w", err)
	}

	mode, ok := model.ParseMode(valueOr(fields, "mode", string(model.ModeClassic)))
	if !ok {
		return nil, fmt.Errorf("unknown mode value: %q", valueOr(fields, "mode", ""))
	}
	phase, ok := model.ParsePhase(valueOr(fields, "phase", string(model.PhaseLobby)))
	if !ok {
		return nil, fmt.Errorf("unknown phase value: %q", valueOr(fields, "phase", ""))
	}

	return &model.Session{
		Code:          code,
		Mode:          mode,
		Phase:         phase,
		Round:         round,
		MaxRounds:     maxRounds,
		Chains:        map[string]model.Chain{},
		TimerDuration: timerDuration,
		TurnExpiresAt: turnExpiresAt,
		CreatedAt:     createdAt,
		Rev:           rev,
	}, nil
}

func (s *RoomStore) assemblePlayers(ctx context.Context, code string, fields map[string]string, session *model.Session) error {
	order, err := valkeyx.ListRange(ctx, s.client, orderKey(code))
	if err != nil {
		return valkeyx.WrapRedisError("load_session", err)
	}

	session.Players = make([]model.Player, 0, len(order))
	for _, uid := range order {
		raw, ok := fields[playerField(uid)]
		if !ok {
			// 제거 도중 경합한 고아 엔트리는 건너뛴다.
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(raw), &player); err != nil {
			return fmt.Errorf("decode player %s failed: %w", uid, err)
		}
		session.Players = append(session.Players, player)
	}
	return nil
}

func (s *RoomStore) assembleChains(ctx context.Context, code string, fields map[string]string, session *model.Session) error {
	raw, ok := fields["chainOwners"]
	if !ok {
		return nil
	}
	var owners []string
	if err := json.Unmarshal([]byte(raw), &owners); err != nil {
		return fmt.Errorf("decode chainOwners failed: %w", err)
	}

	for _, owner := range owners {
		entries, err := valkeyx.ListRange(ctx, s.client, chainKey(code, owner))
		if err != nil {
			return valkeyx.WrapRedisError("load_session", err)
		}
		chain := model.Chain{OwnerID: owner, Steps: make([]model.Step, 0, len(entries))}
		for _, entry := range entries {
			var step model.Step
			if err := json.Unmarshal([]byte(entry), &step); err != nil {
				return fmt.Errorf("decode chain step failed: %w", err)
			}
			chain.Steps = append(chain.Steps, step)
		}
		session.Chains[owner] = chain
	}
	return nil
}

func (s *RoomStore) foldVotes(ctx context.Context, code string, session *model.Session) error {
	votes, err := valkeyx.HashGetAll(ctx, s.client, votesKey(code))
	if err != nil {
		return valkeyx.WrapRedisError("load_session", err)
	}
	for field, raw := range votes {
		owner, indexStr, ok := parseVoteField(field)
		if !ok {
			continue
		}
		index, err := strconv.Atoi(indexStr)
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		chain, ok := session.Chains[owner]
		if !ok || index < 0 || index >= len(chain.Steps) {
			continue
		}
		chain.Steps[index].Votes = count
		session.Chains[owner] = chain
	}
	return nil
}

func valueOr(fields map[string]string, key, fallback string) string {
	if value, ok := fields[key]; ok && value != "" {
		return value
	}
	return fallback
}
