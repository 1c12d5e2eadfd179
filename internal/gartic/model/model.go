// Package model: 한 게임 세션의 공유 레코드 형태와 그 위의 순수 규칙 함수들을 정의한다.
// 세션 레코드는 모든 클라이언트가 구독하는 유일한 공유 상태이며,
// 여기의 함수들은 저장소나 네트워크에 의존하지 않는다.
package model

import (
	"slices"
	"time"
)

// Step: 체인에 추가되는 하나의 기여 (글 또는 그림)
type Step struct {
	Type       StepType `json:"type"`
	AuthorID   string   `json:"authorId"`
	AuthorName string   `json:"authorName"`
	Content    string   `json:"content"`
	Votes      int      `json:"votes"`
}

// Chain: 한 플레이어가 시드한 기여 시퀀스. steps는 append-only이다.
type Chain struct {
	OwnerID string `json:"ownerId"`
	Steps   []Step `json:"steps"`
}

// Player: 세션 참가자. uid는 계정 식별자와 탭 식별자의 조합으로 탭마다 다르다.
type Player struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	IsHost      bool   `json:"isHost"`
	IsReady     bool   `json:"isReady"`
	HasVoted    bool   `json:"hasVoted"`
	Score       int    `json:"score"`
	AvatarColor string `json:"avatarColor"`
	AvatarImage string `json:"avatarImage,omitempty"`
	IsSpectator bool   `json:"isSpectator,omitempty"`
}

// AvatarColors: 참가 순서에 따라 배정되는 아바타 색상 팔레트
var AvatarColors = []string{
	"bg-red-400", "bg-orange-400", "bg-yellow-400", "bg-green-400",
	"bg-blue-400", "bg-purple-400", "bg-pink-400", "bg-teal-400",
}

// AvatarColorFor: 참가 인덱스에 해당하는 아바타 색상을 반환한다.
func AvatarColorFor(index int) string {
	if index < 0 {
		index = 0
	}
	return AvatarColors[index%len(AvatarColors)]
}

// NewPlayer: 일반 참가자를 생성한다.
func NewPlayer(uid, name string, isHost bool, avatarColor string) Player {
	return Player{
		UID:         uid,
		Name:        name,
		IsHost:      isHost,
		AvatarColor: avatarColor,
	}
}

// NewSpectator: 관전자를 생성한다.
// 준비/투표 플래그를 미리 true로 두어 어떤 전이도 막지 않게 한다.
func NewSpectator(uid, name string, avatarColor string) Player {
	return Player{
		UID:         uid,
		Name:        name,
		IsReady:     true,
		HasVoted:    true,
		AvatarColor: avatarColor,
		IsSpectator: true,
	}
}

// ResetForGame: 게임 시작 시 초기화된 사본을 반환한다. (Immutable)
func (p Player) ResetForGame() Player {
	next := p
	if !p.IsSpectator {
		next.IsReady = false
		next.HasVoted = false
	}
	next.Score = 0
	return next
}

// ResetForLobby: 로비 복귀 시 초기화된 사본을 반환한다. (Immutable)
// 관전은 진행 중인 게임에 한정되므로 관전자도 일반 참가자로 돌아온다.
func (p Player) ResetForLobby() Player {
	next := p
	next.IsSpectator = false
	next.IsReady = false
	next.HasVoted = false
	next.Score = 0
	return next
}

// Session: 하나의 게임 세션 레코드 전체
type Session struct {
	Code          string           `json:"code"`
	Mode          Mode             `json:"mode"`
	Phase         Phase            `json:"phase"`
	Round         int              `json:"round"`
	MaxRounds     int              `json:"maxRounds"`
	Players       []Player         `json:"players"`
	Chains        map[string]Chain `json:"chains"`
	TimerDuration int              `json:"timerDuration"`           // 턴당 초, 0이면 무제한
	TurnExpiresAt int64            `json:"turnExpiresAt,omitempty"` // epoch millis, 0이면 없음
	CreatedAt     int64            `json:"createdAt"`               // epoch millis
	Rev           int64            `json:"rev"`                     // 저장소 커밋 리비전
}

// NewSession: 호스트 한 명으로 LOBBY 상태의 새 세션을 생성한다.
func NewSession(code string, host Player, timerDuration int) Session {
	return Session{
		Code:          code,
		Mode:          ModeClassic,
		Phase:         PhaseLobby,
		Players:       []Player{host},
		Chains:        map[string]Chain{},
		TimerDuration: timerDuration,
		CreatedAt:     time.Now().UnixMilli(),
	}
}

// FindPlayer: uid로 참가자를 찾는다. 없으면 nil.
func (s *Session) FindPlayer(uid string) *Player {
	for i := range s.Players {
		if s.Players[i].UID == uid {
			return &s.Players[i]
		}
	}
	return nil
}

// PlayerIndex: 현재 로스터에서 uid의 인덱스. 없으면 -1.
func (s *Session) PlayerIndex(uid string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.UID == uid })
}

// ActivePlayers: 관전자를 제외한, 순번 회전에 참여하는 참가자 목록.
// 순서는 로스터 순서를 따른다.
func (s *Session) ActivePlayers() []Player {
	active := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.IsSpectator {
			active = append(active, p)
		}
	}
	return active
}

// RotationIndex: 회전 목록(관전자 제외) 안에서 uid의 인덱스. 없으면 -1.
func (s *Session) RotationIndex(uid string) int {
	idx := 0
	for _, p := range s.Players {
		if p.IsSpectator {
			continue
		}
		if p.UID == uid {
			return idx
		}
		idx++
	}
	return -1
}

// ChainOwnerFor: 이번 라운드에 uid가 기여해야 하는 체인의 소유자 uid.
// 킥으로 인덱스가 변해도 항상 현재 로스터 기준으로 계산한다.
func (s *Session) ChainOwnerFor(uid string) (string, bool) {
	active := s.ActivePlayers()
	i := s.RotationIndex(uid)
	ownerIdx := ChainOwnerIndex(i, s.Round, len(active))
	if ownerIdx < 0 {
		return "", false
	}
	return active[ownerIdx].UID, true
}

// AllReady: 모든 참가자가 이번 라운드 제출을 마쳤는지 확인한다.
// 관전자는 참가 시점에 미리 준비 처리되어 전이를 막지 않는다.
func (s *Session) AllReady() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// AllVoted: 모든 참가자가 투표를 마쳤는지 확인한다.
func (s *Session) AllVoted() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if !p.HasVoted {
			return false
		}
	}
	return true
}

// HostUID: isHost 플래그를 가진 참가자의 uid. 없으면 빈 문자열.
// 호스트 플래그는 세션 생성 시 한 번만 부여되며 자동 재배정되지 않는다.
func (s *Session) HostUID() string {
	for _, p := range s.Players {
		if p.IsHost {
			return p.UID
		}
	}
	return ""
}

// IsGameEnd: 현재 라운드가 마지막 라운드인지 (다음 전이가 VOTE인지) 확인한다.
func (s *Session) IsGameEnd() bool {
	return s.Round+1 >= s.MaxRounds
}
