package config

// Redis 키 상수.
const (
	// RedisKeyPrefix 는 상수다.
	RedisKeyPrefix     = "gartic"
	RedisKeyRoomPrefix = RedisKeyPrefix + ":room"
)

// 게임 규칙 상수.
const (
	// MinPlayersToStart: 게임 시작에 필요한 최소 인원
	MinPlayersToStart = 2
	// SessionCodeLength: 사람이 입력하는 세션 코드 길이
	SessionCodeLength = 4
	// SessionCodeMaxAttempts: 코드 충돌 시 재생성 최대 횟수
	SessionCodeMaxAttempts = 5
)

// 저장소 한도 상수.
const (
	// DefaultContentMaxBytes: 단일 쓰기 페이로드 한도에서 여유를 둔 콘텐츠 상한
	DefaultContentMaxBytes = 900_000
	// DefaultSessionTTLSeconds: 비활성 세션이 만료되는 기본 TTL
	DefaultSessionTTLSeconds = 6 * 60 * 60
)

// 진행 제어 상수.
const (
	// DefaultAdvanceDelayMillis: 라운드 완료 연출을 위한 전이 지연
	DefaultAdvanceDelayMillis = 1500
	// DefaultServerPort: 헬스 체크 HTTP 서버 기본 포트
	DefaultServerPort = 40610
)
