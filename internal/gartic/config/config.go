package config

import (
	"fmt"
	"time"

	commonconfig "github.com/park285/gartic-go/internal/common/config"
)

// ServerConfig: HTTP 서버 설정입니다.
type ServerConfig = commonconfig.ServerConfig

// ServerTuningConfig: 서버 성능 튜닝 옵션입니다.
type ServerTuningConfig = commonconfig.ServerTuningConfig

// RedisConfig: Redis/Valkey 연결 설정입니다.
type RedisConfig = commonconfig.RedisConfig

// LogConfig: 로그 출력 설정입니다.
type LogConfig = commonconfig.LogConfig

// GameConfig: 세션 코어 튜닝 설정입니다.
type GameConfig struct {
	ContentMaxBytes int           // 제출 콘텐츠 바이트 상한 (저장소 단일 쓰기 한도 기반)
	AdvanceDelay    time.Duration // 전이 발화 전 고정 지연 (라운드 완료 연출용)
	SessionTTL      time.Duration // 세션 키 TTL
	TimerDuration   int           // 새 세션의 턴당 제한 초, 0이면 무제한
}

// AgentConfig: 헤드리스 에이전트 동작 설정입니다.
type AgentConfig struct {
	Mode     string // "create" | "join" | "" (비활성)
	JoinCode string // Mode=join일 때 참가할 세션 코드
	Name     string // 에이전트 표시 이름
}

// Config: Gartic 서비스 전체 설정을 통합하는 구조체입니다.
type Config struct {
	Server       ServerConfig
	ServerTuning ServerTuningConfig
	Redis        RedisConfig
	Log          LogConfig
	Game         GameConfig
	Agent        AgentConfig
}

// LoadFromEnv: 환경 변수에서 전체 설정을 읽어옵니다.
func LoadFromEnv() (*Config, error) {
	server, err := commonconfig.ReadServerConfigFromEnv(DefaultServerPort)
	if err != nil {
		return nil, err
	}

	serverTuning, err := commonconfig.ReadServerTuningConfigFromEnv()
	if err != nil {
		return nil, err
	}

	redis, err := commonconfig.ReadRedisConfigFromEnv(
		[]string{"GARTIC_REDIS_HOST", "REDIS_HOST"},
		[]string{"GARTIC_REDIS_PORT", "REDIS_PORT"},
		[]string{"GARTIC_REDIS_PASSWORD", "REDIS_PASSWORD"},
		"localhost",
		6379,
		"",
	)
	if err != nil {
		return nil, err
	}

	logCfg, err := commonconfig.ReadLogConfigFromEnv()
	if err != nil {
		return nil, err
	}

	game, err := readGameConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		ServerTuning: serverTuning,
		Redis:        redis,
		Log:          logCfg,
		Game:         game,
		Agent:        readAgentConfig(),
	}, nil
}

func readGameConfig() (GameConfig, error) {
	contentMaxBytes, err := commonconfig.IntFromEnv("GAME_CONTENT_MAX_BYTES", DefaultContentMaxBytes)
	if err != nil {
		return GameConfig{}, fmt.Errorf("read GAME_CONTENT_MAX_BYTES failed: %w", err)
	}
	if contentMaxBytes <= 0 {
		return GameConfig{}, fmt.Errorf("invalid GAME_CONTENT_MAX_BYTES: %d", contentMaxBytes)
	}

	advanceDelay, err := commonconfig.DurationMillisFromEnv(
		"GAME_ADVANCE_DELAY_MILLIS",
		DefaultAdvanceDelayMillis,
	)
	if err != nil {
		return GameConfig{}, fmt.Errorf("read GAME_ADVANCE_DELAY_MILLIS failed: %w", err)
	}

	sessionTTL, err := commonconfig.DurationSecondsFromEnv(
		"GAME_SESSION_TTL_SECONDS",
		DefaultSessionTTLSeconds,
	)
	if err != nil {
		return GameConfig{}, fmt.Errorf("read GAME_SESSION_TTL_SECONDS failed: %w", err)
	}

	timerDuration, err := commonconfig.IntFromEnv("GAME_TIMER_DURATION_SECONDS", 0)
	if err != nil {
		return GameConfig{}, fmt.Errorf("read GAME_TIMER_DURATION_SECONDS failed: %w", err)
	}
	if timerDuration < 0 {
		return GameConfig{}, fmt.Errorf("invalid GAME_TIMER_DURATION_SECONDS: %d", timerDuration)
	}

	return GameConfig{
		ContentMaxBytes: contentMaxBytes,
		AdvanceDelay:    advanceDelay,
		SessionTTL:      sessionTTL,
		TimerDuration:   timerDuration,
	}, nil
}

func readAgentConfig() AgentConfig {
	return AgentConfig{
		Mode:     commonconfig.StringFromEnv("AGENT_MODE", ""),
		JoinCode: commonconfig.StringFromEnv("AGENT_JOIN_CODE", ""),
		Name:     commonconfig.StringFromEnv("AGENT_NAME", "gartic-agent"),
	}
}
