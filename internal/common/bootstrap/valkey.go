package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	commonconfig "github.com/park285/gartic-go/internal/common/config"
	"github.com/park285/gartic-go/internal/common/valkeyx"
)

// ToValkeyDataConfig: 데이터 저장소 연결을 위한 Valkey 설정 객체를 생성합니다.
// 세션 레코드는 구독 푸시로 전파되므로 클라이언트 사이드 캐싱은 비활성화합니다.
func ToValkeyDataConfig(cfg commonconfig.RedisConfig) valkeyx.Config {
	return valkeyx.Config{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DisableCache: true,
	}
}

// NewAndPingValkeyClient: Valkey 클라이언트를 생성하고 Ping 테스트를 통해 연결성을 확인합니다.
// 연결 실패 시 생성된 리소스를 정리하고 에러를 반환합니다.
func NewAndPingValkeyClient(
	ctx context.Context,
	cfg valkeyx.Config,
	name string,
	logger *slog.Logger,
) (valkey.Client, func(), error) {
	client, err := valkeyx.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s client failed: %w", name, err)
	}

	closeFn := func() {
		client.Close()
		logger.Debug("valkey_client_closed", "name", name)
	}

	if pingErr := valkeyx.Ping(ctx, client); pingErr != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%s ping failed: %w", name, pingErr)
	}

	return client, closeFn, nil
}
