// Package app 은 Gartic 서비스의 조립과 실행을 담당합니다.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/park285/gartic-go/internal/common/bootstrap"
	"github.com/park285/gartic-go/internal/common/health"
	"github.com/park285/gartic-go/internal/common/httpserver"
	"github.com/park285/gartic-go/internal/common/messageprovider"
	"github.com/park285/gartic-go/internal/gartic/assets"
	garticconfig "github.com/park285/gartic-go/internal/gartic/config"
	garticredis "github.com/park285/gartic-go/internal/gartic/redis"
	"github.com/park285/gartic-go/internal/gartic/service"
)

const shutdownTimeout = 10 * time.Second

// Initialize: 설정으로부터 서비스 전체를 조립합니다.
func Initialize(ctx context.Context, cfg *garticconfig.Config, logger *slog.Logger) (*bootstrap.ServerApp, func(), error) {
	health.Init("gartic")

	messages, err := messageprovider.NewFromYAML(string(assets.GameMessagesYAML))
	if err != nil {
		return nil, nil, fmt.Errorf("load game messages failed: %w", err)
	}

	valkeyClient, closeValkey, err := bootstrap.NewAndPingValkeyClient(
		ctx,
		bootstrap.ToValkeyDataConfig(cfg.Redis),
		"gartic-valkey",
		logger,
	)
	if err != nil {
		return nil, nil, err
	}

	store := garticredis.NewRoomStore(valkeyClient, logger, garticredis.Config{
		TTL: cfg.Game.SessionTTL,
	})

	sessions := service.NewSessionService(store, logger, service.SessionServiceOptions{
		CodeLength:    garticconfig.SessionCodeLength,
		MaxAttempts:   garticconfig.SessionCodeMaxAttempts,
		TimerDuration: cfg.Game.TimerDuration,
	})
	submits := service.NewSubmitService(store, logger, cfg.Game.ContentMaxBytes)
	votes := service.NewVoteService(store, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(health.Get())
	})

	server := httpserver.NewServer(
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		mux,
		httpserver.ServerOptions{
			ReadHeaderTimeout: cfg.ServerTuning.ReadHeaderTimeout,
			IdleTimeout:       cfg.ServerTuning.IdleTimeout,
			MaxHeaderBytes:    cfg.ServerTuning.MaxHeaderBytes,
		},
	)

	var tasks []bootstrap.BackgroundTask
	if cfg.Agent.Mode != "" {
		agent := &Agent{
			Config:   cfg.Agent,
			Game:     cfg.Game,
			Store:    store,
			Sessions: sessions,
			Submits:  submits,
			Votes:    votes,
			Messages: messages,
			Logger:   logger,
		}
		tasks = append(tasks, bootstrap.BackgroundTask{
			Name:        "gartic-agent",
			ErrorLogKey: "agent_failed",
			Run:         agent.Run,
		})
	}

	serverApp := bootstrap.NewServerApp("gartic", logger, server, shutdownTimeout, tasks...)
	return serverApp, closeValkey, nil
}
