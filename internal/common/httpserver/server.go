package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Serve: ctx가 취소될 때까지 HTTP 서버를 돌리고, 취소 시 제한 시간 안에
// 우아하게 종료합니다. 정상 종료(ErrServerClosed)는 에러로 치지 않습니다.
func Serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return normalizeServeError("http server listen failed", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return normalizeServeError("http server stopped with error", <-serveErr)
}

func normalizeServeError(msg string, err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
