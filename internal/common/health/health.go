// Package health 는 /health 엔드포인트가 내보내는 상태 스냅샷을 관리합니다.
package health

import (
	"runtime"
	"sync"
	"time"
)

var (
	mu        sync.Mutex
	startedAt time.Time
	service   = "unknown"
)

// Init: 서비스 이름을 등록하고 가동 시각을 기록합니다.
// 두 번째 호출부터는 무시됩니다.
func Init(name string) {
	mu.Lock()
	defer mu.Unlock()
	if !startedAt.IsZero() {
		return
	}
	startedAt = time.Now()
	if name != "" {
		service = name
	}
}

// Response: /health 응답 본문
type Response struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
}

// Get: 현재 시점의 상태 스냅샷을 반환합니다.
func Get() Response {
	mu.Lock()
	name, since := service, startedAt
	mu.Unlock()

	return Response{
		Status:     "ok",
		Service:    name,
		Uptime:     time.Since(since).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
	}
}
