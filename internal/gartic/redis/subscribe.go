package redis

import (
	"context"

	"github.com/valkey-io/valkey-go"

	commonerrors "github.com/park285/gartic-go/internal/common/errors"
	"github.com/park285/gartic-go/internal/gartic/model"
)

// Subscribe: 세션 변경 스트림을 엽니다.
//
// 구독 직후 현재 스냅샷을 한 번 내보내고, 이후 커밋 알림이 올 때마다
// 세션 전체를 다시 읽어 내보냅니다. 채널 버퍼는 1이고 가득 차면 오래된
// 스냅샷을 버리므로 소비자가 느려도 항상 최신 쪽으로 합쳐집니다.
// 부분 패치 없이 매번 전체를 읽기 때문에 중간 스냅샷 유실은 안전합니다.
//
// ctx가 취소되면 채널이 닫힙니다. 연결이 끊겨 스트림이 더 진행될 수 없으면
// errCh로 SubscriptionClosedError를 하나 보내고 채널을 닫습니다.
func (s *RoomStore) Subscribe(ctx context.Context, code string) (<-chan *model.Session, <-chan error) {
	sessions := make(chan *model.Session, 1)
	errCh := make(chan error, 1)

	// 구독은 전용 연결 하나를 점유한다. Receive는 구독이 닫힐 때까지 블록된다.
	dedicated, cancelDedicated := s.client.Dedicate()

	notify := make(chan struct{}, 1)
	wait := make(chan error, 1)
	go func() {
		wait <- dedicated.Receive(ctx,
			dedicated.B().Subscribe().Channel(eventsChannel(code)).Build(),
			func(msg valkey.PubSubMessage) {
				select {
				case notify <- struct{}{}:
				default:
				}
			})
	}()

	go func() {
		defer close(sessions)
		defer close(errCh)
		defer cancelDedicated()

		// 초기 스냅샷. 구독 수립과의 틈새에 놓친 커밋은 다음 알림의
		// 전체 재조회에서 따라잡는다.
		if !s.emitSnapshot(ctx, code, sessions) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-wait:
				if ctx.Err() != nil {
					return
				}
				errCh <- &commonerrors.SubscriptionClosedError{Code: code, Err: err}
				return
			case <-notify:
				if !s.emitSnapshot(ctx, code, sessions) {
					return
				}
			}
		}
	}()

	return sessions, errCh
}

// emitSnapshot: 세션을 다시 읽어 채널로 내보낸다. 버퍼가 차 있으면
// 묵은 스냅샷을 꺼내 버리고 최신 것으로 교체한다.
func (s *RoomStore) emitSnapshot(ctx context.Context, code string, out chan *model.Session) bool {
	session, err := s.Load(ctx, code)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Warn("snapshot_load_failed", "code", code, "error", err)
		return true
	}

	for {
		select {
		case out <- session:
			return true
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}
