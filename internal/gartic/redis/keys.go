package redis

import (
	"strconv"
	"strings"

	"github.com/park285/gartic-go/internal/common/valkeyx"
	"github.com/park285/gartic-go/internal/gartic/config"
)

// 세션 하나가 차지하는 키 구성:
//
//	gartic:room:<CODE>             세션 해시 (스칼라 필드 + player:<uid> 필드)
//	gartic:room:<CODE>:order       로스터 순서 리스트 (참가 순)
//	gartic:room:<CODE>:chain:<uid> 체인 스텝 리스트 (append-only)
//	gartic:room:<CODE>:votes       득표 해시 (<owner>:<stepIndex> -> count)
//	gartic:room:<CODE>:events      리비전 알림 Pub/Sub 채널

func roomKey(code string) string {
	return valkeyx.BuildKey(config.RedisKeyRoomPrefix, code)
}

func orderKey(code string) string {
	return valkeyx.BuildKeySuffix(config.RedisKeyRoomPrefix, code, "order")
}

func chainKey(code, ownerUID string) string {
	return valkeyx.BuildKeySuffix(config.RedisKeyRoomPrefix, code, "chain:"+ownerUID)
}

func votesKey(code string) string {
	return valkeyx.BuildKeySuffix(config.RedisKeyRoomPrefix, code, "votes")
}

func eventsChannel(code string) string {
	return valkeyx.BuildKeySuffix(config.RedisKeyRoomPrefix, code, "events")
}

func playerField(uid string) string {
	return "player:" + uid
}

func voteField(ownerUID string, stepIndex int) string {
	return ownerUID + ":" + strconv.Itoa(stepIndex)
}

func parseVoteField(field string) (string, string, bool) {
	idx := strings.LastIndex(field, ":")
	if idx <= 0 || idx == len(field)-1 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}
