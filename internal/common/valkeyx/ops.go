package valkeyx

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"
)

// HashSet: 해시의 단일 필드를 설정한다. (HSET)
func HashSet(ctx context.Context, client valkey.Client, key, field, value string) error {
	cmd := client.B().Hset().Key(key).FieldValue().FieldValue(field, value).Build()
	return client.Do(ctx, cmd).Error()
}

// HashSetNX: 해시 필드가 없을 때만 값을 설정한다. (HSETNX)
// 반환값은 실제로 설정되었는지 여부이다.
func HashSetNX(ctx context.Context, client valkey.Client, key, field, value string) (bool, error) {
	cmd := client.B().Hsetnx().Key(key).Field(field).Value(value).Build()
	return client.Do(ctx, cmd).AsBool()
}

// HashGet: 해시의 단일 필드를 조회한다. 필드가 없으면 ok=false.
func HashGet(ctx context.Context, client valkey.Client, key, field string) (string, bool, error) {
	cmd := client.B().Hget().Key(key).Field(field).Build()
	value, err := client.Do(ctx, cmd).ToString()
	if err != nil {
		if IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// HashGetAll: 해시 전체 필드를 조회한다. (HGETALL)
func HashGetAll(ctx context.Context, client valkey.Client, key string) (map[string]string, error) {
	cmd := client.B().Hgetall().Key(key).Build()
	return client.Do(ctx, cmd).AsStrMap()
}

// HashIncrBy: 해시의 정수 필드를 원자적으로 증가시킨다. (HINCRBY)
func HashIncrBy(ctx context.Context, client valkey.Client, key, field string, delta int64) (int64, error) {
	cmd := client.B().Hincrby().Key(key).Field(field).Increment(delta).Build()
	return client.Do(ctx, cmd).AsInt64()
}

// HashDel: 해시에서 필드를 제거한다. (HDEL)
func HashDel(ctx context.Context, client valkey.Client, key string, fields ...string) error {
	cmd := client.B().Hdel().Key(key).Field(fields...).Build()
	return client.Do(ctx, cmd).Error()
}

// ListAppend: 리스트 끝에 값을 추가한다. (RPUSH, append-only)
func ListAppend(ctx context.Context, client valkey.Client, key string, values ...string) error {
	cmd := client.B().Rpush().Key(key).Element(values...).Build()
	return client.Do(ctx, cmd).Error()
}

// ListRange: 리스트 전체를 조회한다. (LRANGE 0 -1)
func ListRange(ctx context.Context, client valkey.Client, key string) ([]string, error) {
	cmd := client.B().Lrange().Key(key).Start(0).Stop(-1).Build()
	return client.Do(ctx, cmd).AsStrSlice()
}

// ListRemove: 리스트에서 일치하는 요소를 제거한다. (LREM)
func ListRemove(ctx context.Context, client valkey.Client, key, value string) error {
	cmd := client.B().Lrem().Key(key).Count(0).Element(value).Build()
	return client.Do(ctx, cmd).Error()
}

// Publish: 채널에 메시지를 발행한다. (PUBLISH)
func Publish(ctx context.Context, client valkey.Client, channel, message string) error {
	cmd := client.B().Publish().Channel(channel).Message(message).Build()
	return client.Do(ctx, cmd).Error()
}

// DeleteKeys: 주어진 키들을 삭제한다. (DEL)
func DeleteKeys(ctx context.Context, client valkey.Client, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cmd := client.B().Del().Key(keys...).Build()
	return client.Do(ctx, cmd).Error()
}

// ExpireKeys: 주어진 키들의 TTL을 일괄 갱신한다. (EXPIRE)
// 존재하지 않는 키는 무시된다.
func ExpireKeys(ctx context.Context, client valkey.Client, ttl time.Duration, keys ...string) error {
	seconds := int64(ttl.Seconds())
	if seconds <= 0 {
		return nil
	}
	for _, key := range keys {
		cmd := client.B().Expire().Key(key).Seconds(seconds).Build()
		if err := client.Do(ctx, cmd).Error(); err != nil {
			return err
		}
	}
	return nil
}
