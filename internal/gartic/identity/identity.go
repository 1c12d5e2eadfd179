// Package identity 는 익명 플레이어 자격 증명과 탭 단위 UID 합성을 담당합니다.
package identity

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const tabIDLength = 8

const tabIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// Issue: 새 익명 자격 증명을 발급합니다.
func Issue() string {
	return uuid.NewString()
}

// Resume: 저장된 자격 증명을 검증하고 재사용합니다.
// 형식이 유효하지 않으면 새 자격 증명을 발급해 돌려줍니다.
func Resume(credential string) string {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Issue()
	}
	if _, err := uuid.Parse(credential); err != nil {
		return Issue()
	}
	return credential
}

// NewTabID: 브라우저 탭 하나를 구분하는 짧은 무작위 ID를 생성합니다.
func NewTabID() string {
	buf := make([]byte, tabIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 실패는 복구 대상이 아니다.
		panic(fmt.Sprintf("identity: rand.Read failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = tabIDCharset[int(b)%len(tabIDCharset)]
	}
	return string(buf)
}

// ComposeUID: 자격 증명과 탭 ID를 합쳐 세션 내 플레이어 UID를 만듭니다.
// 같은 사람이 탭마다 별개의 플레이어로 참가할 수 있습니다.
func ComposeUID(credential, tabID string) string {
	return credential + "_" + tabID
}
