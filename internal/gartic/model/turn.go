package model

// ChainOwnerIndex: 라운드마다 기여 책임이 한 자리씩 뒤로 회전하는
// 고전 exquisite-corpse 순번 계산. (playerIndex - round) mod playerCount 를
// 음수가 되지 않게 정규화한 값이다.
//
// (playerIndex, round, playerCount)만의 순수 함수여야 한다 - 이미 쌓인
// 스텝 내용에 의존하면 늦게 도착한 업데이트가 클라이언트 간 순번 계산을
// 어긋나게 만들 수 있다.
func ChainOwnerIndex(playerIndex, round, playerCount int) int {
	if playerCount <= 0 || playerIndex < 0 || playerIndex >= playerCount {
		return -1
	}
	idx := (playerIndex - round) % playerCount
	if idx < 0 {
		idx += playerCount
	}
	return idx
}
