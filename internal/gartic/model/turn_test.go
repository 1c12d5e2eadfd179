package model

import "testing"

func TestChainOwnerIndex_Round0IsOwnChain(t *testing.T) {
	for count := 2; count <= 8; count++ {
		for i := 0; i < count; i++ {
			if got := ChainOwnerIndex(i, 0, count); got != i {
				t.Errorf("players=%d index=%d: expected own chain %d, got %d", count, i, i, got)
			}
		}
	}
}

func TestChainOwnerIndex_EveryRoundIsPermutation(t *testing.T) {
	// 매 라운드 각 플레이어는 서로 다른 체인에 배정되어야 한다.
	for count := 2; count <= 8; count++ {
		for round := 0; round < count; round++ {
			seen := make(map[int]bool, count)
			for i := 0; i < count; i++ {
				owner := ChainOwnerIndex(i, round, count)
				if owner < 0 || owner >= count {
					t.Fatalf("players=%d round=%d index=%d: owner out of range: %d", count, round, i, owner)
				}
				if seen[owner] {
					t.Fatalf("players=%d round=%d: owner %d assigned twice", count, round, owner)
				}
				seen[owner] = true
			}
		}
	}
}

func TestChainOwnerIndex_BackwardRotation(t *testing.T) {
	// 4명 세션에서 1번 플레이어는 2라운드에 3번 체인을 맡는다.
	if got := ChainOwnerIndex(1, 2, 4); got != 3 {
		t.Errorf("expected owner 3, got %d", got)
	}
	if got := ChainOwnerIndex(0, 1, 4); got != 3 {
		t.Errorf("expected owner 3, got %d", got)
	}
	if got := ChainOwnerIndex(2, 1, 4); got != 1 {
		t.Errorf("expected owner 1, got %d", got)
	}
}

func TestChainOwnerIndex_Invalid(t *testing.T) {
	if got := ChainOwnerIndex(-1, 0, 4); got != -1 {
		t.Errorf("expected -1 for negative index, got %d", got)
	}
	if got := ChainOwnerIndex(0, 0, 0); got != -1 {
		t.Errorf("expected -1 for empty roster, got %d", got)
	}
	if got := ChainOwnerIndex(4, 0, 4); got != -1 {
		t.Errorf("expected -1 for out-of-range index, got %d", got)
	}
}
