package model

import "slices"

// RecomputeScores: 모든 체인의 모든 스텝을 훑어 작성자별 득표 합계를 계산한다.
// 저장된 Player.Score 필드는 표시용일 뿐 여기서는 읽지 않는다.
func RecomputeScores(s *Session) map[string]int {
	scores := make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		scores[p.UID] = 0
	}
	for _, chain := range s.Chains {
		for _, step := range chain.Steps {
			scores[step.AuthorID] += step.Votes
		}
	}
	return scores
}

// RankedPlayer: 포디움 순위의 한 항목
type RankedPlayer struct {
	Player Player
	Score  int
}

// Ranking: 재계산된 점수 내림차순 순위.
// 동점은 로스터(참가) 순서를 유지한다. 이 동점 정책은 테스트로 고정되어 있다.
func Ranking(s *Session) []RankedPlayer {
	scores := RecomputeScores(s)
	ranked := make([]RankedPlayer, 0, len(s.Players))
	for _, p := range s.Players {
		if p.IsSpectator {
			continue
		}
		ranked = append(ranked, RankedPlayer{Player: p, Score: scores[p.UID]})
	}
	slices.SortStableFunc(ranked, func(a, b RankedPlayer) int {
		return b.Score - a.Score
	})
	return ranked
}

// VoteCandidate: 투표 화면에 익명으로 전시되는 후보 하나
type VoteCandidate struct {
	OwnerID   string
	StepIndex int
	Step      Step
	// FullChain: EXQUISITE 모드에서 체인 전체(머리/몸통/다리)를 함께 보여줄 때 사용
	FullChain []Step
}

// VoteCandidates: voterUID가 투표할 수 있는 후보 목록.
// 일반 모드는 모든 그림 스텝, EXQUISITE는 체인당 대표 한 항목이며
// 자신이 작성한 후보는 제외된다. 순서는 로스터 순서를 따라 결정적이다.
func VoteCandidates(s *Session, voterUID string) []VoteCandidate {
	var candidates []VoteCandidate
	for _, p := range s.Players {
		chain, ok := s.Chains[p.UID]
		if !ok || len(chain.Steps) == 0 {
			continue
		}

		if s.Mode == ModeExquisite {
			if chain.Steps[0].AuthorID == voterUID {
				continue
			}
			candidates = append(candidates, VoteCandidate{
				OwnerID:   p.UID,
				StepIndex: 0,
				Step:      chain.Steps[0],
				FullChain: chain.Steps,
			})
			continue
		}

		for i, step := range chain.Steps {
			if step.Type != StepDrawing || step.AuthorID == voterUID {
				continue
			}
			candidates = append(candidates, VoteCandidate{
				OwnerID:   p.UID,
				StepIndex: i,
				Step:      step,
			})
		}
	}
	return candidates
}
