package services

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/core/domain/model/routeprofile"
)

const (
	DefaultReputationScore = 70.0

	positionWeight   = 0.6
	reputationWeight = 0.4
)

// Ranking is the outcome of ranking a lane: eligible candidates in final
// visiting order, numbered 1..N, and the candidates filtered out by their
// slot's minimum score.
type Ranking struct {
	Eligible []chain.Candidate
	Skipped  []chain.Candidate
}

// CandidateRanker orders the carriers of a lane.
//
// Each slot's declared position is mapped linearly to a position score in
// [0, 100]: the best (lowest) position scores 100, the worst scores 0, and
// when all positions are equal every slot scores 100. The combined score is
// 0.6 x position score + 0.4 x reputation. Carriers whose reputation is
// below their slot's minimum score are skipped. The rest are sorted by
// combined score descending, then declared position ascending, then carrier
// id, and renumbered from 1.
//
// Ranking is a pure function of the slots and the reputations.
type CandidateRanker struct{}

func NewCandidateRanker() CandidateRanker {
	return CandidateRanker{}
}

// Rank ranks slots. reputations maps carrier ids to scores in [0, 100];
// carriers missing from the map get DefaultReputationScore and values out
// of range are clamped.
func (r CandidateRanker) Rank(slots []routeprofile.CarrierSlot, reputations map[string]float64) (Ranking, error) {
	if len(slots) == 0 {
		return Ranking{}, nil
	}
	for _, s := range slots {
		if err := s.Validate(); err != nil {
			return Ranking{}, err
		}
	}

	best, worst := slots[0].Position(), slots[0].Position()
	for _, s := range slots[1:] {
		best = min(best, s.Position())
		worst = max(worst, s.Position())
	}

	var ranking Ranking
	for _, s := range slots {
		reputation := DefaultReputationScore
		if v, ok := reputations[s.CarrierID()]; ok {
			reputation = clampScore(v)
		}
		positionScore := 100.0
		if worst != best {
			positionScore = 100 * float64(worst-s.Position()) / float64(worst-best)
		}

		c := chain.Candidate{
			CarrierID:        s.CarrierID(),
			DeclaredPosition: s.Position(),
			PositionScore:    round4(positionScore),
			ReputationScore:  reputation,
			CombinedScore:    round4(positionWeight*positionScore + reputationWeight*reputation),
			ResponseDeadline: s.ResponseDeadline(),
			Contact:          s.Contact(),
		}

		if reputation < s.MinimumScore() {
			c.SkipReason = fmt.Sprintf("reputation %.1f below minimum %.1f", reputation, s.MinimumScore())
			ranking.Skipped = append(ranking.Skipped, c)
			continue
		}
		ranking.Eligible = append(ranking.Eligible, c)
	}

	slices.SortFunc(ranking.Eligible, func(a, b chain.Candidate) int {
		return cmp.Or(
			cmp.Compare(b.CombinedScore, a.CombinedScore),
			cmp.Compare(a.DeclaredPosition, b.DeclaredPosition),
			strings.Compare(a.CarrierID, b.CarrierID),
		)
	})
	slices.SortFunc(ranking.Skipped, func(a, b chain.Candidate) int {
		return cmp.Or(
			cmp.Compare(a.DeclaredPosition, b.DeclaredPosition),
			strings.Compare(a.CarrierID, b.CarrierID),
		)
	})
	for i := range ranking.Eligible {
		ranking.Eligible[i].Rank = i + 1
	}

	return ranking, nil
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultReputationScore
	}
	return min(max(v, routeprofile.MinScore), routeprofile.MaxScore)
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
