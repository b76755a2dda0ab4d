package voting

import (
	"context"
	"sort"

	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/metrics"
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

// Composite final-score weights.
const (
	WeightPaid        = 0.35
	WeightPublic      = 0.10
	WeightJudges      = 0.30
	WeightPerformance = 0.25

	topTenSize = 10
)

// Engine derives ranks from vote tallies. It runs after every completed
// purchase and never on unrelated reads, so previous_rank only moves when a
// vote-affecting event changed the ordering.
type Engine struct {
	artists storage.ArtistStorage
	finals  storage.FinalScoreStorage
	events  storage.LedgerEventStorage
}

func NewEngine(artists storage.ArtistStorage, finals storage.FinalScoreStorage, events storage.LedgerEventStorage) *Engine {
	return &Engine{artists: artists, finals: finals, events: events}
}

// Recompute assigns dense ranks 1..N over active, non-deleted artists ordered
// by total votes descending with creation order as the tie-break. The result
// is fully determined by the tallies, so re-running without intervening vote
// changes is a no-op.
func (e *Engine) Recompute(ctx context.Context) error {
	artists, err := e.artists.ListRanked(ctx)
	if err != nil {
		return err
	}

	cleared, err := e.artists.ClearRetiredRanks(ctx)
	if err != nil {
		return err
	}

	updates := planRankUpdates(artists)
	if cleared == 0 && len(updates) == 0 {
		return nil
	}
	if err := e.artists.UpdateRanks(ctx, updates); err != nil {
		return err
	}

	metrics.RankRecomputesTotal.Inc()
	if err := e.events.Append(ctx, &storage.LedgerEvent{
		EventType:  "ranks_recomputed",
		EntityType: "leaderboard",
		EntityID:   "global",
	}); err != nil {
		logging.Log.Warnf("RANK: failed to append recompute event: %v", err)
	}
	return nil
}

// planRankUpdates emits one update per artist whose rank actually changes.
// previous_rank is snapshotted only in that case; unchanged artists keep
// their stored previous_rank untouched.
func planRankUpdates(artists []*storage.Artist) []storage.RankUpdate {
	updates := make([]storage.RankUpdate, 0, len(artists))
	for i, artist := range artists {
		rank := i + 1
		if artist.Rank != nil && *artist.Rank == rank {
			continue
		}
		update := storage.RankUpdate{ArtistID: artist.ID, Rank: rank}
		if artist.Rank != nil {
			prev := *artist.Rank
			update.PreviousRank = &prev
		}
		updates = append(updates, update)
	}
	return updates
}

// RecomputeFinals derives the showcase composite ranking: total_score is the
// weighted blend of the four sub-scores, final_rank sorts by it descending,
// and the Top 10 badge is computed independently from public_score alone.
func (e *Engine) RecomputeFinals(ctx context.Context) error {
	scores, err := e.finals.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}

	for _, score := range scores {
		score.TotalScore = CompositeScore(score.PaidScore, score.PublicScore, score.JudgesScore, score.PerformanceScore)
	}

	byTotal := make([]*storage.FinalScore, len(scores))
	copy(byTotal, scores)
	sort.SliceStable(byTotal, func(i, j int) bool {
		if byTotal[i].TotalScore != byTotal[j].TotalScore {
			return byTotal[i].TotalScore > byTotal[j].TotalScore
		}
		return byTotal[i].ArtistID < byTotal[j].ArtistID
	})
	for i, score := range byTotal {
		rank := i + 1
		score.FinalRank = &rank
	}

	byPublic := make([]*storage.FinalScore, len(scores))
	copy(byPublic, scores)
	sort.SliceStable(byPublic, func(i, j int) bool {
		if byPublic[i].PublicScore != byPublic[j].PublicScore {
			return byPublic[i].PublicScore > byPublic[j].PublicScore
		}
		return byPublic[i].ArtistID < byPublic[j].ArtistID
	})
	for i, score := range byPublic {
		score.TopTen = i < topTenSize
	}

	return e.finals.SaveDerived(ctx, scores)
}

// CompositeScore blends the four sub-scores with the fixed 35/10/30/25
// weights.
func CompositeScore(paid, public, judges, performance float64) float64 {
	return paid*WeightPaid + public*WeightPublic + judges*WeightJudges + performance*WeightPerformance
}
