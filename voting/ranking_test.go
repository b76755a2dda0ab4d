package voting

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/storage/storagetest"
)

func setupRankingTest(t *testing.T) (*Engine, *storage.GormArtistStorage, *storage.GormFinalScoreStorage, *gorm.DB) {
	t.Helper()
	logging.Log = logrus.New()

	db := storagetest.Open(t)
	artists := &storage.GormArtistStorage{DB: db}
	finals := &storage.GormFinalScoreStorage{DB: db}
	events := &storage.GormLedgerEventStorage{DB: db}
	return NewEngine(artists, finals, events), artists, finals, db
}

func seedRankedArtist(t *testing.T, artists *storage.GormArtistStorage, slug string, votes int64) *storage.Artist {
	t.Helper()
	artist := &storage.Artist{Slug: slug, Name: slug, IsActive: true, TotalVotes: votes}
	require.NoError(t, artists.Create(context.Background(), artist))
	return artist
}

func mustRank(t *testing.T, artists *storage.GormArtistStorage, id uint) (rank int, previous *int) {
	t.Helper()
	artist, err := artists.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, artist.Rank)
	return *artist.Rank, artist.PreviousRank
}

func TestRecompute(t *testing.T) {
	t.Run("Happy path - dense ranks ordered by votes, ties by creation order", func(t *testing.T) {
		engine, artists, _, _ := setupRankingTest(t)
		a := seedRankedArtist(t, artists, "artist-a", 100)
		b := seedRankedArtist(t, artists, "artist-b", 300)
		c := seedRankedArtist(t, artists, "artist-c", 100)

		require.NoError(t, engine.Recompute(context.Background()))

		rank, prev := mustRank(t, artists, b.ID)
		assert.Equal(t, 1, rank)
		assert.Nil(t, prev, "first ranking has no previous rank")

		rank, _ = mustRank(t, artists, a.ID)
		assert.Equal(t, 2, rank, "earlier creation wins the tie")
		rank, _ = mustRank(t, artists, c.ID)
		assert.Equal(t, 3, rank)
	})

	t.Run("Happy path - previous rank moves only when the rank changes", func(t *testing.T) {
		engine, artists, _, db := setupRankingTest(t)
		a := seedRankedArtist(t, artists, "artist-a", 200)
		b := seedRankedArtist(t, artists, "artist-b", 100)
		c := seedRankedArtist(t, artists, "artist-c", 50)

		require.NoError(t, engine.Recompute(context.Background()))

		// B overtakes A; C stays third.
		require.NoError(t, db.Model(&storage.Artist{}).Where("id = ?", b.ID).
			Update("total_votes", 300).Error)
		require.NoError(t, engine.Recompute(context.Background()))

		rank, prev := mustRank(t, artists, b.ID)
		assert.Equal(t, 1, rank)
		require.NotNil(t, prev)
		assert.Equal(t, 2, *prev)

		rank, prev = mustRank(t, artists, a.ID)
		assert.Equal(t, 2, rank)
		require.NotNil(t, prev)
		assert.Equal(t, 1, *prev)

		rank, prev = mustRank(t, artists, c.ID)
		assert.Equal(t, 3, rank)
		assert.Nil(t, prev, "unmoved artist keeps its stored previous rank")
	})

	t.Run("Happy path - recompute without vote changes is a no-op", func(t *testing.T) {
		engine, artists, _, db := setupRankingTest(t)
		a := seedRankedArtist(t, artists, "artist-a", 200)
		b := seedRankedArtist(t, artists, "artist-b", 100)

		require.NoError(t, engine.Recompute(context.Background()))
		require.NoError(t, db.Model(&storage.Artist{}).Where("id = ?", b.ID).
			Update("total_votes", 300).Error)
		require.NoError(t, engine.Recompute(context.Background()))

		_, prevA := mustRank(t, artists, a.ID)
		_, prevB := mustRank(t, artists, b.ID)

		require.NoError(t, engine.Recompute(context.Background()))
		require.NoError(t, engine.Recompute(context.Background()))

		_, prevA2 := mustRank(t, artists, a.ID)
		_, prevB2 := mustRank(t, artists, b.ID)
		assert.Equal(t, prevA, prevA2)
		assert.Equal(t, prevB, prevB2)
	})

	t.Run("Happy path - inactive and deleted artists are excluded", func(t *testing.T) {
		engine, artists, _, _ := setupRankingTest(t)
		a := seedRankedArtist(t, artists, "artist-a", 200)
		b := seedRankedArtist(t, artists, "artist-b", 500)
		require.NoError(t, artists.SoftDelete(context.Background(), b.ID, "admin"))

		require.NoError(t, engine.Recompute(context.Background()))

		rank, _ := mustRank(t, artists, a.ID)
		assert.Equal(t, 1, rank)

		deleted, err := artists.Get(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Nil(t, deleted.Rank)
	})

	t.Run("Happy path - deactivated leader loses its rank to the runner-up", func(t *testing.T) {
		engine, artists, _, db := setupRankingTest(t)
		a := seedRankedArtist(t, artists, "artist-a", 500)
		b := seedRankedArtist(t, artists, "artist-b", 200)

		require.NoError(t, engine.Recompute(context.Background()))
		require.NoError(t, db.Model(&storage.Artist{}).Where("id = ?", a.ID).
			Update("is_active", false).Error)
		require.NoError(t, engine.Recompute(context.Background()))

		retired, err := artists.Get(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Nil(t, retired.Rank, "retired artist must not keep a stale rank")
		assert.Nil(t, retired.PreviousRank)

		rank, _ := mustRank(t, artists, b.ID)
		assert.Equal(t, 1, rank)
	})

	t.Run("Happy path - deactivating the last rank clears it even without reordering", func(t *testing.T) {
		engine, artists, _, db := setupRankingTest(t)
		a := seedRankedArtist(t, artists, "artist-a", 500)
		b := seedRankedArtist(t, artists, "artist-b", 200)

		require.NoError(t, engine.Recompute(context.Background()))
		require.NoError(t, db.Model(&storage.Artist{}).Where("id = ?", b.ID).
			Update("is_active", false).Error)
		require.NoError(t, engine.Recompute(context.Background()))

		retired, err := artists.Get(context.Background(), b.ID)
		require.NoError(t, err)
		assert.Nil(t, retired.Rank)

		rank, _ := mustRank(t, artists, a.ID)
		assert.Equal(t, 1, rank)
	})

	t.Run("Happy path - soft delete clears rank columns immediately", func(t *testing.T) {
		engine, artists, _, _ := setupRankingTest(t)
		a := seedRankedArtist(t, artists, "artist-a", 500)
		seedRankedArtist(t, artists, "artist-b", 200)

		require.NoError(t, engine.Recompute(context.Background()))
		require.NoError(t, artists.SoftDelete(context.Background(), a.ID, "admin"))

		deleted, err := artists.Get(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Nil(t, deleted.Rank)
		assert.Nil(t, deleted.PreviousRank)
	})

	t.Run("Happy path - empty leaderboard is tolerated", func(t *testing.T) {
		engine, _, _, _ := setupRankingTest(t)
		assert.NoError(t, engine.Recompute(context.Background()))
	})
}

func TestPlanRankUpdates(t *testing.T) {
	intp := func(v int) *int { return &v }

	t.Run("Happy path - unchanged ranks produce no updates", func(t *testing.T) {
		updates := planRankUpdates([]*storage.Artist{
			{ID: 1, Rank: intp(1)},
			{ID: 2, Rank: intp(2)},
		})
		assert.Empty(t, updates)
	})

	t.Run("Happy path - new entrant gets a rank but no previous rank", func(t *testing.T) {
		updates := planRankUpdates([]*storage.Artist{
			{ID: 1, Rank: intp(1)},
			{ID: 2},
		})
		require.Len(t, updates, 1)
		assert.Equal(t, uint(2), updates[0].ArtistID)
		assert.Equal(t, 2, updates[0].Rank)
		assert.Nil(t, updates[0].PreviousRank)
	})

	t.Run("Happy path - moved artist snapshots the displaced rank", func(t *testing.T) {
		updates := planRankUpdates([]*storage.Artist{
			{ID: 2, Rank: intp(2)},
			{ID: 1, Rank: intp(1)},
		})
		require.Len(t, updates, 2)
		assert.Equal(t, 1, updates[0].Rank)
		require.NotNil(t, updates[0].PreviousRank)
		assert.Equal(t, 2, *updates[0].PreviousRank)
		assert.Equal(t, 2, updates[1].Rank)
		require.NotNil(t, updates[1].PreviousRank)
		assert.Equal(t, 1, *updates[1].PreviousRank)
	})
}

func TestCompositeScore(t *testing.T) {
	assert.InDelta(t, 100.0, CompositeScore(100, 100, 100, 100), 1e-9)
	assert.InDelta(t, 35.0, CompositeScore(100, 0, 0, 0), 1e-9)
	assert.InDelta(t, 10.0, CompositeScore(0, 100, 0, 0), 1e-9)
	assert.InDelta(t, 30.0, CompositeScore(0, 0, 100, 0), 1e-9)
	assert.InDelta(t, 25.0, CompositeScore(0, 0, 0, 100), 1e-9)
}

func TestRecomputeFinals(t *testing.T) {
	engine, artists, finals, _ := setupRankingTest(t)

	// Twelve contenders so the Top-10 badge has a real cutoff. Public score
	// decreases with the index while judges score increases, so the composite
	// ordering and the Top-10 set disagree on purpose.
	for i := 1; i <= 12; i++ {
		artist := seedRankedArtist(t, artists, fmt.Sprintf("artist-%02d", i), 0)
		require.NoError(t, finals.UpsertScores(context.Background(), &storage.FinalScore{
			ArtistID:         artist.ID,
			PaidScore:        50,
			PublicScore:      float64(100 - i),
			JudgesScore:      float64(i * 5),
			PerformanceScore: 60,
		}))
	}

	require.NoError(t, engine.RecomputeFinals(context.Background()))

	scores, err := finals.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 12)

	byArtist := make(map[uint]*storage.FinalScore, len(scores))
	for _, s := range scores {
		byArtist[s.ArtistID] = s
	}

	for _, s := range scores {
		expected := CompositeScore(s.PaidScore, s.PublicScore, s.JudgesScore, s.PerformanceScore)
		assert.InDelta(t, expected, s.TotalScore, 1e-9)
		require.NotNil(t, s.FinalRank)
	}

	// Judges weight dominates here, so the highest artist id wins the final
	// rank while the Top-10 badge follows public score.
	best := byArtist[scores[len(scores)-1].ArtistID]
	assert.Equal(t, 1, *best.FinalRank)

	topTen := 0
	for _, s := range scores {
		if s.TopTen {
			topTen++
		}
	}
	assert.Equal(t, 10, topTen)

	// Public score decreases with index, so the two newest artists miss the
	// badge.
	assert.False(t, scores[len(scores)-1].TopTen)
	assert.False(t, scores[len(scores)-2].TopTen)
}
