package voting

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

const (
	statsCacheKey = "voting:stats:latest"
	statsCacheTTL = 10 * time.Minute

	defaultCurrency = "NGN"
)

// TimeRemaining is the human-readable decomposition of the time left in the
// voting window. Recomputed on demand, never stored.
type TimeRemaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

type Stats struct {
	Configured     bool          `json:"configured"`
	TotalVotes     int64         `json:"totalVotes"`
	TotalRevenue   int64         `json:"totalRevenue"`
	UniqueVoters   int64         `json:"uniqueVoters"`
	Currency       string        `json:"currency"`
	VotingEndsAt   *time.Time    `json:"votingEndsAt,omitempty"`
	IsVotingActive bool          `json:"isVotingActive"`
	TimeRemaining  TimeRemaining `json:"timeRemaining"`
	TopArtist      string        `json:"topArtist,omitempty"`
}

// Aggregator computes the voting-window statistics that gate the purchase
// flow and feed the public stats endpoint.
type Aggregator struct {
	config    storage.VotingConfigStorage
	purchases storage.VotePurchaseStorage
	artists   storage.ArtistStorage
	cache     storage.Cache
	now       func() time.Time
}

func NewAggregator(config storage.VotingConfigStorage, purchases storage.VotePurchaseStorage, artists storage.ArtistStorage, cache storage.Cache) *Aggregator {
	return &Aggregator{
		config:    config,
		purchases: purchases,
		artists:   artists,
		cache:     cache,
		now:       time.Now,
	}
}

// GetStats returns the aggregate view. A missing config row yields a
// well-defined unconfigured/inactive shape; transient storage failures fall
// back to the last cached value rather than propagating the error.
func (a *Aggregator) GetStats(ctx context.Context) (*Stats, error) {
	stats, err := a.compute(ctx)
	if err != nil {
		logging.Log.Errorf("STATS: compute failed, trying cache: %v", err)
		if cached, ok := a.cachedStats(ctx); ok {
			return cached, nil
		}
		return &Stats{Currency: defaultCurrency}, nil
	}

	if encoded, err := json.Marshal(stats); err == nil {
		if err := a.cache.Set(ctx, statsCacheKey, string(encoded), statsCacheTTL); err != nil {
			logging.Log.Warnf("STATS: failed to cache stats: %v", err)
		}
	}
	return stats, nil
}

func (a *Aggregator) compute(ctx context.Context) (*Stats, error) {
	now := a.now()
	stats := &Stats{Currency: defaultCurrency}

	config, err := a.config.Get(ctx)
	switch {
	case errors.Is(err, storage.ErrConfigNotFound):
		// Voting not configured yet; totals are still reported.
	case err != nil:
		return nil, err
	default:
		stats.Configured = true
		stats.Currency = config.Currency
		stats.VotingEndsAt = config.EndsAt
		stats.IsVotingActive = windowOpen(config, now)
		if config.EndsAt != nil && now.Before(*config.EndsAt) {
			stats.TimeRemaining = decomposeRemaining(config.EndsAt.Sub(now))
		}
	}

	votes, revenue, err := a.purchases.CompletedTotals(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalVotes = votes
	stats.TotalRevenue = revenue

	voters, err := a.purchases.UniqueVoters(ctx)
	if err != nil {
		return nil, err
	}
	stats.UniqueVoters = voters

	ranked, err := a.artists.ListRanked(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) > 0 {
		stats.TopArtist = ranked[0].Name
		if ranked[0].StageName != "" {
			stats.TopArtist = ranked[0].StageName
		}
	}
	return stats, nil
}

// IsVotingActive is the gate used by the purchase path: the admin flag must
// be on AND the clock must be inside the configured window.
func (a *Aggregator) IsVotingActive(ctx context.Context) bool {
	config, err := a.config.Get(ctx)
	if err != nil {
		return false
	}
	return windowOpen(config, a.now())
}

func (a *Aggregator) Currency(ctx context.Context) string {
	config, err := a.config.Get(ctx)
	if err != nil || config.Currency == "" {
		return defaultCurrency
	}
	return config.Currency
}

func (a *Aggregator) cachedStats(ctx context.Context) (*Stats, bool) {
	encoded, ok, err := a.cache.Get(ctx, statsCacheKey)
	if err != nil || !ok {
		return nil, false
	}
	var stats Stats
	if err := json.Unmarshal([]byte(encoded), &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

func windowOpen(config *storage.VotingConfig, now time.Time) bool {
	if !config.Active || config.EndsAt == nil {
		return false
	}
	if config.StartsAt != nil && now.Before(*config.StartsAt) {
		return false
	}
	return now.Before(*config.EndsAt)
}

func decomposeRemaining(d time.Duration) TimeRemaining {
	minutes := int(d.Minutes())
	return TimeRemaining{
		Days:    minutes / (24 * 60),
		Hours:   (minutes % (24 * 60)) / 60,
		Minutes: minutes % 60,
	}
}
