package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tobiakoko/afromerica-voting-api/api/models"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

type LeaderboardController struct {
	artists storage.ArtistStorage
	stats   *voting.Aggregator
	events  storage.LedgerEventStorage
}

func NewLeaderboardController(artists storage.ArtistStorage, stats *voting.Aggregator, events storage.LedgerEventStorage) *LeaderboardController {
	return &LeaderboardController{artists: artists, stats: stats, events: events}
}

func (c *LeaderboardController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api")

	group.GET("/leaderboard", c.leaderboard)
	group.GET("/stats", c.getStats)
	group.GET("/events", c.listEvents)
	group.GET("/artists/:slug", c.getArtist)
}

// leaderboard godoc
// @Summary Current artist leaderboard
// @Description Active artists in rank order with previous-rank values for client-side movement indicators
// @Tags leaderboard
// @Produce json
// @Success 200 {array} models.LeaderboardEntry
// @Failure 500 {object} models.ErrorResponse
// @Router /api/leaderboard [get]
func (c *LeaderboardController) leaderboard(g *gin.Context) {
	artists, err := c.artists.ListRanked(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("LEADERBOARD: failed to list artists: %v", err)
		// Degrade to an empty-but-valid shape rather than a raw error.
		g.JSON(http.StatusOK, []models.LeaderboardEntry{})
		return
	}

	entries := make([]models.LeaderboardEntry, 0, len(artists))
	for i, artist := range artists {
		rank := i + 1
		if artist.Rank != nil {
			rank = *artist.Rank
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:         rank,
			PreviousRank: artist.PreviousRank,
			ArtistID:     artist.ID,
			Slug:         artist.Slug,
			Name:         artist.Name,
			StageName:    artist.StageName,
			TotalVotes:   artist.TotalVotes,
		})
	}
	g.JSON(http.StatusOK, entries)
}

// getStats godoc
// @Summary Voting window statistics
// @Tags leaderboard
// @Produce json
// @Success 200 {object} voting.Stats
// @Router /api/stats [get]
func (c *LeaderboardController) getStats(g *gin.Context) {
	stats, err := c.stats.GetStats(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("STATS: failed to aggregate: %v", err)
		g.JSON(http.StatusOK, &voting.Stats{})
		return
	}
	g.JSON(http.StatusOK, stats)
}

// listEvents godoc
// @Summary Ledger change feed
// @Description Events after the given id, for clients polling "changed since X"
// @Tags leaderboard
// @Produce json
// @Param since query int false "Last seen event id"
// @Param limit query int false "Max events to return"
// @Success 200 {array} storage.LedgerEvent
// @Failure 500 {object} models.ErrorResponse
// @Router /api/events [get]
func (c *LeaderboardController) listEvents(g *gin.Context) {
	since, _ := strconv.ParseInt(g.Query("since"), 10, 64)
	limit, _ := strconv.Atoi(g.Query("limit"))

	events, err := c.events.ListSince(g.Request.Context(), since, limit)
	if err != nil {
		logging.Log.Errorf("EVENTS: failed to list since %d: %v", since, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load events"})
		return
	}
	g.JSON(http.StatusOK, events)
}

// getArtist godoc
// @Summary Get an artist by slug
// @Tags leaderboard
// @Produce json
// @Param slug path string true "Artist slug"
// @Success 200 {object} models.ArtistResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/artists/{slug} [get]
func (c *LeaderboardController) getArtist(g *gin.Context) {
	artist, err := c.artists.GetBySlug(g.Request.Context(), g.Param("slug"))
	if err != nil {
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "artist not found"})
		return
	}
	g.JSON(http.StatusOK, models.TransformArtistFromStorage(artist))
}
