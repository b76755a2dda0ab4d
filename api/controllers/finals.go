package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tobiakoko/afromerica-voting-api/api/models"
	"github.com/tobiakoko/afromerica-voting-api/api/transport"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

type FinalsController struct {
	scores  storage.FinalScoreStorage
	ranking *voting.Engine
}

func NewFinalsController(scores storage.FinalScoreStorage, ranking *voting.Engine) *FinalsController {
	return &FinalsController{scores: scores, ranking: ranking}
}

func (c *FinalsController) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/api/finals", c.getAll)

	group := engine.Group("/api/admin/finals", transport.AdminAuthMiddleware())
	group.POST("", c.upsert)
	group.POST("/recompute", c.recompute)
}

// getAll godoc
// @Summary Showcase final standings
// @Description Composite scores in final-rank order, with the public-score Top 10 badge
// @Tags finals
// @Produce json
// @Success 200 {array} models.FinalScoreResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/finals [get]
func (c *FinalsController) getAll(g *gin.Context) {
	scores, err := c.scores.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("FINALS: failed to load scores: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not load final scores"})
		return
	}

	sort.SliceStable(scores, func(i, j int) bool {
		ri, rj := scores[i].FinalRank, scores[j].FinalRank
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri < *rj
		}
	})

	responses := make([]models.FinalScoreResponse, 0, len(scores))
	for _, score := range scores {
		responses = append(responses, models.TransformFinalScoreFromStorage(score))
	}
	g.JSON(http.StatusOK, responses)
}

// @Security AdminToken
// upsert godoc
// @Summary Record an artist's sub-scores
// @Description Stores the four sub-scores and recomputes the derived composite ranking
// @Tags finals
// @Accept json
// @Produce json
// @Param request body models.FinalScoreUpsertRequest true "Sub-scores"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/finals [post]
func (c *FinalsController) upsert(g *gin.Context) {
	var req models.FinalScoreUpsertRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.ArtistID == 0 {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request, missing artist id"})
		return
	}

	score := &storage.FinalScore{
		ArtistID:         req.ArtistID,
		PaidScore:        req.PaidScore,
		PublicScore:      req.PublicScore,
		JudgesScore:      req.JudgesScore,
		PerformanceScore: req.PerformanceScore,
	}
	if err := c.scores.UpsertScores(g.Request.Context(), score); err != nil {
		logging.Log.Errorf("FINALS: failed to upsert scores for artist %d: %v", req.ArtistID, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "could not save scores"})
		return
	}

	if err := c.ranking.RecomputeFinals(g.Request.Context()); err != nil {
		logging.Log.Errorf("FINALS: recompute after upsert failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "scores saved but recompute failed"})
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "scores recorded"})
}

// @Security AdminToken
// recompute godoc
// @Summary Recompute the composite final ranking
// @Tags finals
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/finals/recompute [post]
func (c *FinalsController) recompute(g *gin.Context) {
	if err := c.ranking.RecomputeFinals(g.Request.Context()); err != nil {
		logging.Log.Errorf("FINALS: recompute failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "recompute failed"})
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "final ranking recomputed"})
}
