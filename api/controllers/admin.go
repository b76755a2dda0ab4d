package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tobiakoko/afromerica-voting-api/api/models"
	"github.com/tobiakoko/afromerica-voting-api/api/transport"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
	"github.com/tobiakoko/afromerica-voting-api/voting"
)

type AdminController struct {
	config    storage.VotingConfigStorage
	ranking   *voting.Engine
	validator *voting.Validator
}

func NewAdminController(config storage.VotingConfigStorage, ranking *voting.Engine, validator *voting.Validator) *AdminController {
	return &AdminController{config: config, ranking: ranking, validator: validator}
}

func (c *AdminController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin", transport.AdminAuthMiddleware())

	group.GET("/config", c.getConfig)
	group.PUT("/config", c.putConfig)
	group.POST("/ranks/recompute", c.recomputeRanks)
	group.POST("/otp/cleanup", c.cleanupOTP)
}

// @Security AdminToken
// getConfig godoc
// @Summary Read the voting window configuration
// @Tags admin
// @Produce json
// @Success 200 {object} models.VotingConfigResponse
// @Failure 404 {object} models.ErrorResponse "Voting not configured yet"
// @Router /api/admin/config [get]
func (c *AdminController) getConfig(g *gin.Context) {
	config, err := c.config.Get(g.Request.Context())
	if err != nil {
		if errors.Is(err, storage.ErrConfigNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "voting is not configured"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to read config: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformVotingConfigFromStorage(config))
}

// @Security AdminToken
// putConfig godoc
// @Summary Set the voting window configuration
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.VotingConfigRequest true "Voting window"
// @Success 200 {object} models.VotingConfigResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/config [put]
func (c *AdminController) putConfig(g *gin.Context) {
	var req models.VotingConfigRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}
	if req.Active && req.EndsAt == nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "an active voting window needs an end time"})
		return
	}

	config := &storage.VotingConfig{
		Active:   req.Active,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Currency: req.Currency,
	}
	if config.Currency == "" {
		config.Currency = "NGN"
	}

	if err := c.config.Upsert(g.Request.Context(), config); err != nil {
		logging.Log.Errorf("ADMIN: failed to save config: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: voting config updated, active=%v", config.Active)
	g.JSON(http.StatusOK, models.TransformVotingConfigFromStorage(config))
}

// @Security AdminToken
// recomputeRanks godoc
// @Summary Trigger a leaderboard rank recomputation
// @Tags admin
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/ranks/recompute [post]
func (c *AdminController) recomputeRanks(g *gin.Context) {
	if err := c.ranking.Recompute(g.Request.Context()); err != nil {
		logging.Log.Errorf("ADMIN: rank recompute failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "recompute failed"})
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "ranks recomputed"})
}

// @Security AdminToken
// cleanupOTP godoc
// @Summary Garbage-collect expired verification codes
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/otp/cleanup [post]
func (c *AdminController) cleanupOTP(g *gin.Context) {
	deleted, err := c.validator.CleanupExpired(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ADMIN: OTP cleanup failed: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: "cleanup failed"})
		return
	}
	g.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
