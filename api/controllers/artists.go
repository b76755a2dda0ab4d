package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tobiakoko/afromerica-voting-api/api/models"
	"github.com/tobiakoko/afromerica-voting-api/api/transport"
	"github.com/tobiakoko/afromerica-voting-api/logging"
	"github.com/tobiakoko/afromerica-voting-api/storage"
)

type ArtistAdminController struct {
	artists storage.ArtistStorage
}

func NewArtistAdminController(artists storage.ArtistStorage) *ArtistAdminController {
	return &ArtistAdminController{artists: artists}
}

func (c *ArtistAdminController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/admin/artists", transport.AdminAuthMiddleware())

	group.GET("", c.list)
	group.POST("", c.create)
	group.PUT("/:id", c.update)
	group.DELETE("/:id", c.delete)
	group.POST("/:id/restore", c.restore)
}

// @Security AdminToken
// list godoc
// @Summary List all artists including soft-deleted ones
// @Tags admin
// @Produce json
// @Success 200 {array} models.ArtistResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/artists [get]
func (c *ArtistAdminController) list(g *gin.Context) {
	artists, err := c.artists.GetAll(g.Request.Context(), true)
	if err != nil {
		logging.Log.Errorf("ADMIN: failed to list artists: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}

	responses := make([]models.ArtistResponse, 0, len(artists))
	for _, artist := range artists {
		responses = append(responses, models.TransformArtistFromStorage(artist))
	}
	g.JSON(http.StatusOK, responses)
}

// @Security AdminToken
// create godoc
// @Summary Create an artist
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.ArtistCreateRequest true "Artist"
// @Success 200 {object} models.ArtistResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Slug already taken"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/artists [post]
func (c *ArtistAdminController) create(g *gin.Context) {
	var req models.ArtistCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.Slug == "" || req.Name == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request, missing slug or name"})
		return
	}

	artist := &storage.Artist{
		Slug:      req.Slug,
		Name:      req.Name,
		StageName: req.StageName,
		IsActive:  true,
	}
	if req.IsActive != nil {
		artist.IsActive = *req.IsActive
	}

	if err := c.artists.Create(g.Request.Context(), artist); err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			g.JSON(http.StatusConflict, &models.ErrorResponse{Error: err.Error()})
			return
		}
		logging.Log.Errorf("ADMIN: failed to create artist: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: created artist %s (%s)", artist.Name, artist.Slug)
	g.JSON(http.StatusOK, models.TransformArtistFromStorage(artist))
}

// @Security AdminToken
// update godoc
// @Summary Update an artist's profile fields
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Artist ID"
// @Param request body models.ArtistUpdateRequest true "Artist"
// @Success 200 {object} models.ArtistResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/admin/artists/{id} [put]
func (c *ArtistAdminController) update(g *gin.Context) {
	id, err := strconv.Atoi(g.Param("id"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid artist id"})
		return
	}

	var req models.ArtistUpdateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	artist, err := c.artists.Get(g.Request.Context(), uint(id))
	if err != nil {
		g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "artist not found"})
		return
	}

	if req.Slug != "" {
		artist.Slug = req.Slug
	}
	if req.Name != "" {
		artist.Name = req.Name
	}
	if req.StageName != "" {
		artist.StageName = req.StageName
	}
	if req.IsActive != nil {
		artist.IsActive = *req.IsActive
	}

	if err := c.artists.Update(g.Request.Context(), artist); err != nil {
		logging.Log.Errorf("ADMIN: failed to update artist %d: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformArtistFromStorage(artist))
}

// @Security AdminToken
// delete godoc
// @Summary Soft-delete an artist
// @Description The row is kept because votes reference it; it only disappears from listings
// @Tags admin
// @Produce json
// @Param id path int true "Artist ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/artists/{id} [delete]
func (c *ArtistAdminController) delete(g *gin.Context) {
	id, err := strconv.Atoi(g.Param("id"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid artist id"})
		return
	}

	deletedBy := g.GetHeader("x-admin-user")
	if deletedBy == "" {
		deletedBy = "admin"
	}

	if err := c.artists.SoftDelete(g.Request.Context(), uint(id), deletedBy); err != nil {
		if errors.Is(err, storage.ErrArtistNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "artist not found"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to delete artist %d: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}

	logging.Log.Infof("ADMIN: soft-deleted artist %d by %s", id, deletedBy)
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "artist deleted"})
}

// @Security AdminToken
// restore godoc
// @Summary Restore a soft-deleted artist
// @Tags admin
// @Produce json
// @Param id path int true "Artist ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/admin/artists/{id}/restore [post]
func (c *ArtistAdminController) restore(g *gin.Context) {
	id, err := strconv.Atoi(g.Param("id"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid artist id"})
		return
	}

	if err := c.artists.Restore(g.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, storage.ErrArtistNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "artist not found or not deleted"})
			return
		}
		logging.Log.Errorf("ADMIN: failed to restore artist %d: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "artist restored"})
}
