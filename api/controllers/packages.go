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

type PackageMetaController struct {
	storage storage.VotePackageStorage
}

func NewPackageMetaController(s storage.VotePackageStorage) *PackageMetaController {
	return &PackageMetaController{storage: s}
}

func (c *PackageMetaController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/meta/packages")

	group.GET("", c.getAll)
	group.GET("/:id", c.get)
	group.POST("", transport.AdminAuthMiddleware(), c.create)
	group.PUT("/:id", transport.AdminAuthMiddleware(), c.update)
	group.DELETE("/:id", transport.AdminAuthMiddleware(), c.delete)
}

// @Summary List purchasable vote packages
// @Tags Meta/Packages
// @Produce json
// @Success 200 {array} models.VotePackageResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/packages [get]
func (c *PackageMetaController) getAll(g *gin.Context) {
	packages, err := c.storage.GetAll(g.Request.Context(), true)
	if err != nil {
		logging.Log.Errorf("META: failed to get all packages: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}

	responses := make([]models.VotePackageResponse, 0, len(packages))
	for _, pkg := range packages {
		responses = append(responses, models.TransformVotePackageFromStorage(pkg))
	}
	g.JSON(http.StatusOK, responses)
}

// @Summary Get a vote package by ID
// @Tags Meta/Packages
// @Produce json
// @Param id path int true "Package ID"
// @Success 200 {object} models.VotePackageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/meta/packages/{id} [get]
func (c *PackageMetaController) get(g *gin.Context) {
	id, err := strconv.Atoi(g.Param("id"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid package id"})
		return
	}

	pkg, err := c.storage.Get(g.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, storage.ErrPackageNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "package not found"})
			return
		}
		logging.Log.Errorf("META: failed to get package: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformVotePackageFromStorage(pkg))
}

// @Security AdminToken
// @Summary Create a vote package
// @Tags Meta/Packages
// @Accept json
// @Produce json
// @Param request body models.VotePackageCreateRequest true "Package"
// @Success 200 {object} models.VotePackageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/meta/packages [post]
func (c *PackageMetaController) create(g *gin.Context) {
	var req models.VotePackageCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.Votes < 1 || req.Price < 0 || req.Name == "" {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request, package needs a name, positive votes and a non-negative price"})
		return
	}

	pkg := &storage.VotePackage{
		Name:            req.Name,
		Votes:           req.Votes,
		Price:           req.Price,
		Currency:        req.Currency,
		DiscountPercent: req.DiscountPercent,
		Popular:         req.Popular,
		Active:          true,
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}

	if err := c.storage.Create(g.Request.Context(), pkg); err != nil {
		logging.Log.Errorf("META: failed to create package: %v", err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}

	logging.Log.Infof("META: created package %s (%d votes)", pkg.Name, pkg.Votes)
	g.JSON(http.StatusOK, models.TransformVotePackageFromStorage(pkg))
}

// @Security AdminToken
// @Summary Update a vote package
// @Description Completed purchases are unaffected: their line items snapshot price and votes
// @Tags Meta/Packages
// @Accept json
// @Produce json
// @Param id path int true "Package ID"
// @Param request body models.VotePackageCreateRequest true "Package"
// @Success 200 {object} models.VotePackageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/meta/packages/{id} [put]
func (c *PackageMetaController) update(g *gin.Context) {
	id, err := strconv.Atoi(g.Param("id"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid package id"})
		return
	}

	var req models.VotePackageCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil || req.Votes < 1 || req.Price < 0 {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid request format"})
		return
	}

	pkg := &storage.VotePackage{
		ID:              uint(id),
		Name:            req.Name,
		Votes:           req.Votes,
		Price:           req.Price,
		Currency:        req.Currency,
		DiscountPercent: req.DiscountPercent,
		Popular:         req.Popular,
		Active:          true,
	}
	if req.Active != nil {
		pkg.Active = *req.Active
	}

	if err := c.storage.Update(g.Request.Context(), pkg); err != nil {
		if errors.Is(err, storage.ErrPackageNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "package not found"})
			return
		}
		logging.Log.Errorf("META: failed to update package %d: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}
	g.JSON(http.StatusOK, models.TransformVotePackageFromStorage(pkg))
}

// @Security AdminToken
// @Summary Delete a vote package
// @Tags Meta/Packages
// @Produce json
// @Param id path int true "Package ID"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/meta/packages/{id} [delete]
func (c *PackageMetaController) delete(g *gin.Context) {
	id, err := strconv.Atoi(g.Param("id"))
	if err != nil {
		g.JSON(http.StatusBadRequest, &models.ErrorResponse{Error: "invalid package id"})
		return
	}

	if err := c.storage.Delete(g.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, storage.ErrPackageNotFound) {
			g.JSON(http.StatusNotFound, &models.ErrorResponse{Error: "package not found"})
			return
		}
		logging.Log.Errorf("META: failed to delete package %d: %v", id, err)
		g.JSON(http.StatusInternalServerError, &models.ErrorResponse{Error: err.Error()})
		return
	}
	g.JSON(http.StatusOK, &models.MessageResponse{Message: "package deleted"})
}
