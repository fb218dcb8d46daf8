package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// CatalogController serves the shared reference data habits are built from:
// categories, units and badges.
type CatalogController struct {
	db *gorm.DB
}

// NewCatalogController creates a new CatalogController instance.
func NewCatalogController(db *gorm.DB) *CatalogController {
	return &CatalogController{db: db}
}

// ListCategories returns all habit categories. The list changes rarely, so it
// is served from cache when possible.
func (c *CatalogController) ListCategories(ctx *gin.Context) {
	const cacheKey = "cache:catalog:categories"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var categories []models.Category
	if err := c.db.Order("name").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list categories")
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"categories": categories}}
	utils.CacheSetJSON(cacheKey, resp, time.Hour)
	ctx.JSON(200, resp)
}

// ListUnits returns all units grouped with their unit types.
func (c *CatalogController) ListUnits(ctx *gin.Context) {
	const cacheKey = "cache:catalog:units"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var units []models.Unit
	if err := c.db.Preload("UnitType").Order("name").Find(&units).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list units")
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"units": units}}
	utils.CacheSetJSON(cacheKey, resp, time.Hour)
	ctx.JSON(200, resp)
}

// CreateCategory lets administrators add a category.
func (c *CatalogController) CreateCategory(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40350, "admin only")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	category := models.Category{
		Name:        utils.Sanitize(strings.TrimSpace(req.Name)),
		Description: utils.Sanitize(req.Description),
	}
	if err := c.db.Create(&category).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, 40950, "category already exists")
		return
	}

	utils.InvalidateByPrefix("cache:catalog:")
	utils.Success(ctx, gin.H{"category": category})
}

// CreateUnit lets administrators add a unit, optionally under a unit type.
func (c *CatalogController) CreateUnit(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40350, "admin only")
		return
	}

	var req struct {
		Name       string `json:"name" binding:"required,min=1"`
		Symbol     string `json:"symbol"`
		UnitTypeID *uint  `json:"unit_type_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}

	unit := models.Unit{
		Name:       utils.Sanitize(strings.TrimSpace(req.Name)),
		Symbol:     utils.Sanitize(strings.TrimSpace(req.Symbol)),
		UnitTypeID: req.UnitTypeID,
	}
	if err := c.db.Create(&unit).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, 40951, "unit already exists")
		return
	}

	utils.InvalidateByPrefix("cache:catalog:")
	utils.Success(ctx, gin.H{"unit": unit})
}

// ListBadges returns the badge catalog ordered by threshold.
func (c *CatalogController) ListBadges(ctx *gin.Context) {
	var badges []models.Badge
	if err := c.db.Order("points_required").Find(&badges).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to list badges")
		return
	}
	utils.Success(ctx, gin.H{"badges": badges})
}

// CreateBadge lets administrators define a badge threshold.
func (c *CatalogController) CreateBadge(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40350, "admin only")
		return
	}

	var req struct {
		Name           string `json:"name" binding:"required,min=1"`
		Description    string `json:"description"`
		PointsRequired int    `json:"points_required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, "invalid request payload")
		return
	}
	if req.PointsRequired < 0 {
		utils.Error(ctx, http.StatusBadRequest, 40053, "points required cannot be negative")
		return
	}

	badge := models.Badge{
		Name:           utils.Sanitize(strings.TrimSpace(req.Name)),
		Description:    utils.Sanitize(req.Description),
		PointsRequired: req.PointsRequired,
	}
	if err := c.db.Create(&badge).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, 40952, "badge already exists")
		return
	}

	utils.Success(ctx, gin.H{"badge": badge})
}
