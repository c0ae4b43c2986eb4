package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/models"
	"partyspark-backend/internal/slug"
)

type CategoryHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCategoryHandler(db *gorm.DB, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{db: db, log: log}
}

// List returns active categories ordered by sort_order then name. Admins can
// pass all=true to include inactive ones.
func (h *CategoryHandler) List(c *gin.Context) {
	query := h.db.Model(&models.PartyCategory{})
	if c.Query("all") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var categories []models.PartyCategory
	if err := query.Order("sort_order, name").Find(&categories).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, categories)
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// Create adds a category. Name and slug uniqueness are both checked.
func (h *CategoryHandler) Create(c *gin.Context) {
	var body CategoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	name := strings.TrimSpace(body.Name)
	catSlug := slug.Make(name)

	var n int64
	if err := h.db.Model(&models.PartyCategory{}).
		Where("LOWER(name) = LOWER(?) OR slug = ?", name, catSlug).
		Count(&n).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if n > 0 {
		jsonError(c, http.StatusConflict, "a category with this name already exists")
		return
	}

	category := models.PartyCategory{
		Name:        name,
		Slug:        catSlug,
		Description: body.Description,
		Icon:        body.Icon,
		Color:       defaultString(body.Color, "#007bff"),
		IsActive:    body.IsActive == nil || *body.IsActive,
		SortOrder:   body.SortOrder,
	}

	if err := h.db.Create(&category).Error; err != nil {
		h.log.Error("create category", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// Update edits a category in place. The slug follows a name change.
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var category models.PartyCategory
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "category not found")
		return
	}

	var body CategoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	name := strings.TrimSpace(body.Name)
	if !strings.EqualFold(name, category.Name) {
		var n int64
		if err := h.db.Model(&models.PartyCategory{}).
			Where("LOWER(name) = LOWER(?) AND id <> ?", name, id).
			Count(&n).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "db error")
			return
		}
		if n > 0 {
			jsonError(c, http.StatusConflict, "a category with this name already exists")
			return
		}
		category.Slug = slug.Make(name)
	}

	category.Name = name
	category.Description = body.Description
	category.Icon = body.Icon
	category.Color = defaultString(body.Color, category.Color)
	if body.IsActive != nil {
		category.IsActive = *body.IsActive
	}
	category.SortOrder = body.SortOrder

	if err := h.db.Save(&category).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete removes a category; parties referencing it keep running with the
// reference nulled.
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var category models.PartyCategory
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "category not found")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Party{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		h.log.Error("delete category", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
