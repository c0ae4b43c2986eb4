package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

type LikeHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLikeHandler(db *gorm.DB, log *zap.Logger) *LikeHandler {
	return &LikeHandler{db: db, log: log}
}

// Toggle likes the party, or removes the like if one already exists. The
// likes_count column is kept consistent in the same transaction as the row.
func (h *LikeHandler) Toggle(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", partyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "party not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	var existing models.PartyLike
	err := h.db.Where("party_id = ? AND user_id = ?", partyID, userID).First(&existing).Error

	if err == nil {
		err = h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return tx.Model(&party).
				UpdateColumn("likes_count", gorm.Expr("likes_count - 1")).Error
		})
		if err != nil {
			h.log.Error("unlike party", zap.Error(err))
			jsonError(c, http.StatusInternalServerError, "could not remove like")
			return
		}
		c.JSON(http.StatusOK, gin.H{"liked": false})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	like := models.PartyLike{PartyID: partyID, UserID: userID}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		return tx.Model(&party).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	if err != nil {
		h.log.Error("like party", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not like party")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"liked": true})
}

// List returns the users who liked a party.
func (h *LikeHandler) List(c *gin.Context) {
	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var likes []models.PartyLike
	if err := h.db.Preload("User").Where("party_id = ?", partyID).Order("created_at desc").Find(&likes).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes, "count": len(likes)})
}
