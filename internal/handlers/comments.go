package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

type CommentHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCommentHandler(db *gorm.DB, log *zap.Logger) *CommentHandler {
	return &CommentHandler{db: db, log: log}
}

type CommentRequest struct {
	Content  string     `json:"content" binding:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// Create posts a comment or a threaded reply on a party.
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var body CommentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if strings.TrimSpace(body.Content) == "" {
		fieldErrors(c, map[string]string{"content": "content cannot be empty"})
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

	if !party.AllowComments {
		jsonError(c, http.StatusForbidden, "comments are disabled for this party")
		return
	}

	if body.ParentID != nil {
		var parent models.PartyComment
		if err := h.db.First(&parent, "id = ? AND party_id = ?", *body.ParentID, partyID).Error; err != nil {
			fieldErrors(c, map[string]string{"parent_id": "parent comment not found on this party"})
			return
		}
	}

	comment := models.PartyComment{
		PartyID:  partyID,
		UserID:   userID,
		ParentID: body.ParentID,
		Content:  body.Content,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if userID != party.HostID {
			return notify(tx, party.HostID, models.NotificationNewComment,
				"New comment", "New comment on "+party.Title, &party.ID)
		}
		return nil
	})
	if err != nil {
		h.log.Error("create comment", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not create comment")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// List returns top-level comments with replies, pinned first, then newest.
func (h *CommentHandler) List(c *gin.Context) {
	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	offset, limit := pagination(c)

	var comments []models.PartyComment
	if err := h.db.Preload("User").Preload("Replies").Preload("Replies.User").
		Where("party_id = ? AND parent_id IS NULL", partyID).
		Order("is_pinned desc, created_at desc").
		Offset(offset).Limit(limit).
		Find(&comments).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Update edits a comment's content and marks it edited. Author only.
func (h *CommentHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	commentID, ok := uuidParam(c, "commentId")
	if !ok {
		return
	}

	var body struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var comment models.PartyComment
	if err := h.db.First(&comment, "id = ?", commentID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "comment not found")
		return
	}

	if comment.UserID != userID {
		jsonError(c, http.StatusForbidden, "only the author can edit a comment")
		return
	}

	updates := map[string]interface{}{"content": body.Content, "is_edited": true}
	if err := h.db.Model(&comment).Updates(updates).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not update comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete removes a comment and its replies. Author or party host.
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	commentID, ok := uuidParam(c, "commentId")
	if !ok {
		return
	}

	var comment models.PartyComment
	if err := h.db.First(&comment, "id = ?", commentID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "comment not found")
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", comment.PartyID).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if comment.UserID != userID && party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the author or the host can delete a comment")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.PartyComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}

// Pin toggles the pinned flag. Host only.
func (h *CommentHandler) Pin(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	commentID, ok := uuidParam(c, "commentId")
	if !ok {
		return
	}

	var comment models.PartyComment
	if err := h.db.First(&comment, "id = ?", commentID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "comment not found")
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", comment.PartyID).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the host can pin comments")
		return
	}

	if err := h.db.Model(&comment).Update("is_pinned", !comment.IsPinned).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not pin comment")
		return
	}
	c.JSON(http.StatusOK, comment)
}
