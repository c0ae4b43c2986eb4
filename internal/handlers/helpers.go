package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"partyspark-backend/internal/models"
)

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// fieldErrors renders per-field validation failures as a structured body.
func fieldErrors(c *gin.Context, errs map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// parseTime accepts RFC3339 or a bare date.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// pagination reads page/page_size query params with sane bounds.
func pagination(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size < 1 || size > 100 {
		size = 20
	}
	return (page - 1) * size, size
}

// notify inserts a notification row inside the caller's transaction.
func notify(tx *gorm.DB, recipient uuid.UUID, kind, title, body string, partyID *uuid.UUID) error {
	n := models.Notification{
		RecipientID:      recipient,
		NotificationType: kind,
		Title:            title,
		Body:             body,
		PartyID:          partyID,
	}
	return tx.Create(&n).Error
}

// isHostOrCoHost reports whether the user hosts or co-hosts the party.
func isHostOrCoHost(db *gorm.DB, party *models.Party, userID uuid.UUID) (bool, error) {
	if party.HostID == userID {
		return true, nil
	}
	var n int64
	err := db.Table("party_co_hosts").
		Where("party_id = ? AND user_id = ?", party.ID, userID).
		Count(&n).Error
	return n > 0, err
}
