package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

type AnalyticsHandler struct {
	db  *gorm.DB
	rdb *redis.Client
	log *zap.Logger
}

func NewAnalyticsHandler(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, rdb: rdb, log: log}
}

// PartySummary returns engagement numbers for one party. Host, co-host or
// admin only.
func (h *AnalyticsHandler) PartySummary(c *gin.Context) {
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
		jsonError(c, http.StatusNotFound, "party not found")
		return
	}

	allowed, err := isHostOrCoHost(h.db, &party, userID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if !allowed && !h.isAdmin(userID) {
		jsonError(c, http.StatusForbidden, "only the host can view party analytics")
		return
	}

	rsvpBreakdown := map[string]int64{}
	for _, status := range []string{models.RSVPStatusAttending, models.RSVPStatusMaybe, models.RSVPStatusNotAttending} {
		var n int64
		if err := h.db.Model(&models.PartyRSVP{}).
			Where("party_id = ? AND status = ?", partyID, status).
			Count(&n).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "db error")
			return
		}
		rsvpBreakdown[status] = n
	}

	var checkedIn, comments int64
	if err := h.db.Model(&models.PartyRSVP{}).
		Where("party_id = ? AND checked_in = ?", partyID, true).
		Count(&checkedIn).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if err := h.db.Model(&models.PartyComment{}).
		Where("party_id = ?", partyID).
		Count(&comments).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	// Live views accumulate in redis between counter flushes.
	var liveViews int64
	if h.rdb != nil {
		if v, err := h.rdb.Get(c.Request.Context(), fmt.Sprintf("party:%s:views", partyID)).Int64(); err == nil {
			liveViews = v
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"party_id":    party.ID,
		"views":       party.ViewsCount,
		"live_views":  liveViews,
		"likes":       party.LikesCount,
		"shares":      party.SharesCount,
		"comments":    comments,
		"rsvps":       rsvpBreakdown,
		"checked_in":  checkedIn,
	})
}

// HostOverview aggregates the caller's parties by status plus total
// attendance across them.
func (h *AnalyticsHandler) HostOverview(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	byStatus := map[string]int64{}
	for _, status := range []string{models.PartyStatusDraft, models.PartyStatusPublished, models.PartyStatusCancelled, models.PartyStatusCompleted} {
		var n int64
		if err := h.db.Model(&models.Party{}).
			Where("host_id = ? AND status = ?", userID, status).
			Count(&n).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "db error")
			return
		}
		byStatus[status] = n
	}

	var totalAttendees int64
	if err := h.db.Model(&models.PartyRSVP{}).
		Joins("JOIN parties ON parties.id = party_rsvps.party_id").
		Where("parties.host_id = ? AND party_rsvps.status = ?", userID, models.RSVPStatusAttending).
		Count(&totalAttendees).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"parties_by_status": byStatus,
		"total_attendees":   totalAttendees,
	})
}

// PlatformOverview reports platform-wide totals. Admin only (enforced by the
// route group).
func (h *AnalyticsHandler) PlatformOverview(c *gin.Context) {
	var users, parties, rsvps, categories int64

	if err := h.db.Model(&models.User{}).Count(&users).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if err := h.db.Model(&models.Party{}).Count(&parties).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if err := h.db.Model(&models.PartyRSVP{}).Count(&rsvps).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if err := h.db.Model(&models.PartyCategory{}).Count(&categories).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	type categoryCount struct {
		Name    string `json:"name"`
		Parties int64  `json:"parties"`
	}
	var top []categoryCount
	if err := h.db.Model(&models.Party{}).
		Select("party_categories.name AS name, COUNT(parties.id) AS parties").
		Joins("JOIN party_categories ON party_categories.id = parties.category_id").
		Group("party_categories.name").
		Order("parties DESC").
		Limit(5).
		Scan(&top).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":          users,
		"parties":        parties,
		"rsvps":          rsvps,
		"categories":     categories,
		"top_categories": top,
	})
}

func (h *AnalyticsHandler) isAdmin(userID interface{}) bool {
	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.UserType == models.UserTypeAdmin
}
