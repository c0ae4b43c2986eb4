package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/models"
)

// AdminHandler exposes the operator-facing list views: filterable,
// searchable tables over every store. Routes are mounted behind the admin
// middleware.
type AdminHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAdminHandler(db *gorm.DB, log *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, log: log}
}

// ListUsers: filter by user_type/is_verified/is_premium, search across
// email, username and names. Newest accounts first.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	query := h.db.Model(&models.User{})

	if v := c.Query("user_type"); v != "" {
		query = query.Where("user_type = ?", v)
	}
	if v := c.Query("is_verified"); v != "" {
		query = query.Where("is_verified = ?", v == "true")
	}
	if v := c.Query("is_premium"); v != "" {
		query = query.Where("is_premium = ?", v == "true")
	}
	if q := c.Query("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(
			"email ILIKE ? OR username ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	offset, limit := pagination(c)

	var users []models.User
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateUserFlags toggles the admin-mutable account flags.
func (h *AdminHandler) UpdateUserFlags(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		IsVerified       *bool   `json:"is_verified"`
		IsPremium        *bool   `json:"is_premium"`
		PremiumExpiresAt *string `json:"premium_expires_at"`
		IsActive         *bool   `json:"is_active"`
		UserType         *string `json:"user_type"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}

	updates := map[string]interface{}{}
	setBool(updates, "is_verified", body.IsVerified)
	setBool(updates, "is_premium", body.IsPremium)
	setBool(updates, "is_active", body.IsActive)
	if body.UserType != nil {
		switch *body.UserType {
		case models.UserTypeCreator, models.UserTypeAttendee, models.UserTypeOrganizer, models.UserTypeAdmin:
			updates["user_type"] = *body.UserType
		default:
			fieldErrors(c, map[string]string{"user_type": "invalid user type"})
			return
		}
	}
	if body.PremiumExpiresAt != nil {
		if *body.PremiumExpiresAt == "" {
			updates["premium_expires_at"] = nil
		} else {
			t, err := parseTime(*body.PremiumExpiresAt)
			if err != nil {
				fieldErrors(c, map[string]string{"premium_expires_at": "invalid date format"})
				return
			}
			updates["premium_expires_at"] = t
		}
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "could not update user")
			return
		}
	}
	c.JSON(http.StatusOK, user)
}

// ListProfiles: filter by privacy_level, search email/username/location.
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	query := h.db.Model(&models.UserProfile{}).
		Joins("JOIN users ON users.id = user_profiles.user_id")

	if v := c.Query("privacy_level"); v != "" {
		query = query.Where("user_profiles.privacy_level = ?", v)
	}
	if q := c.Query("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(
			"users.email ILIKE ? OR users.username ILIKE ? OR user_profiles.location ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	offset, limit := pagination(c)

	var profiles []models.UserProfile
	if err := query.Select("user_profiles.*").Offset(offset).Limit(limit).Find(&profiles).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// ListParties: filter by privacy_level/status/category/is_featured, search
// title, description and host email.
func (h *AdminHandler) ListParties(c *gin.Context) {
	query := h.db.Model(&models.Party{}).
		Joins("JOIN users ON users.id = parties.host_id").
		Preload("Host").Preload("Category")

	if v := c.Query("privacy_level"); v != "" {
		query = query.Where("parties.privacy_level = ?", v)
	}
	if v := c.Query("status"); v != "" {
		query = query.Where("parties.status = ?", v)
	}
	if v := c.Query("category"); v != "" {
		query = query.Where("parties.category_id = ?", v)
	}
	if v := c.Query("is_featured"); v != "" {
		query = query.Where("parties.is_featured = ?", v == "true")
	}
	if q := c.Query("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(
			"parties.title ILIKE ? OR parties.description ILIKE ? OR users.email ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	offset, limit := pagination(c)

	var parties []models.Party
	if err := query.Select("parties.*").Order("parties.created_at desc").
		Offset(offset).Limit(limit).Find(&parties).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, parties)
}

// ListRSVPs: filter by status/approved_by_host/checked_in, search party
// title and user email.
func (h *AdminHandler) ListRSVPs(c *gin.Context) {
	query := h.db.Model(&models.PartyRSVP{}).
		Joins("JOIN parties ON parties.id = party_rsvps.party_id").
		Joins("JOIN users ON users.id = party_rsvps.user_id")

	if v := c.Query("status"); v != "" {
		query = query.Where("party_rsvps.status = ?", v)
	}
	if v := c.Query("approved_by_host"); v != "" {
		query = query.Where("party_rsvps.approved_by_host = ?", v == "true")
	}
	if v := c.Query("checked_in"); v != "" {
		query = query.Where("party_rsvps.checked_in = ?", v == "true")
	}
	if q := c.Query("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where("parties.title ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}

	offset, limit := pagination(c)

	var rsvps []models.PartyRSVP
	if err := query.Select("party_rsvps.*").Order("party_rsvps.created_at desc").
		Offset(offset).Limit(limit).Find(&rsvps).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, rsvps)
}

// ListComments: content previews with is_pinned/is_edited filters, search
// over party title, user email and content.
func (h *AdminHandler) ListComments(c *gin.Context) {
	query := h.db.Model(&models.PartyComment{}).
		Joins("JOIN parties ON parties.id = party_comments.party_id").
		Joins("JOIN users ON users.id = party_comments.user_id")

	if v := c.Query("is_pinned"); v != "" {
		query = query.Where("party_comments.is_pinned = ?", v == "true")
	}
	if v := c.Query("is_edited"); v != "" {
		query = query.Where("party_comments.is_edited = ?", v == "true")
	}
	if q := c.Query("q"); q != "" {
		pattern := "%" + q + "%"
		query = query.Where(
			"parties.title ILIKE ? OR users.email ILIKE ? OR party_comments.content ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	offset, limit := pagination(c)

	var comments []models.PartyComment
	if err := query.Select("party_comments.*").Order("party_comments.created_at desc").
		Offset(offset).Limit(limit).Find(&comments).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	type commentRow struct {
		models.PartyComment
		ContentPreview string `json:"content_preview"`
	}
	rows := make([]commentRow, 0, len(comments))
	for _, cm := range comments {
		preview := cm.Content
		// Truncate on runes so multibyte content is never split mid-character.
		if runes := []rune(preview); len(runes) > 50 {
			preview = string(runes[:50]) + "..."
		}
		rows = append(rows, commentRow{PartyComment: cm, ContentPreview: preview})
	}
	c.JSON(http.StatusOK, rows)
}
