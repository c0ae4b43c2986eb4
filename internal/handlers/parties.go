package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
	"partyspark-backend/internal/slug"
)

type PartyHandler struct {
	db  *gorm.DB
	rdb *redis.Client
	log *zap.Logger
}

func NewPartyHandler(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *PartyHandler {
	return &PartyHandler{db: db, rdb: rdb, log: log}
}

type PartyRequest struct {
	Title            string     `json:"title" binding:"required,max=200"`
	Description      string     `json:"description" binding:"required"`
	ShortDescription string     `json:"short_description" binding:"max=300"`
	CategoryID       *uuid.UUID `json:"category_id"`
	StartDate        string     `json:"start_date" binding:"required"`
	EndDate          string     `json:"end_date" binding:"required"`
	Timezone         string     `json:"timezone"`
	RSVPDeadline     *string    `json:"rsvp_deadline"`
	LocationName     string     `json:"location_name"`
	Address          string     `json:"address"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	IsVirtual        bool       `json:"is_virtual"`
	VirtualLink      string     `json:"virtual_link"`
	VirtualPlatform  string     `json:"virtual_platform"`
	PrivacyLevel     string     `json:"privacy_level"`
	RSVPType         string     `json:"rsvp_type"`
	MaxAttendees     *int       `json:"max_attendees"`
	MinAge           *int       `json:"min_age"`
	MaxAge           *int       `json:"max_age"`
	IsPaid           bool       `json:"is_paid"`
	TicketPrice      float64    `json:"ticket_price"`
	Currency         string     `json:"currency"`
	DressCode        string     `json:"dress_code"`
	BringItems       string     `json:"bring_items"`
	HouseRules       string     `json:"house_rules"`
	ContactPhone     string     `json:"contact_phone"`
	ContactEmail     string     `json:"contact_email"`
	AllowComments    *bool      `json:"allow_comments"`
	AllowPhotos      *bool      `json:"allow_photos"`
	AllowPlusOnes    *bool      `json:"allow_plus_ones"`
}

// validate checks the cross-field party rules and returns the parsed dates.
func (r *PartyRequest) validate() (start, end time.Time, deadline *time.Time, errs map[string]string) {
	errs = map[string]string{}

	var err error
	start, err = parseTime(r.StartDate)
	if err != nil {
		errs["start_date"] = "invalid date format (use RFC3339 or YYYY-MM-DD)"
	}
	end, err = parseTime(r.EndDate)
	if err != nil {
		errs["end_date"] = "invalid date format (use RFC3339 or YYYY-MM-DD)"
	}
	if len(errs) == 0 && end.Before(start) {
		errs["end_date"] = "end date must not be before start date"
	}

	if r.RSVPDeadline != nil && *r.RSVPDeadline != "" {
		t, err := parseTime(*r.RSVPDeadline)
		if err != nil {
			errs["rsvp_deadline"] = "invalid date format (use RFC3339 or YYYY-MM-DD)"
		} else {
			deadline = &t
		}
	}

	if r.PrivacyLevel != "" {
		switch r.PrivacyLevel {
		case models.PartyPrivacyPublic, models.PartyPrivacyPrivate,
			models.PartyPrivacyFriendsOnly, models.PartyPrivacyInviteOnly:
		default:
			errs["privacy_level"] = "invalid privacy level"
		}
	}
	if r.RSVPType != "" {
		switch r.RSVPType {
		case models.RSVPTypeOpen, models.RSVPTypeApproval, models.RSVPTypeInviteOnly, models.RSVPTypeClosed:
		default:
			errs["rsvp_type"] = "invalid rsvp type"
		}
	}
	if r.MinAge != nil && (*r.MinAge < 0 || *r.MinAge > 100) {
		errs["min_age"] = "minimum age must be between 0 and 100"
	}
	if r.MaxAge != nil && (*r.MaxAge < 0 || *r.MaxAge > 100) {
		errs["max_age"] = "maximum age must be between 0 and 100"
	}
	if r.MaxAttendees != nil && *r.MaxAttendees < 1 {
		errs["max_attendees"] = "maximum attendees must be positive"
	}

	return start, end, deadline, errs
}

// uniqueSlug derives a slug from the title, suffixing a counter until it is
// free. excludeID skips the party being updated.
func (h *PartyHandler) uniqueSlug(tx *gorm.DB, title string, excludeID uuid.UUID) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "party"
	}

	candidate := base
	for i := 2; ; i++ {
		var n int64
		q := tx.Model(&models.Party{}).Where("slug = ?", candidate)
		if excludeID != uuid.Nil {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// Create makes a new draft party hosted by the caller and bumps the host's
// total_parties_created counter in the same transaction.
func (h *PartyHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body PartyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	start, end, deadline, errs := body.validate()
	if len(errs) > 0 {
		fieldErrors(c, errs)
		return
	}

	if body.CategoryID != nil {
		var cat models.PartyCategory
		if err := h.db.First(&cat, "id = ?", *body.CategoryID).Error; err != nil {
			fieldErrors(c, map[string]string{"category_id": "category not found"})
			return
		}
	}

	party := models.Party{
		Title:            strings.TrimSpace(body.Title),
		Description:      body.Description,
		ShortDescription: body.ShortDescription,
		HostID:           userID,
		CategoryID:       body.CategoryID,
		StartDate:        start,
		EndDate:          end,
		Timezone:         defaultString(body.Timezone, "UTC"),
		RSVPDeadline:     deadline,
		LocationName:     body.LocationName,
		Address:          body.Address,
		Latitude:         body.Latitude,
		Longitude:        body.Longitude,
		IsVirtual:        body.IsVirtual,
		VirtualLink:      body.VirtualLink,
		VirtualPlatform:  body.VirtualPlatform,
		PrivacyLevel:     defaultString(body.PrivacyLevel, models.PartyPrivacyPrivate),
		Status:           models.PartyStatusDraft,
		RSVPType:         defaultString(body.RSVPType, models.RSVPTypeOpen),
		MaxAttendees:     body.MaxAttendees,
		MinAge:           body.MinAge,
		MaxAge:           body.MaxAge,
		IsPaid:           body.IsPaid,
		TicketPrice:      body.TicketPrice,
		Currency:         defaultString(body.Currency, "USD"),
		DressCode:        body.DressCode,
		BringItems:       body.BringItems,
		HouseRules:       body.HouseRules,
		ContactPhone:     body.ContactPhone,
		ContactEmail:     body.ContactEmail,
		AllowComments:    body.AllowComments == nil || *body.AllowComments,
		AllowPhotos:      body.AllowPhotos == nil || *body.AllowPhotos,
		AllowPlusOnes:    body.AllowPlusOnes != nil && *body.AllowPlusOnes,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		s, err := h.uniqueSlug(tx, party.Title, uuid.Nil)
		if err != nil {
			return err
		}
		party.Slug = s

		if err := tx.Create(&party).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserProfile{}).
			Where("user_id = ?", userID).
			Update("total_parties_created", gorm.Expr("total_parties_created + 1")).Error
	})
	if err != nil {
		h.log.Error("create party", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not create party")
		return
	}

	c.JSON(http.StatusCreated, party)
}

// List returns parties matching the query filters, newest start first.
func (h *PartyHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Party{}).Preload("Category").Preload("Host")

	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}
	if v := c.Query("privacy_level"); v != "" {
		query = query.Where("privacy_level = ?", v)
	}
	if v := c.Query("category"); v != "" {
		query = query.Joins("JOIN party_categories ON party_categories.id = parties.category_id").
			Where("party_categories.slug = ?", v)
	}
	if v := c.Query("host"); v != "" {
		hostID, err := uuid.Parse(v)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid host id")
			return
		}
		query = query.Where("host_id = ?", hostID)
	}
	now := time.Now().UTC()
	switch c.Query("when") {
	case "upcoming":
		query = query.Where("start_date > ?", now)
	case "past":
		query = query.Where("end_date < ?", now)
	case "":
	default:
		jsonError(c, http.StatusBadRequest, "when must be 'upcoming' or 'past'")
		return
	}
	if kw := strings.TrimSpace(c.Query("keyword")); kw != "" {
		pattern := "%" + kw + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	offset, limit := pagination(c)

	var parties []models.Party
	if err := query.Order("start_date desc").Offset(offset).Limit(limit).Find(&parties).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, parties)
}

// Get fetches a party by id or slug, bumping the view counters. The response
// carries the derived read-only properties.
func (h *PartyHandler) Get(c *gin.Context) {
	ref := c.Param("id")

	var party models.Party
	q := h.db.Preload("Category").Preload("Host").Preload("CoHosts")
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		err = q.First(&party, "id = ?", id).Error
	} else {
		err = q.First(&party, "slug = ?", ref).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "party not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if err := h.db.Model(&party).UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
		h.log.Warn("bump views_count", zap.Error(err))
	}
	if h.rdb != nil {
		if err := h.rdb.Incr(c.Request.Context(), fmt.Sprintf("party:%s:views", party.ID)).Err(); err != nil {
			h.log.Warn("bump redis views", zap.Error(err))
		}
	}

	attendees, err := party.AttendeeCount(h.db)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	now := time.Now().UTC()
	c.JSON(http.StatusOK, gin.H{
		"party":          party,
		"attendee_count": attendees,
		"is_past":        party.IsPast(now),
		"is_upcoming":    party.IsUpcoming(now),
		"can_rsvp":       party.CanRSVP(now),
	})
}

// Update applies a full party update. Host or co-host only.
func (h *PartyHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "party not found")
		return
	}

	allowed, err := isHostOrCoHost(h.db, &party, userID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if !allowed {
		jsonError(c, http.StatusForbidden, "only the host or a co-host can update the party")
		return
	}

	var body PartyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	start, end, deadline, errs := body.validate()
	if len(errs) > 0 {
		fieldErrors(c, errs)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		newTitle := strings.TrimSpace(body.Title)
		if newTitle != party.Title {
			s, err := h.uniqueSlug(tx, newTitle, party.ID)
			if err != nil {
				return err
			}
			party.Slug = s
		}

		party.Title = newTitle
		party.Description = body.Description
		party.ShortDescription = body.ShortDescription
		party.CategoryID = body.CategoryID
		party.StartDate = start
		party.EndDate = end
		party.Timezone = defaultString(body.Timezone, party.Timezone)
		party.RSVPDeadline = deadline
		party.LocationName = body.LocationName
		party.Address = body.Address
		party.Latitude = body.Latitude
		party.Longitude = body.Longitude
		party.IsVirtual = body.IsVirtual
		party.VirtualLink = body.VirtualLink
		party.VirtualPlatform = body.VirtualPlatform
		party.PrivacyLevel = defaultString(body.PrivacyLevel, party.PrivacyLevel)
		party.RSVPType = defaultString(body.RSVPType, party.RSVPType)
		party.MaxAttendees = body.MaxAttendees
		party.MinAge = body.MinAge
		party.MaxAge = body.MaxAge
		party.IsPaid = body.IsPaid
		party.TicketPrice = body.TicketPrice
		party.Currency = defaultString(body.Currency, party.Currency)
		party.DressCode = body.DressCode
		party.BringItems = body.BringItems
		party.HouseRules = body.HouseRules
		party.ContactPhone = body.ContactPhone
		party.ContactEmail = body.ContactEmail
		if body.AllowComments != nil {
			party.AllowComments = *body.AllowComments
		}
		if body.AllowPhotos != nil {
			party.AllowPhotos = *body.AllowPhotos
		}
		if body.AllowPlusOnes != nil {
			party.AllowPlusOnes = *body.AllowPlusOnes
		}

		return tx.Save(&party).Error
	})
	if err != nil {
		h.log.Error("update party", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not update party")
		return
	}

	c.JSON(http.StatusOK, party)
}

// UpdateStatus publishes, cancels or completes a party. Host only.
func (h *PartyHandler) UpdateStatus(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	switch body.Status {
	case models.PartyStatusPublished, models.PartyStatusCancelled, models.PartyStatusCompleted:
	default:
		fieldErrors(c, map[string]string{"status": "status must be published, cancelled or completed"})
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "party not found")
		return
	}
	if party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the host can change party status")
		return
	}

	if err := h.db.Model(&party).Update("status", body.Status).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not update status")
		return
	}
	c.JSON(http.StatusOK, party)
}

// Delete removes a party with its RSVPs, comments, likes and invitations in
// one transaction. Host only.
func (h *PartyHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "party not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the host can delete the party")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("party_id = ?", party.ID).Delete(&models.PartyRSVP{}).Error; err != nil {
			return err
		}
		if err := tx.Where("party_id = ?", party.ID).Delete(&models.PartyComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("party_id = ?", party.ID).Delete(&models.PartyLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("party_id = ?", party.ID).Delete(&models.PartyInvitation{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM party_co_hosts WHERE party_id = ?", party.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&party).Error
	})
	if err != nil {
		h.log.Error("delete party", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "delete failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "party deleted"})
}

// AddCoHost grants co-host privileges. Host only.
func (h *PartyHandler) AddCoHost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "party not found")
		return
	}
	if party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the host can manage co-hosts")
		return
	}
	if body.UserID == party.HostID {
		jsonError(c, http.StatusBadRequest, "host cannot be added as co-host")
		return
	}

	var coHost models.User
	if err := h.db.First(&coHost, "id = ?", body.UserID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}

	if err := h.db.Model(&party).Association("CoHosts").Append(&coHost); err != nil {
		jsonError(c, http.StatusInternalServerError, "could not add co-host")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "co-host added"})
}

// RemoveCoHost revokes co-host privileges. Host only.
func (h *PartyHandler) RemoveCoHost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	coHostID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "party not found")
		return
	}
	if party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the host can manage co-hosts")
		return
	}

	if err := h.db.Model(&party).Association("CoHosts").Delete(&models.User{ID: coHostID}); err != nil {
		jsonError(c, http.StatusInternalServerError, "could not remove co-host")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "co-host removed"})
}
