package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

type RSVPHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewRSVPHandler(db *gorm.DB, log *zap.Logger) *RSVPHandler {
	return &RSVPHandler{db: db, log: log}
}

type RSVPRequest struct {
	Status              string `json:"status" binding:"required"`
	PlusOnes            int    `json:"plus_ones"`
	Message             string `json:"message"`
	DietaryRestrictions string `json:"dietary_restrictions"`
}

// Respond creates or updates the caller's RSVP. The (party, user) pair stays
// unique: an existing row is updated, never duplicated. Capacity counts
// plus-ones when the party allows them.
func (h *RSVPHandler) Respond(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var body RSVPRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	switch body.Status {
	case models.RSVPStatusAttending, models.RSVPStatusMaybe, models.RSVPStatusNotAttending:
	default:
		fieldErrors(c, map[string]string{"status": "status must be one of: attending, maybe, not_attending"})
		return
	}
	if body.PlusOnes < 0 {
		fieldErrors(c, map[string]string{"plus_ones": "plus ones cannot be negative"})
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

	now := time.Now().UTC()
	if !party.CanRSVP(now) {
		jsonError(c, http.StatusBadRequest, "RSVPs are closed for this party")
		return
	}

	if !party.AllowPlusOnes && body.PlusOnes > 0 {
		fieldErrors(c, map[string]string{"plus_ones": "this party does not allow plus ones"})
		return
	}

	if party.RSVPType == models.RSVPTypeInviteOnly {
		var invited int64
		if err := h.db.Model(&models.PartyInvitation{}).
			Where("party_id = ? AND invitee_id = ? AND status <> ?", partyID, userID, models.InvitationRevoked).
			Count(&invited).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "db error")
			return
		}
		if invited == 0 {
			jsonError(c, http.StatusForbidden, "this party is invite only")
			return
		}
	}

	var rsvp models.PartyRSVP
	err := h.db.Where("party_id = ? AND user_id = ?", partyID, userID).First(&rsvp).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	// Capacity only gates responses that add attendance. Headcount includes
	// the plus-ones already recorded on other attending RSVPs.
	if body.Status == models.RSVPStatusAttending && party.MaxAttendees != nil {
		headcount, err := party.AttendingHeadcount(h.db)
		if err != nil {
			jsonError(c, http.StatusInternalServerError, "db error")
			return
		}
		if !isNew && rsvp.Status == models.RSVPStatusAttending {
			headcount -= int64(rsvp.PlusOnes) + 1 // the caller's own heads are being replaced
		}
		if headcount+1+int64(body.PlusOnes) > int64(*party.MaxAttendees) {
			jsonError(c, http.StatusConflict, "party is at capacity")
			return
		}
	}

	approved := party.RSVPType != models.RSVPTypeApproval

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if isNew {
			rsvp = models.PartyRSVP{
				PartyID:             partyID,
				UserID:              userID,
				Status:              body.Status,
				PlusOnes:            body.PlusOnes,
				Message:             body.Message,
				DietaryRestrictions: body.DietaryRestrictions,
				ApprovedByHost:      approved,
			}
			if err := tx.Create(&rsvp).Error; err != nil {
				return err
			}
		} else {
			rsvp.Status = body.Status
			rsvp.PlusOnes = body.PlusOnes
			rsvp.Message = body.Message
			rsvp.DietaryRestrictions = body.DietaryRestrictions
			if err := tx.Save(&rsvp).Error; err != nil {
				return err
			}
		}

		if userID != party.HostID {
			return notify(tx, party.HostID, models.NotificationRSVPUpdate,
				"RSVP update", "Someone responded to "+party.Title, &party.ID)
		}
		return nil
	})
	if err != nil {
		h.log.Error("save rsvp", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not save RSVP")
		return
	}

	c.JSON(http.StatusOK, rsvp)
}

// List returns all RSVPs for a party. Host or co-host only.
func (h *RSVPHandler) List(c *gin.Context) {
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
	if !allowed {
		jsonError(c, http.StatusForbidden, "only the host can view RSVPs")
		return
	}

	query := h.db.Preload("User").Where("party_id = ?", partyID)
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}

	var rsvps []models.PartyRSVP
	if err := query.Order("created_at asc").Find(&rsvps).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	attendees, err := party.AttendeeCount(h.db)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rsvps": rsvps, "attendee_count": attendees})
}

// Approve marks an approval-mode RSVP as accepted by the host.
func (h *RSVPHandler) Approve(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rsvpID, ok := uuidParam(c, "rsvpId")
	if !ok {
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", partyID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "party not found")
		return
	}
	if party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the host can approve RSVPs")
		return
	}

	var rsvp models.PartyRSVP
	if err := h.db.First(&rsvp, "id = ? AND party_id = ?", rsvpID, partyID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "RSVP not found")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&rsvp).Update("approved_by_host", true).Error; err != nil {
			return err
		}
		return notify(tx, rsvp.UserID, models.NotificationRSVPUpdate,
			"RSVP approved", "Your RSVP to "+party.Title+" was approved", &party.ID)
	})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "could not approve RSVP")
		return
	}
	c.JSON(http.StatusOK, rsvp)
}

// CheckIn stamps an attendee as arrived. Host or co-host only.
func (h *RSVPHandler) CheckIn(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rsvpID, ok := uuidParam(c, "rsvpId")
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
	if !allowed {
		jsonError(c, http.StatusForbidden, "only the host can check in attendees")
		return
	}

	var rsvp models.PartyRSVP
	if err := h.db.First(&rsvp, "id = ? AND party_id = ?", rsvpID, partyID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "RSVP not found")
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{"checked_in": true, "checked_in_at": now}
	if err := h.db.Model(&rsvp).Updates(updates).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not check in")
		return
	}
	c.JSON(http.StatusOK, rsvp)
}
