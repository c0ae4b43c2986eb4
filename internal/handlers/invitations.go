package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

type InvitationHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewInvitationHandler(db *gorm.DB, log *zap.Logger) *InvitationHandler {
	return &InvitationHandler{db: db, log: log}
}

type InviteRequest struct {
	UserID  uuid.UUID `json:"user_id" binding:"required"`
	Message string    `json:"message"`
}

// Invite sends a party invitation. Host or co-host only; inviting the host
// is rejected; a duplicate invite returns the existing row unchanged.
func (h *InvitationHandler) Invite(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	partyID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
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

	allowed, err := isHostOrCoHost(h.db, &party, userID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	if !allowed {
		jsonError(c, http.StatusForbidden, "only the host or a co-host can invite others")
		return
	}

	var invitee models.User
	if err := h.db.First(&invitee, "id = ?", body.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "invited user not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if invitee.ID == party.HostID {
		jsonError(c, http.StatusBadRequest, "user is already the host")
		return
	}

	var existing models.PartyInvitation
	err = h.db.Where("party_id = ? AND invitee_id = ?", partyID, invitee.ID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"message": "user already invited", "invitation": existing})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	invitation := models.PartyInvitation{
		PartyID:   partyID,
		InviterID: userID,
		InviteeID: invitee.ID,
		Message:   body.Message,
		Status:    models.InvitationPending,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&invitation).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.UserProfile{}).
			Where("user_id = ?", userID).
			Update("total_invitations_sent", gorm.Expr("total_invitations_sent + 1")).Error; err != nil {
			return err
		}
		return notify(tx, invitee.ID, models.NotificationPartyInvite,
			"Party invitation", "You are invited to "+party.Title, &party.ID)
	})
	if err != nil {
		h.log.Error("create invitation", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not create invitation")
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// ListMine returns invitations addressed to the caller.
func (h *InvitationHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := h.db.Preload("Party").Preload("Inviter").Where("invitee_id = ?", userID)
	if v := c.Query("status"); v != "" {
		query = query.Where("status = ?", v)
	}

	var invitations []models.PartyInvitation
	if err := query.Order("created_at desc").Find(&invitations).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// ListSent returns invitations for a party. Host or co-host only.
func (h *InvitationHandler) ListSent(c *gin.Context) {
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
		jsonError(c, http.StatusForbidden, "only the host can view invitations")
		return
	}

	var invitations []models.PartyInvitation
	if err := h.db.Preload("Invitee").Where("party_id = ?", partyID).
		Order("created_at desc").Find(&invitations).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// Respond accepts or declines an invitation. Accepting creates (or updates)
// an attending RSVP when the party still takes attendees.
func (h *InvitationHandler) Respond(c *gin.Context) {
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
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if body.Status != models.InvitationAccepted && body.Status != models.InvitationDeclined {
		fieldErrors(c, map[string]string{"status": "status must be accepted or declined"})
		return
	}

	var invitation models.PartyInvitation
	if err := h.db.First(&invitation, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "invitation not found")
		return
	}

	if invitation.InviteeID != userID {
		jsonError(c, http.StatusForbidden, "only the invitee can respond")
		return
	}
	if invitation.Status == models.InvitationRevoked {
		jsonError(c, http.StatusConflict, "invitation was revoked")
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", invitation.PartyID).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if body.Status == models.InvitationAccepted {
		if !party.CanRSVP(time.Now().UTC()) {
			jsonError(c, http.StatusConflict, "RSVPs are closed for this party")
			return
		}

		// Accepting adds attendance, so it is gated by capacity the same way
		// a direct RSVP is. An invitee already attending adds no heads.
		if party.MaxAttendees != nil {
			var current models.PartyRSVP
			err := h.db.Where("party_id = ? AND user_id = ?", invitation.PartyID, userID).First(&current).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				jsonError(c, http.StatusInternalServerError, "db error")
				return
			}
			if errors.Is(err, gorm.ErrRecordNotFound) || current.Status != models.RSVPStatusAttending {
				headcount, herr := party.AttendingHeadcount(h.db)
				if herr != nil {
					jsonError(c, http.StatusInternalServerError, "db error")
					return
				}
				added := int64(1)
				if err == nil {
					added += int64(current.PlusOnes)
				}
				if headcount+added > int64(*party.MaxAttendees) {
					jsonError(c, http.StatusConflict, "party is at capacity")
					return
				}
			}
		}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&invitation).Update("status", body.Status).Error; err != nil {
			return err
		}

		if body.Status != models.InvitationAccepted {
			return nil
		}

		var rsvp models.PartyRSVP
		err := tx.Where("party_id = ? AND user_id = ?", invitation.PartyID, userID).First(&rsvp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rsvp = models.PartyRSVP{
				PartyID:        invitation.PartyID,
				UserID:         userID,
				Status:         models.RSVPStatusAttending,
				ApprovedByHost: true, // an invitation implies host approval
			}
			return tx.Create(&rsvp).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&rsvp).Updates(map[string]interface{}{
			"status":           models.RSVPStatusAttending,
			"approved_by_host": true,
		}).Error
	})
	if err != nil {
		h.log.Error("respond invitation", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not respond to invitation")
		return
	}

	c.JSON(http.StatusOK, invitation)
}

// Revoke withdraws a pending invitation. Inviter or host only.
func (h *InvitationHandler) Revoke(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var invitation models.PartyInvitation
	if err := h.db.First(&invitation, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "invitation not found")
		return
	}

	var party models.Party
	if err := h.db.First(&party, "id = ?", invitation.PartyID).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if invitation.InviterID != userID && party.HostID != userID {
		jsonError(c, http.StatusForbidden, "only the inviter or the host can revoke")
		return
	}

	if err := h.db.Model(&invitation).Update("status", models.InvitationRevoked).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not revoke invitation")
		return
	}
	c.JSON(http.StatusOK, invitation)
}
