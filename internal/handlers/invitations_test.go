package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyspark-backend/internal/models"
)

func TestInviteCreatesNotificationAndCounter(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	w := env.do(t, http.MethodPost, "/api/v1/parties/"+party.ID.String()+"/invite",
		env.tokenFor(t, host.ID), map[string]any{"user_id": guest.ID, "message": "come over"})
	requireStatus(t, w, http.StatusCreated)

	var invitation models.PartyInvitation
	decodeJSON(t, w, &invitation)
	assert.Equal(t, models.InvitationPending, invitation.Status)

	var profile models.UserProfile
	require.NoError(t, env.db.First(&profile, "user_id = ?", host.ID).Error)
	assert.Equal(t, 1, profile.TotalInvitationsSent)

	var n int64
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND notification_type = ?", guest.ID, models.NotificationPartyInvite).
		Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestInviteDuplicateReturnsExisting(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)
	path := "/api/v1/parties/" + party.ID.String() + "/invite"

	w := env.do(t, http.MethodPost, path, env.tokenFor(t, host.ID), map[string]any{"user_id": guest.ID})
	requireStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodPost, path, env.tokenFor(t, host.ID), map[string]any{"user_id": guest.ID})
	requireStatus(t, w, http.StatusOK)

	var rows int64
	require.NoError(t, env.db.Model(&models.PartyInvitation{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestInviteHostRejected(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	party := env.createParty(t, host.ID, nil)

	w := env.do(t, http.MethodPost, "/api/v1/parties/"+party.ID.String()+"/invite",
		env.tokenFor(t, host.ID), map[string]any{"user_id": host.ID})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestInviteStrangerForbidden(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	stranger := env.createUser(t, "stranger", models.UserTypeAttendee)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	w := env.do(t, http.MethodPost, "/api/v1/parties/"+party.ID.String()+"/invite",
		env.tokenFor(t, stranger.ID), map[string]any{"user_id": guest.ID})
	requireStatus(t, w, http.StatusForbidden)
}

func TestInvitationAcceptCreatesRSVP(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	invitation := models.PartyInvitation{
		PartyID: party.ID, InviterID: host.ID, InviteeID: guest.ID,
		Status: models.InvitationPending,
	}
	require.NoError(t, env.db.Create(&invitation).Error)

	w := env.do(t, http.MethodPost, "/api/v1/invitations/"+invitation.ID.String()+"/respond",
		env.tokenFor(t, guest.ID), map[string]any{"status": "accepted"})
	requireStatus(t, w, http.StatusOK)

	var rsvp models.PartyRSVP
	require.NoError(t, env.db.First(&rsvp, "party_id = ? AND user_id = ?", party.ID, guest.ID).Error)
	assert.Equal(t, models.RSVPStatusAttending, rsvp.Status)
	assert.True(t, rsvp.ApprovedByHost)
}

func TestInvitationAcceptRejectedAtCapacity(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	first := env.createUser(t, "first", models.UserTypeAttendee)
	second := env.createUser(t, "second", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, func(p *models.Party) {
		max := 1
		p.MaxAttendees = &max
	})

	require.NoError(t, env.db.Create(&models.PartyRSVP{
		PartyID: party.ID, UserID: first.ID, Status: models.RSVPStatusAttending,
	}).Error)

	invitation := models.PartyInvitation{
		PartyID: party.ID, InviterID: host.ID, InviteeID: second.ID,
		Status: models.InvitationPending,
	}
	require.NoError(t, env.db.Create(&invitation).Error)

	w := env.do(t, http.MethodPost, "/api/v1/invitations/"+invitation.ID.String()+"/respond",
		env.tokenFor(t, second.ID), map[string]any{"status": "accepted"})
	requireStatus(t, w, http.StatusConflict)

	// Nothing changed: no RSVP for the invitee, invitation still pending.
	var rsvps int64
	require.NoError(t, env.db.Model(&models.PartyRSVP{}).
		Where("party_id = ? AND user_id = ?", party.ID, second.ID).Count(&rsvps).Error)
	assert.Zero(t, rsvps)

	require.NoError(t, env.db.First(&invitation, "id = ?", invitation.ID).Error)
	assert.Equal(t, models.InvitationPending, invitation.Status)

	// Declining a full party is still fine.
	w = env.do(t, http.MethodPost, "/api/v1/invitations/"+invitation.ID.String()+"/respond",
		env.tokenFor(t, second.ID), map[string]any{"status": "declined"})
	requireStatus(t, w, http.StatusOK)
}

func TestInvitationAcceptWhileAlreadyAttendingAddsNoHeads(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, func(p *models.Party) {
		max := 1
		p.MaxAttendees = &max
	})

	require.NoError(t, env.db.Create(&models.PartyRSVP{
		PartyID: party.ID, UserID: guest.ID, Status: models.RSVPStatusAttending,
	}).Error)

	invitation := models.PartyInvitation{
		PartyID: party.ID, InviterID: host.ID, InviteeID: guest.ID,
		Status: models.InvitationPending,
	}
	require.NoError(t, env.db.Create(&invitation).Error)

	w := env.do(t, http.MethodPost, "/api/v1/invitations/"+invitation.ID.String()+"/respond",
		env.tokenFor(t, guest.ID), map[string]any{"status": "accepted"})
	requireStatus(t, w, http.StatusOK)
}

func TestInvitationRespondInviteeOnly(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	other := env.createUser(t, "other", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	invitation := models.PartyInvitation{
		PartyID: party.ID, InviterID: host.ID, InviteeID: guest.ID,
		Status: models.InvitationPending,
	}
	require.NoError(t, env.db.Create(&invitation).Error)

	w := env.do(t, http.MethodPost, "/api/v1/invitations/"+invitation.ID.String()+"/respond",
		env.tokenFor(t, other.ID), map[string]any{"status": "accepted"})
	requireStatus(t, w, http.StatusForbidden)
}

func TestInvitationRevokedCannotBeAccepted(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	invitation := models.PartyInvitation{
		PartyID: party.ID, InviterID: host.ID, InviteeID: guest.ID,
		Status: models.InvitationPending,
	}
	require.NoError(t, env.db.Create(&invitation).Error)

	w := env.do(t, http.MethodPost, "/api/v1/invitations/"+invitation.ID.String()+"/revoke",
		env.tokenFor(t, host.ID), nil)
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodPost, "/api/v1/invitations/"+invitation.ID.String()+"/respond",
		env.tokenFor(t, guest.ID), map[string]any{"status": "accepted"})
	requireStatus(t, w, http.StatusConflict)
}

func TestInvitationListMineFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	partyA := env.createParty(t, host.ID, nil)
	partyB := env.createParty(t, host.ID, nil)

	require.NoError(t, env.db.Create(&models.PartyInvitation{
		PartyID: partyA.ID, InviterID: host.ID, InviteeID: guest.ID,
		Status: models.InvitationPending,
	}).Error)
	require.NoError(t, env.db.Create(&models.PartyInvitation{
		PartyID: partyB.ID, InviterID: host.ID, InviteeID: guest.ID,
		Status: models.InvitationDeclined,
	}).Error)

	w := env.do(t, http.MethodGet, "/api/v1/invitations?status=pending",
		env.tokenFor(t, guest.ID), nil)
	requireStatus(t, w, http.StatusOK)

	var invitations []models.PartyInvitation
	decodeJSON(t, w, &invitations)
	require.Len(t, invitations, 1)
	assert.Equal(t, partyA.ID, invitations[0].PartyID)
}
