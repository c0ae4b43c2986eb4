package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyspark-backend/internal/models"
)

func partyBody(title string) map[string]any {
	start := time.Now().UTC().Add(48 * time.Hour)
	return map[string]any{
		"title":       title,
		"description": "bring your own snacks",
		"start_date":  start.Format(time.RFC3339),
		"end_date":    start.Add(4 * time.Hour).Format(time.RFC3339),
	}
}

func TestCreatePartyDefaultsAndCounter(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	token := env.tokenFor(t, host.ID)

	w := env.do(t, http.MethodPost, "/api/v1/parties", token, partyBody("Housewarming Bash"))
	requireStatus(t, w, http.StatusCreated)

	var party models.Party
	decodeJSON(t, w, &party)
	assert.Equal(t, "housewarming-bash", party.Slug)
	assert.Equal(t, models.PartyStatusDraft, party.Status)
	assert.Equal(t, models.PartyPrivacyPrivate, party.PrivacyLevel)
	assert.Equal(t, models.RSVPTypeOpen, party.RSVPType)
	assert.Equal(t, host.ID, party.HostID)
	assert.True(t, party.AllowComments)
	assert.False(t, party.AllowPlusOnes)

	var profile models.UserProfile
	require.NoError(t, env.db.First(&profile, "user_id = ?", host.ID).Error)
	assert.Equal(t, 1, profile.TotalPartiesCreated)
}

func TestCreatePartyEndBeforeStartRejected(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	token := env.tokenFor(t, host.ID)

	body := partyBody("Backwards Party")
	body["end_date"] = time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)

	w := env.do(t, http.MethodPost, "/api/v1/parties", token, body)
	requireStatus(t, w, http.StatusBadRequest)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeJSON(t, w, &resp)
	assert.Contains(t, resp.Errors, "end_date")
}

func TestCreatePartySlugCollisionGetsSuffix(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	token := env.tokenFor(t, host.ID)

	first := env.do(t, http.MethodPost, "/api/v1/parties", token, partyBody("Game Night"))
	requireStatus(t, first, http.StatusCreated)
	second := env.do(t, http.MethodPost, "/api/v1/parties", token, partyBody("Game Night"))
	requireStatus(t, second, http.StatusCreated)

	var p1, p2 models.Party
	decodeJSON(t, first, &p1)
	decodeJSON(t, second, &p2)
	assert.Equal(t, "game-night", p1.Slug)
	assert.Equal(t, "game-night-2", p2.Slug)
}

func TestCreatePartyInvalidEnums(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	token := env.tokenFor(t, host.ID)

	body := partyBody("Enum Party")
	body["privacy_level"] = "secret"
	body["rsvp_type"] = "maybe"
	body["min_age"] = 150

	w := env.do(t, http.MethodPost, "/api/v1/parties", token, body)
	requireStatus(t, w, http.StatusBadRequest)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeJSON(t, w, &resp)
	assert.Contains(t, resp.Errors, "privacy_level")
	assert.Contains(t, resp.Errors, "rsvp_type")
	assert.Contains(t, resp.Errors, "min_age")
}

func TestGetPartyBySlugReturnsDerivedFields(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	party := env.createParty(t, host.ID, nil)

	w := env.do(t, http.MethodGet, "/api/v1/parties/"+party.Slug, "", nil)
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Party         models.Party `json:"party"`
		AttendeeCount int64        `json:"attendee_count"`
		IsPast        bool         `json:"is_past"`
		IsUpcoming    bool         `json:"is_upcoming"`
		CanRSVP       bool         `json:"can_rsvp"`
	}
	decodeJSON(t, w, &resp)
	assert.Equal(t, party.ID, resp.Party.ID)
	assert.Zero(t, resp.AttendeeCount)
	assert.False(t, resp.IsPast)
	assert.True(t, resp.IsUpcoming)
	assert.True(t, resp.CanRSVP)
}

func TestGetPartyBumpsViewCounters(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	party := env.createParty(t, host.ID, nil)

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodGet, "/api/v1/parties/"+party.ID.String(), "", nil)
		requireStatus(t, w, http.StatusOK)
	}

	var got models.Party
	require.NoError(t, env.db.First(&got, "id = ?", party.ID).Error)
	assert.Equal(t, 3, got.ViewsCount)

	val, err := env.rdb.Get(context.Background(), "party:"+party.ID.String()+":views").Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 3, val)
}

func TestListPartiesFilters(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	other := env.createUser(t, "other", models.UserTypeOrganizer)

	env.createParty(t, host.ID, nil)
	env.createParty(t, host.ID, func(p *models.Party) { p.Status = models.PartyStatusDraft })
	env.createParty(t, other.ID, nil)

	w := env.do(t, http.MethodGet, "/api/v1/parties?status=published", "", nil)
	requireStatus(t, w, http.StatusOK)
	var parties []models.Party
	decodeJSON(t, w, &parties)
	assert.Len(t, parties, 2)

	w = env.do(t, http.MethodGet, "/api/v1/parties?host="+host.ID.String(), "", nil)
	requireStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &parties)
	assert.Len(t, parties, 2)

	w = env.do(t, http.MethodGet, "/api/v1/parties?when=past", "", nil)
	requireStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &parties)
	assert.Empty(t, parties)

	w = env.do(t, http.MethodGet, "/api/v1/parties?when=someday", "", nil)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestUpdatePartyForbiddenForStranger(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	stranger := env.createUser(t, "stranger", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	w := env.do(t, http.MethodPut, "/api/v1/parties/"+party.ID.String(),
		env.tokenFor(t, stranger.ID), partyBody("Hijacked"))
	requireStatus(t, w, http.StatusForbidden)
}

func TestUpdatePartyCoHostAllowed(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	coHost := env.createUser(t, "cohost", models.UserTypeOrganizer)
	party := env.createParty(t, host.ID, nil)

	w := env.do(t, http.MethodPost, "/api/v1/parties/"+party.ID.String()+"/cohosts",
		env.tokenFor(t, host.ID), map[string]any{"user_id": coHost.ID})
	requireStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodPut, "/api/v1/parties/"+party.ID.String(),
		env.tokenFor(t, coHost.ID), partyBody("Renamed by CoHost"))
	requireStatus(t, w, http.StatusOK)

	var updated models.Party
	decodeJSON(t, w, &updated)
	assert.Equal(t, "Renamed by CoHost", updated.Title)
	assert.Equal(t, "renamed-by-cohost", updated.Slug)
}

func TestUpdatePartyStatus(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	party := env.createParty(t, host.ID, func(p *models.Party) { p.Status = models.PartyStatusDraft })

	w := env.do(t, http.MethodPatch, "/api/v1/parties/"+party.ID.String()+"/status",
		env.tokenFor(t, host.ID), map[string]any{"status": "published"})
	requireStatus(t, w, http.StatusOK)

	var got models.Party
	require.NoError(t, env.db.First(&got, "id = ?", party.ID).Error)
	assert.Equal(t, models.PartyStatusPublished, got.Status)

	w = env.do(t, http.MethodPatch, "/api/v1/parties/"+party.ID.String()+"/status",
		env.tokenFor(t, host.ID), map[string]any{"status": "draft"})
	requireStatus(t, w, http.StatusBadRequest)
}

func TestDeletePartyCascades(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	require.NoError(t, env.db.Create(&models.PartyRSVP{
		PartyID: party.ID, UserID: guest.ID, Status: models.RSVPStatusAttending,
	}).Error)
	require.NoError(t, env.db.Create(&models.PartyComment{
		PartyID: party.ID, UserID: guest.ID, Content: "sounds fun",
	}).Error)
	require.NoError(t, env.db.Create(&models.PartyLike{
		PartyID: party.ID, UserID: guest.ID,
	}).Error)
	require.NoError(t, env.db.Create(&models.PartyInvitation{
		PartyID: party.ID, InviterID: host.ID, InviteeID: guest.ID,
	}).Error)

	w := env.do(t, http.MethodDelete, "/api/v1/parties/"+party.ID.String(),
		env.tokenFor(t, host.ID), nil)
	requireStatus(t, w, http.StatusOK)

	for name, model := range map[string]any{
		"parties":     &models.Party{},
		"rsvps":       &models.PartyRSVP{},
		"comments":    &models.PartyComment{},
		"likes":       &models.PartyLike{},
		"invitations": &models.PartyInvitation{},
	} {
		var n int64
		require.NoError(t, env.db.Model(model).Count(&n).Error, name)
		assert.Zero(t, n, name)
	}
}

func TestDeletePartyHostOnly(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	stranger := env.createUser(t, "stranger", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)

	w := env.do(t, http.MethodDelete, "/api/v1/parties/"+party.ID.String(),
		env.tokenFor(t, stranger.ID), nil)
	requireStatus(t, w, http.StatusForbidden)
}
