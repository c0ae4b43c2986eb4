package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partyspark-backend/internal/models"
)

func TestLikeToggleKeepsCountInSync(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)
	party := env.createParty(t, host.ID, nil)
	token := env.tokenFor(t, guest.ID)
	path := "/api/v1/parties/" + party.ID.String() + "/like"

	w := env.do(t, http.MethodPost, path, token, nil)
	requireStatus(t, w, http.StatusCreated)
	assert.Contains(t, w.Body.String(), `"liked":true`)

	var got models.Party
	require.NoError(t, env.db.First(&got, "id = ?", party.ID).Error)
	assert.Equal(t, 1, got.LikesCount)

	w = env.do(t, http.MethodPost, path, token, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"liked":false`)

	require.NoError(t, env.db.First(&got, "id = ?", party.ID).Error)
	assert.Zero(t, got.LikesCount)

	var rows int64
	require.NoError(t, env.db.Model(&models.PartyLike{}).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestLikeListCountsUsers(t *testing.T) {
	env := newTestEnv(t)
	host := env.createUser(t, "host", models.UserTypeOrganizer)
	party := env.createParty(t, host.ID, nil)
	path := "/api/v1/parties/" + party.ID.String() + "/like"

	for _, name := range []string{"alice", "bob"} {
		user := env.createUser(t, name, models.UserTypeAttendee)
		w := env.do(t, http.MethodPost, path, env.tokenFor(t, user.ID), nil)
		requireStatus(t, w, http.StatusCreated)
	}

	w := env.do(t, http.MethodGet, "/api/v1/parties/"+party.ID.String()+"/likes", "", nil)
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Likes []models.PartyLike `json:"likes"`
		Count int                `json:"count"`
	}
	decodeJSON(t, w, &resp)
	assert.Len(t, resp.Likes, 2)
	assert.Equal(t, 2, resp.Count)

	// The list names the likers, not just their ids.
	for _, like := range resp.Likes {
		require.NotNil(t, like.User)
		assert.NotEmpty(t, like.User.Username)
	}
}

func TestLikeUnknownParty(t *testing.T) {
	env := newTestEnv(t)
	guest := env.createUser(t, "guest", models.UserTypeAttendee)

	w := env.do(t, http.MethodPost,
		"/api/v1/parties/00000000-0000-0000-0000-000000000001/like",
		env.tokenFor(t, guest.ID), nil)
	requireStatus(t, w, http.StatusNotFound)
}
