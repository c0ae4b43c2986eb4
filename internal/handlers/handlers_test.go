package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"partyspark-backend/internal/auth"
	"partyspark-backend/internal/config"
	"partyspark-backend/internal/database"
	"partyspark-backend/internal/models"
)

const testSecret = "test-secret"
const testPassword = "testpass123"

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	rdb    *redis.Client
	mr     *miniredis.Miniredis
}

// newTestEnv spins up the full router against an in-memory sqlite database
// and a miniredis instance.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		JWTSecret:   testSecret,
		MediaRoot:   t.TempDir(),
		MaxUploadMB: 10,
		APIVersion:  "test",
	}

	r := gin.New()
	SetupRoutes(r, db, rdb, auth.NewResetTokenStore(rdb), zap.NewNop(), cfg)

	return &testEnv{router: r, db: db, rdb: rdb, mr: mr}
}

// createUser inserts a user with its profile and settings directly, the way
// registration would.
func (e *testEnv) createUser(t *testing.T, username, userType string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		Password: hash,
		UserType: userType,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(&user).Error)
	require.NoError(t, e.db.Create(&models.UserProfile{UserID: user.ID}).Error)
	require.NoError(t, e.db.Create(&models.UserSettings{UserID: user.ID}).Error)
	return user
}

func (e *testEnv) tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret)
	require.NoError(t, err)
	return token
}

// createParty inserts a published open party hosted by hostID, starting
// tomorrow.
func (e *testEnv) createParty(t *testing.T, hostID uuid.UUID, mutate func(*models.Party)) models.Party {
	t.Helper()

	now := time.Now().UTC()
	party := models.Party{
		Title:         "Test Party " + uuid.NewString()[:8],
		Slug:          "test-party-" + uuid.NewString()[:8],
		Description:   "a party",
		HostID:        hostID,
		StartDate:     now.Add(24 * time.Hour),
		EndDate:       now.Add(28 * time.Hour),
		Timezone:      "UTC",
		PrivacyLevel:  models.PartyPrivacyPublic,
		Status:        models.PartyStatusPublished,
		RSVPType:      models.RSVPTypeOpen,
		Currency:      "USD",
		AllowComments: true,
		AllowPhotos:   true,
	}
	if mutate != nil {
		mutate(&party)
	}
	require.NoError(t, e.db.Create(&party).Error)
	return party
}

// do performs a JSON request against the router. token may be empty.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out),
		"status %d body %s", w.Code, w.Body.String())
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
