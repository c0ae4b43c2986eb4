package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

type UserHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserHandler(db *gorm.DB, log *zap.Logger) *UserHandler {
	return &UserHandler{db: db, log: log}
}

// userPayload wraps a user with the derived read-only fields the API exposes.
func userPayload(u *models.User) gin.H {
	return gin.H{
		"user":              u,
		"full_name":         u.FullName(),
		"is_premium_active": u.IsPremiumActive(time.Now().UTC()),
	}
}

// Me returns the authenticated user with profile and settings.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var user models.User
	if err := h.db.Preload("Profile").Preload("Settings").First(&user, "id = ?", userID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}

	c.JSON(http.StatusOK, userPayload(&user))
}

type ProfileUpdate struct {
	Bio          *string  `json:"bio"`
	Location     *string  `json:"location"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Website      *string  `json:"website"`
	Instagram    *string  `json:"instagram"`
	Twitter      *string  `json:"twitter"`
	LinkedIn     *string  `json:"linkedin"`
	PrivacyLevel *string  `json:"privacy_level"`
}

type UpdateMeRequest struct {
	FirstName   *string        `json:"first_name"`
	LastName    *string        `json:"last_name"`
	Username    *string        `json:"username"`
	PhoneNumber *string        `json:"phone_number"`
	Timezone    *string        `json:"timezone"`
	Language    *string        `json:"language"`
	Profile     *ProfileUpdate `json:"profile"`
}

// UpdateMe updates the user and, when present, the nested profile. Premium
// and verification flags are not client-writable.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body UpdateMeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if body.PhoneNumber != nil && *body.PhoneNumber != "" && !phoneRegexp.MatchString(*body.PhoneNumber) {
		fieldErrors(c, map[string]string{"phone_number": "phone number must be entered in the format '+999999999', up to 15 digits"})
		return
	}
	if body.Profile != nil && body.Profile.PrivacyLevel != nil {
		switch *body.Profile.PrivacyLevel {
		case models.PrivacyPublic, models.PrivacyFriends, models.PrivacyPrivate:
		default:
			fieldErrors(c, map[string]string{"privacy_level": "invalid privacy level"})
			return
		}
	}

	var user models.User
	if err := h.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}

	if body.Username != nil && !strings.EqualFold(*body.Username, user.Username) {
		var n int64
		if err := h.db.Model(&models.User{}).
			Where("LOWER(username) = LOWER(?) AND id <> ?", *body.Username, userID).
			Count(&n).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "db error")
			return
		}
		if n > 0 {
			fieldErrors(c, map[string]string{"username": "a user with this username already exists"})
			return
		}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		setString(updates, "first_name", body.FirstName)
		setString(updates, "last_name", body.LastName)
		setString(updates, "username", body.Username)
		setString(updates, "phone_number", body.PhoneNumber)
		setString(updates, "timezone", body.Timezone)
		setString(updates, "language", body.Language)
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
		}

		if body.Profile != nil && user.Profile != nil {
			p := map[string]interface{}{}
			setString(p, "bio", body.Profile.Bio)
			setString(p, "location", body.Profile.Location)
			setString(p, "website", body.Profile.Website)
			setString(p, "instagram", body.Profile.Instagram)
			setString(p, "twitter", body.Profile.Twitter)
			setString(p, "linked_in", body.Profile.LinkedIn)
			setString(p, "privacy_level", body.Profile.PrivacyLevel)
			if body.Profile.Latitude != nil {
				p["latitude"] = *body.Profile.Latitude
			}
			if body.Profile.Longitude != nil {
				p["longitude"] = *body.Profile.Longitude
			}
			if len(p) > 0 {
				if err := tx.Model(user.Profile).Updates(p).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		h.log.Error("update user", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not update user")
		return
	}

	if err := h.db.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, userPayload(&user))
}

// GetSettings returns the caller's settings record.
func (h *UserHandler) GetSettings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var settings models.UserSettings
	if err := h.db.First(&settings, "user_id = ?", userID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "settings not found")
		return
	}
	c.JSON(http.StatusOK, settings)
}

type SettingsUpdate struct {
	EmailNotifications *bool   `json:"email_notifications"`
	PushNotifications  *bool   `json:"push_notifications"`
	ShowEmail          *bool   `json:"show_email"`
	ShowPhone          *bool   `json:"show_phone"`
	Theme              *string `json:"theme"`
	DigestFrequency    *string `json:"digest_frequency"`
}

// UpdateSettings applies partial updates to the caller's settings.
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body SettingsUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var settings models.UserSettings
	if err := h.db.First(&settings, "user_id = ?", userID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "settings not found")
		return
	}

	updates := map[string]interface{}{}
	setBool(updates, "email_notifications", body.EmailNotifications)
	setBool(updates, "push_notifications", body.PushNotifications)
	setBool(updates, "show_email", body.ShowEmail)
	setBool(updates, "show_phone", body.ShowPhone)
	setString(updates, "theme", body.Theme)
	setString(updates, "digest_frequency", body.DigestFrequency)

	if len(updates) > 0 {
		if err := h.db.Model(&settings).Updates(updates).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "could not update settings")
			return
		}
	}
	c.JSON(http.StatusOK, settings)
}

// GetUser returns another user's public view, honoring profile privacy.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.Preload("Profile").First(&user, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}

	if user.Profile != nil && user.Profile.PrivacyLevel == models.PrivacyPrivate {
		user.Profile = nil
	}

	c.JSON(http.StatusOK, userPayload(&user))
}

type ConnectionRequest struct {
	ToUserID       uuid.UUID `json:"to_user_id" binding:"required"`
	ConnectionType string    `json:"connection_type"`
}

// CreateConnection requests a friendship or follow. Duplicate pairs are
// rejected with a conflict.
func (h *UserHandler) CreateConnection(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body ConnectionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if body.ToUserID == userID {
		jsonError(c, http.StatusBadRequest, "cannot connect to yourself")
		return
	}

	connType := defaultString(body.ConnectionType, models.ConnectionFriend)
	if connType != models.ConnectionFriend && connType != models.ConnectionFollow {
		fieldErrors(c, map[string]string{"connection_type": "invalid connection type"})
		return
	}

	var target models.User
	if err := h.db.First(&target, "id = ?", body.ToUserID).Error; err != nil {
		jsonError(c, http.StatusNotFound, "user not found")
		return
	}

	var existing models.UserConnection
	err := h.db.Where("from_user_id = ? AND to_user_id = ?", userID, body.ToUserID).First(&existing).Error
	if err == nil {
		jsonError(c, http.StatusConflict, "connection already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	conn := models.UserConnection{
		FromUserID:     userID,
		ToUserID:       body.ToUserID,
		ConnectionType: connType,
		Status:         models.ConnectionPending,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conn).Error; err != nil {
			return err
		}
		return notify(tx, body.ToUserID, models.NotificationConnectionRequest,
			"New connection request", "You have a new connection request", nil)
	})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "could not create connection")
		return
	}

	c.JSON(http.StatusCreated, conn)
}

// RespondConnection accepts or blocks an incoming connection.
func (h *UserHandler) RespondConnection(c *gin.Context) {
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
	if body.Status != models.ConnectionAccepted && body.Status != models.ConnectionBlocked {
		fieldErrors(c, map[string]string{"status": "status must be accepted or blocked"})
		return
	}

	var conn models.UserConnection
	if err := h.db.First(&conn, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "connection not found")
		return
	}

	if conn.ToUserID != userID {
		jsonError(c, http.StatusForbidden, "only the recipient can respond")
		return
	}

	if err := h.db.Model(&conn).Update("status", body.Status).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not update connection")
		return
	}
	c.JSON(http.StatusOK, conn)
}

// ListConnections returns connections involving the caller.
func (h *UserHandler) ListConnections(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var conns []models.UserConnection
	if err := h.db.Preload("FromUser").Preload("ToUser").
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("created_at desc").Find(&conns).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, conns)
}

func setString(m map[string]interface{}, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func setBool(m map[string]interface{}, key string, v *bool) {
	if v != nil {
		m[key] = *v
	}
}
