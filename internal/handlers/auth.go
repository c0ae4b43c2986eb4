package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/auth"
	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

// Login failures never distinguish a wrong password from an unknown email.
const genericLoginError = "unable to log in with provided credentials"

var phoneRegexp = regexp.MustCompile(`^\+?1?\d{9,15}$`)

type AuthHandler struct {
	db     *gorm.DB
	resets *auth.ResetTokenStore
	log    *zap.Logger
	secret string
}

func NewAuthHandler(db *gorm.DB, resets *auth.ResetTokenStore, log *zap.Logger, secret string) *AuthHandler {
	return &AuthHandler{db: db, resets: resets, log: log, secret: secret}
}

type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	Username        string `json:"username" binding:"required"`
	FirstName       string `json:"first_name" binding:"required,max=30"`
	LastName        string `json:"last_name" binding:"required,max=30"`
	UserType        string `json:"user_type"`
	PhoneNumber     string `json:"phone_number"`
	Timezone        string `json:"timezone"`
	Language        string `json:"language"`
}

// Register creates the User together with its profile and settings in a
// single transaction, so a failure partway leaves no orphaned records.
func (h *AuthHandler) Register(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	errs := map[string]string{}

	if body.Password != body.PasswordConfirm {
		errs["password"] = "password fields didn't match"
	} else if err := auth.ValidatePasswordStrength(body.Password); err != nil {
		errs["password"] = err.Error()
	}

	userType := body.UserType
	if userType == "" {
		userType = models.UserTypeCreator
	}
	switch userType {
	case models.UserTypeCreator, models.UserTypeAttendee, models.UserTypeOrganizer, models.UserTypeAdmin:
	default:
		errs["user_type"] = "invalid user type"
	}

	if body.PhoneNumber != "" && !phoneRegexp.MatchString(body.PhoneNumber) {
		errs["phone_number"] = "phone number must be entered in the format '+999999999', up to 15 digits"
	}

	if len(errs) > 0 {
		fieldErrors(c, errs)
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	username := strings.TrimSpace(body.Username)

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not create account")
		return
	}

	user := models.User{
		Email:       email,
		Username:    username,
		Password:    hash,
		FirstName:   strings.TrimSpace(body.FirstName),
		LastName:    strings.TrimSpace(body.LastName),
		UserType:    userType,
		PhoneNumber: body.PhoneNumber,
		Timezone:    defaultString(body.Timezone, "UTC"),
		Language:    defaultString(body.Language, "en"),
		IsActive:    true,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			errs["email"] = "a user with this email already exists"
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			errs["username"] = "a user with this username already exists"
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.UserProfile{UserID: user.ID}).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserSettings{UserID: user.ID}).Error
	})
	if err != nil {
		if len(errs) > 0 {
			fieldErrors(c, errs)
			return
		}
		h.log.Error("register", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not create account")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "registration successful", "user": user})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login checks the credentials and returns a JWT. Updates last_active as a
// side effect of a successful login.
func (h *AuthHandler) Login(c *gin.Context) {
	var body LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	if err := h.db.Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusUnauthorized, genericLoginError)
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	if !user.IsActive || !auth.CheckPassword(user.Password, body.Password) {
		jsonError(c, http.StatusUnauthorized, genericLoginError)
		return
	}

	token, err := auth.GenerateToken(user.ID, h.secret)
	if err != nil {
		h.log.Error("generate token", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "failed to generate token")
		return
	}

	now := time.Now().UTC()
	if err := h.db.Model(&user).Update("last_active", now).Error; err != nil {
		h.log.Warn("update last_active", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

type PasswordChangeRequest struct {
	OldPassword        string `json:"old_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
}

// ChangePassword replaces the stored credential after verifying the old one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var body PasswordChangeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if body.NewPassword != body.NewPasswordConfirm {
		fieldErrors(c, map[string]string{"new_password": "new password fields didn't match"})
		return
	}
	if err := auth.ValidatePasswordStrength(body.NewPassword); err != nil {
		fieldErrors(c, map[string]string{"new_password": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if !auth.CheckPassword(user.Password, body.OldPassword) {
		fieldErrors(c, map[string]string{"old_password": "old password is incorrect"})
		return
	}

	hash, err := auth.HashPassword(body.NewPassword)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "could not change password")
		return
	}

	if err := h.db.Model(&user).Update("password", hash).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset issues a single-use reset token. Delivery (email) is
// out of band; the token is logged for the delivery worker to pick up.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var body PasswordResetRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User
	if err := h.db.Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fieldErrors(c, map[string]string{"email": "no user found with this email address"})
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}

	token, err := h.resets.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("issue reset token", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not issue reset token")
		return
	}

	h.log.Info("password reset token issued", zap.String("user_id", user.ID.String()), zap.String("token", token))

	c.JSON(http.StatusOK, gin.H{"message": "password reset token issued"})
}

type PasswordResetConfirmRequest struct {
	Token              string `json:"token" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
}

// ConfirmPasswordReset redeems a token and replaces the credential.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var body PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if body.NewPassword != body.NewPasswordConfirm {
		fieldErrors(c, map[string]string{"new_password": "password fields didn't match"})
		return
	}
	if err := auth.ValidatePasswordStrength(body.NewPassword); err != nil {
		fieldErrors(c, map[string]string{"new_password": err.Error()})
		return
	}

	userID, err := h.resets.Redeem(c.Request.Context(), body.Token)
	if err != nil {
		if errors.Is(err, auth.ErrResetTokenInvalid) {
			fieldErrors(c, map[string]string{"token": "reset token is invalid or expired"})
			return
		}
		jsonError(c, http.StatusInternalServerError, "could not redeem reset token")
		return
	}

	hash, err := auth.HashPassword(body.NewPassword)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "could not reset password")
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Update("password", hash).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password reset"})
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
