package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type MediaHandler struct {
	db          *gorm.DB
	log         *zap.Logger
	mediaRoot   string
	maxUploadMB int64
}

func NewMediaHandler(db *gorm.DB, log *zap.Logger, mediaRoot string, maxUploadMB int64) *MediaHandler {
	return &MediaHandler{db: db, log: log, mediaRoot: mediaRoot, maxUploadMB: maxUploadMB}
}

// Upload stores a multipart file under a date-partitioned path
// (kind/YYYY/MM/uuid.ext) and records it. Avatar and cover uploads also
// update the caller's profile reference; party kinds attach to a party the
// caller can post to.
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	kind := c.PostForm("media_type")
	switch kind {
	case models.MediaAvatar, models.MediaCover, models.MediaPartyFeatured, models.MediaPartyPhoto:
	default:
		fieldErrors(c, map[string]string{"media_type": "invalid media type"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		fieldErrors(c, map[string]string{"file": "file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		fieldErrors(c, map[string]string{"file": "unsupported file type"})
		return
	}
	if file.Size > h.maxUploadMB*1024*1024 {
		fieldErrors(c, map[string]string{"file": fmt.Sprintf("file exceeds %d MB", h.maxUploadMB)})
		return
	}

	var partyID *uuid.UUID
	var party models.Party
	if kind == models.MediaPartyFeatured || kind == models.MediaPartyPhoto {
		id, err := uuid.Parse(c.PostForm("party_id"))
		if err != nil {
			fieldErrors(c, map[string]string{"party_id": "party_id is required for party media"})
			return
		}
		if err := h.db.First(&party, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				jsonError(c, http.StatusNotFound, "party not found")
				return
			}
			jsonError(c, http.StatusInternalServerError, "db error")
			return
		}
		if kind == models.MediaPartyFeatured && party.HostID != userID {
			jsonError(c, http.StatusForbidden, "only the host can set the featured image")
			return
		}
		if kind == models.MediaPartyPhoto && !party.AllowPhotos {
			jsonError(c, http.StatusForbidden, "this party does not allow photos")
			return
		}
		partyID = &id
	}

	now := time.Now().UTC()
	relDir := filepath.Join(kindDir(kind), now.Format("2006/01"))
	if err := os.MkdirAll(filepath.Join(h.mediaRoot, relDir), 0o755); err != nil {
		h.log.Error("create media dir", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not store file")
		return
	}

	relPath := filepath.Join(relDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, filepath.Join(h.mediaRoot, relPath)); err != nil {
		h.log.Error("save upload", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not store file")
		return
	}

	media := models.MediaFile{
		OwnerID:     userID,
		PartyID:     partyID,
		MediaType:   kind,
		FileName:    filepath.Base(file.Filename),
		Path:        relPath,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&media).Error; err != nil {
			return err
		}
		switch kind {
		case models.MediaAvatar:
			return tx.Model(&models.UserProfile{}).
				Where("user_id = ?", userID).Update("avatar", relPath).Error
		case models.MediaCover:
			return tx.Model(&models.UserProfile{}).
				Where("user_id = ?", userID).Update("cover_image", relPath).Error
		case models.MediaPartyFeatured:
			return tx.Model(&party).Update("featured_image", relPath).Error
		}
		return nil
	})
	if err != nil {
		h.log.Error("record media", zap.Error(err))
		jsonError(c, http.StatusInternalServerError, "could not record file")
		return
	}

	c.JSON(http.StatusCreated, media)
}

// ListMine returns the caller's uploads.
func (h *MediaHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var files []models.MediaFile
	if err := h.db.Where("owner_id = ?", userID).Order("created_at desc").Find(&files).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, files)
}

// Delete removes an upload and its file. Owner only.
func (h *MediaHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var media models.MediaFile
	if err := h.db.First(&media, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "file not found")
		return
	}

	if media.OwnerID != userID {
		jsonError(c, http.StatusForbidden, "only the owner can delete a file")
		return
	}

	if err := h.db.Delete(&media).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "delete failed")
		return
	}

	if err := os.Remove(filepath.Join(h.mediaRoot, media.Path)); err != nil && !os.IsNotExist(err) {
		h.log.Warn("remove media file", zap.Error(err), zap.String("path", media.Path))
	}

	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

func kindDir(kind string) string {
	switch kind {
	case models.MediaAvatar:
		return "avatars"
	case models.MediaCover:
		return "covers"
	case models.MediaPartyFeatured:
		return "parties/featured"
	default:
		return "parties/photos"
	}
}
