package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationRevoked  = "revoked"
)

// Notification types.
const (
	NotificationPartyInvite       = "party_invite"
	NotificationRSVPUpdate        = "rsvp_update"
	NotificationNewComment        = "new_comment"
	NotificationPartyUpdate       = "party_update"
	NotificationConnectionRequest = "connection_request"
)

// Media kinds.
const (
	MediaAvatar        = "avatar"
	MediaCover         = "cover"
	MediaPartyFeatured = "party_featured"
	MediaPartyPhoto    = "party_photo"
)

// PartyInvitation is a host's invitation of a user to a party. One row per
// (party, invitee).
type PartyInvitation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PartyID   uuid.UUID `json:"party_id" gorm:"type:uuid;not null;uniqueIndex:idx_invitation_party_invitee"`
	InviterID uuid.UUID `json:"inviter_id" gorm:"type:uuid;not null"`
	InviteeID uuid.UUID `json:"invitee_id" gorm:"type:uuid;not null;uniqueIndex:idx_invitation_party_invitee"`
	Message   string    `json:"message"`
	Status    string    `json:"status" gorm:"size:10;default:pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Party   *Party `json:"party,omitempty" gorm:"foreignKey:PartyID"`
	Inviter *User  `json:"inviter,omitempty" gorm:"foreignKey:InviterID"`
	Invitee *User  `json:"invitee,omitempty" gorm:"foreignKey:InviteeID"`
}

func (PartyInvitation) TableName() string { return "party_invitations" }

func (i *PartyInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Notification is an in-app message for a user, created as a side effect of
// invitations, RSVPs, comments and connection requests.
type Notification struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	RecipientID      uuid.UUID  `json:"recipient_id" gorm:"type:uuid;not null;index"`
	NotificationType string     `json:"notification_type" gorm:"size:30;not null"`
	Title            string     `json:"title" gorm:"size:200"`
	Body             string     `json:"body"`
	PartyID          *uuid.UUID `json:"party_id" gorm:"type:uuid"`
	IsRead           bool       `json:"is_read" gorm:"default:false;index"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// MediaFile records an uploaded file. The file itself lives under the media
// root at Path, which is date-partitioned (kind/YYYY/MM/name).
type MediaFile struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	PartyID     *uuid.UUID `json:"party_id" gorm:"type:uuid;index"`
	MediaType   string     `json:"media_type" gorm:"size:20;not null"`
	FileName    string     `json:"file_name" gorm:"size:255"`
	Path        string     `json:"path" gorm:"size:500;not null"`
	ContentType string     `json:"content_type" gorm:"size:100"`
	Size        int64      `json:"size"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (MediaFile) TableName() string { return "media_files" }

func (m *MediaFile) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
