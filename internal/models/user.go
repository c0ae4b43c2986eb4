package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User types.
const (
	UserTypeCreator   = "creator"
	UserTypeAttendee  = "attendee"
	UserTypeOrganizer = "organizer"
	UserTypeAdmin     = "admin"
)

// Profile privacy levels.
const (
	PrivacyPublic  = "public"
	PrivacyFriends = "friends"
	PrivacyPrivate = "private"
)

// Connection types and statuses.
const (
	ConnectionFriend = "friend"
	ConnectionFollow = "follow"

	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionBlocked  = "blocked"
)

// User is the account record. Email is stored lowercased and is unique.
type User struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Email            string     `json:"email" gorm:"uniqueIndex;not null"`
	Username         string     `json:"username" gorm:"uniqueIndex;not null"`
	Password         string     `json:"-" gorm:"not null"`
	FirstName        string     `json:"first_name" gorm:"size:30"`
	LastName         string     `json:"last_name" gorm:"size:30"`
	UserType         string     `json:"user_type" gorm:"size:20;default:creator"`
	IsVerified       bool       `json:"is_verified" gorm:"default:false"`
	IsPremium        bool       `json:"is_premium" gorm:"default:false"`
	PremiumExpiresAt *time.Time `json:"premium_expires_at"`
	IsActive         bool       `json:"is_active" gorm:"default:true"`
	PhoneNumber      string     `json:"phone_number" gorm:"size:17"`
	Timezone         string     `json:"timezone" gorm:"size:50;default:UTC"`
	Language         string     `json:"language" gorm:"size:10;default:en"`
	LastActive       time.Time  `json:"last_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Profile  *UserProfile  `json:"profile,omitempty" gorm:"foreignKey:UserID"`
	Settings *UserSettings `json:"settings,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.LastActive.IsZero() {
		u.LastActive = time.Now().UTC()
	}
	return nil
}

// FullName returns "first last", falling back to the username when both
// name fields are empty.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsPremiumActive reports whether the premium tier is in effect at the given
// time. A premium account with no expiry never lapses.
func (u *User) IsPremiumActive(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	if u.PremiumExpiresAt != nil {
		return u.PremiumExpiresAt.After(now)
	}
	return true
}

// UserProfile carries the public-facing profile of a user. Created together
// with the User at registration.
type UserProfile struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID                uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Bio                   string    `json:"bio" gorm:"size:500"`
	Avatar                string    `json:"avatar"`
	CoverImage            string    `json:"cover_image"`
	Location              string    `json:"location" gorm:"size:100"`
	Latitude              *float64  `json:"latitude"`
	Longitude             *float64  `json:"longitude"`
	Website               string    `json:"website"`
	Instagram             string    `json:"instagram" gorm:"size:100"`
	Twitter               string    `json:"twitter" gorm:"size:100"`
	LinkedIn              string    `json:"linkedin" gorm:"size:100"`
	PrivacyLevel          string    `json:"privacy_level" gorm:"size:10;default:public"`
	EmailNotifications    bool      `json:"email_notifications" gorm:"default:true"`
	PushNotifications     bool      `json:"push_notifications" gorm:"default:true"`
	MarketingEmails       bool      `json:"marketing_emails" gorm:"default:false"`
	TotalPartiesCreated   int       `json:"total_parties_created" gorm:"default:0"`
	TotalPartiesAttended  int       `json:"total_parties_attended" gorm:"default:0"`
	TotalInvitationsSent  int       `json:"total_invitations_sent" gorm:"default:0"`
	ReputationScore       int       `json:"reputation_score" gorm:"default:0"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profiles" }

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// UserSettings holds per-account preferences. Created at registration.
type UserSettings struct {
	ID                 uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	EmailNotifications bool      `json:"email_notifications" gorm:"default:true"`
	PushNotifications  bool      `json:"push_notifications" gorm:"default:true"`
	ShowEmail          bool      `json:"show_email" gorm:"default:false"`
	ShowPhone          bool      `json:"show_phone" gorm:"default:false"`
	Theme              string    `json:"theme" gorm:"size:20;default:light"`
	DigestFrequency    string    `json:"digest_frequency" gorm:"size:20;default:weekly"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (UserSettings) TableName() string { return "user_settings" }

func (s *UserSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// UserConnection links two users (friendship or follow). One row per
// directed (from, to) pair.
type UserConnection struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FromUserID     uuid.UUID `json:"from_user_id" gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair"`
	ToUserID       uuid.UUID `json:"to_user_id" gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair"`
	ConnectionType string    `json:"connection_type" gorm:"size:10;default:friend"`
	Status         string    `json:"status" gorm:"size:10;default:pending"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	FromUser *User `json:"from_user,omitempty" gorm:"foreignKey:FromUserID"`
	ToUser   *User `json:"to_user,omitempty" gorm:"foreignKey:ToUserID"`
}

func (UserConnection) TableName() string { return "user_connections" }

func (c *UserConnection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
