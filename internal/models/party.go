package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Party privacy levels. Profiles use the shorter set in user.go.
const (
	PartyPrivacyPublic      = "public"
	PartyPrivacyPrivate     = "private"
	PartyPrivacyFriendsOnly = "friends_only"
	PartyPrivacyInviteOnly  = "invite_only"
)

// Party statuses.
const (
	PartyStatusDraft     = "draft"
	PartyStatusPublished = "published"
	PartyStatusCancelled = "cancelled"
	PartyStatusCompleted = "completed"
)

// RSVP modes on a party.
const (
	RSVPTypeOpen       = "open"
	RSVPTypeApproval   = "approval"
	RSVPTypeInviteOnly = "invite_only"
	RSVPTypeClosed     = "closed"
)

// RSVP statuses.
const (
	RSVPStatusAttending    = "attending"
	RSVPStatusMaybe        = "maybe"
	RSVPStatusNotAttending = "not_attending"
)

// PartyCategory groups parties for browsing. Name and slug are unique.
type PartyCategory struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Slug        string    `json:"slug" gorm:"size:100;uniqueIndex;not null"`
	Description string    `json:"description"`
	Icon        string    `json:"icon" gorm:"size:50"`
	Color       string    `json:"color" gorm:"size:7;default:#007bff"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (PartyCategory) TableName() string { return "party_categories" }

func (c *PartyCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Party is the central event record.
type Party struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title            string     `json:"title" gorm:"size:200;not null"`
	Slug             string     `json:"slug" gorm:"size:220;uniqueIndex;not null"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description" gorm:"size:300"`

	HostID     uuid.UUID  `json:"host_id" gorm:"type:uuid;not null;index"`
	Host       *User      `json:"host,omitempty" gorm:"foreignKey:HostID"`
	CoHosts    []User     `json:"co_hosts,omitempty" gorm:"many2many:party_co_hosts"`
	CategoryID *uuid.UUID `json:"category_id" gorm:"type:uuid"`
	Category   *PartyCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	StartDate    time.Time  `json:"start_date" gorm:"not null;index"`
	EndDate      time.Time  `json:"end_date" gorm:"not null"`
	Timezone     string     `json:"timezone" gorm:"size:50;default:UTC"`
	RSVPDeadline *time.Time `json:"rsvp_deadline"`

	LocationName    string   `json:"location_name" gorm:"size:200"`
	Address         string   `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	IsVirtual       bool     `json:"is_virtual" gorm:"default:false"`
	VirtualLink     string   `json:"virtual_link"`
	VirtualPlatform string   `json:"virtual_platform" gorm:"size:50"`

	PrivacyLevel string `json:"privacy_level" gorm:"size:15;default:private"`
	Status       string `json:"status" gorm:"size:15;default:draft;index"`
	RSVPType     string `json:"rsvp_type" gorm:"size:15;default:open"`
	MaxAttendees *int   `json:"max_attendees"`
	MinAge       *int   `json:"min_age"`
	MaxAge       *int   `json:"max_age"`

	IsPaid      bool    `json:"is_paid" gorm:"default:false"`
	TicketPrice float64 `json:"ticket_price" gorm:"type:decimal(10,2);default:0"`
	Currency    string  `json:"currency" gorm:"size:3;default:USD"`

	DressCode    string `json:"dress_code" gorm:"size:100"`
	BringItems   string `json:"bring_items"`
	HouseRules   string `json:"house_rules"`
	ContactPhone string `json:"contact_phone" gorm:"size:20"`
	ContactEmail string `json:"contact_email"`

	FeaturedImage string `json:"featured_image"`

	ViewsCount  int `json:"views_count" gorm:"default:0"`
	LikesCount  int `json:"likes_count" gorm:"default:0"`
	SharesCount int `json:"shares_count" gorm:"default:0"`

	// No column defaults here: the create path always sets these, and a DB
	// default would override an explicit false on insert.
	AllowComments bool `json:"allow_comments"`
	AllowPhotos   bool `json:"allow_photos"`
	AllowPlusOnes bool `json:"allow_plus_ones" gorm:"default:false"`
	IsFeatured    bool `json:"is_featured" gorm:"default:false"`
	IsRecurring   bool `json:"is_recurring" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Party) TableName() string { return "parties" }

func (p *Party) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsPast reports whether the party has already ended.
func (p *Party) IsPast(now time.Time) bool {
	return p.EndDate.Before(now)
}

// IsUpcoming reports whether the party has not started yet.
func (p *Party) IsUpcoming(now time.Time) bool {
	return p.StartDate.After(now)
}

// CanRSVP reports whether new RSVPs are accepted: the RSVP type must not be
// closed, the deadline (if any) must not have passed, and the party must not
// be over.
func (p *Party) CanRSVP(now time.Time) bool {
	if p.RSVPType == RSVPTypeClosed {
		return false
	}
	if p.RSVPDeadline != nil && now.After(*p.RSVPDeadline) {
		return false
	}
	if p.IsPast(now) {
		return false
	}
	return true
}

// AttendeeCount counts RSVPs with status attending. Computed on read.
func (p *Party) AttendeeCount(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&PartyRSVP{}).
		Where("party_id = ? AND status = ?", p.ID, RSVPStatusAttending).
		Count(&n).Error
	return n, err
}

// AttendingHeadcount totals the attending guests including their plus-ones.
// Capacity checks use this rather than AttendeeCount so plus-ones recorded on
// other RSVPs count against max_attendees.
func (p *Party) AttendingHeadcount(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&PartyRSVP{}).
		Where("party_id = ? AND status = ?", p.ID, RSVPStatusAttending).
		Select("COALESCE(SUM(plus_ones + 1), 0)").
		Scan(&n).Error
	return n, err
}

// PartyRSVP is a user's response to a party. One row per (party, user).
type PartyRSVP struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	PartyID             uuid.UUID  `json:"party_id" gorm:"type:uuid;not null;uniqueIndex:idx_rsvp_party_user"`
	UserID              uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_rsvp_party_user"`
	Status              string     `json:"status" gorm:"size:15;default:attending"`
	PlusOnes            int        `json:"plus_ones" gorm:"default:0"`
	Message             string     `json:"message"`
	DietaryRestrictions string     `json:"dietary_restrictions"`
	ApprovedByHost      bool       `json:"approved_by_host" gorm:"default:false"`
	CheckedIn           bool       `json:"checked_in" gorm:"default:false"`
	CheckedInAt         *time.Time `json:"checked_in_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (PartyRSVP) TableName() string { return "party_rsvps" }

func (r *PartyRSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PartyComment is a comment on a party, optionally a reply to another
// comment. Pinned comments sort first, then recency.
type PartyComment struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	PartyID   uuid.UUID  `json:"party_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null"`
	ParentID  *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	Content   string     `json:"content" gorm:"not null"`
	IsEdited  bool       `json:"is_edited" gorm:"default:false"`
	IsPinned  bool       `json:"is_pinned" gorm:"default:false"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	User    *User          `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Replies []PartyComment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
}

func (PartyComment) TableName() string { return "party_comments" }

func (c *PartyComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PartyLike marks that a user likes a party. One row per (party, user).
type PartyLike struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PartyID   uuid.UUID `json:"party_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_party_user"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_party_user"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (PartyLike) TableName() string { return "party_likes" }

func (l *PartyLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
