package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Registration is a single time entry. Department is a point-in-time copy of
// a master department name, not a reference.
type Registration struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RegisteredAt time.Time  `gorm:"not null;index" json:"registered_at"`
	Minutes      int        `gorm:"not null" json:"minutes"`
	Department   string     `gorm:"size:100;not null;index" json:"department"`
	Note         *string    `gorm:"size:1000" json:"note,omitempty"`
	Login        string     `gorm:"size:50;not null;index" json:"login"`
	DisplayName  *string    `gorm:"size:100" json:"display_name,omitempty"`
	OrgUnit      *string    `gorm:"size:100" json:"org_unit,omitempty"`
	PerformedOn  *time.Time `json:"performed_on,omitempty"`
	CaseNumber   *string    `gorm:"size:60" json:"case_number,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Label is the display name when known, else the account part of the login.
func (r Registration) Label() string {
	if r.DisplayName != nil && *r.DisplayName != "" {
		return *r.DisplayName
	}
	return AccountName(r.Login)
}

type Department struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	NameKey   string     `gorm:"size:100;not null;uniqueIndex" json:"-"`
	Active    bool       `gorm:"not null" json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	CreatedBy *string    `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy *string    `gorm:"size:100" json:"updated_by,omitempty"`
}

func (d *Department) BeforeSave(tx *gorm.DB) error {
	d.NameKey = Key(d.Name)
	return nil
}

type Administrator struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Login       string     `gorm:"size:100;not null" json:"login"`
	LoginKey    string     `gorm:"size:100;not null;uniqueIndex" json:"-"`
	DisplayName *string    `gorm:"size:100" json:"display_name,omitempty"`
	Active      bool       `gorm:"not null" json:"active"`
	Note        *string    `gorm:"size:200" json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
	CreatedBy   *string    `gorm:"size:100" json:"created_by,omitempty"`
	UpdatedBy   *string    `gorm:"size:100" json:"updated_by,omitempty"`
}

func (a *Administrator) BeforeSave(tx *gorm.DB) error {
	a.LoginKey = Key(a.Login)
	return nil
}

type AuditLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Actor      string    `gorm:"size:100;not null" json:"actor"`
	Action     string    `gorm:"size:50;not null" json:"action"`
	TargetType string    `gorm:"size:50;not null" json:"target_type"`
	TargetID   *string   `gorm:"size:100" json:"target_id,omitempty"`
	Message    string    `gorm:"not null" json:"message"`
	Metadata   JSONB     `json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

// Key folds a name for case-insensitive uniqueness.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AccountName strips a DOMAIN\ prefix from a login.
func AccountName(login string) string {
	if i := strings.LastIndex(login, `\`); i >= 0 {
		return login[i+1:]
	}
	return login
}

// Ptr returns nil for blank strings and a pointer to the trimmed value otherwise.
func Ptr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
