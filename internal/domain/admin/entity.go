// internal/domain/admin/entity.go
package admin

import (
	"time"

	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
)

// Application statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Application is a user's pending request for a staff role. A user holds at
// most one at a time.
type Application struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"application_message"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	Status    string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArchivedApplication is a decided application
type ArchivedApplication struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"not null;index" json:"application_id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	Message       string    `gorm:"type:text;not null" json:"application_message"`
	Role          string    `gorm:"size:20;not null" json:"role"`
	Status        string    `gorm:"size:20;not null;index" json:"status"`
	DecidedBy     uint      `gorm:"not null" json:"decided_by"`
	AppliedAt     time.Time `gorm:"not null" json:"applied_at"`
	ArchivedAt    time.Time `gorm:"not null" json:"archived_at"`
}

func (Application) TableName() string         { return "admin_applications" }
func (ArchivedApplication) TableName() string { return "admin_application_archive" }

var (
	ApplicationSchema = query.Schema{
		Fields: map[string]query.FieldKind{
			"user_id": query.Number, "role": query.String, "status": query.String,
			"created_at": query.Time, "updated_at": query.Time,
		},
		Searchable: []string{"message"},
	}

	ArchiveSchema = query.Schema{
		Fields: map[string]query.FieldKind{
			"application_id": query.Number, "user_id": query.Number, "role": query.String,
			"status": query.String, "decided_by": query.Number,
			"applied_at": query.Time, "archived_at": query.Time,
		},
		Searchable: []string{"message"},
	}
)
