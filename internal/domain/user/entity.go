// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"gorm.io/gorm"
)

// Roles carried in access tokens
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// User represents the user entity
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Email           string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password        string     `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	FirstName       string     `gorm:"size:100;not null" json:"first_name"`
	LastName        string     `gorm:"size:100;not null" json:"last_name"`
	Phone           string     `gorm:"size:20" json:"phone"`
	Gender          string     `gorm:"size:10" json:"gender,omitempty"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	Role            string     `gorm:"size:20;not null;default:'user';index" json:"role"`
	EmailVerified   bool       `gorm:"not null;default:false" json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	IsBlocked       bool       `gorm:"not null;default:false" json:"is_blocked"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relationships
	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"addresses,omitempty"`
}

// Address is a saved shipping address. The default one is used at checkout
// when the request carries none.
type Address struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	UserID        uint `gorm:"not null;index" json:"user_id"`
	order.Address `gorm:"embedded"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Address
func (Address) TableName() string {
	return "addresses"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// NormalizeEmail is the form emails are stored and looked up in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GetDisplayName returns display name (full name or email)
func (u *User) GetDisplayName() string {
	fullName := u.GetFullName()
	if fullName != "" {
		return fullName
	}
	return u.Email
}

// IsStaff reports whether the user may manage the catalog
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// Schema exposes the user list to the query pipeline. Password is never
// filterable or selectable.
var Schema = query.Schema{
	Fields: map[string]query.FieldKind{
		"email": query.String, "first_name": query.String, "last_name": query.String,
		"phone": query.String, "gender": query.String, "role": query.String,
		"email_verified": query.Bool, "is_blocked": query.Bool,
		"last_login_at": query.Time, "created_at": query.Time, "updated_at": query.Time,
	},
	Searchable: []string{"email", "first_name", "last_name"},
}
