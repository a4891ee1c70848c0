// internal/domain/user/admin_service.go
package user

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/money"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminService handles admin user management operations
type AdminService struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
	logger *logrus.Logger
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *AdminService {
	return &AdminService{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
		logger: logger,
	}
}

// UserListResponse represents user list with pagination
type UserListResponse struct {
	Users      []User           `json:"users"`
	Pagination query.Pagination `json:"pagination"`
}

// UserWithStats represents user with additional statistics
type UserWithStats struct {
	User
	OrderCount   int64      `json:"order_count"`
	TotalSpent   int64      `json:"total_spent"` // Minor units
	LastOrderAt  *time.Time `json:"last_order_at"`
	AddressCount int64      `json:"address_count"`
}

// BlockRequest toggles a user's blocked flag
type BlockRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// GetUsers lists users through the query pipeline
func (s *AdminService) GetUsers(ctx context.Context, values url.Values) (*UserListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	users := []User{}
	pagination, err := query.Find(s.db.WithContext(ctx).Model(&User{}), s.parser.Parse(values, Schema), &users)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserListResponse{Users: users, Pagination: pagination}, nil
}

// GetUser gets a user with order and address statistics
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*UserWithStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	var user User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return getUserStats(db, user)
}

// SetBlocked blocks or unblocks a user. Admins cannot block themselves.
func (s *AdminService) SetBlocked(ctx context.Context, adminID, userID uint, blocked bool) (*User, error) {
	if adminID == userID {
		return nil, apperror.Validation("you cannot block your own account")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var user User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user not found")
			}
			return fmt.Errorf("failed to retrieve user: %w", err)
		}
		if user.Role == RoleSuperAdmin {
			return apperror.Forbidden("a superadmin cannot be blocked")
		}
		if err := tx.Model(&user).Update("is_blocked", blocked).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": adminID,
		"blocked":  blocked,
	}).Info("User block status changed")
	return &user, nil
}

// ExportUsers exports the users matching the query as csv or json
func (s *AdminService) ExportUsers(ctx context.Context, values url.Values, format string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	q := s.parser.Parse(values, Schema)
	q.PageSize = 0

	var users []User
	if err := q.Apply(db.Model(&User{})).Find(&users).Error; err != nil {
		return nil, "", fmt.Errorf("failed to retrieve users for export: %w", err)
	}

	rows := make([]*UserWithStats, 0, len(users))
	for _, u := range users {
		stats, err := getUserStats(db, u)
		if err != nil {
			return nil, "", err
		}
		rows = append(rows, stats)
	}

	stamp := time.Now().Format("2006-01-02_15-04-05")
	switch format {
	case "", "csv":
		data, err := generateCSVExport(rows)
		return data, fmt.Sprintf("users_export_%s.csv", stamp), err
	case "json":
		data, err := json.MarshalIndent(map[string]interface{}{
			"exported_at": time.Now().UTC(),
			"total_users": len(rows),
			"users":       rows,
		}, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate JSON: %w", err)
		}
		return data, fmt.Sprintf("users_export_%s.json", stamp), nil
	default:
		return nil, "", apperror.Validationf("unsupported export format: %s", format)
	}
}

// getUserStats counts the user's non-canceled orders and saved addresses
func getUserStats(db *gorm.DB, user User) (*UserWithStats, error) {
	stats := &UserWithStats{User: user}

	var totals struct {
		OrderCount int64
		TotalSpent int64
	}
	err := db.Model(&order.Order{}).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total_price_after_discount), 0) AS total_spent").
		Where("user_id = ? AND is_canceled = ?", user.ID, false).
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute order stats: %w", err)
	}
	stats.OrderCount = totals.OrderCount
	stats.TotalSpent = totals.TotalSpent

	if stats.OrderCount > 0 {
		var last order.Order
		if err := db.Select("id", "created_at").Where("user_id = ? AND is_canceled = ?", user.ID, false).
			Order("created_at DESC").First(&last).Error; err != nil {
			return nil, fmt.Errorf("failed to retrieve last order: %w", err)
		}
		stats.LastOrderAt = &last.CreatedAt
	}

	if err := db.Model(&Address{}).Where("user_id = ?", user.ID).Count(&stats.AddressCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count addresses: %w", err)
	}
	return stats, nil
}

func generateCSVExport(rows []*UserWithStats) ([]byte, error) {
	var csvData strings.Builder
	writer := csv.NewWriter(&csvData)

	headers := []string{
		"ID", "Email", "First Name", "Last Name", "Phone", "Role", "Blocked",
		"Email Verified", "Created At", "Last Login", "Order Count", "Total Spent", "Address Count",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}

	for _, u := range rows {
		lastLogin := "Never"
		if u.LastLoginAt != nil {
			lastLogin = u.LastLoginAt.Format("2006-01-02 15:04:05")
		}
		record := []string{
			strconv.FormatUint(uint64(u.ID), 10),
			u.Email,
			u.FirstName,
			u.LastName,
			u.Phone,
			u.Role,
			strconv.FormatBool(u.IsBlocked),
			strconv.FormatBool(u.EmailVerified),
			u.CreatedAt.Format("2006-01-02 15:04:05"),
			lastLogin,
			strconv.FormatInt(u.OrderCount, 10),
			money.Format(u.TotalSpent),
			strconv.FormatInt(u.AddressCount, 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return []byte(csvData.String()), nil
}
