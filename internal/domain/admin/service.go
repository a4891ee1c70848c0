// internal/domain/admin/service.go
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/user"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles staff role applications
type Service struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
	logger *logrus.Logger
	now    func() time.Time
}

// NewService creates a new admin application service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
		logger: logger,
		now:    time.Now,
	}
}

// ApplyRequest represents an application for a staff role
type ApplyRequest struct {
	Message string `json:"application_message" binding:"required,min=10,max=1000"`
	Role    string `json:"role" binding:"required,oneof=admin superadmin"`
}

// DecideRequest approves or rejects an application
type DecideRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// ApplicationListResponse represents a page of applications
type ApplicationListResponse struct {
	Applications []Application   `json:"applications"`
	Pagination   query.Pagination `json:"pagination"`
}

// ArchiveListResponse represents a page of decided applications
type ArchiveListResponse struct {
	Applications []ArchivedApplication `json:"applications"`
	Pagination   query.Pagination      `json:"pagination"`
}

// Apply files an application. A user may hold one pending application and
// may not apply for a role they already have.
func (s *Service) Apply(ctx context.Context, userID uint, req *ApplyRequest) (*Application, error) {
	if req.Role != user.RoleAdmin && req.Role != user.RoleSuperAdmin {
		return nil, apperror.Validationf("unknown role %q", req.Role)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	app := &Application{UserID: userID, Message: strings.TrimSpace(req.Message), Role: req.Role, Status: StatusPending}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u user.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user not found")
			}
			return fmt.Errorf("failed to retrieve user: %w", err)
		}
		if u.Role == req.Role {
			return apperror.InvalidState(fmt.Sprintf("you already have the %s role", req.Role))
		}

		if err := tx.Create(app).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("you have already applied for an admin position")
			}
			return fmt.Errorf("failed to create application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Decide approves or rejects an application. Approval grants the role; either
// way the application is archived and removed in the same transaction.
func (s *Service) Decide(ctx context.Context, deciderID, applicationID uint, status string) (*ArchivedApplication, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, apperror.Validationf("unknown application status %q", status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	var archived *ArchivedApplication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app Application
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, applicationID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("admin application not found")
			}
			return fmt.Errorf("failed to retrieve application: %w", err)
		}

		if status == StatusApproved {
			result := tx.Model(&user.User{}).Where("id = ?", app.UserID).Update("role", app.Role)
			if result.Error != nil {
				return fmt.Errorf("failed to update user role: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return apperror.NotFound("user not found")
			}
		}

		archived = &ArchivedApplication{
			ApplicationID: app.ID,
			UserID:        app.UserID,
			Message:       app.Message,
			Role:          app.Role,
			Status:        status,
			DecidedBy:     deciderID,
			AppliedAt:     app.CreatedAt,
			ArchivedAt:    s.now().UTC(),
		}
		if err := tx.Create(archived).Error; err != nil {
			return fmt.Errorf("failed to archive application: %w", err)
		}
		if err := tx.Delete(&app).Error; err != nil {
			return fmt.Errorf("failed to delete application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"application_id": applicationID,
		"user_id":        archived.UserID,
		"status":         status,
		"decided_by":     deciderID,
	}).Info("Admin application decided")
	return archived, nil
}

// GetApplications lists pending applications through the query pipeline
func (s *Service) GetApplications(ctx context.Context, values url.Values) (*ApplicationListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	apps := []Application{}
	pagination, err := query.Find(s.db.WithContext(ctx).Model(&Application{}), s.parser.Parse(values, ApplicationSchema), &apps)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return &ApplicationListResponse{Applications: apps, Pagination: pagination}, nil
}

// GetArchivedApplications lists decided applications
func (s *Service) GetArchivedApplications(ctx context.Context, values url.Values) (*ArchiveListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	apps := []ArchivedApplication{}
	pagination, err := query.Find(s.db.WithContext(ctx).Model(&ArchivedApplication{}), s.parser.Parse(values, ArchiveSchema), &apps)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived applications: %w", err)
	}
	return &ArchiveListResponse{Applications: apps, Pagination: pagination}, nil
}
