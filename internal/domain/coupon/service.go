// internal/domain/coupon/service.go
package coupon

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"github.com/shopcore/ecommerce-backend/internal/pkg/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles coupon administration
type Service struct {
	db     *gorm.DB
	config *config.Config
	parser query.Parser
}

// NewService creates a new coupon service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		parser: query.NewParser(cfg.Query),
	}
}

// CreateRequest represents coupon creation data
type CreateRequest struct {
	Code      string    `json:"code" binding:"required,coupon_code"`
	Amount    int       `json:"amount" binding:"required,min=1,max=100"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// UpdateRequest represents a partial coupon update
type UpdateRequest struct {
	Code      *string    `json:"code" binding:"omitempty,coupon_code"`
	Amount    *int       `json:"amount" binding:"omitempty,min=1,max=100"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// ListResponse is one page of coupons
type ListResponse struct {
	Coupons    []Coupon         `json:"coupons"`
	Pagination query.Pagination `json:"pagination"`
}

// CreateCoupon stores a new coupon under its normalized code
func (s *Service) CreateCoupon(ctx context.Context, req *CreateRequest, addedBy uint) (*Coupon, error) {
	if !req.StartDate.Before(req.EndDate) {
		return nil, apperror.Validation("start date must be before end date")
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	coupon := &Coupon{
		Code:      NormalizeCode(req.Code),
		Amount:    req.Amount,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		AddedBy:   addedBy,
	}
	if err := s.db.WithContext(ctx).Create(coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("coupon already exists")
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

// UpdateCoupon applies the given fields, keeping start before end
func (s *Service) UpdateCoupon(ctx context.Context, id uint, req *UpdateRequest) (*Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	coupon, err := s.GetCoupon(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		coupon.Code = NormalizeCode(*req.Code)
	}
	if req.Amount != nil {
		coupon.Amount = *req.Amount
	}
	if req.StartDate != nil {
		coupon.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		coupon.EndDate = *req.EndDate
	}
	if !coupon.StartDate.Before(coupon.EndDate) {
		return nil, apperror.Validation("start date must be before end date")
	}

	if err := s.db.WithContext(ctx).Save(coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("coupon code already exists")
		}
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	return coupon, nil
}

// DeleteCoupon removes a coupon and its usage records
func (s *Service) DeleteCoupon(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&Coupon{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete coupon: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.NotFound("coupon not found")
		}
		if err := tx.Where("coupon_id = ?", id).Delete(&Usage{}).Error; err != nil {
			return fmt.Errorf("failed to delete coupon usages: %w", err)
		}
		return nil
	})
}

// GetCoupon retrieves a coupon by ID
func (s *Service) GetCoupon(ctx context.Context, id uint) (*Coupon, error) {
	var coupon Coupon
	if err := s.db.WithContext(ctx).First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("coupon not found")
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}
	return &coupon, nil
}

// GetCoupons lists coupons through the query pipeline
func (s *Service) GetCoupons(ctx context.Context, values url.Values) (*ListResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	coupons := []Coupon{}
	pagination, err := query.Find(s.db.WithContext(ctx).Model(&Coupon{}), s.parser.Parse(values, Schema), &coupons)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return &ListResponse{Coupons: coupons, Pagination: pagination}, nil
}

// FindByCode looks a coupon up by its normalized code
func FindByCode(tx *gorm.DB, code string) (*Coupon, error) {
	var coupon Coupon
	if err := tx.Where("code = ?", NormalizeCode(code)).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("coupon not found")
		}
		return nil, fmt.Errorf("failed to retrieve coupon: %w", err)
	}
	return &coupon, nil
}

// Redeem records the user's use of the coupon. The insert itself is the
// check: when the pair already exists nothing is written and Conflict is
// returned, so concurrent attempts yield exactly one success.
func Redeem(tx *gorm.DB, couponID, userID uint) error {
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Usage{CouponID: couponID, UserID: userID})
	if result.Error != nil {
		return fmt.Errorf("failed to record coupon usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.Conflict("coupon has already been used")
	}
	return nil
}

// Release lets the user apply the coupon again
func Release(tx *gorm.DB, couponID, userID uint) error {
	err := tx.Where("coupon_id = ? AND user_id = ?", couponID, userID).Delete(&Usage{}).Error
	if err != nil {
		return fmt.Errorf("failed to release coupon usage: %w", err)
	}
	return nil
}

// ReleaseCode is Release keyed by coupon code; unknown codes are ignored
func ReleaseCode(tx *gorm.DB, code string, userID uint) error {
	if code == "" {
		return nil
	}
	c, err := FindByCode(tx, code)
	if apperror.Is(err, apperror.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return Release(tx, c.ID, userID)
}
