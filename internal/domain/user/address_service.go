// internal/domain/user/address_service.go
package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopcore/ecommerce-backend/internal/config"
	"github.com/shopcore/ecommerce-backend/internal/domain/order"
	"github.com/shopcore/ecommerce-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// maxAddresses caps how many addresses a user may save
const maxAddresses = 10

// AddressService handles user address operations
type AddressService struct {
	db     *gorm.DB
	config *config.Config
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, cfg *config.Config) *AddressService {
	return &AddressService{
		db:     db,
		config: cfg,
	}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	order.Address
	IsDefault bool `json:"is_default"`
}

// UpdateAddressRequest represents address update data
type UpdateAddressRequest struct {
	City           *string `json:"city" binding:"omitempty,min=1"`
	State          *string `json:"state" binding:"omitempty,min=1"`
	Street         *string `json:"street" binding:"omitempty,min=1"`
	BuildingNumber *string `json:"building_number" binding:"omitempty,min=1"`
	FlatNumber     *string `json:"flat_number" binding:"omitempty,min=1"`
	ZipCode        *string `json:"zip_code" binding:"omitempty,min=1"`
}

// GetUserAddresses lists a user's addresses, default first
func (s *AddressService) GetUserAddresses(ctx context.Context, userID uint) ([]Address, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()
	return listAddresses(s.db.WithContext(ctx), userID)
}

// GetAddress retrieves one of the user's addresses
func (s *AddressService) GetAddress(ctx context.Context, userID, addressID uint) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()
	return findAddress(s.db.WithContext(ctx), userID, addressID)
}

// CreateAddress saves a new address. The first address becomes the default.
func (s *AddressService) CreateAddress(ctx context.Context, userID uint, req *CreateAddressRequest) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	address := Address{UserID: userID, Address: req.Address, IsDefault: req.IsDefault}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count addresses: %w", err)
		}
		if count >= maxAddresses {
			return apperror.Validationf("a user can save at most %d addresses", maxAddresses)
		}
		if count == 0 {
			address.IsDefault = true
		}

		if address.IsDefault {
			if err := unsetDefaultAddresses(tx, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// UpdateAddress updates an existing address
func (s *AddressService) UpdateAddress(ctx context.Context, userID, addressID uint, req *UpdateAddressRequest) (*Address, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	db := s.db.WithContext(ctx)
	address, err := findAddress(db, userID, addressID)
	if err != nil {
		return nil, err
	}

	// Build updates map
	updates := make(map[string]interface{})
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.Street != nil {
		updates["street"] = *req.Street
	}
	if req.BuildingNumber != nil {
		updates["building_number"] = *req.BuildingNumber
	}
	if req.FlatNumber != nil {
		updates["flat_number"] = *req.FlatNumber
	}
	if req.ZipCode != nil {
		updates["zip_code"] = *req.ZipCode
	}
	if len(updates) == 0 {
		return address, nil
	}

	if err := db.Model(address).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return findAddress(db, userID, addressID)
}

// DeleteAddress deletes an address. When the default goes, the oldest
// remaining address takes its place.
func (s *AddressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := findAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := tx.Delete(address).Error; err != nil {
			return fmt.Errorf("failed to delete address: %w", err)
		}
		if !address.IsDefault {
			return nil
		}

		var next Address
		err = tx.Where("user_id = ?", userID).Order("id ASC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to retrieve address: %w", err)
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
}

// SetDefaultAddress makes the address the one used at checkout
func (s *AddressService) SetDefaultAddress(ctx context.Context, userID, addressID uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Database)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := findAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		if err := unsetDefaultAddresses(tx, userID); err != nil {
			return err
		}
		if err := tx.Model(address).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		return nil
	})
}

func listAddresses(db *gorm.DB, userID uint) ([]Address, error) {
	addresses := []Address{}
	if err := db.Where("user_id = ?", userID).Order("is_default DESC, id ASC").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve addresses: %w", err)
	}
	return addresses, nil
}

func findAddress(db *gorm.DB, userID, addressID uint) (*Address, error) {
	var address Address
	if err := db.Where("id = ? AND user_id = ?", addressID, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("address not found")
		}
		return nil, fmt.Errorf("failed to retrieve address: %w", err)
	}
	return &address, nil
}

// unsetDefaultAddresses removes the default flag from all of a user's addresses
func unsetDefaultAddresses(tx *gorm.DB, userID uint) error {
	err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}
	return nil
}
