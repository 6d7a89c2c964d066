// internal/domain/user/address_service.go
package user

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// AddressService handles address book operations
type AddressService struct {
	db     *gorm.DB
	config *config.Config
}

// NewAddressService creates a new address service
func NewAddressService(db *gorm.DB, cfg *config.Config) *AddressService {
	return &AddressService{db: db, config: cfg}
}

// CreateAddressRequest represents address creation data
type CreateAddressRequest struct {
	Label     string `json:"label"`
	Recipient string `json:"recipient"`
	Street    string `json:"street" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Phone     string `json:"phone" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

// AddressPatch carries optional address updates
type AddressPatch struct {
	Label     *string `json:"label"`
	Recipient *string `json:"recipient"`
	Street    *string `json:"street"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	ZipCode   *string `json:"zip_code"`
	Phone     *string `json:"phone"`
}

// Columns translates the patch into a column assignment map
func (p AddressPatch) Columns() map[string]interface{} {
	columns := map[string]interface{}{}
	if p.Label != nil {
		columns["label"] = *p.Label
	}
	if p.Recipient != nil {
		columns["recipient"] = *p.Recipient
	}
	if p.Street != nil {
		columns["street"] = *p.Street
	}
	if p.City != nil {
		columns["city"] = *p.City
	}
	if p.State != nil {
		columns["state"] = *p.State
	}
	if p.ZipCode != nil {
		columns["zip_code"] = *p.ZipCode
	}
	if p.Phone != nil {
		columns["phone"] = *p.Phone
	}
	return columns
}

// GetAddresses lists the acting user's saved addresses, default first
func (s *AddressService) GetAddresses(identity auth.Identity) ([]Address, error) {
	var addresses []Address
	err := s.db.
		Where("user_id = ?", identity.UserID).
		Order("is_default DESC, created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load addresses: %w", err)
	}
	return addresses, nil
}

// GetAddress loads one address owned by the acting user
func (s *AddressService) GetAddress(identity auth.Identity, addressID uint) (*Address, error) {
	var address Address
	err := s.db.Where("id = ? AND user_id = ?", addressID, identity.UserID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("address not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load address: %w", err)
	}
	return &address, nil
}

// CreateAddress adds an address to the user's book. Marking it default
// unsets the previous default in the same transaction.
func (s *AddressService) CreateAddress(identity auth.Identity, req *CreateAddressRequest) (*Address, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if req.IsDefault {
		if err := s.unsetDefault(tx, identity.UserID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	address := Address{
		UserID:    identity.UserID,
		Label:     req.Label,
		Recipient: req.Recipient,
		Street:    req.Street,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Phone:     req.Phone,
		IsDefault: req.IsDefault,
	}
	if err := tx.Create(&address).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &address, nil
}

// UpdateAddress applies a partial update to an owned address
func (s *AddressService) UpdateAddress(identity auth.Identity, addressID uint, patch *AddressPatch) (*Address, error) {
	address, err := s.GetAddress(identity, addressID)
	if err != nil {
		return nil, err
	}

	columns := patch.Columns()
	if len(columns) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}

	if err := s.db.Model(address).Updates(columns).Error; err != nil {
		return nil, fmt.Errorf("failed to update address: %w", err)
	}
	return s.GetAddress(identity, addressID)
}

// DeleteAddress removes an owned address
func (s *AddressService) DeleteAddress(identity auth.Identity, addressID uint) error {
	address, err := s.GetAddress(identity, addressID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(address).Error; err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	return nil
}

// SetDefaultAddress marks an owned address as the default
func (s *AddressService) SetDefaultAddress(identity auth.Identity, addressID uint) error {
	address, err := s.GetAddress(identity, addressID)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.unsetDefault(tx, identity.UserID); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(address).Update("is_default", true).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to set default address: %w", err)
	}
	return tx.Commit().Error
}

func (s *AddressService) unsetDefault(tx *gorm.DB, userID uint) error {
	err := tx.Model(&Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
	if err != nil {
		return fmt.Errorf("failed to unset default addresses: %w", err)
	}
	return nil
}
