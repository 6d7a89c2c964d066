// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/domain/store"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// RegisterRequest represents customer registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Phone           string `json:"phone"`
}

// RegisterSupplierRequest registers a supplier together with their store
type RegisterSupplierRequest struct {
	RegisterRequest
	StoreName        string `json:"store_name" binding:"required"`
	StoreDescription string `json:"store_description"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ProfilePatch carries optional profile updates. Nil fields are left
// untouched.
type ProfilePatch struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// Columns translates the patch into a column assignment map
func (p ProfilePatch) Columns() map[string]interface{} {
	columns := map[string]interface{}{}
	if p.FirstName != nil {
		columns["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		columns["last_name"] = *p.LastName
	}
	if p.Phone != nil {
		columns["phone"] = *p.Phone
	}
	return columns
}

// Register creates a new customer account
func (s *Service) Register(req *RegisterRequest) (*AuthResponse, error) {
	newUser, err := s.createUser(s.db, req, RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(newUser)
}

// RegisterSupplier creates a supplier account and their store in a
// single transaction: either both rows exist afterwards, or neither.
func (s *Service) RegisterSupplier(req *RegisterSupplierRequest) (*AuthResponse, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	newUser, err := s.createUser(tx, &req.RegisterRequest, RoleSupplier)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	newStore := store.Store{
		OwnerID:     newUser.ID,
		Name:        req.StoreName,
		Slug:        store.Slugify(req.StoreName, newUser.ID),
		Description: req.StoreDescription,
		IsActive:    true,
	}
	if err := tx.Create(&newStore).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit supplier registration: %w", err)
	}

	return s.issueTokens(newUser)
}

// createUser inserts a user row after uniqueness and password checks
func (s *Service) createUser(db *gorm.DB, req *RegisterRequest, role string) (*User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apperrors.Validation("passwords do not match")
	}

	var existing User
	err := db.Where("email = ?", strings.ToLower(req.Email)).First(&existing).Error
	if err == nil {
		return nil, apperrors.Conflict("user with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	newUser := User{
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(&newUser).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &newUser, nil
}

// issueTokens generates the token pair and stamps the last login
func (s *Service) issueTokens(u *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID, u.Email, auth.Role(u.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now().UTC()
	u.LastLoginAt = &now
	s.db.Model(u).Update("last_login_at", now)

	// Clear password from response
	u.Password = ""

	return &AuthResponse{
		User:         u,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

// Login authenticates a user. Deactivated accounts cannot log in.
func (s *Service) Login(req *LoginRequest) (*AuthResponse, error) {
	var u User
	result := s.db.Where("email = ? AND is_active = ?", strings.ToLower(req.Email), true).First(&u)
	if result.Error != nil {
		return nil, apperrors.Authorization("invalid email or password")
	}

	if err := s.passwordManager.VerifyPassword(req.Password, u.Password); err != nil {
		return nil, apperrors.Authorization("invalid email or password")
	}

	return s.issueTokens(&u)
}

// RefreshToken generates new tokens using a refresh token. The role is
// re-read from the database so revoked suppliers lose access on refresh.
func (s *Service) RefreshToken(refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Authorization("invalid refresh token")
	}

	var u User
	result := s.db.Where("id = ? AND is_active = ?", claims.UserID, true).First(&u)
	if result.Error != nil {
		return nil, apperrors.Authorization("user not found or inactive")
	}

	return s.issueTokens(&u)
}

// GetProfile gets user profile by ID
func (s *Service) GetProfile(identity auth.Identity) (*User, error) {
	var u User
	result := s.db.Preload("Addresses").Where("id = ? AND is_active = ?", identity.UserID, true).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", result.Error)
	}

	u.Password = ""
	return &u, nil
}

// UpdateProfile applies a partial profile update
func (s *Service) UpdateProfile(identity auth.Identity, patch *ProfilePatch) (*User, error) {
	columns := patch.Columns()
	if len(columns) == 0 {
		return nil, apperrors.Validation("no fields to update")
	}

	result := s.db.Model(&User{}).Where("id = ?", identity.UserID).Updates(columns)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("user not found")
	}

	return s.GetProfile(identity)
}

// ChangePassword verifies the current password and sets a new one
func (s *Service) ChangePassword(identity auth.Identity, currentPassword, newPassword string) error {
	var u User
	if err := s.db.First(&u, identity.UserID).Error; err != nil {
		return apperrors.NotFound("user not found")
	}

	if err := s.passwordManager.VerifyPassword(currentPassword, u.Password); err != nil {
		return apperrors.Authorization("current password is incorrect")
	}

	hashed, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return apperrors.Validation("%v", err)
	}

	if err := s.db.Model(&u).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ForgotPassword creates a single-use reset token. The token is
// returned to the caller for delivery by a trusted frontend; no email
// is sent. To avoid account enumeration, an unknown email reports
// success with an empty token.
func (s *Service) ForgotPassword(email string) (string, error) {
	var u User
	err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return "", err
	}

	reset := PasswordResetToken{
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.config.Security.ResetTokenExpiry),
	}
	if err := s.db.Create(&reset).Error; err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}
	return token, nil
}

// ResetPassword consumes a reset token and sets the new password
func (s *Service) ResetPassword(token, newPassword string) error {
	var reset PasswordResetToken
	err := s.db.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, time.Now().UTC()).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Validation("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	hashed, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return apperrors.Validation("%v", err)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Model(&User{}).Where("id = ?", reset.UserID).Update("password", hashed).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update password: %w", err)
	}

	now := time.Now().UTC()
	if err := tx.Model(&reset).Update("used_at", now).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	return tx.Commit().Error
}

// Deactivate soft-disables the acting user's account
func (s *Service) Deactivate(identity auth.Identity) error {
	result := s.db.Model(&User{}).Where("id = ?", identity.UserID).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// GetUserByEmail finds an active user by email
func (s *Service) GetUserByEmail(email string) (*User, error) {
	var u User
	err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	u.Password = ""
	return &u, nil
}

