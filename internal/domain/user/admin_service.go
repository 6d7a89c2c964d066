// internal/domain/user/admin_service.go
package user

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// AdminService handles cross-tenant user administration
type AdminService struct {
	db     *gorm.DB
	config *config.Config
}

// NewAdminService creates a new admin service
func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{db: db, config: cfg}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Search    string `form:"search"`
	Status    string `form:"status"` // active, inactive, all
	Role      string `form:"role"`   // customer, supplier, admin, all
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc"`
}

// UserListResponse represents user list with pagination
type UserListResponse struct {
	Users      []UserWithStats `json:"users"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// UserWithStats represents a user with order statistics
type UserWithStats struct {
	User
	OrderCount int64 `json:"order_count"`
	TotalSpent int64 `json:"total_spent"` // In cents
}

// UserStatusUpdateRequest represents user status update data
type UserStatusUpdateRequest struct {
	IsActive *bool  `json:"is_active" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// GetUsers retrieves users with filtering and pagination; admin only
func (s *AdminService) GetUsers(identity auth.Identity, req *UserListRequest) (*UserListResponse, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.Authorization("admin access required")
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&User{})

	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}

	switch req.Status {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	if req.Role != "" && req.Role != "all" {
		query = query.Where("role = ?", req.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	sortBy := req.SortBy
	validSortFields := map[string]bool{
		"created_at": true,
		"email":      true,
		"last_name":  true,
		"role":       true,
	}
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if req.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	var users []User
	offset := (req.Page - 1) * req.Limit
	err := query.
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Offset(offset).
		Limit(req.Limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	result := make([]UserWithStats, 0, len(users))
	for i := range users {
		users[i].Password = ""
		stats := UserWithStats{User: users[i]}

		err := s.db.Table("orders").
			Where("user_id = ? AND status <> ?", users[i].ID, "cancelled").
			Count(&stats.OrderCount).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count orders: %w", err)
		}
		err = s.db.Table("orders").
			Where("user_id = ? AND status <> ?", users[i].ID, "cancelled").
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&stats.TotalSpent).Error
		if err != nil {
			return nil, fmt.Errorf("failed to sum spending: %w", err)
		}

		result = append(result, stats)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &UserListResponse{
		Users:      result,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}, nil
}

// UpdateUserStatus activates or deactivates an account; admin only.
// Admins cannot deactivate themselves.
func (s *AdminService) UpdateUserStatus(identity auth.Identity, userID uint, req *UserStatusUpdateRequest) error {
	if !identity.IsAdmin() {
		return apperrors.Authorization("admin access required")
	}
	if userID == identity.UserID && req.IsActive != nil && !*req.IsActive {
		return apperrors.Validation("you cannot deactivate your own account")
	}

	var target User
	if err := s.db.First(&target, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user not found")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.db.Model(&target).Update("is_active", *req.IsActive).Error; err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return nil
}
