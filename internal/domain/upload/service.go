// internal/domain/upload/service.go
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/marketplace-backend/internal/config"
	"github.com/your-org/marketplace-backend/internal/pkg/apperrors"
	"github.com/your-org/marketplace-backend/internal/pkg/auth"
)

// Service handles product image uploads
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new upload service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// SaveImage validates and stores an uploaded image, returning its
// public URL record
func (s *Service) SaveImage(identity auth.Identity, file multipart.File, header *multipart.FileHeader) (*UploadedFile, error) {
	if err := s.validateFile(header); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.NewString() + ext
	fullPath := filepath.Join(s.config.Upload.Dir, filename)

	if err := os.MkdirAll(s.config.Upload.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	uploaded := UploadedFile{
		OriginalName: header.Filename,
		Filename:     filename,
		Path:         fullPath,
		URL:          s.config.Upload.PublicBasePath + "/" + filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		UploadedBy:   identity.UserID,
	}
	if err := s.db.Create(&uploaded).Error; err != nil {
		os.Remove(fullPath)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	return &uploaded, nil
}

// GetMyUploads lists the acting user's uploads newest first
func (s *Service) GetMyUploads(identity auth.Identity) ([]UploadedFile, error) {
	var files []UploadedFile
	err := s.db.Where("uploaded_by = ?", identity.UserID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve uploads: %w", err)
	}
	return files, nil
}

// DeleteUpload removes an upload record and its file from disk
func (s *Service) DeleteUpload(identity auth.Identity, id uint) error {
	var uploaded UploadedFile
	err := s.db.First(&uploaded, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("upload not found")
	}
	if err != nil {
		return fmt.Errorf("failed to load upload: %w", err)
	}
	if uploaded.UploadedBy != identity.UserID && !identity.IsAdmin() {
		return apperrors.Authorization("you can only delete your own uploads")
	}

	if err := s.db.Delete(&uploaded).Error; err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}

	// The record is authoritative; a missing file on disk is not an error
	if err := os.Remove(uploaded.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (s *Service) validateFile(header *multipart.FileHeader) error {
	if header.Size > s.config.Upload.MaxSize {
		return apperrors.Validation("file exceeds the %d byte limit", s.config.Upload.MaxSize)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	for _, allowed := range s.config.Upload.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return apperrors.Validation("file type %q is not allowed", ext)
}
