// internal/domain/upload/entity.go
package upload

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// UploadedFile represents a stored product image
type UploadedFile struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OriginalName string         `gorm:"not null;size:255" json:"original_name"`
	Filename     string         `gorm:"not null;size:255;uniqueIndex" json:"filename"`
	Path         string         `gorm:"not null;size:500" json:"path"`
	URL          string         `gorm:"not null;size:500" json:"url"`
	MimeType     string         `gorm:"not null;size:100" json:"mime_type"`
	Size         int64          `gorm:"not null" json:"size"`
	UploadedBy   uint           `gorm:"not null;index" json:"uploaded_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for UploadedFile
func (UploadedFile) TableName() string {
	return "uploaded_files"
}

// GetFormattedSize returns human-readable file size
func (f *UploadedFile) GetFormattedSize() string {
	const unit = 1024
	if f.Size < unit {
		return fmt.Sprintf("%d B", f.Size)
	}

	div, exp := int64(unit), 0
	for n := f.Size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(f.Size)/float64(div), "KMGTPE"[exp])
}
