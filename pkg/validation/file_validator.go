package validation

import (
	"net/http"
	"path/filepath"
	"strings"

	apperrors "go-image-gallery/internal/errors"
)

// FileValidator handles upload validation logic
type FileValidator struct {
	allowedExtensions []string
	maxSize           int64
}

// NewFileValidator creates a file validator with default settings
func NewFileValidator(maxSize int64) *FileValidator {
	return &FileValidator{
		allowedExtensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff"},
		maxSize:           maxSize,
	}
}

// NewFileValidatorWithOptions creates a file validator with custom options
func NewFileValidatorWithOptions(extensions []string, maxSize int64) *FileValidator {
	return &FileValidator{
		allowedExtensions: extensions,
		maxSize:           maxSize,
	}
}

// ValidateUpload validates an uploaded file's name, size and sniffed content
func (v *FileValidator) ValidateUpload(filename string, data []byte) error {
	if strings.TrimSpace(filename) == "" {
		return apperrors.NewValidationError("Filename cannot be empty", nil)
	}
	if len(data) == 0 {
		return apperrors.NewValidationError("File is empty", nil)
	}
	if v.maxSize > 0 && int64(len(data)) > v.maxSize {
		return apperrors.NewValidationError("File too large", nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !v.isExtensionAllowed(ext) {
		return apperrors.NewValidationError("Unsupported file type", nil)
	}

	// Content sniffing catches renamed non-images.
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return apperrors.NewValidationError("File content is not an image", nil)
	}

	return nil
}

// isExtensionAllowed checks if the extension is in the allowed list
func (v *FileValidator) isExtensionAllowed(ext string) bool {
	for _, allowed := range v.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
