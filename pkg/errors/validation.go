package errors

import (
	"strings"
	"unicode"
)

// MaxDPI bounds the print resolution accepted by the scaler and composer.
// A tabloid sheet at 2400 dpi is already ~1 gigapixel.
const MaxDPI = 2400

// ValidateDPI checks that dpi is a positive print resolution within MaxDPI.
func ValidateDPI(dpi int) error {
	if dpi <= 0 {
		return New(ErrCodeInvalidInput, "dpi must be a positive integer, got %d", dpi)
	}
	if dpi > MaxDPI {
		return New(ErrCodeInvalidInput, "dpi %d exceeds maximum of %d", dpi, MaxDPI)
	}
	return nil
}

// ValidatePath validates an operator-supplied file or directory path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//
// Absolute paths and parent references are allowed: stage directories are
// chosen by the operator, not by untrusted input.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateOutputPDF checks that path is a usable output document path.
func ValidateOutputPDF(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidPath, "output %q is a directory, expected a .pdf file", path)
	}
	if !strings.EqualFold(extOf(path), ".pdf") {
		return New(ErrCodeInvalidPath, "output %q must have a .pdf extension", path)
	}
	return nil
}

func extOf(path string) string {
	i := strings.LastIndexAny(path, "./")
	if i < 0 || path[i] == '/' {
		return ""
	}
	return path[i:]
}
