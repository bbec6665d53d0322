package errors

import (
	"strings"
	"unicode"
)

// MaxScale bounds the scale factor so canvas coordinates stay well inside int range.
const MaxScale = 1024

// ValidateScale checks that scale is a usable uniform multiplier.
func ValidateScale(scale int) error {
	if scale < 1 {
		return New(ErrCodeInvalidScale, "scale must be >= 1, got %d", scale)
	}
	if scale > MaxScale {
		return New(ErrCodeInvalidScale, "scale too large (max %d), got %d", MaxScale, scale)
	}
	return nil
}

// ValidateDir validates a directory argument given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
func ValidateDir(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "directory cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "directory contains invalid characters")
		}
	}
	return nil
}

// ValidateExtension validates a file extension used to select images in a batch.
// Extensions must start with a dot and must not contain path separators.
func ValidateExtension(ext string) error {
	if len(ext) < 2 || ext[0] != '.' {
		return New(ErrCodeInvalidConfig, "extension must start with a dot: %q", ext)
	}
	if strings.ContainsAny(ext, "/\\") {
		return New(ErrCodeInvalidConfig, "extension cannot contain path separators: %q", ext)
	}
	return nil
}

// ValidateNested ensures that out is not inside in (or the same directory).
// Mirroring a tree into itself would convert its own output.
func ValidateNested(in, out string) error {
	if in == out {
		return New(ErrCodeInvalidPath, "input and output directories are the same: %s", in)
	}
	if strings.HasPrefix(out, strings.TrimSuffix(in, "/")+"/") {
		return New(ErrCodeInvalidPath, "output directory %s is inside input directory %s", out, in)
	}
	return nil
}
