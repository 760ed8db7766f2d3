package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	minNameLength = 2
	// maxNameLength keeps every derived SQL identifier inside Postgres's
	// 63-byte limit: "vectors_" (8) + name (44) + "_vector_idx" (11) = 63.
	// A longer name would be silently truncated by the server, and the
	// table-name collision check compares untruncated identifiers.
	maxNameLength = 44

	// MinDimension and MaxDimension bound the vector width a collection may
	// declare. pgvector indexes up to 4096 half-precision dimensions.
	MinDimension = 1
	MaxDimension = 4096

	maxQueryLength = 1000
	// MaxSearchLimit caps the number of results a single search may request.
	MaxSearchLimit = 100
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-\s]+$`)

// ValidateCollectionName checks that a collection name is safe to map onto a
// SQL identifier. Spaces and hyphens are allowed; they normalize to
// underscores in the storage table name.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidInput)
	}
	if len(name) < minNameLength {
		return fmt.Errorf("%w: collection name must be at least %d characters", ErrInvalidInput, minNameLength)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: collection name must be %d characters or less", ErrInvalidInput, maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name may only contain letters, digits, underscores, hyphens, and spaces", ErrInvalidInput)
	}
	if strings.HasPrefix(name, " ") || strings.HasSuffix(name, " ") {
		return fmt.Errorf("%w: collection name cannot start or end with a space", ErrInvalidInput)
	}
	return nil
}

// ValidateDimension checks that a vector dimension is within supported bounds.
func ValidateDimension(dimension int) error {
	if dimension < MinDimension || dimension > MaxDimension {
		return fmt.Errorf("%w: dimension must be between %d and %d, got %d",
			ErrInvalidDimension, MinDimension, MaxDimension, dimension)
	}
	return nil
}

// ValidateSearchQuery checks that a query string is non-empty and bounded.
func ValidateSearchQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query cannot be empty", ErrInvalidInput)
	}
	if len(query) > maxQueryLength {
		return fmt.Errorf("%w: search query cannot exceed %d characters", ErrInvalidInput, maxQueryLength)
	}
	return nil
}

// ValidateLimit checks a result limit against MaxSearchLimit.
func ValidateLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("%w: limit must be a positive integer", ErrInvalidInput)
	}
	if limit > MaxSearchLimit {
		return fmt.Errorf("%w: limit cannot exceed %d", ErrInvalidInput, MaxSearchLimit)
	}
	return nil
}

// ParseMetadataPair parses a CLI "key=value" metadata argument. Values that
// look like JSON literals, integers, or floats are decoded; everything else
// stays a string.
func ParseMetadataPair(pair string) (string, any, error) {
	key, raw, ok := strings.Cut(pair, "=")
	if !ok {
		return "", nil, fmt.Errorf("%w: metadata must be key=value, got %q", ErrInvalidInput, pair)
	}
	key = strings.TrimSpace(key)
	raw = strings.TrimSpace(raw)
	if key == "" {
		return "", nil, fmt.Errorf("%w: metadata key cannot be empty", ErrInvalidInput)
	}

	switch {
	case strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "["),
		raw == "true", raw == "false", raw == "null":
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			return key, decoded, nil
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return key, n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return key, f, nil
	}
	return key, raw, nil
}
