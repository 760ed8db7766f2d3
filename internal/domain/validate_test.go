package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "documents", false},
		{"with digits", "docs2024", false},
		{"with underscore", "my_docs", false},
		{"with hyphen", "my-docs", false},
		{"with inner space", "my docs", false},
		{"minimum length", "ab", false},
		{"maximum length", strings.Repeat("a", 44), false},
		{"empty", "", true},
		{"too short", "a", true},
		{"too long", strings.Repeat("a", 45), true},
		{"leading space", " docs", true},
		{"trailing space", "docs ", true},
		{"special characters", "docs;drop", true},
		{"dot", "my.docs", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCollectionName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCollectionName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error %v should wrap ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateDimension(t *testing.T) {
	for _, d := range []int{1, 64, 768, 4096} {
		if err := ValidateDimension(d); err != nil {
			t.Errorf("ValidateDimension(%d) = %v, want nil", d, err)
		}
	}
	for _, d := range []int{0, -5, 4097} {
		if err := ValidateDimension(d); !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("ValidateDimension(%d) = %v, want ErrInvalidDimension", d, err)
		}
	}
}

func TestValidateSearchQuery(t *testing.T) {
	if err := ValidateSearchQuery("find similar documents"); err != nil {
		t.Errorf("valid query rejected: %v", err)
	}
	if err := ValidateSearchQuery(""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty query: err = %v, want ErrInvalidInput", err)
	}
	if err := ValidateSearchQuery("  \t "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("whitespace query: err = %v, want ErrInvalidInput", err)
	}
	if err := ValidateSearchQuery(strings.Repeat("q", 1001)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("overlong query: err = %v, want ErrInvalidInput", err)
	}
}

func TestValidateLimit(t *testing.T) {
	for _, l := range []int{1, 10, 100} {
		if err := ValidateLimit(l); err != nil {
			t.Errorf("ValidateLimit(%d) = %v, want nil", l, err)
		}
	}
	for _, l := range []int{0, -1, 101} {
		if err := ValidateLimit(l); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ValidateLimit(%d) = %v, want ErrInvalidInput", l, err)
		}
	}
}

func TestParseMetadataPair(t *testing.T) {
	tests := []struct {
		input   string
		key     string
		value   any
		wantErr bool
	}{
		{"author=haruki", "author", "haruki", false},
		{"pages=42", "pages", int64(42), false},
		{"score=0.85", "score", 0.85, false},
		{"draft=true", "draft", true, false},
		{"tags=[\"a\",\"b\"]", "tags", nil, false},
		{"note=hello world", "note", "hello world", false},
		{"novalue", "", nil, true},
		{"=value", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, value, err := ParseMetadataPair(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMetadataPair(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if key != tt.key {
				t.Errorf("key = %q, want %q", key, tt.key)
			}
			// JSON array values are checked structurally
			if tt.input == "tags=[\"a\",\"b\"]" {
				arr, ok := value.([]any)
				if !ok || len(arr) != 2 {
					t.Errorf("value = %#v, want 2-element array", value)
				}
				return
			}
			if value != tt.value {
				t.Errorf("value = %#v, want %#v", value, tt.value)
			}
		})
	}
}
