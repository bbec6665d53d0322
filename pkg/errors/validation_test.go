package errors

import (
	"testing"
)

func TestValidateScale(t *testing.T) {
	tests := []struct {
		name    string
		input   int
		wantErr bool
	}{
		{"one", 1, false},
		{"eight", 8, false},
		{"max", MaxScale, false},

		{"zero", 0, true},
		{"negative", -2, true},
		{"too large", MaxScale + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScale(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateScale(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidScale) {
				t.Errorf("ValidateScale(%d) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidScale)
			}
		})
	}
}

func TestValidateDir(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "cursors", false},
		{"absolute", "/tmp/out", false},
		{"dot", ".", false},

		{"empty", "", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDir(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDir(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"png", ".png", false},
		{"upper", ".PNG", false},
		{"bmp", ".bmp", false},

		{"no dot", "png", true},
		{"dot only", ".", true},
		{"empty", "", true},
		{"separator", "./png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExtension(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateExtension(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNested(t *testing.T) {
	tests := []struct {
		name    string
		in, out string
		wantErr bool
	}{
		{"siblings", "/a/in", "/a/out", false},
		{"prefix but not nested", "/a/in", "/a/input", false},

		{"same", "/a/in", "/a/in", true},
		{"nested", "/a/in", "/a/in/out", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNested(tt.in, tt.out)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNested(%q, %q) error = %v, wantErr %v", tt.in, tt.out, err, tt.wantErr)
			}
		})
	}
}
