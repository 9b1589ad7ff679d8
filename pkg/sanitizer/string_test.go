package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Clínica Vida  ",
			want:  "Clínica Vida",
		},
		{
			name:  "multiple spaces between words",
			input: "Clínica    Vida",
			want:  "Clínica Vida",
		},
		{
			name:  "tabs and newlines",
			input: "Clínica\t\nVida",
			want:  "Clínica Vida",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve accents",
			input: " Ressonância Magnética ",
			want:  "Ressonância Magnética",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeChannelLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase and trim",
			input: "  Google Ads  ",
			want:  "google ads",
		},
		{
			name:  "strip punctuation",
			input: "Insta-gram!",
			want:  "instagram",
		},
		{
			name:  "collapse inner whitespace",
			input: "face \t book",
			want:  "face book",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeChannelLabel(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeChannelLabel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already E164",
			input: "+5511987654321",
			want:  "+5511987654321",
		},
		{
			name:  "formatted brazilian mobile",
			input: "+55 (11) 98765-4321",
			want:  "+5511987654321",
		},
		{
			name:  "portuguese number with spaces",
			input: "+351 912 345 678",
			want:  "+351912345678",
		},
		{
			name:  "not a phone",
			input: "call me",
			want:  "callme",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePhone(tt.input)
			if got != tt.want {
				t.Errorf("SanitizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeMoney(t *testing.T) {
	if got := NormalizeMoney(-10); got != 0 {
		t.Errorf("NormalizeMoney(-10) = %v, want 0", got)
	}
	if got := NormalizeMoney(99.9); got != 99.9 {
		t.Errorf("NormalizeMoney(99.9) = %v, want 99.9", got)
	}
}
