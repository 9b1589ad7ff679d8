package locale

import "testing"

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantNil  bool
	}{
		{
			name:     "Brazil phone",
			phone:    "+5511987654321",
			wantCode: "BR",
		},
		{
			name:     "Brazil phone without plus",
			phone:    "5511987654321",
			wantCode: "BR",
		},
		{
			name:     "Portugal phone",
			phone:    "+351912345678",
			wantCode: "PT",
		},
		{
			name:     "US phone",
			phone:    "+12125551234",
			wantCode: "US",
		},
		{
			name:    "unknown country",
			phone:   "+442071234567",
			wantNil: true,
		},
		{
			name:    "empty phone",
			phone:   "",
			wantNil: true,
		},
		{
			name:    "not a phone",
			phone:   "hello",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want %s", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferCountryFromPhone(%q).Code = %s, want %s", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}

func TestInferTimezoneFromPhone(t *testing.T) {
	if tz := InferTimezoneFromPhone("+5511987654321"); tz != "America/Sao_Paulo" {
		t.Errorf("expected America/Sao_Paulo, got %s", tz)
	}
	if tz := InferTimezoneFromPhone("+442071234567"); tz != DefaultTimezone {
		t.Errorf("expected %s for unknown country, got %s", DefaultTimezone, tz)
	}
}
