package validator

import (
	"testing"

	"clinicops/pkg/model"
)

func TestValidateChannelInput(t *testing.T) {
	v := NewChannelValidator()

	tests := []struct {
		name      string
		input     *model.ChannelInput
		wantError bool
	}{
		{
			name: "valid input",
			input: &model.ChannelInput{
				Name:      "Google Ads",
				Budget:    1500,
				UpdatedBy: 3,
			},
			wantError: false,
		},
		{
			name: "missing name",
			input: &model.ChannelInput{
				Budget:    1500,
				UpdatedBy: 3,
			},
			wantError: true,
		},
		{
			name: "name too short",
			input: &model.ChannelInput{
				Name:      "g",
				UpdatedBy: 3,
			},
			wantError: true,
		},
		{
			name: "punctuation-only name",
			input: &model.ChannelInput{
				Name:      "!!!",
				UpdatedBy: 3,
			},
			wantError: true,
		},
		{
			name: "missing updated by",
			input: &model.ChannelInput{
				Name:   "Instagram",
				Budget: 200,
			},
			wantError: true,
		},
		{
			name: "negative budget",
			input: &model.ChannelInput{
				Name:      "Instagram",
				Budget:    -1,
				UpdatedBy: 3,
			},
			wantError: true,
		},
		{
			name: "malformed id",
			input: &model.ChannelInput{
				ID:        "not-an-object-id",
				Name:      "Instagram",
				UpdatedBy: 3,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateBudget(t *testing.T) {
	v := NewChannelValidator()

	if err := v.ValidateBudget(0); err != nil {
		t.Errorf("ValidateBudget(0) error = %v, want nil", err)
	}
	if err := v.ValidateBudget(99.5); err != nil {
		t.Errorf("ValidateBudget(99.5) error = %v, want nil", err)
	}
	if err := v.ValidateBudget(-0.01); err == nil {
		t.Error("ValidateBudget(-0.01) error = nil, want error")
	}
}
